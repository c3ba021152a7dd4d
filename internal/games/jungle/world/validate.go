package world

import (
	"fmt"
)

// ValidationError contains details about validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks the level invariants. A world that fails validation must
// not be played.
// Checks:
//   - Positive dimensions, non-negative time limit
//   - Start, exit, collectibles and doors lie in bounds and off obstacles
//   - Collectible and door IDs are unique and kinds are known
//   - Keyed doors reference an existing key
func (w *World) Validate() error {
	if w == nil {
		return ValidationError{Code: "NIL_WORLD", Message: "world is nil"}
	}
	if w.Width <= 0 || w.Height <= 0 {
		return ValidationError{
			Code:    "INVALID_SIZE",
			Message: fmt.Sprintf("grid must be positive, got %dx%d", w.Width, w.Height),
		}
	}
	if w.TimeLimitSeconds < 0 {
		return ValidationError{
			Code:    "INVALID_TIME_LIMIT",
			Message: fmt.Sprintf("time limit must not be negative, got %d", w.TimeLimitSeconds),
		}
	}

	if err := w.checkPlaced("start", w.Start); err != nil {
		return err
	}
	if err := w.checkPlaced("exit", w.Exit); err != nil {
		return err
	}
	for t := range w.Obstacles {
		if w.Obstacles[t] && !w.InBounds(t) {
			return ValidationError{
				Code:    "OUT_OF_BOUNDS",
				Message: fmt.Sprintf("obstacle at %s is outside the %dx%d grid", t, w.Width, w.Height),
			}
		}
	}

	if err := w.validateCollectibles(); err != nil {
		return err
	}
	return w.validateDoors()
}

func (w *World) checkPlaced(what string, t Tile) error {
	if !w.InBounds(t) {
		return ValidationError{
			Code:    "OUT_OF_BOUNDS",
			Message: fmt.Sprintf("%s at %s is outside the %dx%d grid", what, t, w.Width, w.Height),
		}
	}
	if w.IsObstacle(t) {
		return ValidationError{
			Code:    "ON_OBSTACLE",
			Message: fmt.Sprintf("%s at %s is an obstacle", what, t),
		}
	}
	return nil
}

func (w *World) validateCollectibles() error {
	seen := make(map[string]bool, len(w.Collectibles))
	for _, c := range w.Collectibles {
		if c.ID == "" {
			return ValidationError{Code: "MISSING_ID", Message: fmt.Sprintf("collectible at %s has no id", c.Tile)}
		}
		if seen[c.ID] {
			return ValidationError{Code: "DUPLICATE_ID", Message: fmt.Sprintf("collectible id %q is used twice", c.ID)}
		}
		seen[c.ID] = true
		if !c.Kind.Valid() {
			return ValidationError{Code: "INVALID_KIND", Message: fmt.Sprintf("collectible %q has unknown kind %q", c.ID, c.Kind)}
		}
		if err := w.checkPlaced("collectible "+c.ID, c.Tile); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) validateDoors() error {
	keys := make(map[string]bool)
	for _, c := range w.Collectibles {
		if c.Kind == KindKey {
			keys[c.ID] = true
		}
	}

	seen := make(map[string]bool, len(w.Doors))
	for _, d := range w.Doors {
		if d.ID == "" {
			return ValidationError{Code: "MISSING_ID", Message: fmt.Sprintf("door at %s has no id", d.Tile)}
		}
		if seen[d.ID] {
			return ValidationError{Code: "DUPLICATE_ID", Message: fmt.Sprintf("door id %q is used twice", d.ID)}
		}
		seen[d.ID] = true
		if err := w.checkPlaced("door "+d.ID, d.Tile); err != nil {
			return err
		}
		if d.RequiredKey != "" && !keys[d.RequiredKey] {
			return ValidationError{
				Code:    "UNKNOWN_KEY",
				Message: fmt.Sprintf("door %q requires key %q which is not in the level", d.ID, d.RequiredKey),
			}
		}
	}
	return nil
}

package sim

import (
	"maps"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// State is the mutable progress of one level attempt.
type State struct {
	Player        world.Tile
	Collected     map[string]bool
	DoorOpen      map[string]bool
	Score         int
	KeysCollected int
	// Remaining is the countdown in whole seconds. Zero on untimed levels.
	Remaining int
	Complete  bool
}

// NewState returns the initial state for w.
func NewState(w *world.World) State {
	s := State{
		Player:    w.Start,
		Collected: make(map[string]bool, len(w.Collectibles)),
		DoorOpen:  make(map[string]bool, len(w.Doors)),
		Remaining: w.TimeLimitSeconds,
	}
	for _, c := range w.Collectibles {
		s.Collected[c.ID] = false
	}
	for _, d := range w.Doors {
		s.DoorOpen[d.ID] = d.InitiallyOpen
	}
	return s
}

// Clone creates a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Collected = maps.Clone(s.Collected)
	c.DoorOpen = maps.Clone(s.DoorOpen)
	if c.Collected == nil {
		c.Collected = map[string]bool{}
	}
	if c.DoorOpen == nil {
		c.DoorOpen = map[string]bool{}
	}
	return c
}

// Equal reports whether two states are identical.
func (s State) Equal(o State) bool {
	return s.Player == o.Player &&
		s.Score == o.Score &&
		s.KeysCollected == o.KeysCollected &&
		s.Remaining == o.Remaining &&
		s.Complete == o.Complete &&
		maps.Equal(s.Collected, o.Collected) &&
		maps.Equal(s.DoorOpen, o.DoorOpen)
}

// CollectedCount returns how many items have been picked up.
func (s State) CollectedCount() int {
	n := 0
	for _, v := range s.Collected {
		if v {
			n++
		}
	}
	return n
}

// allRequiredCollected reports whether every coin and fruit is collected.
func (s State) allRequiredCollected(w *world.World) bool {
	for _, c := range w.Collectibles {
		if c.Kind.Required() && !s.Collected[c.ID] {
			return false
		}
	}
	return true
}

// blockedBy returns why t cannot be entered, or "" when it can.
func (s State) blockedBy(w *world.World, t world.Tile) string {
	if !w.InBounds(t) {
		return ReasonOutOfBounds
	}
	if w.IsObstacle(t) {
		return ReasonObstacle
	}
	if d, ok := w.DoorAt(t); ok && !s.DoorOpen[d.ID] {
		return ReasonDoorClosed
	}
	return ""
}

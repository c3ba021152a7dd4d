package sim

import (
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Outcome classifies what a command did.
type Outcome string

const (
	OutcomeMoved   Outcome = "moved"
	OutcomeBlocked Outcome = "blocked"
	OutcomeWaited  Outcome = "waited"
	OutcomeIgnored Outcome = "ignored"
)

// Reasons attached to blocked and ignored outcomes.
const (
	ReasonOutOfBounds = "out_of_bounds"
	ReasonObstacle    = "obstacle"
	ReasonDoorClosed  = "door_closed"
	ReasonComplete    = "complete"
	ReasonTimeExpired = "time_expired"
	ReasonUnknown     = "unknown_command"
)

// MoveResult reports the effect of one command.
type MoveResult struct {
	Outcome   Outcome
	Reason    string
	Collected []string
	Events    []Event
}

// Moved reports whether the player changed tile.
func (r MoveResult) Moved() bool {
	return r.Outcome == OutcomeMoved
}

// Transition applies cmd to s under the default rules.
// It is pure: s is not modified and the returned state shares no maps with it.
func Transition(w *world.World, s State, cmd command.Command) (State, []Event) {
	next, res := DefaultRules().apply(w, s, cmd)
	return next, res.Events
}

// Transition applies cmd to s under r.
func (r Rules) Transition(w *world.World, s State, cmd command.Command) (State, []Event) {
	next, res := r.normalized().apply(w, s, cmd)
	return next, res.Events
}

func (r Rules) apply(w *world.World, s State, cmd command.Command) (State, MoveResult) {
	if s.Complete {
		return s, ignored(s, cmd, ReasonComplete)
	}
	if dir, ok := cmd.Dir(); ok {
		return r.applyMove(w, s, dir)
	}
	if cmd.IsWait() {
		return s, MoveResult{
			Outcome: OutcomeWaited,
			Events:  []Event{{Kind: EventWaited, Tile: s.Player, Command: cmd.String()}},
		}
	}
	return s, ignored(s, cmd, ReasonUnknown)
}

func ignored(s State, cmd command.Command, reason string) MoveResult {
	return MoveResult{
		Outcome: OutcomeIgnored,
		Reason:  reason,
		Events:  []Event{{Kind: EventIgnored, Tile: s.Player, Command: cmd.String(), Reason: reason}},
	}
}

// applyMove runs the move pipeline:
//  1. Blocked by bounds, obstacle or closed door: state unchanged
//  2. Commit the new tile
//  3. Pick up every uncollected item on the tile
//  4. Open doors for each key picked up
//  5. Complete on the exit once every coin and fruit is collected
func (r Rules) applyMove(w *world.World, s State, dir world.Dir) (State, MoveResult) {
	target := s.Player.Step(dir)
	if reason := s.blockedBy(w, target); reason != "" {
		return s, MoveResult{
			Outcome: OutcomeBlocked,
			Reason:  reason,
			Events: []Event{{
				Kind:   EventBlocked,
				Tile:   target,
				Dir:    dir.String(),
				Reason: reason,
			}},
		}
	}

	next := s.Clone()
	next.Player = target
	res := MoveResult{
		Outcome: OutcomeMoved,
		Events:  []Event{{Kind: EventMoved, Tile: target, Dir: dir.String()}},
	}

	var keys []string
	for _, c := range w.CollectiblesAt(target) {
		if next.Collected[c.ID] {
			continue
		}
		next.Collected[c.ID] = true
		pts := r.Points(c.Kind)
		next.Score += pts
		if c.Kind == world.KindKey {
			next.KeysCollected++
			keys = append(keys, c.ID)
		}
		res.Collected = append(res.Collected, c.ID)
		res.Events = append(res.Events, Event{
			Kind:     EventCollected,
			Tile:     target,
			ItemID:   c.ID,
			ItemKind: c.Kind,
			Points:   pts,
		})
	}

	for _, key := range keys {
		for _, d := range w.Doors {
			if next.DoorOpen[d.ID] || !r.opens(key, d) {
				continue
			}
			next.DoorOpen[d.ID] = true
			res.Events = append(res.Events, Event{Kind: EventDoorOpened, Tile: d.Tile, ItemID: d.ID})
		}
	}

	if target == w.Exit && next.allRequiredCollected(w) {
		next.Complete = true
		res.Events = append(res.Events, Event{Kind: EventLevelComplete, Tile: target})
	}

	return next, res
}

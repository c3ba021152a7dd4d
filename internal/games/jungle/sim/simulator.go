// Package sim is the jungle game engine: the level state and the only code
// allowed to change it.
//
// Every operation runs to completion and either produces a new consistent
// state or leaves the previous one untouched. The simulator is not safe for
// concurrent use; hosts serialize calls on one goroutine.
package sim

import (
	"fmt"
	"time"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Simulator owns the state of one level attempt.
type Simulator struct {
	world   *world.World
	rules   Rules
	initial State
	state   State

	// countdown bookkeeping
	carry   time.Duration // time since the last whole second was consumed
	expired bool
	grace   time.Duration // remaining grace after expiry

	attempt int
}

// New creates a simulator for w. The world is validated and copied; a
// malformed world is refused.
func New(w *world.World, rules Rules) (*Simulator, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid world: %w", err)
	}
	cw := w.Clone()
	s := &Simulator{
		world:   cw,
		rules:   rules.normalized(),
		initial: NewState(cw),
		attempt: 1,
	}
	s.state = s.initial.Clone()
	return s, nil
}

// World returns the level being played. Callers must not modify it.
func (s *Simulator) World() *world.World {
	return s.world
}

// Rules returns the rules in effect.
func (s *Simulator) Rules() Rules {
	return s.rules
}

// State returns a copy of the current state.
func (s *Simulator) State() State {
	return s.state.Clone()
}

// Complete reports whether the level has been won this attempt.
func (s *Simulator) Complete() bool {
	return s.state.Complete
}

// Expired reports whether the countdown ran out and a reset is pending.
func (s *Simulator) Expired() bool {
	return s.expired
}

// Attempt returns the 1-based attempt counter. It increases on every reset.
func (s *Simulator) Attempt() int {
	return s.attempt
}

// ApplyMove moves the player one tile in dir.
func (s *Simulator) ApplyMove(dir world.Dir) MoveResult {
	return s.Apply(command.Move(dir))
}

// Apply executes one command against the current state.
// Moves are ignored once the level is complete or while an expired
// countdown waits for its reset.
func (s *Simulator) Apply(cmd command.Command) MoveResult {
	if s.expired {
		return ignored(s.state, cmd, ReasonTimeExpired)
	}
	next, res := s.rules.apply(s.world, s.state, cmd)
	s.state = next
	return res
}

// Tick advances the countdown by dt.
//
// Whole seconds are consumed from Remaining as they elapse. When the counter
// hits zero a TimeExpired event is emitted; once the grace delay has passed
// the attempt is reset and a Reset event follows. Untimed or completed
// levels ignore ticks.
func (s *Simulator) Tick(dt time.Duration) []Event {
	if dt <= 0 || !s.world.Timed() {
		return nil
	}

	if s.expired {
		s.grace -= dt
		if s.grace > 0 {
			return nil
		}
		return s.Reset()
	}
	if s.state.Complete {
		return nil
	}

	var events []Event
	s.carry += dt
	for s.carry >= time.Second && s.state.Remaining > 0 {
		s.carry -= time.Second
		s.state.Remaining--
		events = append(events, Event{Kind: EventCountdown, Tile: s.state.Player, Points: s.state.Remaining})
	}

	if s.state.Remaining == 0 {
		s.expired = true
		s.carry = 0
		s.grace = s.rules.GraceDelay
		events = append(events, Event{Kind: EventTimeExpired, Tile: s.state.Player})
		if s.grace <= 0 {
			events = append(events, s.Reset()...)
		}
	}
	return events
}

// Reset restores the initial state of the level, whatever the current state.
func (s *Simulator) Reset() []Event {
	s.state = s.initial.Clone()
	s.carry = 0
	s.expired = false
	s.grace = 0
	s.attempt++
	return []Event{{Kind: EventReset, Tile: s.state.Player}}
}

// Initial returns a copy of the state a reset returns to.
func (s *Simulator) Initial() State {
	return s.initial.Clone()
}

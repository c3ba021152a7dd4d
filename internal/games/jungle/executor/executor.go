// Package executor paces a command queue into the simulator, one command per
// interval, so a person can follow every step.
//
// The executor has no clock of its own. The host feeds it elapsed time through
// Advance and applies the returned dispatches in order.
package executor

import (
	"errors"
	"time"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
)

// Default pacing.
const (
	DefaultInterval     = 450 * time.Millisecond
	DefaultUnknownDelay = 50 * time.Millisecond
)

var (
	// ErrBusy is returned by Run while another run is in progress.
	ErrBusy = errors.New("executor: run already in progress")
	// ErrEmptyQueue is returned by Run for a queue with no commands.
	ErrEmptyQueue = errors.New("executor: empty queue")
)

// Dispatch is one step of a run handed back to the host.
type Dispatch struct {
	Command command.Command
	Index   int
	Token   int64
	// Unknown is set for tags the executor does not understand. The host
	// reports them and moves on; they never reach the simulator.
	Unknown bool
	// Done marks the end of the run. It carries no command and is returned
	// exactly once per run, after the last command.
	Done bool
}

// Config sets the pacing of a run.
type Config struct {
	Interval     time.Duration
	UnknownDelay time.Duration
}

// DefaultConfig returns the canonical pacing.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, UnknownDelay: DefaultUnknownDelay}
}

// Executor runs at most one queue at a time.
type Executor struct {
	cfg Config

	queue   command.Queue
	pos     int
	token   int64
	running bool
	wait    time.Duration // time left before the next dispatch
}

// New creates an idle executor. Non-positive durations fall back to the
// defaults.
func New(cfg Config) *Executor {
	e := &Executor{}
	e.SetConfig(cfg)
	return e
}

// SetConfig changes the pacing. It takes effect from the next scheduled
// command.
func (e *Executor) SetConfig(cfg Config) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.UnknownDelay <= 0 {
		cfg.UnknownDelay = DefaultUnknownDelay
	}
	e.cfg = cfg
}

// Config returns the pacing in effect.
func (e *Executor) Config() Config {
	return e.cfg
}

// Run starts executing a copy of q. The first command is dispatched after
// one pacing delay.
func (e *Executor) Run(q command.Queue, token int64) error {
	if e.running {
		return ErrBusy
	}
	if len(q) == 0 {
		return ErrEmptyQueue
	}
	e.queue = q.Clone()
	e.pos = 0
	e.token = token
	e.running = true
	e.wait = e.delayFor(e.queue[0])
	return nil
}

// Advance moves the run forward by dt and returns the dispatches that came
// due, in order. A large dt may release several commands at once.
func (e *Executor) Advance(dt time.Duration) []Dispatch {
	if !e.running {
		return nil
	}
	e.wait -= dt

	var out []Dispatch
	for e.running && e.wait <= 0 {
		cmd := e.queue[e.pos]
		out = append(out, Dispatch{
			Command: cmd,
			Index:   e.pos,
			Token:   e.token,
			Unknown: !cmd.Known(),
		})
		e.pos++

		if e.pos >= len(e.queue) {
			out = append(out, Dispatch{Index: e.pos, Token: e.token, Done: true})
			e.finish()
			break
		}
		e.wait += e.delayFor(e.queue[e.pos])
	}
	return out
}

// Cancel drops the current run without a Done dispatch. It reports whether a
// run was cancelled.
func (e *Executor) Cancel() bool {
	if !e.running {
		return false
	}
	e.finish()
	return true
}

// Running reports whether a run is in progress.
func (e *Executor) Running() bool {
	return e.running
}

// Token returns the token of the current or last run.
func (e *Executor) Token() int64 {
	return e.token
}

// Progress returns how many commands of the current run were dispatched and
// the run length.
func (e *Executor) Progress() (done, total int) {
	return e.pos, len(e.queue)
}

// Current returns the index of the next command to dispatch, or -1 when idle.
func (e *Executor) Current() int {
	if !e.running {
		return -1
	}
	return e.pos
}

func (e *Executor) finish() {
	e.running = false
	e.wait = 0
}

func (e *Executor) delayFor(c command.Command) time.Duration {
	if c.Known() {
		return e.cfg.Interval
	}
	return e.cfg.UnknownDelay
}

// Package jungle wires the jungle adventure together: the simulator, the
// paced executor and the renderer, driven by one clock.
package jungle

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/render"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

var (
	// ErrStaleToken is returned when a run token is not newer than the last
	// accepted one.
	ErrStaleToken = errors.New("jungle: stale run token")
	// ErrLevelComplete is returned by Run after the level was won; reset or
	// load another level first.
	ErrLevelComplete = errors.New("jungle: level already complete")
)

// Options configures an Engine.
type Options struct {
	Rules  sim.Rules
	Pacing executor.Config
	Render render.Options
}

// DefaultOptions returns canonical rules, pacing and rendering.
func DefaultOptions() Options {
	return Options{
		Rules:  sim.DefaultRules(),
		Pacing: executor.DefaultConfig(),
		Render: render.DefaultOptions(),
	}
}

// Listener observes an engine. Calls happen synchronously on the goroutine
// driving the engine and must not call back into it.
type Listener interface {
	OnEvent(e sim.Event)
	OnSnapshot(s sim.Snapshot)
}

// Result summarizes a completed attempt.
type Result struct {
	Level    string
	Attempt  int
	Score    int
	Keys     int
	Commands int
	Elapsed  time.Duration
}

// Engine is one level attempt plus its presentation. It is not safe for
// concurrent use.
type Engine struct {
	opts Options
	sim  *sim.Simulator
	exec *executor.Executor
	rend *render.Renderer

	listeners []Listener
	lastToken int64

	// per-attempt stats
	elapsed    time.Duration
	dispatched int
	result     *Result
}

// NewEngine creates an engine for w. A malformed world is refused.
func NewEngine(w *world.World, opts Options) (*Engine, error) {
	s, err := sim.New(w, opts.Rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		opts: opts,
		sim:  s,
		exec: executor.New(opts.Pacing),
		rend: render.New(s.World(), opts.Render),
	}, nil
}

// Subscribe adds a listener.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// World returns the level being played.
func (e *Engine) World() *world.World {
	return e.sim.World()
}

// Snapshot returns the current simulation snapshot.
func (e *Engine) Snapshot() sim.Snapshot {
	return e.sim.Snapshot()
}

// Running reports whether a command run is in progress.
func (e *Engine) Running() bool {
	return e.exec.Running()
}

// Progress returns the dispatched and total command counts of the current run.
func (e *Engine) Progress() (done, total int) {
	return e.exec.Progress()
}

// LastToken returns the newest accepted run token.
func (e *Engine) LastToken() int64 {
	return e.lastToken
}

// Result returns the summary of the completed attempt, or nil.
func (e *Engine) Result() *Result {
	return e.result
}

// Renderer exposes the renderer for hosts that draw frames.
func (e *Engine) Renderer() *render.Renderer {
	return e.rend
}

// SetPacing changes the executor pacing.
func (e *Engine) SetPacing(cfg executor.Config) {
	e.opts.Pacing = cfg
	e.exec.SetConfig(cfg)
}

// Run starts executing q. The token must be greater than every previously
// accepted token so hosts can re-run an identical queue and stale requests
// are dropped. Rejections are reported to listeners as well as returned.
func (e *Engine) Run(q command.Queue, token int64) error {
	err := e.startRun(q, token)
	if err != nil {
		e.emit([]sim.Event{{Kind: sim.EventRejected, Token: token, Reason: err.Error()}})
	}
	return err
}

func (e *Engine) startRun(q command.Queue, token int64) error {
	if token <= e.lastToken {
		return fmt.Errorf("%w: %d <= %d", ErrStaleToken, token, e.lastToken)
	}
	if e.sim.Complete() {
		return ErrLevelComplete
	}
	if err := e.exec.Run(q, token); err != nil {
		return err
	}
	e.lastToken = token
	return nil
}

// NextToken returns a token newer than any accepted so far, for hosts that
// do not track their own.
func (e *Engine) NextToken() int64 {
	return e.lastToken + 1
}

// Advance moves everything forward by dt: due commands are applied in order,
// then the countdown ticks, then the renderer catches up. Listeners hear about
// each applied command separately, so a frame that releases several commands
// still produces one snapshot per move.
func (e *Engine) Advance(dt time.Duration) {
	if !e.sim.Complete() && !e.sim.Expired() {
		e.elapsed += dt
	}

	var all []sim.Event
	for _, d := range e.exec.Advance(dt) {
		var step []sim.Event
		switch {
		case d.Done:
			step = []sim.Event{{Kind: sim.EventQueueExhausted, Token: d.Token}}
		case d.Unknown:
			step = []sim.Event{{
				Kind:    sim.EventUnknownCommand,
				Command: d.Command.String(),
				Token:   d.Token,
			}}
		default:
			e.dispatched++
			step = e.sim.Apply(d.Command).Events
			e.recordResult(step)
		}
		e.emit(step)
		all = append(all, step...)
	}

	tick := e.sim.Tick(dt)
	if sim.Has(tick, sim.EventReset) {
		// The attempt restarted under the run; drop whatever is left of it.
		tick = append(e.cancelRun(), tick...)
		e.newAttempt()
	}
	e.emit(tick)
	all = append(all, tick...)

	e.rend.Observe(all)
	e.rend.Update(dt, e.sim.Snapshot(), e.exec.Running())
}

// recordResult captures the attempt summary when events complete the level.
func (e *Engine) recordResult(events []sim.Event) {
	if !sim.Has(events, sim.EventLevelComplete) {
		return
	}
	st := e.sim.State()
	e.result = &Result{
		Level:    e.sim.World().ID,
		Attempt:  e.sim.Attempt(),
		Score:    st.Score,
		Keys:     st.KeysCollected,
		Commands: e.dispatched,
		Elapsed:  e.elapsed,
	}
}

// Reset cancels any run and restarts the attempt.
func (e *Engine) Reset() {
	events := e.cancelRun()
	events = append(events, e.sim.Reset()...)
	e.newAttempt()
	e.rend.Observe(events)
	e.emit(events)
}

// LoadLevel switches to a new level. The world is validated first; on error
// the current level keeps running.
func (e *Engine) LoadLevel(w *world.World) error {
	s, err := sim.New(w, e.opts.Rules)
	if err != nil {
		return err
	}
	events := e.cancelRun()
	e.sim = s
	e.newAttempt()
	e.rend.SetWorld(s.World())
	events = append(events, sim.Event{Kind: sim.EventLevelLoaded, Tile: s.World().Start, ItemID: s.World().ID})
	e.emit(events)
	return nil
}

// Draw renders the current frame into dst.
func (e *Engine) Draw(dst *core.Screen, message string) {
	done, total := e.exec.Progress()
	e.rend.Draw(dst, e.sim.Snapshot(), render.Status{
		Running: e.exec.Running(),
		Step:    done,
		Steps:   total,
		Message: message,
	})
}

func (e *Engine) cancelRun() []sim.Event {
	if !e.exec.Cancel() {
		return nil
	}
	return []sim.Event{{Kind: sim.EventRunCancelled, Token: e.exec.Token()}}
}

func (e *Engine) newAttempt() {
	e.elapsed = 0
	e.dispatched = 0
	e.result = nil
}

// emit sends a snapshot when events changed state, then the events. Every
// event therefore reaches listeners after a snapshot that already reflects it.
func (e *Engine) emit(events []sim.Event) {
	if len(events) == 0 || len(e.listeners) == 0 {
		return
	}
	mutated := false
	for _, ev := range events {
		mutated = mutated || ev.Kind.Mutates()
	}
	if mutated {
		snap := e.sim.Snapshot()
		for _, l := range e.listeners {
			l.OnSnapshot(snap)
		}
	}
	for _, ev := range events {
		for _, l := range e.listeners {
			l.OnEvent(ev)
		}
	}
}

// Package render paints the jungle simulation for people. It keeps its own
// cosmetic state (the sliding player position, particles, shake) and only ever
// reads simulation snapshots.
package render

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Defaults for Options.
const (
	DefaultSmoothing = 0.2
	DefaultFrameRate = 60
	DefaultCellW     = 4
	DefaultCellH     = 2
)

// Phase is the coarse animation state shown to the player.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Options configures a Renderer.
type Options struct {
	// Smoothing is the fraction of the remaining distance the player sprite
	// covers per reference frame (1/FrameRate).
	Smoothing float64
	FrameRate int
	CellW     int // terminal columns per tile
	CellH     int // terminal rows per tile
	Seed      int64
}

// DefaultOptions returns the canonical renderer settings.
func DefaultOptions() Options {
	return Options{
		Smoothing: DefaultSmoothing,
		FrameRate: DefaultFrameRate,
		CellW:     DefaultCellW,
		CellH:     DefaultCellH,
	}
}

// Status is host information drawn alongside the level.
type Status struct {
	Running bool
	Step    int
	Steps   int
	Message string
}

// Renderer owns all cosmetic state for one level.
type Renderer struct {
	opts  Options
	world *world.World

	display core.Vec // player position in tiles, measured at tile centers
	phase   Phase
	clock   time.Duration

	effects []effect
	shake   time.Duration
	rng     *rand.Rand
}

// New creates a renderer for w.
func New(w *world.World, opts Options) *Renderer {
	if opts.Smoothing <= 0 || opts.Smoothing > 1 {
		opts.Smoothing = DefaultSmoothing
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.CellW < 2 {
		opts.CellW = DefaultCellW
	}
	if opts.CellH < 1 {
		opts.CellH = DefaultCellH
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &Renderer{opts: opts, rng: rand.New(rand.NewSource(seed))}
	r.SetWorld(w)
	return r
}

// SetWorld switches to a new level and drops all cosmetic state.
func (r *Renderer) SetWorld(w *world.World) {
	r.world = w
	r.display = tileCenter(w.Start)
	r.phase = PhaseIdle
	r.effects = nil
	r.shake = 0
}

// Options returns the renderer settings.
func (r *Renderer) Options() Options {
	return r.opts
}

// Phase returns the current animation phase.
func (r *Renderer) Phase() Phase {
	return r.phase
}

// Display returns the smoothed player position in tile units.
func (r *Renderer) Display() core.Vec {
	return r.display
}

// Settled reports whether the sprite has reached its tile and no effect is
// playing.
func (r *Renderer) Settled(snap sim.Snapshot) bool {
	return r.display.Sub(tileCenter(snap.Player)).Len() < 0.01 && len(r.effects) == 0 && r.shake <= 0
}

// SmoothingFor converts a per-frame smoothing factor into the factor for an
// arbitrary frame duration, so the sprite moves at the same speed whatever
// the actual frame rate.
func SmoothingFor(k float64, dt time.Duration, frameRate int) float64 {
	if dt <= 0 {
		return 0
	}
	if k >= 1 {
		return 1
	}
	frames := dt.Seconds() * float64(frameRate)
	return 1 - math.Pow(1-k, frames)
}

// Update advances cosmetic state by one frame. It is the only place the
// renderer reads the clock, and it never touches the simulation.
func (r *Renderer) Update(dt time.Duration, snap sim.Snapshot, running bool) {
	r.clock += dt

	switch {
	case snap.Complete:
		r.phase = PhaseDone
	case running:
		r.phase = PhaseRunning
	default:
		r.phase = PhaseIdle
	}

	k := SmoothingFor(r.opts.Smoothing, dt, r.opts.FrameRate)
	r.display = r.display.Approach(tileCenter(snap.Player), k)

	r.updateEffects(dt)
	if r.shake > 0 {
		r.shake -= dt
	}
}

// Observe turns simulation events into effects.
func (r *Renderer) Observe(events []sim.Event) {
	for _, e := range events {
		switch e.Kind {
		case sim.EventCollected:
			r.spawnSparkle(e.Tile, e.ItemKind)
		case sim.EventDoorOpened:
			r.spawnSparkle(e.Tile, world.KindKey)
		case sim.EventBlocked:
			r.shake = shakeDuration
		case sim.EventLevelComplete:
			r.spawnBurst(e.Tile)
		case sim.EventTimeExpired:
			r.effects = append(r.effects, effect{kind: effectFlash, ttl: flashDuration})
		case sim.EventReset, sim.EventLevelLoaded:
			r.display = tileCenter(r.world.Start)
			r.effects = nil
			r.shake = 0
		}
	}
}

func tileCenter(t world.Tile) core.Vec {
	return core.Vec{X: float64(t.X) + 0.5, Y: float64(t.Y) + 0.5}
}

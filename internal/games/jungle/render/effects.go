package render

import (
	"math"
	"time"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

// Effect durations.
const (
	sparkleDuration = 600 * time.Millisecond
	burstDuration   = 1500 * time.Millisecond
	flashDuration   = time.Second
	shakeDuration   = 200 * time.Millisecond

	burstParticles = 14
)

type effectKind int

const (
	effectSparkle effectKind = iota
	effectBurst
	effectFlash
)

type particle struct {
	pos core.Vec // tiles
	vel core.Vec // tiles per second
}

// effect is a purely visual, time-limited decoration.
type effect struct {
	kind      effectKind
	origin    core.Vec
	item      world.Kind
	age       time.Duration
	ttl       time.Duration
	particles []particle
}

// progress returns 0..1 over the effect lifetime.
func (e effect) progress() float64 {
	if e.ttl <= 0 {
		return 1
	}
	return core.ClampF(float64(e.age)/float64(e.ttl), 0, 1)
}

func (r *Renderer) spawnSparkle(t world.Tile, kind world.Kind) {
	r.effects = append(r.effects, effect{
		kind:   effectSparkle,
		origin: tileCenter(t),
		item:   kind,
		ttl:    sparkleDuration,
	})
}

func (r *Renderer) spawnBurst(t world.Tile) {
	e := effect{kind: effectBurst, origin: tileCenter(t), ttl: burstDuration}
	for i := 0; i < burstParticles; i++ {
		angle := r.rng.Float64() * 2 * math.Pi
		speed := 1.5 + r.rng.Float64()*2.5
		e.particles = append(e.particles, particle{
			pos: e.origin,
			vel: core.Vec{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed},
		})
	}
	r.effects = append(r.effects, e)
}

// updateEffects ages effects and drops finished ones.
func (r *Renderer) updateEffects(dt time.Duration) {
	alive := r.effects[:0]
	for _, e := range r.effects {
		e.age += dt
		if e.age >= e.ttl {
			continue
		}
		for i := range e.particles {
			p := &e.particles[i]
			p.pos = p.pos.Add(p.vel.Scale(dt.Seconds()))
			// drag
			p.vel = p.vel.Scale(1 - core.ClampF(dt.Seconds()*1.5, 0, 1))
		}
		alive = append(alive, e)
	}
	r.effects = alive
}

// shakeOffset returns the horizontal jitter for the board this frame.
func (r *Renderer) shakeOffset() int {
	if r.shake <= 0 {
		return 0
	}
	return r.rng.Intn(3) - 1
}

// flashing reports whether the time-up flash is on this frame.
func (r *Renderer) flashing() bool {
	for _, e := range r.effects {
		if e.kind == effectFlash {
			// blink at 4Hz
			return int(e.age/(125*time.Millisecond))%2 == 0
		}
	}
	return false
}

// easeOutQuad decelerates toward the end of an effect.
func easeOutQuad(t float64) float64 {
	return t * (2 - t)
}

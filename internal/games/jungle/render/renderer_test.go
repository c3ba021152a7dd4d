package render

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

const frame = time.Second / 60

func testWorld() *world.World {
	w := world.New("r1", "Render Test")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.Obstacles[world.T(3, 3)] = true
	w.Collectibles = []world.Collectible{
		{ID: "c1", Tile: world.T(1, 0), Kind: world.KindCoin},
		{ID: "f1", Tile: world.T(2, 0), Kind: world.KindFruit},
	}
	w.Doors = []world.Door{{ID: "d1", Tile: world.T(5, 5)}}
	w.Decorations = []world.Decoration{{Tile: world.T(6, 1), Kind: "monkey"}}
	return w
}

func newTestSim(t *testing.T, w *world.World) *sim.Simulator {
	t.Helper()
	s, err := sim.New(w, sim.DefaultRules())
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	return s
}

func TestSmoothingFor(t *testing.T) {
	tests := []struct {
		name string
		k    float64
		dt   time.Duration
		want float64
	}{
		{"one reference frame", 0.2, frame, 0.2},
		{"zero dt", 0.2, 0, 0},
		{"snap factor", 1, frame, 1},
		{"two frames", 0.5, 2 * frame, 0.75},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SmoothingFor(tc.k, tc.dt, 60)
			// frame is not exact in nanoseconds, so allow for the truncation.
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("SmoothingFor(%v, %v) = %v, expected %v", tc.k, tc.dt, got, tc.want)
			}
		})
	}
}

func TestSmoothingIsFrameRateIndependent(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	s.ApplyMove(world.DirDown)
	snap := s.Snapshot()

	fast := New(w, Options{Seed: 1})
	slow := New(w, Options{Seed: 1})
	for i := 0; i < 12; i++ {
		fast.Update(frame, snap, false)
	}
	for i := 0; i < 3; i++ {
		slow.Update(4*frame, snap, false)
	}

	if d := fast.Display().Sub(slow.Display()).Len(); d > 1e-6 {
		t.Errorf("display differs by %v between frame rates", d)
	}
}

func TestDisplayApproachesPlayer(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})

	s.ApplyMove(world.DirDown)
	snap := s.Snapshot()

	r.Update(frame, snap, true)
	first := r.Display()
	if first.Y <= 0.5 || first.Y >= 1.5 {
		t.Fatalf("after one frame display should be between tiles, got %+v", first)
	}

	for i := 0; i < 300; i++ {
		r.Update(frame, snap, false)
	}
	if d := r.Display().Sub(core.Vec{X: 0.5, Y: 1.5}).Len(); d > 1e-3 {
		t.Errorf("display should settle on tile center, off by %v", d)
	}
	if !r.Settled(snap) {
		t.Error("renderer should report settled")
	}
}

func TestPhaseMachine(t *testing.T) {
	w := world.New("p", "Phase")
	w.Start = world.T(0, 0)
	w.Exit = world.T(1, 0)
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})

	r.Update(frame, s.Snapshot(), false)
	if r.Phase() != PhaseIdle {
		t.Errorf("expected idle, got %s", r.Phase())
	}

	r.Update(frame, s.Snapshot(), true)
	if r.Phase() != PhaseRunning {
		t.Errorf("expected running, got %s", r.Phase())
	}

	res := s.ApplyMove(world.DirRight)
	r.Observe(res.Events)
	r.Update(frame, s.Snapshot(), true)
	if r.Phase() != PhaseDone {
		t.Errorf("expected done, got %s", r.Phase())
	}

	r.Observe(s.Reset())
	r.Update(frame, s.Snapshot(), false)
	if r.Phase() != PhaseIdle {
		t.Errorf("expected idle after reset, got %s", r.Phase())
	}
}

func TestEffectsDecay(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 7})

	res := s.ApplyMove(world.DirRight)
	r.Observe(res.Events)
	if len(r.effects) != 1 {
		t.Fatalf("expected one sparkle, got %d effects", len(r.effects))
	}

	r.Update(sparkleDuration+frame, s.Snapshot(), false)
	if len(r.effects) != 0 {
		t.Errorf("effects should expire, %d left", len(r.effects))
	}
}

func TestObserveResetSnapsDisplay(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})

	s.ApplyMove(world.DirDown)
	s.ApplyMove(world.DirDown)
	for i := 0; i < 10; i++ {
		r.Update(frame, s.Snapshot(), false)
	}

	r.Observe(s.Reset())
	if r.Display() != (core.Vec{X: 0.5, Y: 0.5}) {
		t.Errorf("display should jump to start on reset, got %+v", r.Display())
	}
}

func TestRendererNeverMutatesSimulation(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})
	before := s.State()

	r.Observe(s.ApplyMove(world.DirRight).Events)
	after := s.State()
	screen := core.NewScreen(80, 24)
	for i := 0; i < 30; i++ {
		r.Update(frame, s.Snapshot(), true)
		r.Draw(screen, s.Snapshot(), Status{Running: true, Step: 1, Steps: 3})
	}
	_ = r.Image(s.Snapshot(), 20)

	if !s.State().Equal(after) || before.Equal(after) {
		t.Error("rendering changed simulation state")
	}
}

func TestDrawLayout(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})
	screen := core.NewScreen(80, 24)

	snap := s.Snapshot()
	r.Draw(screen, snap, Status{Message: "press r to run"})
	out := screen.String()

	for _, want := range []string{"Render Test", "Score 0", "Items 0/2", "@", "$", "♥", "♣", "▓", "⌂", "m", "Ready", "press r to run"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q:\n%s", want, out)
		}
	}

	// Player glyph sits in the first cell of the board.
	bw, _ := r.boardSize()
	ox := (80 - bw) / 2
	if got := screen.Get(ox+1+DefaultCellW/2, hudRows+1); got != '@' {
		t.Errorf("expected player at board origin, got %q", got)
	}
}

func TestDrawHidesCollectedItems(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})
	s.ApplyMove(world.DirRight)
	s.ApplyMove(world.DirRight)

	screen := core.NewScreen(80, 24)
	snap := s.Snapshot()
	for i := 0; i < 200; i++ {
		r.Update(frame, snap, false)
	}
	r.Draw(screen, snap, Status{})

	out := screen.String()
	if strings.Contains(out, "$") || strings.Contains(out, "♥") {
		t.Errorf("collected items should not be drawn:\n%s", out)
	}
	if !strings.Contains(out, "Score 15") {
		t.Errorf("HUD should show score 15:\n%s", out)
	}
}

func TestDrawTooSmall(t *testing.T) {
	w := testWorld()
	r := New(w, Options{Seed: 1})
	s := newTestSim(t, w)
	screen := core.NewScreen(20, 8)

	r.Draw(screen, s.Snapshot(), Status{})
	if !strings.Contains(screen.String(), "too small") {
		t.Error("expected too-small message")
	}
}

func TestImageDimensions(t *testing.T) {
	w := testWorld()
	s := newTestSim(t, w)
	r := New(w, Options{Seed: 1})

	img := r.Image(s.Snapshot(), 30)
	b := img.Bounds()
	if b.Dx() != 8*30 || b.Dy() != 6*30+imageHUDHeight {
		t.Errorf("unexpected image size %dx%d", b.Dx(), b.Dy())
	}

	thumb := Thumbnail(img, 120)
	if thumb.Bounds().Dx() != 120 {
		t.Errorf("thumbnail width = %d, expected 120", thumb.Bounds().Dx())
	}
}

func TestEncodePNG(t *testing.T) {
	w := testWorld()
	var buf bytes.Buffer
	if err := EncodePNG(&buf, Preview(w, 16)); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoded output is not PNG: %v", err)
	}
	if img.Bounds().Dx() != 8*16 {
		t.Errorf("decoded width %d", img.Bounds().Dx())
	}
}

func TestSavePNG(t *testing.T) {
	path := t.TempDir() + "/frames/preview.png"
	if err := SavePNG(path, Preview(testWorld(), 10)); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
}

package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

func newSim(t *testing.T, w *world.World) *Simulator {
	t.Helper()
	s, err := New(w, DefaultRules())
	require.NoError(t, err)
	return s
}

func applyAll(s *Simulator, tags ...string) []MoveResult {
	var out []MoveResult
	for _, c := range command.FromTags(tags...) {
		out = append(out, s.Apply(c))
	}
	return out
}

func TestCoinThenObstacleBlocks(t *testing.T) {
	w := world.New("s1", "Scenario 1")
	w.Start = world.T(0, 2)
	w.Exit = world.T(4, 2)
	w.Obstacles[world.T(3, 2)] = true
	w.Collectibles = []world.Collectible{{ID: "c1", Tile: world.T(2, 2), Kind: world.KindCoin}}
	s := newSim(t, w)

	res := applyAll(s, "right", "right", "right", "right")

	st := s.State()
	assert.Equal(t, world.T(2, 2), st.Player)
	assert.Equal(t, 10, st.Score)
	assert.True(t, st.Collected["c1"])
	assert.False(t, st.Complete)
	assert.Equal(t, []string{"c1"}, res[1].Collected)
	assert.Equal(t, OutcomeBlocked, res[2].Outcome)
	assert.Equal(t, ReasonObstacle, res[2].Reason)
	assert.Equal(t, OutcomeBlocked, res[3].Outcome)
}

func TestKeyOpensDoors(t *testing.T) {
	build := func() *world.World {
		w := world.New("s2", "Scenario 2")
		w.Start = world.T(0, 0)
		w.Exit = world.T(7, 5)
		w.Collectibles = []world.Collectible{{ID: "k1", Tile: world.T(1, 0), Kind: world.KindKey}}
		w.Doors = []world.Door{{ID: "d1", Tile: world.T(5, 0)}}
		return w
	}

	t.Run("door blocks before key", func(t *testing.T) {
		w := build()
		w.Start = world.T(4, 1)
		s := newSim(t, w)
		require.True(t, s.ApplyMove(world.DirUp).Moved())

		res := s.ApplyMove(world.DirRight)
		assert.Equal(t, OutcomeBlocked, res.Outcome)
		assert.Equal(t, ReasonDoorClosed, res.Reason)
		assert.Equal(t, world.T(4, 0), s.State().Player)
	})

	t.Run("key collected opens every door", func(t *testing.T) {
		s := newSim(t, build())
		res := applyAll(s, "right", "right")

		st := s.State()
		assert.Equal(t, world.T(2, 0), st.Player)
		assert.Equal(t, 0, st.Score)
		assert.Equal(t, 1, st.KeysCollected)
		assert.True(t, st.DoorOpen["d1"])
		assert.True(t, Has(res[0].Events, EventDoorOpened))

		applyAll(s, "right", "right", "right")
		assert.Equal(t, world.T(5, 0), s.State().Player, "open door is passable")
	})
}

func TestKeyedDoorPolicy(t *testing.T) {
	w := world.New("keyed", "Keyed")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.Collectibles = []world.Collectible{
		{ID: "red", Tile: world.T(1, 0), Kind: world.KindKey},
		{ID: "blue", Tile: world.T(0, 3), Kind: world.KindKey},
	}
	w.Doors = []world.Door{
		{ID: "red-door", Tile: world.T(3, 0), RequiredKey: "red"},
		{ID: "blue-door", Tile: world.T(3, 1), RequiredKey: "blue"},
		{ID: "any-door", Tile: world.T(3, 2)},
	}

	rules := DefaultRules()
	rules.DoorPolicy = DoorsKeyed
	s, err := New(w, rules)
	require.NoError(t, err)

	s.ApplyMove(world.DirRight)
	st := s.State()
	assert.True(t, st.DoorOpen["red-door"])
	assert.False(t, st.DoorOpen["blue-door"])
	assert.True(t, st.DoorOpen["any-door"], "unkeyed doors open on any key")
}

func TestLevelWithoutRequiredItemsCompletesOnExit(t *testing.T) {
	w := world.New("s3", "Scenario 3")
	w.Start = world.T(0, 0)
	w.Exit = world.T(1, 0)
	s := newSim(t, w)

	res := s.ApplyMove(world.DirRight)

	assert.True(t, s.Complete())
	assert.Equal(t, 1, Count(res.Events, EventLevelComplete))
}

func TestExitNeedsCoinsAndFruitsButNotKeys(t *testing.T) {
	w := world.New("req", "Required")
	w.Start = world.T(0, 0)
	w.Exit = world.T(2, 0)
	w.Collectibles = []world.Collectible{
		{ID: "f1", Tile: world.T(1, 1), Kind: world.KindFruit},
		{ID: "k1", Tile: world.T(5, 5), Kind: world.KindKey},
	}
	s := newSim(t, w)

	applyAll(s, "right", "right")
	assert.False(t, s.Complete(), "fruit still missing")

	applyAll(s, "left", "down", "up", "right")
	assert.True(t, s.Complete())
	assert.Equal(t, 5, s.State().Score)
}

func TestCompletionIsEdgeTriggeredAndTerminal(t *testing.T) {
	w := world.New("edge", "Edge")
	w.Start = world.T(0, 0)
	w.Exit = world.T(1, 0)
	s := newSim(t, w)

	var completes int
	for _, r := range applyAll(s, "right", "left", "right", "right") {
		completes += Count(r.Events, EventLevelComplete)
		if r.Outcome != OutcomeMoved {
			assert.Equal(t, ReasonComplete, r.Reason)
		}
	}
	assert.Equal(t, 1, completes)
	assert.Equal(t, world.T(1, 0), s.State().Player, "moves after completion are ignored")
}

func TestCollectionIsIdempotent(t *testing.T) {
	w := world.New("idem", "Idempotent")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.Collectibles = []world.Collectible{{ID: "c1", Tile: world.T(1, 0), Kind: world.KindCoin}}
	s := newSim(t, w)

	res := applyAll(s, "right", "left", "right")
	assert.Equal(t, 10, s.State().Score)
	assert.Empty(t, res[2].Collected)
}

func TestSharedTileCollectsAll(t *testing.T) {
	w := world.New("shared", "Shared")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.Collectibles = []world.Collectible{
		{ID: "c1", Tile: world.T(1, 0), Kind: world.KindCoin},
		{ID: "f1", Tile: world.T(1, 0), Kind: world.KindFruit},
	}
	s := newSim(t, w)

	res := s.ApplyMove(world.DirRight)
	assert.Equal(t, []string{"c1", "f1"}, res.Collected)
	assert.Equal(t, 15, s.State().Score)
}

func TestCountdownExpiresThenResets(t *testing.T) {
	w := world.New("s4", "Scenario 4")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.TimeLimitSeconds = 1
	s := newSim(t, w)
	s.ApplyMove(world.DirRight)

	assert.Empty(t, s.Tick(400*time.Millisecond))
	events := s.Tick(700 * time.Millisecond)
	require.True(t, Has(events, EventTimeExpired))
	assert.Equal(t, 0, s.State().Remaining)
	assert.True(t, s.Expired())

	res := s.ApplyMove(world.DirRight)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, ReasonTimeExpired, res.Reason)

	assert.Empty(t, s.Tick(500*time.Millisecond), "still inside the grace delay")
	events = s.Tick(500 * time.Millisecond)
	require.True(t, Has(events, EventReset))

	st := s.State()
	assert.Equal(t, w.Start, st.Player)
	assert.Equal(t, 1, st.Remaining)
	assert.False(t, s.Expired())
	assert.Equal(t, 2, s.Attempt())
}

func TestCountdownConsumesWholeSeconds(t *testing.T) {
	w := world.New("timed", "Timed")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.TimeLimitSeconds = 10
	s := newSim(t, w)

	events := s.Tick(2500 * time.Millisecond)
	assert.Equal(t, 2, Count(events, EventCountdown))
	assert.Equal(t, 8, s.State().Remaining)

	s.Tick(500 * time.Millisecond)
	assert.Equal(t, 7, s.State().Remaining)
}

func TestTickIgnoredWhenUntimedOrComplete(t *testing.T) {
	w := world.New("untimed", "Untimed")
	w.Start = world.T(0, 0)
	w.Exit = world.T(1, 0)
	s := newSim(t, w)
	assert.Empty(t, s.Tick(5*time.Second))

	w.TimeLimitSeconds = 3
	s = newSim(t, w)
	s.ApplyMove(world.DirRight)
	require.True(t, s.Complete())
	assert.Empty(t, s.Tick(10*time.Second))
	assert.Equal(t, 3, s.State().Remaining)
}

func TestZeroGraceResetsImmediately(t *testing.T) {
	w := world.New("nograce", "No grace")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.TimeLimitSeconds = 1
	rules := DefaultRules()
	rules.GraceDelay = 0
	s, err := New(w, rules)
	require.NoError(t, err)

	events := s.Tick(time.Second)
	assert.True(t, Has(events, EventTimeExpired))
	assert.True(t, Has(events, EventReset))
	assert.False(t, s.Expired())
}

func TestResetRestoresInitialState(t *testing.T) {
	w := world.New("reset", "Reset")
	w.Start = world.T(0, 0)
	w.Exit = world.T(2, 0)
	w.Collectibles = []world.Collectible{
		{ID: "c1", Tile: world.T(1, 0), Kind: world.KindCoin},
		{ID: "k1", Tile: world.T(0, 1), Kind: world.KindKey},
	}
	w.Doors = []world.Door{{ID: "d1", Tile: world.T(4, 4)}}
	s := newSim(t, w)
	fresh := NewState(w)

	applyAll(s, "down", "up", "right", "right")
	require.True(t, s.Complete())

	s.Reset()
	assert.True(t, s.State().Equal(fresh))
}

func TestWaitAndUnknownDoNotMutate(t *testing.T) {
	w := world.New("noop", "No-op")
	w.Start = world.T(3, 3)
	w.Exit = world.T(7, 5)
	s := newSim(t, w)
	before := s.State()

	assert.Equal(t, OutcomeWaited, s.Apply(command.Wait()).Outcome)
	res := s.Apply(command.Of("teleport"))
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, ReasonUnknown, res.Reason)
	assert.True(t, s.State().Equal(before))
}

func TestTransitionIsPure(t *testing.T) {
	w := world.New("pure", "Pure")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.Collectibles = []world.Collectible{{ID: "c1", Tile: world.T(1, 0), Kind: world.KindCoin}}

	s0 := NewState(w)
	s1, events := Transition(w, s0, command.Move(world.DirRight))

	assert.False(t, s0.Collected["c1"], "input state must not change")
	assert.Equal(t, world.T(0, 0), s0.Player)
	assert.True(t, s1.Collected["c1"])
	assert.True(t, Has(events, EventCollected))
}

func TestNewRefusesMalformedWorld(t *testing.T) {
	w := world.New("bad", "Bad")
	w.Exit = world.T(3, 2)
	w.Obstacles[world.T(3, 2)] = true

	_, err := New(w, DefaultRules())
	var verr world.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// TestRandomWalkInvariants drives random commands through a dense level and
// checks bounds, passability and score monotonicity after every step.
func TestRandomWalkInvariants(t *testing.T) {
	w := world.New("walk", "Walk")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	for _, o := range []world.Tile{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 5, Y: 3}, {X: 6, Y: 3}, {X: 1, Y: 4}} {
		w.Obstacles[o] = true
	}
	w.Collectibles = []world.Collectible{
		{ID: "c1", Tile: world.T(1, 1), Kind: world.KindCoin},
		{ID: "c2", Tile: world.T(4, 4), Kind: world.KindCoin},
		{ID: "f1", Tile: world.T(3, 2), Kind: world.KindFruit},
		{ID: "k1", Tile: world.T(7, 0), Kind: world.KindKey},
	}
	w.Doors = []world.Door{{ID: "d1", Tile: world.T(6, 5)}, {ID: "d2", Tile: world.T(3, 0)}}

	rng := rand.New(rand.NewSource(42))
	tags := []string{"up", "down", "left", "right", "wait", "spin"}

	for run := 0; run < 50; run++ {
		s := newSim(t, w)
		prevScore := 0
		for step := 0; step < 200; step++ {
			before := s.State()
			s.Apply(command.Of(tags[rng.Intn(len(tags))]))
			st := s.State()

			require.True(t, w.InBounds(st.Player), "player left the grid at %s", st.Player)
			require.False(t, w.IsObstacle(st.Player), "player on obstacle %s", st.Player)
			if d, ok := w.DoorAt(st.Player); ok && st.Player != before.Player {
				require.True(t, st.DoorOpen[d.ID], "player walked through closed door %s", d.ID)
			}
			require.GreaterOrEqual(t, st.Score, prevScore)
			prevScore = st.Score
		}
	}
}

func TestSnapshot(t *testing.T) {
	w := world.New("snap", "Snap")
	w.Start = world.T(0, 0)
	w.Exit = world.T(7, 5)
	w.TimeLimitSeconds = 30
	w.Collectibles = []world.Collectible{
		{ID: "b", Tile: world.T(1, 0), Kind: world.KindCoin},
		{ID: "a", Tile: world.T(1, 0), Kind: world.KindKey},
	}
	w.Doors = []world.Door{{ID: "d1", Tile: world.T(5, 5)}}
	s := newSim(t, w)
	s.ApplyMove(world.DirRight)

	snap := s.Snapshot()
	assert.Equal(t, "snap", snap.Level)
	assert.Equal(t, []string{"a", "b"}, snap.Collected)
	assert.Equal(t, []string{"d1"}, snap.DoorsOpen)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 10, snap.Score)
	assert.Equal(t, 1, snap.KeysCollected)
	assert.True(t, snap.Timed)
	assert.Equal(t, 30, snap.Remaining)
	assert.Equal(t, 1, snap.Attempt)
}

package jungle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

type recorder struct {
	events    []sim.Event
	snapshots []sim.Snapshot
}

func (r *recorder) OnEvent(e sim.Event)       { r.events = append(r.events, e) }
func (r *recorder) OnSnapshot(s sim.Snapshot) { r.snapshots = append(r.snapshots, s) }

func (r *recorder) count(k sim.EventKind) int { return sim.Count(r.events, k) }

// corridor: start (0,2), coin (2,2), exit (4,2).
func corridor() *world.World {
	w := world.New("corridor", "Corridor")
	w.Start = world.T(0, 2)
	w.Exit = world.T(4, 2)
	w.Collectibles = []world.Collectible{{ID: "c1", Tile: world.T(2, 2), Kind: world.KindCoin}}
	return w
}

func newEngine(t *testing.T, w *world.World) (*Engine, *recorder) {
	t.Helper()
	e, err := NewEngine(w, DefaultOptions())
	require.NoError(t, err)
	rec := &recorder{}
	e.Subscribe(rec)
	return e, rec
}

// drain advances in small steps until the run finishes.
func drain(e *Engine) {
	for i := 0; i < 1000 && e.Running(); i++ {
		e.Advance(50 * time.Millisecond)
	}
}

func TestEngineRunsQueueToCompletion(t *testing.T) {
	e, rec := newEngine(t, corridor())

	require.NoError(t, e.Run(command.MustCompile("right 4"), 1))
	assert.True(t, e.Running())
	drain(e)

	snap := e.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, world.T(4, 2), snap.Player)
	assert.Equal(t, 10, snap.Score)
	assert.Equal(t, 1, rec.count(sim.EventLevelComplete))
	assert.Equal(t, 1, rec.count(sim.EventQueueExhausted))

	res := e.Result()
	require.NotNil(t, res)
	assert.Equal(t, "corridor", res.Level)
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 4, res.Commands)
	assert.True(t, res.Elapsed > 0)
}

func TestEngineUnknownCommandIsSkipped(t *testing.T) {
	tags := []string{"right", "right", "jump", "right", "right"}

	withUnknown, rec := newEngine(t, corridor())
	require.NoError(t, withUnknown.Run(command.FromTags(tags...), 1))
	drain(withUnknown)

	plain, _ := newEngine(t, corridor())
	require.NoError(t, plain.Run(command.FromTags("right", "right", "right", "right"), 1))
	drain(plain)

	assert.Equal(t, plain.Snapshot().Player, withUnknown.Snapshot().Player)
	assert.True(t, withUnknown.Snapshot().Complete)
	assert.Equal(t, 1, rec.count(sim.EventUnknownCommand))
	assert.Equal(t, 1, rec.count(sim.EventLevelComplete))
	assert.Equal(t, 1, rec.count(sim.EventQueueExhausted))
}

func TestEngineRejectsSecondRunUntilExhausted(t *testing.T) {
	e, rec := newEngine(t, corridor())

	require.NoError(t, e.Run(command.FromTags("right"), 1))
	err := e.Run(command.FromTags("down", "down"), 2)
	require.ErrorIs(t, err, executor.ErrBusy)
	assert.Equal(t, 1, rec.count(sim.EventRejected))
	assert.Equal(t, int64(1), e.LastToken())

	drain(e)
	assert.Equal(t, world.T(1, 2), e.Snapshot().Player, "only the first run moved the player")

	require.NoError(t, e.Run(command.FromTags("down"), 2))
	drain(e)
	assert.Equal(t, world.T(1, 3), e.Snapshot().Player)
}

func TestEngineStaleTokenRejected(t *testing.T) {
	e, rec := newEngine(t, corridor())

	require.NoError(t, e.Run(command.FromTags("right"), 5))
	drain(e)

	err := e.Run(command.FromTags("right"), 5)
	require.ErrorIs(t, err, ErrStaleToken)
	err = e.Run(command.FromTags("right"), 3)
	require.ErrorIs(t, err, ErrStaleToken)
	assert.Equal(t, 2, rec.count(sim.EventRejected))
	assert.Equal(t, int64(6), e.NextToken())
}

func TestEngineEmptyQueueRejected(t *testing.T) {
	e, _ := newEngine(t, corridor())
	require.ErrorIs(t, e.Run(nil, 1), executor.ErrEmptyQueue)
	assert.False(t, e.Running())
}

func TestEngineRunAfterCompleteRejected(t *testing.T) {
	e, _ := newEngine(t, corridor())
	require.NoError(t, e.Run(command.MustCompile("right 4"), 1))
	drain(e)

	require.ErrorIs(t, e.Run(command.FromTags("left"), 2), ErrLevelComplete)

	e.Reset()
	require.NoError(t, e.Run(command.FromTags("left"), 3))
}

func TestEngineResetCancelsRun(t *testing.T) {
	e, rec := newEngine(t, corridor())
	require.NoError(t, e.Run(command.MustCompile("right 3"), 1))
	e.Advance(executor.DefaultInterval)
	require.Equal(t, world.T(1, 2), e.Snapshot().Player)

	e.Reset()

	assert.False(t, e.Running())
	assert.Equal(t, world.T(0, 2), e.Snapshot().Player)
	assert.Equal(t, 1, rec.count(sim.EventRunCancelled))
	assert.Equal(t, 1, rec.count(sim.EventReset))
	assert.Zero(t, rec.count(sim.EventQueueExhausted))
	assert.Equal(t, 2, e.Snapshot().Attempt)

	// Nothing from the cancelled run arrives later.
	for i := 0; i < 10; i++ {
		e.Advance(executor.DefaultInterval)
	}
	assert.Equal(t, world.T(0, 2), e.Snapshot().Player)
}

func TestEngineLoadLevel(t *testing.T) {
	e, rec := newEngine(t, corridor())
	require.NoError(t, e.Run(command.MustCompile("right 3"), 1))

	bad := world.New("bad", "Bad")
	bad.Width = 0
	require.Error(t, e.LoadLevel(bad))
	assert.True(t, e.Running(), "refused level leaves the run alone")

	next := world.New("next", "Next")
	next.Start = world.T(3, 3)
	next.Exit = world.T(4, 3)
	require.NoError(t, e.LoadLevel(next))

	assert.False(t, e.Running())
	assert.Equal(t, "next", e.World().ID)
	assert.Equal(t, world.T(3, 3), e.Snapshot().Player)
	assert.Equal(t, 1, rec.count(sim.EventRunCancelled))
	assert.Equal(t, 1, rec.count(sim.EventLevelLoaded))
	// Tokens keep increasing across levels.
	assert.Equal(t, int64(2), e.NextToken())
}

func TestEngineSnapshotAfterMutation(t *testing.T) {
	e, rec := newEngine(t, corridor())
	require.NoError(t, e.Run(command.FromTags("wait", "right"), 1))

	e.Advance(executor.DefaultInterval)
	assert.Empty(t, rec.snapshots, "wait does not mutate")

	e.Advance(executor.DefaultInterval)
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, world.T(1, 2), rec.snapshots[0].Player)
}

func TestEngineTimerResetCancelsRun(t *testing.T) {
	w := corridor()
	w.TimeLimitSeconds = 1
	e, rec := newEngine(t, w)
	require.NoError(t, e.Run(command.MustCompile("repeat 5 { up down }"), 1))

	for i := 0; i < 100 && rec.count(sim.EventReset) == 0; i++ {
		e.Advance(100 * time.Millisecond)
	}

	assert.Equal(t, 1, rec.count(sim.EventTimeExpired))
	assert.Equal(t, 1, rec.count(sim.EventReset))
	assert.Equal(t, 1, rec.count(sim.EventRunCancelled))
	assert.False(t, e.Running())
	snap := e.Snapshot()
	assert.Equal(t, w.Start, snap.Player)
	assert.Equal(t, 1, snap.Remaining)
}

func TestEngineDraw(t *testing.T) {
	e, _ := newEngine(t, corridor())
	scr := core.NewScreen(60, 24)
	e.Draw(scr, "hello explorer")
	assert.Contains(t, scr.String(), "hello explorer")
	assert.Contains(t, scr.String(), "@")
}

func TestEngineSnapshotPerCommandInOneFrame(t *testing.T) {
	e, rec := newEngine(t, corridor())
	require.NoError(t, e.Run(command.FromTags("right", "right"), 1))

	// One long frame releases both commands.
	e.Advance(2 * time.Second)

	assert.Equal(t, 2, rec.count(sim.EventMoved))
	require.Len(t, rec.snapshots, 2)
	assert.Equal(t, world.T(1, 2), rec.snapshots[0].Player)
	assert.Equal(t, world.T(2, 2), rec.snapshots[1].Player)
	assert.Equal(t, 10, rec.snapshots[1].Score)
}

// orderLog records snapshots and events in arrival order.
type orderLog struct {
	entries []any
}

func (o *orderLog) OnEvent(e sim.Event)       { o.entries = append(o.entries, e) }
func (o *orderLog) OnSnapshot(s sim.Snapshot) { o.entries = append(o.entries, s) }

func TestEngineEventsFollowTheirSnapshot(t *testing.T) {
	e, err := NewEngine(corridor(), DefaultOptions())
	require.NoError(t, err)
	log := &orderLog{}
	e.Subscribe(log)

	require.NoError(t, e.Run(command.MustCompile("right 4"), 1))
	e.Advance(10 * time.Second)

	var last *sim.Snapshot
	seen := map[sim.EventKind]bool{}
	for _, entry := range log.entries {
		switch v := entry.(type) {
		case sim.Snapshot:
			last = &v
		case sim.Event:
			seen[v.Kind] = true
			switch v.Kind {
			case sim.EventLevelComplete, sim.EventQueueExhausted:
				require.NotNil(t, last, "%s arrived before any snapshot", v.Kind)
				assert.True(t, last.Complete, "%s arrived before the completed snapshot", v.Kind)
			}
		}
	}
	assert.True(t, seen[sim.EventLevelComplete])
	assert.True(t, seen[sim.EventQueueExhausted])
}

package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
)

func commands(ds []Dispatch) []string {
	var out []string
	for _, d := range ds {
		if d.Done {
			out = append(out, "<done>")
			continue
		}
		out = append(out, d.Command.String())
	}
	return out
}

func TestRunPacesCommands(t *testing.T) {
	e := New(DefaultConfig())
	require.NoError(t, e.Run(command.FromTags("right", "up"), 1))

	assert.Empty(t, e.Advance(449*time.Millisecond), "nothing before the first interval")
	assert.Equal(t, []string{"move_right"}, commands(e.Advance(time.Millisecond)))
	assert.Empty(t, e.Advance(400*time.Millisecond))
	assert.Equal(t, []string{"move_up", "<done>"}, commands(e.Advance(50*time.Millisecond)))
	assert.False(t, e.Running())
	assert.Empty(t, e.Advance(time.Second), "done is signalled once")
}

func TestRunRejectsWhileBusy(t *testing.T) {
	e := New(DefaultConfig())
	require.NoError(t, e.Run(command.FromTags("right", "right"), 1))

	err := e.Run(command.FromTags("down"), 2)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, int64(1), e.Token())

	all := e.Advance(2 * time.Second)
	assert.Equal(t, []string{"move_right", "move_right", "<done>"}, commands(all))
	for _, d := range all {
		assert.Equal(t, int64(1), d.Token)
	}

	require.NoError(t, e.Run(command.FromTags("down"), 2), "accepted after done")
}

func TestRunRejectsEmptyQueue(t *testing.T) {
	e := New(DefaultConfig())
	assert.ErrorIs(t, e.Run(nil, 1), ErrEmptyQueue)
	assert.False(t, e.Running())
}

func TestRunCopiesQueue(t *testing.T) {
	e := New(DefaultConfig())
	q := command.FromTags("right", "right")
	require.NoError(t, e.Run(q, 1))
	q[1] = command.Of("left")

	assert.Equal(t, []string{"move_right", "move_right", "<done>"}, commands(e.Advance(time.Second)))
}

func TestUnknownCommandUsesShortDelay(t *testing.T) {
	e := New(DefaultConfig())
	require.NoError(t, e.Run(command.FromTags("right", "teleport", "up"), 1))

	first := e.Advance(450 * time.Millisecond)
	assert.Equal(t, []string{"move_right"}, commands(first))

	skipped := e.Advance(50 * time.Millisecond)
	require.Len(t, skipped, 1)
	assert.True(t, skipped[0].Unknown)
	assert.Equal(t, 1, skipped[0].Index)

	assert.Equal(t, []string{"move_up", "<done>"}, commands(e.Advance(450*time.Millisecond)))
}

func TestWaitConsumesInterval(t *testing.T) {
	e := New(Config{Interval: 100 * time.Millisecond, UnknownDelay: 10 * time.Millisecond})
	require.NoError(t, e.Run(command.FromTags("wait", "wait", "left"), 1))

	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, commands(e.Advance(100*time.Millisecond))...)
	}
	assert.Equal(t, []string{"wait", "wait", "move_left", "<done>"}, got)
}

func TestCancelDropsRunSilently(t *testing.T) {
	e := New(DefaultConfig())
	require.NoError(t, e.Run(command.FromTags("right", "right", "right"), 7))
	e.Advance(450 * time.Millisecond)

	assert.True(t, e.Cancel())
	assert.False(t, e.Running())
	assert.Empty(t, e.Advance(5*time.Second))
	assert.False(t, e.Cancel(), "nothing left to cancel")
}

func TestProgress(t *testing.T) {
	e := New(DefaultConfig())
	assert.Equal(t, -1, e.Current())
	require.NoError(t, e.Run(command.FromTags("up", "up", "up"), 1))
	e.Advance(900 * time.Millisecond)

	done, total := e.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, e.Current())
}

func TestSetConfigFallsBackToDefaults(t *testing.T) {
	e := New(Config{})
	assert.Equal(t, DefaultConfig(), e.Config())
}

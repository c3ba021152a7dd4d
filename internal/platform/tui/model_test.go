package tui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

func testConfig() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 26, TickRate: 60, Seed: 7}
}

// isolate keeps user config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func update(t *testing.T, m GameModel, msg tea.Msg) GameModel {
	t.Helper()
	next, _ := m.Update(msg)
	gm, ok := next.(GameModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return gm
}

func tickUntil(t *testing.T, m GameModel, limit int, done func(GameModel) bool) GameModel {
	t.Helper()
	for range limit {
		m = update(t, m, TickMsg(time.Now()))
		if done(m) {
			return m
		}
	}
	t.Fatalf("condition not reached after %d ticks", limit)
	return m
}

func TestGameModelEditRunAndSave(t *testing.T) {
	isolate(t)
	store := openTestStore(t)

	m := NewGameModel(jungle.New(), store, testConfig(), "kid")
	m.Init()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.Editing() {
		t.Fatal("tab should open the editor")
	}

	m = update(t, m, runes("right 7"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Editing() {
		t.Fatalf("enter should close the editor, error %q", m.editErr)
	}

	m = tickUntil(t, m, 600, func(m GameModel) bool { return m.gameState.GameOver })
	if m.gameState.Score != 10 {
		t.Errorf("score = %d, expected 10", m.gameState.Score)
	}

	results, err := store.TopResults("first-steps", 10)
	if err != nil {
		t.Fatalf("TopResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(results))
	}
	r := results[0]
	if r.Player != "kid" || r.Mode != "jungle" || r.Commands != 7 || r.Score != 10 {
		t.Errorf("unexpected result %+v", r)
	}

	// More ticks must not store the same attempt again
	for range 30 {
		m = update(t, m, TickMsg(time.Now()))
	}
	results, _ = store.TopResults("first-steps", 10)
	if len(results) != 1 {
		t.Errorf("result stored %d times", len(results))
	}
}

func TestGameModelRejectsBadProgram(t *testing.T) {
	isolate(t)

	m := NewGameModel(jungle.New(), nil, testConfig(), "")
	m.Init()

	m = update(t, m, runes("e"))
	m = update(t, m, runes("jump 2"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Editing() {
		t.Fatal("editor should stay open on a compile error")
	}
	if m.editErr == "" {
		t.Error("compile error should be shown")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Editing() {
		t.Error("esc should close the editor")
	}
	if m.inputFrame.Has(core.ActionRun) {
		t.Error("cancelled edit must not run")
	}
}

func TestGameModelStepKeys(t *testing.T) {
	isolate(t)

	game := jungle.New()
	m := NewGameModel(game, nil, testConfig(), "")
	m.Init()
	start := game.Engine().Snapshot().Player

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = tickUntil(t, m, 120, func(GameModel) bool {
		return game.Engine().Snapshot().Player != start
	})
	if got := game.Engine().Snapshot().Player; got.X != start.X+1 || got.Y != start.Y {
		t.Errorf("player at %+v, expected one tile right of %+v", got, start)
	}
}

func TestGameModelResizeKeepsAttempt(t *testing.T) {
	isolate(t)

	game := jungle.New()
	m := NewGameModel(game, nil, testConfig(), "")
	m.Init()
	start := game.Engine().Snapshot().Player

	m = update(t, m, runes("d"))
	m = tickUntil(t, m, 120, func(GameModel) bool {
		return game.Engine().Snapshot().Player != start
	})
	before := game.Engine().Snapshot()

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if m.screen.Width() != 100 || m.screen.Height() != 30-chromeRows {
		t.Errorf("screen %dx%d after resize", m.screen.Width(), m.screen.Height())
	}
	if after := game.Engine().Snapshot(); after.Player != before.Player || after.Attempt != before.Attempt {
		t.Error("resize must not reset the attempt")
	}
	if m.View() == "" {
		t.Error("view should render")
	}
}

func TestGameModelBackAndQuit(t *testing.T) {
	isolate(t)

	m := NewGameModel(jungle.New(), nil, testConfig(), "")
	m.Init()

	back := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !back.BackToMenu() {
		t.Error("esc should request the picker")
	}

	quit := update(t, m, runes("q"))
	if !quit.IsQuitting() {
		t.Error("q should quit")
	}
	if quit.View() != "" {
		t.Error("quitting model renders nothing")
	}
}

package tui

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jungle-code/internal/config"
	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/render"
	"github.com/vovakirdan/jungle-code/internal/registry"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

// chromeRows is the number of terminal rows below the game screen
// (program editor and key help).
const chromeRows = 2

// screenshotTile is the tile size of PNG screenshots.
const screenshotTile = 48

// framer is implemented by modes that can rasterize their current frame.
type framer interface {
	Frame(tileSize int) image.Image
}

// GameModel is the Bubble Tea model for playing one mode.
type GameModel struct {
	game       registry.Game
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	theme      Theme
	keys       KeyMap
	help       help.Model
	editor     textinput.Model
	editing    bool
	editErr    string
	status     string
	player     string
	inputFrame core.InputFrame
	gameState  core.GameState
	exitOnBack bool
	quitting   bool
	backToMenu bool
}

// NewGameModel creates a model for game. The game is reset by Init.
// player is stored with finished attempts and may be empty.
func NewGameModel(game registry.Game, store *storage.Store, cfg core.RuntimeConfig, player string) GameModel {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}

	editor := textinput.New()
	editor.Prompt = "program> "
	editor.Placeholder = "e.g. repeat 3 { right } up"
	editor.CharLimit = 512
	editor.Width = max(cfg.ScreenW-len(editor.Prompt)-2, 10)

	h := help.New()
	h.Width = cfg.ScreenW

	return GameModel{
		game:       game,
		screen:     core.NewScreen(cfg.ScreenW, max(cfg.ScreenH-chromeRows, 1)),
		store:      store,
		config:     cfg,
		theme:      GetTheme(),
		keys:       DefaultKeyMap(),
		help:       h,
		editor:     editor,
		player:     player,
		inputFrame: core.NewInputFrame(),
	}
}

// Init initializes the model and starts the game.
func (m GameModel) Init() tea.Cmd {
	m.game.Reset(m.config)
	// Note: gameState will be set on first tick (value receiver limitation)
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditorKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes keyboard input outside the editor.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.backToMenu = true
		if m.exitOnBack {
			return m, tea.Quit
		}
		return m, nil
	case key.Matches(msg, m.keys.Shot):
		if path, err := m.saveScreenshot(); err != nil {
			m.status = "screenshot failed: " + err.Error()
		} else {
			m.status = "saved " + path
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		p, ok := m.game.(registry.Programmable)
		if !ok {
			return m, nil
		}
		m.editing = true
		m.editErr = ""
		m.editor.SetValue(p.Program())
		m.editor.CursorEnd()
		return m, m.editor.Focus()
	}

	if action := m.keys.Action(msg); action != core.ActionNone {
		m.inputFrame.Set(action)
	}
	return m, nil
}

// handleEditorKey processes keys while the program editor has focus.
// Enter stores the program and runs it; Esc leaves the editor unchanged.
func (m GameModel) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.editErr = ""
		m.editor.Blur()
		return m, nil
	case tea.KeyEnter:
		p, ok := m.game.(registry.Programmable)
		if !ok {
			return m, nil
		}
		if err := p.SetProgram(m.editor.Value()); err != nil {
			m.editErr = err.Error()
			return m, nil
		}
		m.editing = false
		m.editErr = ""
		m.editor.Blur()
		m.inputFrame.Set(core.ActionRun)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// handleResize processes window resize events.
// The attempt in progress is kept; only the canvas changes size.
func (m GameModel) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, max(msg.Height-chromeRows, 1))
	m.editor.Width = max(msg.Width-len(m.editor.Prompt)-2, 10)
	m.help.Width = msg.Width
	return m, nil
}

// handleTick processes simulation ticks.
func (m GameModel) handleTick() (tea.Model, tea.Cmd) {
	result := m.game.Step(m.inputFrame)
	m.gameState = result.State
	m.saveResult()

	// Clear input for next frame
	m.inputFrame.Clear()

	// Continue ticking
	return m, tickCmd(m.config.TickRate)
}

// saveResult stores a finished attempt once.
func (m *GameModel) saveResult() {
	rec, ok := m.game.(registry.Recorder)
	if !ok {
		return
	}
	res, ok := rec.TakeResult()
	if !ok || m.store == nil {
		return
	}
	//nolint:errcheck // Best-effort save, game continues regardless
	m.store.SaveResult(storage.Result{
		Level:    res.Level,
		Mode:     m.game.ID(),
		Player:   m.player,
		Score:    res.Score,
		Keys:     res.Keys,
		Commands: res.Commands,
		Duration: res.Duration,
	})
}

// saveScreenshot writes the current frame to ~/.jungle/screenshots, as PNG
// when the mode can rasterize and as plain text otherwise.
func (m *GameModel) saveScreenshot() (string, error) {
	dir := config.UserPath("screenshots")
	if dir == "" {
		return "", errors.New("no home directory")
	}

	name := m.game.ID()
	if c, ok := m.game.(registry.Campaign); ok && c.LevelID() != "" {
		name = c.LevelID()
	}
	base := filepath.Join(dir, fmt.Sprintf("%s_%s", name, time.Now().Format("20060102_150405")))

	if f, ok := m.game.(framer); ok {
		if img := f.Frame(screenshotTile); img != nil {
			path := base + ".png"
			return path, render.SavePNG(path, img)
		}
	}

	m.game.Render(m.screen)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := base + ".txt"
	return path, os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}

	m.game.Render(m.screen)

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen, m.theme))
	b.WriteString("\n")
	b.WriteString(m.editorLine())
	b.WriteString("\n")
	b.WriteString(m.theme.Controls.Render(m.help.View(m.keys)))
	return b.String()
}

// editorLine renders the program line under the board.
func (m GameModel) editorLine() string {
	switch {
	case m.editing && m.editErr != "":
		return m.editor.View() + "  " + m.theme.EditorError.Render(m.editErr)
	case m.editing:
		return m.editor.View()
	case m.status != "":
		return m.theme.Controls.Render(m.status)
	}

	p, ok := m.game.(registry.Programmable)
	if !ok {
		return ""
	}
	src := strings.Join(strings.Fields(p.Program()), " ")
	if src == "" {
		src = m.theme.Controls.Render("(empty, press tab to write one)")
	}
	return m.theme.EditorLabel.Render(m.editor.Prompt) + src
}

// Editing reports whether the program editor has focus.
func (m GameModel) Editing() bool {
	return m.editing
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to the level picker.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}

// Run starts a Bubble Tea program playing game directly, without the level
// picker. Back and quit both leave the program.
func Run(game registry.Game, store *storage.Store, cfg core.RuntimeConfig, player string) error {
	model := NewGameModel(game, store, cfg, player)
	model.exitOnBack = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}

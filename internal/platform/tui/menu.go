package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/registry"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

// Mode identifiers offered by the level picker.
const (
	ModeProgram = "jungle"
	ModeExplore = "jungle_explore"
)

// MenuItem represents a selectable level in the menu.
type MenuItem struct {
	Level     registry.LevelInfo
	Best      int
	Completed bool
}

// MenuModel is the Bubble Tea model for the level picker.
type MenuModel struct {
	items          []MenuItem
	cursor         int
	mode           string
	width          int
	height         int
	store          *storage.Store
	config         core.RuntimeConfig
	theme          Theme
	keys           MenuKeyMap
	help           help.Model
	loadErr        error
	quitting       bool
	selected       *MenuItem // Set when user selects a level
	openScoreboard bool      // True if user pressed Tab for the results table
}

// CampaignLevels lists the levels of the mode registered under mode.
func CampaignLevels(mode string, cfg core.RuntimeConfig) ([]registry.LevelInfo, error) {
	g, err := registry.Create(mode)
	if err != nil {
		return nil, err
	}
	c, ok := g.(registry.Campaign)
	if !ok {
		return nil, fmt.Errorf("tui: mode %q has no levels", mode)
	}
	g.Reset(cfg)
	return c.Levels(), nil
}

// NewMenuModel creates a new level picker for mode.
func NewMenuModel(store *storage.Store, cfg core.RuntimeConfig, mode string) MenuModel {
	if mode == "" {
		mode = ModeProgram
	}
	h := help.New()
	h.Width = cfg.ScreenW

	m := MenuModel{
		mode:   mode,
		width:  cfg.ScreenW,
		height: cfg.ScreenH,
		store:  store,
		config: cfg,
		theme:  GetTheme(),
		keys:   DefaultMenuKeyMap(),
		help:   h,
	}
	m.load()
	return m
}

// load fills the items from the campaign and the stored results.
func (m *MenuModel) load() {
	infos, err := CampaignLevels(m.mode, m.config)
	if err != nil {
		m.loadErr = err
		m.items = nil
		return
	}

	var stats map[string]*storage.LevelStats
	if m.store != nil {
		//nolint:errcheck // Missing stats only hide best scores
		stats, _ = m.store.GetAllLevelStats()
	}

	m.items = make([]MenuItem, 0, len(infos))
	for _, info := range infos {
		item := MenuItem{Level: info}
		if st, ok := stats[info.ID]; ok && st.Completions > 0 {
			item.Completed = true
			item.Best = st.BestScore
		}
		m.items = append(m.items, item)
	}
	m.cursor = core.Clamp(m.cursor, 0, max(len(m.items)-1, 0))
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.Action(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionMode:
		if m.mode == ModeProgram {
			m.mode = ModeExplore
		} else {
			m.mode = ModeProgram
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit // Exit menu to start the level
		}

	case MenuActionScoreboard:
		m.openScoreboard = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(m.theme.MenuTitle.Render("J U N G L E   C O D E"), m.width))
	b.WriteString("\n\n")

	subtitle := "Pick a level and write a program to reach the exit"
	if m.mode == ModeExplore {
		subtitle = "Explore mode: walk the map with the arrow keys"
	}
	b.WriteString(centerText(m.theme.MenuDescription.Render(subtitle), m.width))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(centerText(m.theme.EditorError.Render("Cannot load levels: "+m.loadErr.Error()), m.width))
		b.WriteString("\n")
	}

	for i, item := range m.items {
		cursor := "  "
		style := m.theme.MenuItemNormal
		if item.Completed {
			style = m.theme.MenuItemDone
		}
		if i == m.cursor {
			cursor = "> "
			style = m.theme.MenuItemActive
		}

		line := fmt.Sprintf("%s%d. %s", cursor, i+1, item.Level.Title)
		if item.Completed {
			line += fmt.Sprintf("  ✓ best %d", item.Best)
		}
		b.WriteString(centerText(style.Render(line), m.width))
		b.WriteString("\n")
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		goal := m.items[m.cursor].Level.Goal
		b.WriteString(centerText(m.theme.MenuDescription.Render(goal), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(m.theme.Controls.Render(m.help.View(m.keys)), m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// Mode returns the mode the selected level is played in.
func (m MenuModel) Mode() string {
	return m.mode
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsScoreboard returns true if user requested the results table.
func (m MenuModel) WantsScoreboard() bool {
	return m.openScoreboard
}

// Config returns the current runtime config (may have been updated by resize).
func (m MenuModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}

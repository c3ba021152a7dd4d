package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jungle-code/internal/core"
)

// Theme contains the configurable visual styles of the terminal UI.
type Theme struct {
	Name string

	// Cells maps each palette slot of the screen buffer to a style.
	Cells map[core.Color]lipgloss.Style

	// Program editor
	EditorLabel lipgloss.Style
	EditorError lipgloss.Style

	// Level picker and results
	MenuTitle       lipgloss.Style
	MenuItemNormal  lipgloss.Style
	MenuItemActive  lipgloss.Style
	MenuItemDone    lipgloss.Style
	MenuDescription lipgloss.Style
	Controls        lipgloss.Style
}

func fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// JungleTheme returns the default green theme.
func JungleTheme() Theme {
	return Theme{
		Name: "jungle",
		Cells: map[core.Color]lipgloss.Style{
			core.ColorDefault:    lipgloss.NewStyle(),
			core.ColorGrass:      fg("28"),
			core.ColorGrid:       fg("22"),
			core.ColorTree:       fg("34").Bold(true),
			core.ColorBark:       fg("94"),
			core.ColorCoin:       fg("220").Bold(true),
			core.ColorFruit:      fg("203"),
			core.ColorKey:        fg("214").Bold(true),
			core.ColorDoorClosed: fg("130"),
			core.ColorDoorOpen:   fg("180"),
			core.ColorExit:       fg("45").Bold(true),
			core.ColorPlayer:     fg("231").Bold(true),
			core.ColorAnimal:     fg("173"),
			core.ColorSparkle:    fg("229"),
			core.ColorHUD:        fg("255"),
			core.ColorAlert:      fg("196").Bold(true),
			core.ColorDim:        fg("242"),
			core.ColorSuccess:    fg("46").Bold(true),
		},

		EditorLabel: fg("120").Bold(true),
		EditorError: fg("203"),

		MenuTitle:       fg("120").Bold(true),
		MenuItemNormal:  fg("252"),
		MenuItemActive:  fg("226").Bold(true),
		MenuItemDone:    fg("46"),
		MenuDescription: fg("245"),
		Controls:        fg("241"),
	}
}

// MonoTheme returns a grayscale theme for terminals with poor color support.
func MonoTheme() Theme {
	theme := JungleTheme()
	theme.Name = "mono"
	theme.Cells = map[core.Color]lipgloss.Style{
		core.ColorDefault:    lipgloss.NewStyle(),
		core.ColorGrass:      fg("240"),
		core.ColorGrid:       fg("236"),
		core.ColorTree:       fg("250").Bold(true),
		core.ColorBark:       fg("244"),
		core.ColorCoin:       fg("255").Bold(true),
		core.ColorFruit:      fg("252"),
		core.ColorKey:        fg("255").Bold(true),
		core.ColorDoorClosed: fg("245"),
		core.ColorDoorOpen:   fg("238"),
		core.ColorExit:       fg("255").Underline(true),
		core.ColorPlayer:     fg("231").Bold(true).Reverse(true),
		core.ColorAnimal:     fg("248"),
		core.ColorSparkle:    fg("253"),
		core.ColorHUD:        fg("255"),
		core.ColorAlert:      fg("255").Bold(true),
		core.ColorDim:        fg("242"),
		core.ColorSuccess:    fg("255").Bold(true),
	}
	theme.EditorLabel = fg("255").Bold(true)
	theme.EditorError = fg("250").Italic(true)
	theme.MenuTitle = fg("255").Bold(true)
	theme.MenuItemActive = fg("255").Bold(true).Reverse(true)
	theme.MenuItemDone = fg("250")
	return theme
}

// ThemeByName returns the theme registered under name.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jungle":
		return JungleTheme(), nil
	case "mono", "monochrome":
		return MonoTheme(), nil
	default:
		return Theme{}, fmt.Errorf("tui: unknown theme %q (use jungle or mono)", name)
	}
}

// Style returns the style for a palette slot.
func (t Theme) Style(c core.Color) lipgloss.Style {
	if s, ok := t.Cells[c]; ok {
		return s
	}
	return t.Cells[core.ColorDefault]
}

// Global theme variable (can be changed at runtime)
var (
	themeMu      sync.RWMutex
	currentTheme = JungleTheme()
)

// SetTheme sets the global theme.
func SetTheme(theme Theme) {
	themeMu.Lock()
	defer themeMu.Unlock()
	currentTheme = theme
}

// GetTheme returns the current global theme.
func GetTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/core"
	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/platform/tui"
	"github.com/vovakirdan/jungle-code/internal/registry"
)

var (
	flagProgram string
	flagExplore bool
	flagPlayer  string
)

var playCmd = &cobra.Command{
	Use:   "play [level]",
	Short: "Play in the terminal",
	Long: `Play a level in the terminal. Without a level, a level picker opens
and you return to it after each level.

Controls:
  Tab/E        - Edit the program (Enter runs it, Esc cancels)
  Enter/Space  - Run the program
  Arrows/WASD  - Take a single step
  .            - Wait one step
  R            - Reset the level
  N            - Next level (after completing one)
  P            - Pause
  Ctrl+S       - Save a PNG screenshot to ~/.jungle/screenshots
  Esc/B        - Back to the level picker
  Q/Ctrl+C     - Quit

Examples:
  jungle play
  jungle play first-steps --program "right 7"
  jungle play precision-path --explore
  jungle play key-collector --pace slow`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagProgram, "program", "", "Program to preload into the editor")
	playCmd.Flags().BoolVar(&flagExplore, "explore", false, "Walk freely with the arrow keys, no timer")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Name stored with your results")
}

func runPlay(_ *cobra.Command, args []string) error {
	width, height := terminalSize()
	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	if len(args) == 0 {
		return tui.RunSession(store, cfg, flagPlayer)
	}

	levelID := args[0]
	if _, err := settings.catalog.Get(levelID); err != nil {
		return fmt.Errorf("%w (run 'jungle list' to see levels)", err)
	}
	if flagProgram != "" {
		if _, err := command.Compile(flagProgram); err != nil {
			return fmt.Errorf("program: %w", err)
		}
	}

	mode := tui.ModeProgram
	if flagExplore {
		mode = tui.ModeExplore
	}
	jungle.SetStartLevel(levelID)
	jungle.SetStartProgram(flagProgram)

	game, err := registry.Create(mode)
	if err != nil {
		return err
	}
	return tui.Run(game, store, cfg, flagPlayer)
}

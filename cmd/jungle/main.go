// jungle is a grid adventure simulator for learning to program: write a
// short program, run it, and watch the explorer walk the jungle.
//
// Usage:
//
//	jungle list                 - List levels in the catalog
//	jungle play [level]         - Play in the terminal (picker when no level)
//	jungle run <level>          - Run a program headless and print the result
//	jungle serve                - Start SSH server for remote play
//	jungle http                 - Start the HTTP + websocket host bridge
//	jungle results [level]      - Show stored results
//	jungle validate [dir]       - Validate level files
//
// Global flags:
//
//	--config <path> - Custom config YAML
//	--pace <preset> - Step pacing: slow, normal, fast
//	--levels <dir>  - Load levels from a directory instead of the built-in set
//	--fps <rate>    - Set tick rate (default: 60)
//	--seed <value>  - Set RNG seed for cosmetic effects
//	--db <path>     - Set database path (default: ~/.jungle/results.db)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/jungle-code/internal/config"
	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
	"github.com/vovakirdan/jungle-code/internal/platform/tui"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

var (
	// Global flags
	flagConfig    string
	flagPace      string
	flagLevelsDir string
	flagFPS       int
	flagSeed      int64
	flagDBPath    string
)

// settings is the resolved configuration shared by the subcommands.
var settings struct {
	config  config.JungleConfig
	options jungle.Options
	catalog *levels.Catalog
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jungle",
	Short: "Jungle Code - program an explorer through the jungle",
	Long: `Jungle Code is a grid adventure for learning to program. Each level is a
small jungle map; write a program of moves, run it, and the explorer follows
it one tile at a time, collecting coins, fruit and keys on the way to the exit.

Program language:
  right, left, up, down   move one tile (add a count: right 3)
  wait                    stand still for one step
  repeat N { ... }        repeat a block
  # comment               ignored until end of line

Examples:
  jungle list
  jungle play
  jungle play key-collector --pace slow
  jungle run first-steps --program "right 7"
  jungle serve --ssh :23235
  jungle http --addr :8080`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPace, "pace", "", "Pace preset: slow, normal, fast")
	rootCmd.PersistentFlags().StringVar(&flagLevelsDir, "levels", "", "Directory of level files (default: built-in levels)")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed for effects (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (default: ~/.jungle/results.db)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(httpCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(validateCmd)
}

// setup loads config, pacing and the level catalog once per invocation.
func setup(cmd *cobra.Command, _ []string) error {
	pace, err := config.ParsePacePreset(flagPace)
	if err != nil {
		return err
	}

	opts, cfg, err := jungle.LoadOptions(flagConfig, pace)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	settings.config = cfg
	settings.options = opts

	jungle.SetConfigPath(flagConfig)
	jungle.SetPacePreset(pace)

	theme, err := tui.ThemeByName(cfg.Render.Theme)
	if err != nil {
		return err
	}
	tui.SetTheme(theme)

	// validate reads its own directory and must not fail on a broken catalog
	if cmd == validateCmd {
		return nil
	}

	dir := levelsDir()
	loader := levels.Builtin()
	if dir != "" {
		loader = levels.NewLoader(dir)
	}
	catalog, err := levels.LoadCatalog(loader)
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	settings.catalog = catalog
	jungle.SetCatalog(catalog)
	return nil
}

// levelsDir returns the level directory from the flag or the config.
func levelsDir() string {
	if flagLevelsDir != "" {
		return flagLevelsDir
	}
	return settings.config.Levels.Dir
}

// dbPath returns the results database path from the flag or the config.
func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	if settings.config.Storage.Path != "" {
		return settings.config.Storage.Path
	}
	return "~/.jungle/results.db"
}

// openStore opens the results database, warning instead of failing so play
// still works without it.
func openStore() *storage.Store {
	store, err := storage.Open(dbPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
		return nil
	}
	return store
}

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

// newLogger builds a logger in the style of the servers.
func newLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

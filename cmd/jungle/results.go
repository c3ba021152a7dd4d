package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/platform/tui"
	"github.com/vovakirdan/jungle-code/internal/storage"
)

var (
	flagResultsLimit int
	flagResultsTUI   bool
	flagResultsClear bool
)

var resultsCmd = &cobra.Command{
	Use:   "results [level]",
	Short: "Show stored results",
	Long: `Display the best results for a level, or a summary of every level when
no level is given.

Examples:
  jungle results
  jungle results first-steps --limit 20
  jungle results --tui
  jungle results first-steps --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().IntVar(&flagResultsLimit, "limit", 10, "Number of results to show")
	resultsCmd.Flags().BoolVar(&flagResultsTUI, "tui", false, "Browse results in an interactive table")
	resultsCmd.Flags().BoolVar(&flagResultsClear, "clear", false, "Delete the stored results of the level")
}

func runResults(_ *cobra.Command, args []string) error {
	store, err := storage.Open(dbPath())
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer store.Close()

	if flagResultsTUI {
		width, height := terminalSize()
		return tui.RunScoreboard(store, width, height)
	}

	if len(args) == 0 {
		if flagResultsClear {
			return errors.New("--clear needs a level")
		}
		return printSummary(store)
	}

	lvl, err := settings.catalog.Get(args[0])
	if err != nil {
		return err
	}

	if flagResultsClear {
		if err := store.ClearResults(lvl.ID); err != nil {
			return err
		}
		fmt.Printf("Cleared results for %s\n", lvl.ID)
		return nil
	}

	results, err := store.TopResults(lvl.ID, flagResultsLimit)
	if err != nil {
		return fmt.Errorf("retrieve results: %w", err)
	}

	fmt.Printf("Results - %s\n", lvl.Name)
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("No results recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'jungle play %s' to set the first one!\n", lvl.ID)
		return nil
	}

	fmt.Printf("  %-4s  %-12s  %-5s  %-5s  %-8s  %s\n", "Rank", "Player", "Score", "Steps", "Time", "Date")
	fmt.Printf("  %-4s  %-12s  %-5s  %-5s  %-8s  %s\n", "----", "------", "-----", "-----", "----", "----")

	for i, r := range results {
		player := r.Player
		if player == "" {
			player = "-"
		}
		fmt.Printf("  %-4d  %-12s  %-5d  %-5d  %-8s  %s\n",
			i+1, player, r.Score, r.Commands, r.Duration.Round(100*time.Millisecond), r.CreatedAt.Format("2006-01-02 15:04"))
	}

	if best, err := store.BestScore(lvl.ID); err == nil {
		fmt.Println()
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}

// printSummary prints one line per catalog level.
func printSummary(store *storage.Store) error {
	stats, err := store.GetAllLevelStats()
	if err != nil {
		return fmt.Errorf("retrieve stats: %w", err)
	}

	fmt.Printf("  %-20s  %-5s  %-5s  %-5s  %s\n", "Level", "Done", "Best", "Steps", "Last played")
	fmt.Printf("  %-20s  %-5s  %-5s  %-5s  %s\n", "-----", "----", "----", "-----", "-----------")
	for _, l := range settings.catalog.List() {
		st, ok := stats[l.ID]
		if !ok || st.Completions == 0 {
			fmt.Printf("  %-20s  %-5d  %-5s  %-5s  %s\n", l.ID, 0, "-", "-", "-")
			continue
		}
		fmt.Printf("  %-20s  %-5d  %-5d  %-5d  %s\n",
			l.ID, st.Completions, st.BestScore, st.FewestSteps, st.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}

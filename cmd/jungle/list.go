package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List levels and play modes",
	Long:  `Shows the levels of the catalog and the registered play modes.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	lvls := settings.catalog.List()
	if len(lvls) == 0 {
		fmt.Println("No levels available.")
		return
	}

	fmt.Println("Levels:")
	fmt.Println()

	maxIDLen := 2 // "ID" header
	for _, l := range lvls {
		if len(l.ID) > maxIDLen {
			maxIDLen = len(l.ID)
		}
	}

	fmt.Printf("  %-*s  %-5s  %-6s  %s\n", maxIDLen, "ID", "Size", "Timer", "Name")
	fmt.Printf("  %-*s  %-5s  %-6s  %s\n", maxIDLen, "--", "----", "-----", "----")

	for _, l := range lvls {
		timer := "-"
		if l.World.TimeLimitSeconds > 0 {
			timer = fmt.Sprintf("%ds", l.World.TimeLimitSeconds)
		}
		size := fmt.Sprintf("%dx%d", l.World.Width, l.World.Height)
		fmt.Printf("  %-*s  %-5s  %-6s  %s\n", maxIDLen, l.ID, size, timer, l.Name)
	}

	fmt.Println()
	fmt.Println("Modes:")
	for _, g := range registry.List() {
		fmt.Printf("  %-*s  %s\n", maxIDLen, g.ID, g.Title)
	}

	fmt.Println()
	fmt.Println("Run 'jungle play <id>' to play a level.")
}

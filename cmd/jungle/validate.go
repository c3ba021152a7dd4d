package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate level files",
	Long: `Load every level file in a directory and report the ones that fail to
parse or describe a malformed world. Without a directory, the built-in levels
(or --levels) are checked.

Examples:
  jungle validate ./levels`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(_ *cobra.Command, args []string) error {
	dir := levelsDir()
	if len(args) == 1 {
		dir = args[0]
	}

	loader := levels.Builtin()
	name := "built-in levels"
	if dir != "" {
		loader = levels.NewLoader(dir)
		name = dir
	}

	ok, bad, err := loader.Check()
	if err != nil {
		return err
	}

	for _, l := range ok {
		fmt.Printf("  ok    %-20s  %dx%d  %s\n", l.ID, l.World.Width, l.World.Height, l.Name)
	}
	for _, fe := range bad {
		fmt.Printf("  FAIL  %s\n", fe.Error())
	}

	fmt.Println()
	fmt.Printf("%s: %d valid, %d invalid\n", name, len(ok), len(bad))
	if len(bad) > 0 {
		return fmt.Errorf("%d invalid level file(s)", len(bad))
	}
	return nil
}

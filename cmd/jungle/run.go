package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jungle-code/internal/games/jungle"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/command"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/render"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
)

var (
	flagRunProgram string
	flagRunFile    string
	flagPNG        string
	flagPolicy     string
	flagEvents     bool
	flagMaxTime    time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <level>",
	Short: "Run a program headless and print the final state",
	Long: `Compile a program, run it on a level at the configured pace without a
terminal UI, and print the final snapshot as JSON. The simulated clock runs as
fast as the machine allows.

Exit status is 0 when the level was completed and 2 when it was not.

Examples:
  jungle run first-steps --program "right 7"
  jungle run key-collector --file solution.txt --png final.png
  jungle run grand-adventure --file solution.txt --policy keyed --events`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagRunProgram, "program", "", "Program source")
	runCmd.Flags().StringVarP(&flagRunFile, "file", "f", "", "Read the program from a file")
	runCmd.Flags().StringVar(&flagPNG, "png", "", "Write the final frame as PNG")
	runCmd.Flags().StringVar(&flagPolicy, "policy", "", "Door policy override: global or keyed")
	runCmd.Flags().BoolVar(&flagEvents, "events", false, "Include every simulator event in the output")
	runCmd.Flags().DurationVar(&flagMaxTime, "max-time", 10*time.Minute, "Give up after this much simulated time")
}

// eventLog collects engine events for the report.
type eventLog struct {
	events []sim.Event
}

func (l *eventLog) OnEvent(e sim.Event)     { l.events = append(l.events, e) }
func (l *eventLog) OnSnapshot(sim.Snapshot) {}

// runReport is the JSON printed by run.
type runReport struct {
	Level    string         `json:"level"`
	Commands int            `json:"commands"`
	Complete bool           `json:"complete"`
	Elapsed  string         `json:"elapsed"`
	Result   *jungle.Result `json:"result,omitempty"`
	Snapshot sim.Snapshot   `json:"snapshot"`
	Events   []sim.Event    `json:"events,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	lvl, err := settings.catalog.Get(args[0])
	if err != nil {
		return err
	}

	src := flagRunProgram
	if flagRunFile != "" {
		data, readErr := os.ReadFile(flagRunFile)
		if readErr != nil {
			return readErr
		}
		src = string(data)
	}
	q, err := command.Compile(src)
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}

	opts := settings.options
	if flagPolicy != "" {
		policy, policyErr := sim.ParseDoorPolicy(flagPolicy)
		if policyErr != nil {
			return policyErr
		}
		opts.Rules.DoorPolicy = policy
	}
	if flagSeed != 0 {
		opts.Render.Seed = flagSeed
	}

	engine, err := jungle.NewEngine(lvl.World, opts)
	if err != nil {
		return err
	}
	events := &eventLog{}
	engine.Subscribe(events)

	if err := engine.Run(q, engine.NextToken()); err != nil {
		return err
	}

	dt := time.Second / time.Duration(max(flagFPS, 1))
	var simulated time.Duration
	for engine.Running() && simulated < flagMaxTime {
		engine.Advance(dt)
		simulated += dt
	}
	if engine.Running() {
		return fmt.Errorf("run did not finish within %s of simulated time", flagMaxTime)
	}

	// Let the smoothed position catch up before exporting the frame.
	if flagPNG != "" {
		for i := 0; i < flagFPS && !engine.Renderer().Settled(engine.Snapshot()); i++ {
			engine.Advance(dt)
		}
		img := engine.Renderer().Image(engine.Snapshot(), settings.config.Render.TileSize)
		if err := render.SavePNG(flagPNG, img); err != nil {
			return err
		}
	}

	snap := engine.Snapshot()
	report := runReport{
		Level:    lvl.ID,
		Commands: len(q),
		Complete: snap.Complete,
		Elapsed:  simulated.String(),
		Result:   engine.Result(),
		Snapshot: snap,
	}
	if flagEvents {
		report.Events = events.events
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !snap.Complete {
		cmd.SilenceErrors = true
		os.Exit(2)
	}
	return nil
}

package jungle

import (
	"fmt"
	"time"

	"github.com/vovakirdan/jungle-code/internal/config"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/executor"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
)

// OptionsFromConfig converts a loaded configuration into engine options.
// Zero values fall back to the defaults of each component.
func OptionsFromConfig(cfg config.JungleConfig) (Options, error) {
	opts := DefaultOptions()

	policy, err := sim.ParseDoorPolicy(cfg.Rules.DoorPolicy)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	opts.Rules = sim.Rules{
		CoinPoints:  cfg.Rules.CoinPoints,
		FruitPoints: cfg.Rules.FruitPoints,
		KeyPoints:   cfg.Rules.KeyPoints,
		DoorPolicy:  policy,
		GraceDelay:  time.Duration(cfg.Rules.GraceDelayMS) * time.Millisecond,
	}

	opts.Pacing = executor.Config{
		Interval:     time.Duration(cfg.Pacing.StepIntervalMS) * time.Millisecond,
		UnknownDelay: time.Duration(cfg.Pacing.UnknownDelayMS) * time.Millisecond,
	}
	if opts.Pacing.Interval <= 0 {
		opts.Pacing.Interval = executor.DefaultInterval
	}
	if opts.Pacing.UnknownDelay <= 0 {
		opts.Pacing.UnknownDelay = executor.DefaultUnknownDelay
	}

	if cfg.Render.Smoothing > 0 && cfg.Render.Smoothing <= 1 {
		opts.Render.Smoothing = cfg.Render.Smoothing
	}
	if cfg.Render.FrameRate > 0 {
		opts.Render.FrameRate = cfg.Render.FrameRate
	}
	if cfg.Render.CellW > 0 {
		opts.Render.CellW = cfg.Render.CellW
	}
	if cfg.Render.CellH > 0 {
		opts.Render.CellH = cfg.Render.CellH
	}
	return opts, nil
}

// LoadOptions loads the configuration at path (see config.LoadJungle),
// applies a pace preset and converts it.
func LoadOptions(path string, pace config.PacePreset) (Options, config.JungleConfig, error) {
	cfg, err := config.LoadJungle(path)
	if err != nil {
		return DefaultOptions(), cfg, err
	}
	config.ApplyPacePreset(&cfg, pace)
	opts, err := OptionsFromConfig(cfg)
	return opts, cfg, err
}

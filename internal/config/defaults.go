package config

import (
	_ "embed"
)

//go:embed defaults/jungle.yaml
var defaultJungleYAML []byte

// DefaultJungleConfig returns the hardcoded jungle configuration.
func DefaultJungleConfig() JungleConfig {
	return JungleConfig{
		Pacing: PacingConfig{
			StepIntervalMS: 450,
			UnknownDelayMS: 50,
		},
		Render: RenderConfig{
			Smoothing: 0.2,
			FrameRate: 60,
			CellW:     4,
			CellH:     2,
			TileSize:  60,
			Theme:     "jungle",
		},
		Rules: RulesConfig{
			CoinPoints:   10,
			FruitPoints:  5,
			KeyPoints:    0,
			DoorPolicy:   "global",
			GraceDelayMS: 1000,
		},
	}
}

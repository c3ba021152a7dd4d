// Package config provides YAML-based configuration loading and pace
// presets for the jungle simulator.
package config

// JungleConfig contains all configuration for the jungle simulator.
type JungleConfig struct {
	Pacing  PacingConfig  `yaml:"pacing"`
	Render  RenderConfig  `yaml:"render"`
	Rules   RulesConfig   `yaml:"rules"`
	Levels  LevelsConfig  `yaml:"levels"`
	Storage StorageConfig `yaml:"storage"`
}

// PacingConfig controls how fast a program plays out.
type PacingConfig struct {
	Preset         PacePreset `yaml:"preset"`           // "slow", "normal", "fast" or empty for step_interval_ms
	StepIntervalMS int        `yaml:"step_interval_ms"` // Delay before each dispatched command
	UnknownDelayMS int        `yaml:"unknown_delay_ms"` // Delay for skipped unknown commands
}

// RenderConfig defines presentation parameters.
type RenderConfig struct {
	Smoothing float64 `yaml:"smoothing"`  // Fraction of the remaining distance covered per frame
	FrameRate int     `yaml:"frame_rate"` // Reference frame rate for smoothing and the TUI tick
	CellW     int     `yaml:"cell_w"`     // Terminal columns per tile
	CellH     int     `yaml:"cell_h"`     // Terminal rows per tile
	TileSize  int     `yaml:"tile_size"`  // Pixels per tile in PNG frames
	Theme     string  `yaml:"theme"`      // "jungle" or "mono"
}

// RulesConfig defines scoring and door behavior.
type RulesConfig struct {
	CoinPoints   int    `yaml:"coin_points"`
	FruitPoints  int    `yaml:"fruit_points"`
	KeyPoints    int    `yaml:"key_points"`
	DoorPolicy   string `yaml:"door_policy"`    // "global" or "keyed"
	GraceDelayMS int    `yaml:"grace_delay_ms"` // Pause between time running out and the reset
}

// LevelsConfig points at an optional directory of level files.
type LevelsConfig struct {
	Dir   string `yaml:"dir"`   // Empty means the built-in catalog
	Watch bool   `yaml:"watch"` // Reload the directory when files change
}

// StorageConfig locates the results database.
type StorageConfig struct {
	Path string `yaml:"path"` // Empty means ~/.jungle/results.db
}

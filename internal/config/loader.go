package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadJungle loads the jungle configuration.
// Search order: customPath -> ~/.jungle/configs/jungle.yaml -> ./configs/jungle.yaml -> embedded default
// Files are layered over the defaults, so a file may set only a few keys.
func LoadJungle(customPath string) (JungleConfig, error) {
	cfg := DefaultJungleConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return finish(cfg), nil
	}

	// Try user config directory
	if userCfgPath := UserPath("configs", "jungle.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return finish(cfg), nil
			}
			cfg = DefaultJungleConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/jungle.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return finish(cfg), nil
		}
		cfg = DefaultJungleConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultJungleYAML, &cfg); err != nil {
		return DefaultJungleConfig(), nil // Fallback to hardcoded if embed fails
	}
	return finish(cfg), nil
}

// finish applies the preset named in the file, if any.
func finish(cfg JungleConfig) JungleConfig {
	ApplyPacePreset(&cfg, cfg.Pacing.Preset)
	return cfg
}

// UserPath returns a path under ~/.jungle, or empty if home is unavailable.
func UserPath(elem ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home, ".jungle"}, elem...)...)
}

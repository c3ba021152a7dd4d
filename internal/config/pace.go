package config

import (
	"fmt"
	"strings"
)

// PacePreset represents a named playback speed.
type PacePreset string

const (
	PaceSlow   PacePreset = "slow"
	PaceNormal PacePreset = "normal"
	PaceFast   PacePreset = "fast"
)

// IntervalForPreset returns the step interval in milliseconds for a preset,
// or 0 for an unknown one.
func IntervalForPreset(preset PacePreset) int {
	switch preset {
	case PaceSlow:
		return 700
	case PaceNormal:
		return 450
	case PaceFast:
		return 250
	default:
		return 0
	}
}

// ParsePacePreset validates a preset name. Empty is allowed and means
// "keep the configured interval".
func ParsePacePreset(s string) (PacePreset, error) {
	p := PacePreset(strings.ToLower(strings.TrimSpace(s)))
	if p == "" || IntervalForPreset(p) > 0 {
		return p, nil
	}
	return "", fmt.Errorf("unknown pace %q (want slow, normal or fast)", s)
}

// ApplyPacePreset modifies the config based on a pace preset.
func ApplyPacePreset(cfg *JungleConfig, preset PacePreset) {
	if ms := IntervalForPreset(preset); ms > 0 {
		cfg.Pacing.Preset = preset
		cfg.Pacing.StepIntervalMS = ms
	}
}

package jungle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jungle-code/internal/config"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/sim"
)

func TestOptionsFromDefaultConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.DefaultJungleConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestOptionsFromConfigOverrides(t *testing.T) {
	cfg := config.DefaultJungleConfig()
	cfg.Rules.DoorPolicy = "keyed"
	cfg.Rules.FruitPoints = 7
	cfg.Pacing.StepIntervalMS = 0
	cfg.Render.Smoothing = 3 // out of range, ignored
	config.ApplyPacePreset(&cfg, config.PaceFast)

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, sim.DoorsKeyed, opts.Rules.DoorPolicy)
	assert.Equal(t, 7, opts.Rules.FruitPoints)
	assert.Equal(t, 250*time.Millisecond, opts.Pacing.Interval)
	assert.Equal(t, DefaultOptions().Render.Smoothing, opts.Render.Smoothing)
}

func TestOptionsFromConfigBadPolicy(t *testing.T) {
	cfg := config.DefaultJungleConfig()
	cfg.Rules.DoorPolicy = "sometimes"
	_, err := OptionsFromConfig(cfg)
	require.Error(t, err)
}

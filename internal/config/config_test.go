package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/skirmish/internal/combat"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skirmish.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeInteractive, cfg.Mode)
	assert.Equal(t, RandomEnemy, cfg.Enemy)
	assert.Equal(t, combat.CostReject, cfg.Policy())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
seed: 42
mode: auto
player: mage
enemy: orc
cost_policy: clamp
level: 3
unlock: [cripple]
upgrades:
  fireball: 2
log:
  level: debug
telemetry:
  enabled: true
  dataset: skirmish-dev
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, ModeAuto, cfg.Mode)
	assert.Equal(t, "mage", cfg.Player)
	assert.Equal(t, "orc", cfg.Enemy)
	assert.Equal(t, combat.CostClamp, cfg.Policy())
	assert.Equal(t, 3, cfg.Level)
	assert.Equal(t, []string{"cripple"}, cfg.Unlock)
	assert.Equal(t, map[string]int{"fireball": 2}, cfg.Upgrades)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "skirmish.log", cfg.Log.File, "unset keys keep defaults")
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "skirmish-dev", cfg.Telemetry.Dataset)
}

func TestLoadEdgeCases(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(writeFile(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeFile(t, "colour: red\n"))
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SKIRMISH_SEED":        "7",
		"SKIRMISH_MODE":        "AUTO",
		"SKIRMISH_ENEMY":       "goblin",
		"SKIRMISH_COST_POLICY": "allow_negative",
		"SKIRMISH_TELEMETRY":   "true",
		"SKIRMISH_PLAYER":      "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, ModeAuto, cfg.Mode)
	assert.Equal(t, "goblin", cfg.Enemy)
	assert.Equal(t, "knight", cfg.Player, "empty values are ignored")
	assert.Equal(t, combat.CostAllowNegative, cfg.Policy())
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SKIRMISH_SEED", "seven"},
		{"SKIRMISH_TELEMETRY", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(func(k string) (string, bool) {
				if k == tt.key {
					return tt.value, true
				}
				return "", false
			})
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "spectate" }},
		{"no player", func(c *Config) { c.Player = "" }},
		{"no enemy", func(c *Config) { c.Enemy = "" }},
		{"bad policy", func(c *Config) { c.CostPolicy = "borrow" }},
		{"negative level", func(c *Config) { c.Level = -1 }},
		{"negative upgrade", func(c *Config) { c.Upgrades = map[string]int{"mend": -1} }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

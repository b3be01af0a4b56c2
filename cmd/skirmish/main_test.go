package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

func TestPlayerRecordAppliesProgression(t *testing.T) {
	catalog := gamedata.MustLoadAbilityRegistry()
	combatants := gamedata.MustLoadCombatantRegistry(catalog)
	before := catalog.GetByID("power_strike").Effects[gamedata.PhysicalDamage]

	cfg := config.Default()
	cfg.Level = 3
	cfg.Unlock = []string{"mend"}
	cfg.Upgrades = map[string]int{"power_strike": 2}

	record, err := playerRecord(cfg, catalog, combatants)
	require.NoError(t, err)

	assert.Equal(t, 3, record.Level)
	assert.True(t, record.IsUnlocked("mend"))
	assert.Equal(t, 2, record.Upgrades["power_strike"])
	assert.Equal(t, before+10, catalog.GetByID("power_strike").Effects[gamedata.PhysicalDamage])
}

func TestPlayerRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"unknown player", func(c *config.Config) { c.Player = "dragon" }, gamedata.ErrUnknownCombatant},
		{"unknown unlock", func(c *config.Config) { c.Unlock = []string{"fireball"} }, entity.ErrAbilityNotKnown},
		{"upgrade beyond level", func(c *config.Config) { c.Upgrades = map[string]int{"power_strike": 1} }, entity.ErrUpgradeLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := gamedata.MustLoadAbilityRegistry()
			combatants := gamedata.MustLoadCombatantRegistry(catalog)
			cfg := config.Default()
			tt.mutate(&cfg)

			_, err := playerRecord(cfg, catalog, combatants)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEnemyRecord(t *testing.T) {
	combatants := gamedata.MustLoadCombatantRegistry(gamedata.MustLoadAbilityRegistry())
	rng := rand.New(rand.NewSource(3))

	cfg := config.Default()
	cfg.Enemy = "orc"
	record, err := enemyRecord(cfg, combatants, rng)
	require.NoError(t, err)
	assert.Equal(t, "orc", record.ID)

	cfg.Enemy = config.RandomEnemy
	for range 20 {
		record, err := enemyRecord(cfg, combatants, rng)
		require.NoError(t, err)
		assert.NotContains(t, []string{"knight", "mage"}, record.ID, "heroes have no spawn weight")
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SKIRMISH_SEED", "5")

	cfg, err := loadConfig("", 9, true)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, config.ModeAuto, cfg.Mode)
}

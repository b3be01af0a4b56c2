// Package entity provides combatant records: the static definition of a hero or
// foe that combat reads from but never mutates.
package entity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samdwyer/skirmish/internal/gamedata"
)

var (
	// ErrAbilityNotKnown is returned when unlocking an ability outside the record's list.
	ErrAbilityNotKnown = errors.New("ability not in combatant's ability list")
	// ErrUpgradeLocked is returned when the record's level does not allow another upgrade.
	ErrUpgradeLocked = errors.New("ability upgrade locked by level")
)

// Record is a combatant's persisted definition. It is owned by the progression
// layer; combat takes copies of its stats and never writes back.
type Record struct {
	ID           string
	Name         string
	Sprite       string // Asset reference for the presentation layer
	SpriteHeight int    // Used only to normalize strike location
	Color        string // Hex display color
	Level        int
	Stats        gamedata.StatMap
	Abilities    []string       // Full ability list
	Unlocked     []string       // Subset usable in combat
	Upgrades     map[string]int // Upgrades applied per ability ID
}

// NewRecord creates a record from a definition. Nothing is shared with def.
func NewRecord(def *gamedata.CombatantDef) *Record {
	level := def.Level
	if level < 1 {
		level = 1
	}
	return &Record{
		ID:           def.ID,
		Name:         def.Name,
		Sprite:       def.Sprite,
		SpriteHeight: def.SpriteHeight,
		Color:        def.Color,
		Level:        level,
		Stats:        def.Stats.Clone(),
		Abilities:    slices.Clone(def.Abilities),
		Unlocked:     slices.Clone(def.Unlocked),
		Upgrades:     make(map[string]int),
	}
}

// IsAlive reports whether the record's base health is above zero.
func (r *Record) IsAlive() bool {
	return r.Stats.Get(gamedata.HealthPoints) > 0
}

// Knows reports whether id is in the full ability list.
func (r *Record) Knows(id string) bool {
	return slices.Contains(r.Abilities, id)
}

// IsUnlocked reports whether id may be used in combat.
func (r *Record) IsUnlocked(id string) bool {
	return slices.Contains(r.Unlocked, id)
}

// Unlock makes a known ability usable. Unlocking twice is a no-op.
func (r *Record) Unlock(id string) error {
	if !r.Knows(id) {
		return fmt.Errorf("%s: %w: %q", r.Name, ErrAbilityNotKnown, id)
	}
	if !r.IsUnlocked(id) {
		r.Unlocked = append(r.Unlocked, id)
	}
	return nil
}

// UnlockedAbilities resolves the unlocked subset against the catalog, in unlock order.
func (r *Record) UnlockedAbilities(catalog *gamedata.AbilityRegistry) []*gamedata.Ability {
	return catalog.GetMultiple(r.Unlocked)
}

// UpgradeAbility upgrades a catalog template on behalf of this record. A record
// may upgrade each ability at most Level-1 times.
func (r *Record) UpgradeAbility(catalog *gamedata.AbilityRegistry, id string) error {
	if !r.IsUnlocked(id) {
		return fmt.Errorf("%s: %w: %q", r.Name, ErrAbilityNotKnown, id)
	}
	if r.Upgrades[id] >= r.Level-1 {
		return fmt.Errorf("%s level %d: %w: %q", r.Name, r.Level, ErrUpgradeLocked, id)
	}
	if err := catalog.Upgrade(id); err != nil {
		return err
	}
	r.Upgrades[id]++
	return nil
}

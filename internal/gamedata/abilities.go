package gamedata

import (
	"errors"
	"fmt"
)

// =============================================================================
// ABILITY SYSTEM DESIGN
// =============================================================================
//
// Overview:
// ---------
// Abilities are shared, data-driven templates loaded from abilities.json at
// startup. Combat never mutates a template: whenever an ability is used, the
// combat controller stores a Copy in the user's history, and that copy carries
// its own duration countdown.
//
// Effects:
// --------
// An ability's effect map is keyed by Stat and interpreted by class:
//    - resource (health_points, ...): applied to the caster, clamped to cap
//    - modifier (physical_defense, ...): buff on the caster, reversed on expiry
//    - debuff (stun, bleed, ...): staged onto the opponent for Duration turns
//    - meta: cooldown (turns before reuse), critical (added to critical rate)
//
// JSON Schema:
// ------------
// {
//   "id": "shield_bash",
//   "name": "Shield Bash",
//   "description": "Slams the shield into the foe, leaving them dazed",
//   "effects": {"stun": 1, "physical_damage": 10, "cooldown": 4},
//   "costs": [{"stat": "mana_points", "amount": 15}],
//   "duration": 2,
//   "upgrades": [{"stat": "physical_damage", "amount": 5}],
//   "icon": "icons/shield_bash.png",
//   "color": "#C0C0C0"
// }
//
// Damage Calculation (combat.Controller):
// ---------------------------------------
// physical = floor(physical_damage * physical_power / 50 + critical roll)
// magical  = floor(magical_damage * spell_power / 50 + critical roll)
// mitigated by defense/400, then absorption, then subtracted from health.
//
// Telemetry:
// ----------
// - combat.start: match_id, player, enemy
// - combat.turn: actor, ability, physical/magical damage, health_lost, stunned
// - combat.end: outcome, turns_taken, hp remaining on both sides

// ErrUnknownAbility is returned when an ability ID is not in the catalog.
var ErrUnknownAbility = errors.New("unknown ability")

// Ability is an immutable-by-convention ability template.
type Ability struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Effects     StatMap      `json:"effects"`
	Costs       []StatAmount `json:"costs,omitempty"`
	Duration    int          `json:"duration"`
	Upgrades    []StatAmount `json:"upgrades,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Color       string       `json:"color,omitempty"`
}

// Cooldown returns the number of turns the ability stays unavailable after use.
func (a *Ability) Cooldown() int {
	return a.Effects.Get(Cooldown)
}

// Copy returns a value copy that shares no mutable state with a.
func (a *Ability) Copy() Ability {
	c := *a
	c.Effects = a.Effects.Clone()
	if a.Costs != nil {
		c.Costs = append([]StatAmount(nil), a.Costs...)
	}
	if a.Upgrades != nil {
		c.Upgrades = append([]StatAmount(nil), a.Upgrades...)
	}
	return c
}

// Upgrade adds every upgrade delta to the ability's own effects, creating entries
// as needed. Calls compound without limit; callers gate how often it runs.
func (a *Ability) Upgrade() {
	if a.Effects == nil {
		a.Effects = StatMap{}
	}
	for _, delta := range a.Upgrades {
		a.Effects[delta.Stat] += delta.Amount
	}
}

// validate checks the invariants the combat controller relies on.
func (a *Ability) validate() error {
	if a.ID == "" {
		return errors.New("ability missing id")
	}
	if !a.Effects.Has(Cooldown) {
		return fmt.Errorf("ability %q: effects missing %q", a.ID, Cooldown)
	}
	if a.Duration < 0 {
		return fmt.Errorf("ability %q: negative duration %d", a.ID, a.Duration)
	}
	for _, c := range a.Costs {
		if !c.Stat.Valid() {
			return fmt.Errorf("ability %q: %w in costs", a.ID, ErrUnknownStat)
		}
	}
	return nil
}

// AbilitiesFile represents the structure of abilities.json.
type AbilitiesFile struct {
	Abilities []Ability `json:"abilities"`
}

// LoadAbilities loads ability definitions from the embedded abilities.json file.
func LoadAbilities() ([]Ability, error) {
	file, err := Load[AbilitiesFile]("abilities.json")
	if err != nil {
		return nil, err
	}
	for i := range file.Abilities {
		if err := file.Abilities[i].validate(); err != nil {
			return nil, fmt.Errorf("abilities.json: %w", err)
		}
	}
	return file.Abilities, nil
}

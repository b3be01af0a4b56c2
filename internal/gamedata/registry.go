package gamedata

import (
	"errors"
	"fmt"
	"math/rand"
)

// =============================================================================
// AbilityRegistry
// =============================================================================

// AbilityRegistry is the ability catalog: templates keyed by ID.
type AbilityRegistry struct {
	abilities map[string]*Ability
	all       []Ability
}

// NewAbilityRegistry creates a registry from loaded ability definitions.
func NewAbilityRegistry(abilities []Ability) *AbilityRegistry {
	registry := &AbilityRegistry{
		abilities: make(map[string]*Ability, len(abilities)),
		all:       abilities,
	}
	for i := range abilities {
		registry.abilities[abilities[i].ID] = &abilities[i]
	}
	return registry
}

// LoadAbilityRegistry loads and creates a registry from the embedded abilities.json.
func LoadAbilityRegistry() (*AbilityRegistry, error) {
	abilities, err := LoadAbilities()
	if err != nil {
		return nil, err
	}
	if len(abilities) == 0 {
		return nil, errors.New("no abilities loaded from abilities.json")
	}
	seen := make(map[string]bool, len(abilities))
	for _, a := range abilities {
		if seen[a.ID] {
			return nil, fmt.Errorf("abilities.json: duplicate ability id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return NewAbilityRegistry(abilities), nil
}

// MustLoadAbilityRegistry loads a registry, panicking on error.
func MustLoadAbilityRegistry() *AbilityRegistry {
	registry, err := LoadAbilityRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// GetByID returns the ability template with the given ID, or nil if not found.
func (r *AbilityRegistry) GetByID(id string) *Ability {
	return r.abilities[id]
}

// GetMultiple returns ability templates for a list of IDs.
// Missing IDs are silently skipped.
func (r *AbilityRegistry) GetMultiple(ids []string) []*Ability {
	result := make([]*Ability, 0, len(ids))
	for _, id := range ids {
		if ability := r.abilities[id]; ability != nil {
			result = append(result, ability)
		}
	}
	return result
}

// Upgrade applies the upgrade deltas of the named template once.
func (r *AbilityRegistry) Upgrade(id string) error {
	ability := r.abilities[id]
	if ability == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	ability.Upgrade()
	return nil
}

// All returns all ability definitions.
func (r *AbilityRegistry) All() []Ability {
	return r.all
}

// Count returns the number of abilities in the registry.
func (r *AbilityRegistry) Count() int {
	return len(r.all)
}

// =============================================================================
// CombatantRegistry
// =============================================================================

// CombatantRegistry holds loaded combatant definitions and picks random opponents.
type CombatantRegistry struct {
	combatants  []CombatantDef
	totalWeight int
}

// NewCombatantRegistry creates a registry from loaded combatant definitions.
func NewCombatantRegistry(combatants []CombatantDef) *CombatantRegistry {
	totalWeight := 0
	for _, c := range combatants {
		totalWeight += c.SpawnWeight
	}
	return &CombatantRegistry{
		combatants:  combatants,
		totalWeight: totalWeight,
	}
}

// LoadCombatantRegistry loads combatants.json and checks every ability reference
// against the given catalog.
func LoadCombatantRegistry(abilities *AbilityRegistry) (*CombatantRegistry, error) {
	combatants, err := LoadCombatants()
	if err != nil {
		return nil, err
	}
	if len(combatants) == 0 {
		return nil, errors.New("no combatants loaded from combatants.json")
	}
	for i := range combatants {
		if err := combatants[i].validate(abilities); err != nil {
			return nil, fmt.Errorf("combatants.json: %w", err)
		}
	}
	return NewCombatantRegistry(combatants), nil
}

// MustLoadCombatantRegistry loads a registry, panicking on error.
func MustLoadCombatantRegistry(abilities *AbilityRegistry) *CombatantRegistry {
	registry, err := LoadCombatantRegistry(abilities)
	if err != nil {
		panic(err)
	}
	return registry
}

// SpawnRandom selects a random combatant definition using weighted probability.
// Combatants with a higher spawnWeight are more likely to be selected.
func (r *CombatantRegistry) SpawnRandom(rng *rand.Rand) *CombatantDef {
	if r.totalWeight <= 0 || len(r.combatants) == 0 {
		return nil
	}

	roll := rng.Intn(r.totalWeight)

	cumulative := 0
	for i := range r.combatants {
		cumulative += r.combatants[i].SpawnWeight
		if roll < cumulative {
			return &r.combatants[i]
		}
	}

	return &r.combatants[0]
}

// GetByID returns the combatant definition with the given ID, or nil if not found.
func (r *CombatantRegistry) GetByID(id string) *CombatantDef {
	for i := range r.combatants {
		if r.combatants[i].ID == id {
			return &r.combatants[i]
		}
	}
	return nil
}

// Lookup is GetByID with an error for callers that propagate failures.
func (r *CombatantRegistry) Lookup(id string) (*CombatantDef, error) {
	if def := r.GetByID(id); def != nil {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCombatant, id)
}

// All returns all combatant definitions.
func (r *CombatantRegistry) All() []CombatantDef {
	return r.combatants
}

// Count returns the number of combatants in the registry.
func (r *CombatantRegistry) Count() int {
	return len(r.combatants)
}

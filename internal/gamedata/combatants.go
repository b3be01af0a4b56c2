package gamedata

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// ErrUnknownCombatant is returned when a combatant ID is not in the registry.
var ErrUnknownCombatant = errors.New("unknown combatant")

// CombatantDef defines a fighter (hero or foe) loaded from JSON.
type CombatantDef struct {
	ID           string   `json:"id"`           // Unique identifier (e.g., "knight")
	Name         string   `json:"name"`         // Display name (e.g., "Knight")
	Sprite       string   `json:"sprite"`       // Asset reference, resolved by the presentation layer
	SpriteHeight int      `json:"spriteHeight"` // Sprite height in pixels, normalizes strike location
	Color        string   `json:"color"`        // Hex color code (e.g., "#00FF00")
	Level        int      `json:"level"`        // Starting level
	SpawnWeight  int      `json:"spawnWeight"`  // Relative frequency as a random opponent (0 = never)
	Stats        StatMap  `json:"stats"`        // Base statistics
	Abilities    []string `json:"abilities"`    // Every ability ID this combatant can learn
	Unlocked     []string `json:"unlocked"`     // Ability IDs usable from the start
}

// TCellColor returns the color as a tcell.Color.
func (c *CombatantDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(c.Color)
	if err != nil {
		return tcell.ColorWhite // fallback
	}
	return color
}

func (c *CombatantDef) validate(abilities *AbilityRegistry) error {
	if c.ID == "" {
		return errors.New("combatant missing id")
	}
	if !c.Stats.Has(HealthPoints) {
		return fmt.Errorf("combatant %q: stats missing %q", c.ID, HealthPoints)
	}
	known := make(map[string]bool, len(c.Abilities))
	for _, id := range c.Abilities {
		if abilities != nil && abilities.GetByID(id) == nil {
			return fmt.Errorf("combatant %q: %w %q", c.ID, ErrUnknownAbility, id)
		}
		known[id] = true
	}
	for _, id := range c.Unlocked {
		if !known[id] {
			return fmt.Errorf("combatant %q: unlocked ability %q not in ability list", c.ID, id)
		}
	}
	return nil
}

// CombatantsFile represents the structure of combatants.json.
type CombatantsFile struct {
	Combatants []CombatantDef `json:"combatants"`
}

// LoadCombatants loads combatant definitions from the embedded combatants.json file.
func LoadCombatants() ([]CombatantDef, error) {
	file, err := Load[CombatantsFile]("combatants.json")
	if err != nil {
		return nil, err
	}
	return file.Combatants, nil
}

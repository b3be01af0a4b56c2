package game

import (
	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

// Side identifies one of the two combatants in a match.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns a human-readable side name.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Fighter pairs a combatant record with its live controller.
type Fighter struct {
	Side       Side
	Record     *entity.Record
	Controller *combat.Controller
}

// NewFighter builds a controller from the record's base stats.
func NewFighter(side Side, record *entity.Record, opts ...combat.Option) *Fighter {
	return &Fighter{
		Side:       side,
		Record:     record,
		Controller: combat.NewController(record.Stats, record.SpriteHeight, opts...),
	}
}

// Name returns the record's display name.
func (f *Fighter) Name() string {
	return f.Record.Name
}

// Usable returns the unlocked abilities that are off cooldown and affordable,
// in unlock order.
func (f *Fighter) Usable(catalog *gamedata.AbilityRegistry) []*gamedata.Ability {
	var usable []*gamedata.Ability
	for _, a := range f.Record.UnlockedAbilities(catalog) {
		if f.Controller.IsAbilityOnCooldown(a) {
			continue
		}
		if f.Controller.CostPolicy() == combat.CostReject && !f.Controller.CanAfford(a) {
			continue
		}
		usable = append(usable, a)
	}
	return usable
}

package gamedata

import (
	"errors"
	"fmt"
)

// ErrUnknownStat is returned when a statistic name is not recognized.
var ErrUnknownStat = errors.New("unknown stat")

// Stat identifies a combat statistic.
type Stat int

const (
	StatNone Stat = iota
	HealthPoints
	ManaPoints
	HealthRegeneration
	ManaRegeneration
	PhysicalDefense
	MagicalDefense
	PhysicalPower
	SpellPower
	PhysicalDamage
	MagicalDamage
	Absorption
	Stun
	PhysicalDefenseReduction
	PhysicalDamageReduction
	Bleed
	Cooldown
	Critical

	statCount
)

// StatClass groups stats by how the combat controller treats them.
type StatClass int

const (
	ClassNone StatClass = iota
	// ClassResource stats are bounded by the stat cap and never negative.
	ClassResource
	// ClassModifier stats are additive buffs, removed on expiry, floored at 0.
	ClassModifier
	// ClassDebuff stats are staged onto the opponent instead of the caster.
	ClassDebuff
	// ClassMeta stats steer resolution (cooldown, critical) and never land in a stat map.
	ClassMeta
)

type statInfo struct {
	name   string
	class  StatClass
	target Stat // stat a debuff acts on
}

// statTable is indexed by Stat. Adding a constant without an entry leaves an empty
// name, which ParseStat and the catalog validation both reject.
var statTable = [statCount]statInfo{
	StatNone:                 {name: "", class: ClassNone},
	HealthPoints:             {name: "health_points", class: ClassResource},
	ManaPoints:               {name: "mana_points", class: ClassResource},
	HealthRegeneration:       {name: "health_regeneration", class: ClassResource},
	ManaRegeneration:         {name: "mana_regeneration", class: ClassResource},
	PhysicalDefense:          {name: "physical_defense", class: ClassModifier},
	MagicalDefense:           {name: "magical_defense", class: ClassModifier},
	PhysicalPower:            {name: "physical_power", class: ClassModifier},
	SpellPower:               {name: "spell_power", class: ClassModifier},
	PhysicalDamage:           {name: "physical_damage", class: ClassModifier},
	MagicalDamage:            {name: "magical_damage", class: ClassModifier},
	Absorption:               {name: "absorption", class: ClassModifier},
	Stun:                     {name: "stun", class: ClassDebuff},
	PhysicalDefenseReduction: {name: "physical_defense_reduction", class: ClassDebuff, target: PhysicalDefense},
	PhysicalDamageReduction:  {name: "physical_damage_reduction", class: ClassDebuff, target: PhysicalDamage},
	Bleed:                    {name: "bleed", class: ClassDebuff, target: HealthPoints},
	Cooldown:                 {name: "cooldown", class: ClassMeta},
	Critical:                 {name: "critical", class: ClassMeta},
}

var statsByName = func() map[string]Stat {
	m := make(map[string]Stat, statCount)
	for s := StatNone + 1; s < statCount; s++ {
		m[statTable[s].name] = s
	}
	return m
}()

// AllStats returns every recognized stat in declaration order.
func AllStats() []Stat {
	stats := make([]Stat, 0, statCount-1)
	for s := StatNone + 1; s < statCount; s++ {
		stats = append(stats, s)
	}
	return stats
}

// ParseStat resolves a wire name like "physical_defense".
func ParseStat(name string) (Stat, error) {
	s, ok := statsByName[name]
	if !ok {
		return StatNone, fmt.Errorf("%w: %q", ErrUnknownStat, name)
	}
	return s, nil
}

// Valid reports whether s is a recognized stat.
func (s Stat) Valid() bool {
	return s > StatNone && s < statCount
}

// String returns the wire name of the stat.
func (s Stat) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return statTable[s].name
}

// Class returns how the stat is treated during resolution.
func (s Stat) Class() StatClass {
	if !s.Valid() {
		return ClassNone
	}
	return statTable[s].class
}

// DebuffTarget returns the stat a debuff acts on. Stun has no target.
func (s Stat) DebuffTarget() (Stat, bool) {
	if s.Class() != ClassDebuff || statTable[s].target == StatNone {
		return StatNone, false
	}
	return statTable[s].target, true
}

// Reversible reports whether a debuff's effect is given back when it expires.
// Bleed is a direct health loss and stays lost.
func (s Stat) Reversible() bool {
	return s == PhysicalDefenseReduction || s == PhysicalDamageReduction
}

// MarshalText implements encoding.TextMarshaler so stats key JSON and YAML maps.
func (s Stat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStat, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stat) UnmarshalText(text []byte) error {
	parsed, err := ParseStat(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatMap maps statistics to integer values. A missing stat reads as 0.
type StatMap map[Stat]int

// Get returns the value of s, or 0 if absent.
func (m StatMap) Get(s Stat) int {
	return m[s]
}

// Has reports whether s is present.
func (m StatMap) Has(s Stat) bool {
	_, ok := m[s]
	return ok
}

// Clone returns an independent copy.
func (m StatMap) Clone() StatMap {
	out := make(StatMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StatAmount pairs a stat with an amount, used for costs and upgrade deltas.
type StatAmount struct {
	Stat   Stat `json:"stat"`
	Amount int  `json:"amount"`
}

package combat

import (
	"math"

	"github.com/samdwyer/skirmish/internal/gamedata"
)

// powerDivisor scales damage * power into a hit.
const powerDivisor = 50

// defenseDivisor is the defense value that fully negates a damage type.
const defenseDivisor = 400

// AttackResult is what an attacker hands to its opponent's FaceDamage.
type AttackResult struct {
	Ability       string // empty for a normal attack
	Physical      int
	Magical       int
	CriticalRate  int // floored rate the bonus was rolled against
	CriticalBonus int
	Debuffs       map[gamedata.Stat]Debuff
}

// Impact summarizes what FaceDamage did to the defender.
type Impact struct {
	Physical   int // physical damage after defense
	Magical    int // magical damage after defense
	Absorbed   int
	HealthLost int // from the hit, not counting bleed
	Bleed      int
	Stunned    bool
}

// TickCooldowns counts every cooldown down by one turn and drops finished ones.
func (c *Controller) TickCooldowns() {
	for id, turns := range c.cooldowns {
		if turns <= 1 {
			delete(c.cooldowns, id)
			continue
		}
		c.cooldowns[id] = turns - 1
	}
}

// TickBuffDurations counts every active effect down by one turn. Effects that
// reach zero give back their modifier contributions and leave the history.
func (c *Controller) TickBuffDurations() {
	kept := c.history[:0]
	for _, effect := range c.history {
		effect.Remaining--
		if effect.Remaining > 0 {
			kept = append(kept, effect)
			continue
		}
		for stat, value := range effect.Ability.Effects {
			if stat.Class() != gamedata.ClassModifier {
				continue
			}
			v := max(c.current.Get(stat)-value, 0)
			if v == 0 && !c.cap.Has(stat) {
				// the buff created this stat; drop it so damage formulas see it absent again
				delete(c.current, stat)
				continue
			}
			c.current[stat] = v
		}
	}
	clear(c.history[len(kept):])
	c.history = kept
}

// Attack resolves one offensive turn. hitHeight is the strike location reported by
// the presentation layer, from 0 at the sprite's bottom to its height at the top.
// ability may be nil for a normal attack. Under CostReject an unaffordable ability
// returns an *InsufficientResourceError and changes nothing.
func (c *Controller) Attack(hitHeight int, ability *gamedata.Ability) (AttackResult, error) {
	if ability != nil && c.policy == CostReject {
		if err := c.checkCosts(ability); err != nil {
			return AttackResult{}, err
		}
	}

	c.TickCooldowns()

	rate := 0.0
	if c.spriteHeight > 0 {
		rate = float64(hitHeight) / float64(c.spriteHeight) * 100
	}

	result := AttackResult{Debuffs: make(map[gamedata.Stat]Debuff)}

	if ability != nil {
		result.Ability = ability.ID
		c.history = append(c.history, ActiveEffect{Ability: ability.Copy(), Remaining: ability.Duration})
		if cd := ability.Cooldown(); cd > 0 {
			c.cooldowns[ability.ID] = cd
		}
		c.payCosts(ability)

		for stat, value := range ability.Effects {
			switch stat.Class() {
			case gamedata.ClassMeta:
				if stat == gamedata.Critical {
					rate += float64(value)
				}
			case gamedata.ClassDebuff:
				result.Debuffs[stat] = Debuff{Magnitude: value, Remaining: ability.Duration}
			case gamedata.ClassModifier:
				c.current[stat] = max(c.current.Get(stat)+value, 0)
			case gamedata.ClassResource:
				c.current[stat] = c.clampResource(stat, c.current.Get(stat)+value)
			}
		}
	}

	c.TickBuffDurations()

	result.CriticalRate = max(int(math.Floor(rate)), 0)
	result.CriticalBonus = c.roller.Intn(result.CriticalRate + 1)
	result.Physical = c.damage(gamedata.PhysicalDamage, gamedata.PhysicalPower, result.CriticalBonus)
	result.Magical = c.damage(gamedata.MagicalDamage, gamedata.SpellPower, result.CriticalBonus)

	return result, nil
}

// damage is floor(damage * power / 50 + bonus), or 0 when either stat is absent.
func (c *Controller) damage(dmg, power gamedata.Stat, bonus int) int {
	if !c.current.Has(dmg) || !c.current.Has(power) {
		return 0
	}
	v := float64(c.current[dmg])*float64(c.current[power])/powerDivisor + float64(bonus)
	return max(int(math.Floor(v)), 0)
}

// FaceDamage applies an opponent's attack: merges incoming debuffs, ticks every
// debuff, mitigates by defense and absorption, then removes health.
func (c *Controller) FaceDamage(physical, magical int, debuffs map[gamedata.Stat]Debuff) Impact {
	var impact Impact

	for stat, incoming := range debuffs {
		if stat == gamedata.Stun {
			c.stunned = true
			impact.Stunned = true
			continue
		}
		// A refreshed debuff keeps what it already took so expiry returns all of it.
		incoming.applied = c.debuffs[stat].applied
		c.debuffs[stat] = incoming
	}

	for stat, d := range c.debuffs {
		target, tracked := stat.DebuffTarget()
		tracked = tracked && c.current.Has(target)

		if d.Remaining > 1 {
			if tracked {
				before := c.current[target]
				after := max(before-d.Magnitude, 0)
				c.current[target] = after
				d.applied += before - after
				if stat == gamedata.Bleed {
					impact.Bleed += before - after
				}
			}
			d.Remaining--
			c.debuffs[stat] = d
			continue
		}

		if tracked && stat.Reversible() {
			c.current[target] += d.applied
		}
		delete(c.debuffs, stat)
	}

	p := max(float64(physical)*(1-float64(c.current.Get(gamedata.PhysicalDefense))/defenseDivisor), 0)
	m := max(float64(magical)*(1-float64(c.current.Get(gamedata.MagicalDefense))/defenseDivisor), 0)
	impact.Physical = int(math.Floor(p))
	impact.Magical = int(math.Floor(m))

	total := p + m
	if absorption := float64(c.current.Get(gamedata.Absorption)); absorption > 0 {
		impact.Absorbed = int(math.Floor(min(total, absorption)))
		total = max(total-absorption, 0)
	}

	health := c.current.Get(gamedata.HealthPoints)
	remaining := max(health-int(math.Floor(total)), 0)
	impact.HealthLost = max(health-remaining, 0)
	c.current[gamedata.HealthPoints] = remaining

	return impact
}

// Receive is FaceDamage for a whole AttackResult.
func (c *Controller) Receive(hit AttackResult) Impact {
	return c.FaceDamage(hit.Physical, hit.Magical, hit.Debuffs)
}

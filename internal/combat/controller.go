// Package combat provides the per-combatant combat controller: live stats, ability
// costs and effects, damage, buffs, debuffs, cooldowns and stun.
package combat

import (
	"maps"
	"math/rand"
	"slices"
	"time"

	"github.com/samdwyer/skirmish/internal/gamedata"
)

// Roller produces the critical roll. *rand.Rand satisfies it.
type Roller interface {
	// Intn returns a uniform int in [0, n).
	Intn(n int) int
}

// Debuff is a timed negative effect received from an opponent.
type Debuff struct {
	Magnitude int
	Remaining int // turns left, counted on each FaceDamage

	applied int // amount actually removed from the target stat so far
}

// ActiveEffect is a used ability granting a buff, with its own countdown.
type ActiveEffect struct {
	Ability   gamedata.Ability // value copy, never the catalog template
	Remaining int
}

// Controller holds one combatant's runtime combat state. It is not safe for
// concurrent use; the two sides of a fight only interact through Attack results.
type Controller struct {
	current   gamedata.StatMap
	cap       gamedata.StatMap
	debuffs   map[gamedata.Stat]Debuff
	history   []ActiveEffect
	cooldowns map[string]int
	stunned   bool

	spriteHeight int
	roller       Roller
	policy       CostPolicy
}

// Option configures a Controller.
type Option func(*Controller)

// WithRoller sets the source of critical rolls.
func WithRoller(r Roller) Option {
	return func(c *Controller) {
		c.roller = r
	}
}

// WithCostPolicy sets how ability costs beyond the current resource are handled.
func WithCostPolicy(p CostPolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// NewController creates a controller from base stats. The base map is copied twice:
// once as the current stats and once as the stat cap.
func NewController(base gamedata.StatMap, spriteHeight int, opts ...Option) *Controller {
	c := &Controller{
		current:      base.Clone(),
		cap:          base.Clone(),
		debuffs:      make(map[gamedata.Stat]Debuff),
		cooldowns:    make(map[string]int),
		spriteHeight: spriteHeight,
		policy:       CostReject,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roller == nil {
		c.roller = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Stats returns a copy of the current stats.
func (c *Controller) Stats() gamedata.StatMap {
	return c.current.Clone()
}

// Stat returns a single current stat, 0 if absent.
func (c *Controller) Stat(s gamedata.Stat) int {
	return c.current.Get(s)
}

// Cap returns a copy of the stat cap.
func (c *Controller) Cap() gamedata.StatMap {
	return c.cap.Clone()
}

// Health returns current health points.
func (c *Controller) Health() int {
	return c.current.Get(gamedata.HealthPoints)
}

// IsAlive reports whether health is above zero.
func (c *Controller) IsAlive() bool {
	return c.Health() > 0
}

// IsStunned reports whether the next turn will be skipped.
func (c *Controller) IsStunned() bool {
	return c.stunned
}

// Debuffs returns a copy of the active debuffs.
func (c *Controller) Debuffs() map[gamedata.Stat]Debuff {
	return maps.Clone(c.debuffs)
}

// Cooldowns returns a copy of the cooldown map, ability ID to turns remaining.
func (c *Controller) Cooldowns() map[string]int {
	return maps.Clone(c.cooldowns)
}

// History returns the abilities currently granting a buff.
func (c *Controller) History() []ActiveEffect {
	out := slices.Clone(c.history)
	for i := range out {
		out[i].Ability = out[i].Ability.Copy()
	}
	return out
}

// CostPolicy returns the policy applied to ability costs.
func (c *Controller) CostPolicy() CostPolicy {
	return c.policy
}

// IsAbilityOnCooldown reports whether the ability is waiting on its cooldown.
func (c *Controller) IsAbilityOnCooldown(ability *gamedata.Ability) bool {
	_, ok := c.cooldowns[ability.ID]
	return ok
}

// Regenerate restores health and mana by their regeneration rates, within the cap.
// A missing rate means no regeneration.
func (c *Controller) Regenerate() {
	c.regenerate(gamedata.HealthPoints, gamedata.HealthRegeneration)
	c.regenerate(gamedata.ManaPoints, gamedata.ManaRegeneration)
}

func (c *Controller) regenerate(resource, rate gamedata.Stat) {
	if !c.current.Has(rate) {
		return
	}
	v := c.current.Get(resource) + c.current.Get(rate)
	c.current[resource] = min(max(v, 0), c.cap.Get(resource))
}

// StunnedRound consumes a stunned turn: buffs still count down, no attack happens.
func (c *Controller) StunnedRound() {
	c.TickBuffDurations()
	c.stunned = false
}

// clampResource bounds a resource value to [0, cap]. Stats absent from the cap
// are only floored.
func (c *Controller) clampResource(s gamedata.Stat, v int) int {
	v = max(v, 0)
	if limit, ok := c.cap[s]; ok && v > limit {
		return limit
	}
	return v
}

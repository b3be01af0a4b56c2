package combat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samdwyer/skirmish/internal/gamedata"
)

// ErrInsufficientResource is returned when an ability costs more than the user has.
var ErrInsufficientResource = errors.New("insufficient resource")

// InsufficientResourceError describes the first unaffordable cost of an ability.
type InsufficientResourceError struct {
	Ability string
	Stat    gamedata.Stat
	Need    int
	Have    int
}

func (e *InsufficientResourceError) Error() string {
	return fmt.Sprintf("%s: %s needs %d %s, has %d", ErrInsufficientResource, e.Ability, e.Need, e.Stat, e.Have)
}

func (e *InsufficientResourceError) Unwrap() error {
	return ErrInsufficientResource
}

// CostPolicy decides what happens when an ability costs more than the user has.
type CostPolicy int

const (
	// CostReject refuses the action and leaves the controller untouched.
	CostReject CostPolicy = iota
	// CostClamp pays what is available and stops at zero.
	CostClamp
	// CostAllowNegative lets the resource go below zero.
	CostAllowNegative
)

// String returns the config name of the policy.
func (p CostPolicy) String() string {
	switch p {
	case CostReject:
		return "reject"
	case CostClamp:
		return "clamp"
	case CostAllowNegative:
		return "allow_negative"
	default:
		return "unknown"
	}
}

// ParseCostPolicy parses a config name. The empty string selects CostReject.
func ParseCostPolicy(name string) (CostPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "reject":
		return CostReject, nil
	case "clamp":
		return CostClamp, nil
	case "allow_negative":
		return CostAllowNegative, nil
	default:
		return CostReject, fmt.Errorf("unknown cost policy %q", name)
	}
}

// totalCosts sums costs per stat; an ability may list the same stat twice.
func totalCosts(ability *gamedata.Ability) (gamedata.StatMap, []gamedata.Stat) {
	totals := make(gamedata.StatMap, len(ability.Costs))
	order := make([]gamedata.Stat, 0, len(ability.Costs))
	for _, cost := range ability.Costs {
		if !totals.Has(cost.Stat) {
			order = append(order, cost.Stat)
		}
		totals[cost.Stat] += cost.Amount
	}
	return totals, order
}

// checkCosts returns an *InsufficientResourceError for the first cost the
// controller cannot pay in full.
func (c *Controller) checkCosts(ability *gamedata.Ability) error {
	totals, order := totalCosts(ability)
	for _, stat := range order {
		if have := c.current.Get(stat); have < totals[stat] {
			return &InsufficientResourceError{
				Ability: ability.ID,
				Stat:    stat,
				Need:    totals[stat],
				Have:    have,
			}
		}
	}
	return nil
}

// CanAfford reports whether every cost of the ability can be paid in full.
func (c *Controller) CanAfford(ability *gamedata.Ability) bool {
	return c.checkCosts(ability) == nil
}

// payCosts deducts the ability's costs according to the policy.
func (c *Controller) payCosts(ability *gamedata.Ability) {
	for _, cost := range ability.Costs {
		v := c.current.Get(cost.Stat) - cost.Amount
		if c.policy == CostClamp {
			v = max(v, 0)
		}
		c.current[cost.Stat] = v
	}
}

package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/samdwyer/skirmish/internal/gamedata"
)

// RandomAI picks uniformly among a normal attack and every usable ability, so a
// normal attack weighs the same as any single ability.
type RandomAI struct {
	rng *rand.Rand
}

// NewRandomAI creates an AI. A nil rng is seeded from the clock.
func NewRandomAI(rng *rand.Rand) *RandomAI {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomAI{rng: rng}
}

// ChooseAction picks an action and a strike location anywhere on the sprite.
func (ai *RandomAI) ChooseAction(ctx context.Context, view TurnView) (Action, error) {
	if err := ctx.Err(); err != nil {
		return Action{}, err
	}

	var ability *gamedata.Ability
	if choice := ai.rng.Intn(len(view.Usable) + 1); choice > 0 {
		ability = view.Usable[choice-1]
	}

	height := 0
	if h := view.Self.Record.SpriteHeight; h > 0 {
		height = ai.rng.Intn(h + 1)
	}

	return Action{Ability: ability, HitHeight: height}, nil
}

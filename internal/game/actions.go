package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

// Action is a side's decision for one turn.
type Action struct {
	Ability   *gamedata.Ability // nil for a normal attack
	HitHeight int               // strike location on the attacker's sprite scale
}

// TurnView is what an ActionSource sees when asked to act.
type TurnView struct {
	MatchID  uuid.UUID
	Round    int
	Side     Side
	Self     *Fighter
	Opponent *Fighter
	Usable   []*gamedata.Ability // unlocked, off cooldown and affordable
}

// ActionSource chooses a side's action: player input or AI. It may block until
// a decision is made and should return ctx.Err() when ctx is cancelled.
type ActionSource interface {
	ChooseAction(ctx context.Context, view TurnView) (Action, error)
}

// ActionFunc adapts a function to ActionSource.
type ActionFunc func(ctx context.Context, view TurnView) (Action, error)

// ChooseAction calls f.
func (f ActionFunc) ChooseAction(ctx context.Context, view TurnView) (Action, error) {
	return f(ctx, view)
}

// Presenter is told about each resolved turn and returns once the presentation
// layer has finished showing it. The next turn starts only after it returns.
type Presenter interface {
	TurnResolved(ctx context.Context, report TurnReport) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, report TurnReport) error

// TurnResolved calls f.
func (f PresenterFunc) TurnResolved(ctx context.Context, report TurnReport) error {
	return f(ctx, report)
}

// TurnReport describes one resolved turn.
type TurnReport struct {
	MatchID      uuid.UUID
	Round        int
	Side         Side
	Actor        string
	Target       string
	Ability      string // ability name, empty for a normal attack or a stunned turn
	Stunned      bool
	HitHeight    int
	Hit          combat.AttackResult
	Impact       combat.Impact
	ActorHealth  int
	TargetHealth int
	Phase        Phase // phase after the turn
}

// Message returns a one-line description of the turn.
func (r TurnReport) Message() string {
	if r.Stunned {
		return fmt.Sprintf("%s is stunned and loses the turn.", r.Actor)
	}

	action := "attacks"
	if r.Ability != "" {
		action = "uses " + r.Ability + " on"
	}
	msg := fmt.Sprintf("%s %s %s for %d damage", r.Actor, action, r.Target, r.Impact.HealthLost)
	if r.Impact.Bleed > 0 {
		msg += fmt.Sprintf(" (+%d bleed)", r.Impact.Bleed)
	}
	if r.Impact.Stunned {
		msg += ", stunning them"
	}
	msg += "!"

	switch r.Phase {
	case PhaseVictory:
		msg += " Victory!"
	case PhaseDefeat:
		msg += " Defeat..."
	}
	return msg
}

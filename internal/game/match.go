package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/telemetry"
)

var (
	// ErrInvalidAction is returned by Step when the chosen action cannot be
	// performed. The turn is not consumed; the same side acts again.
	ErrInvalidAction = errors.New("invalid action")
	// ErrMatchOver is returned by Step once an outcome has been reached.
	ErrMatchOver = errors.New("match is over")
)

// Options configures a Match.
type Options struct {
	Player       *entity.Record
	Enemy        *entity.Record
	Catalog      *gamedata.AbilityRegistry
	PlayerSource ActionSource
	EnemySource  ActionSource
	Presenter    Presenter // optional

	CostPolicy combat.CostPolicy
	Roller     combat.Roller // critical rolls; seeded from the clock when nil
	Logger     *zap.Logger   // zap.NewNop() when nil
}

// Outcome is the result of a finished match.
type Outcome struct {
	Phase  Phase
	Winner Side
	Rounds int
	Turns  int
}

// Decided reports whether the match ended in victory or defeat.
func (o Outcome) Decided() bool {
	return o.Phase == PhaseVictory || o.Phase == PhaseDefeat || o.Phase == PhaseTerminal
}

// Match runs a duel: the player acts first, sides alternate, and the match ends
// as soon as either side reaches zero health.
type Match struct {
	ID uuid.UUID

	fighters  [2]*Fighter
	sources   [2]ActionSource
	presenter Presenter
	catalog   *gamedata.AbilityRegistry

	machine *fsm.FSM
	active  Side
	round   int
	turns   int
	result  Phase // victory or defeat once decided

	logger *zap.Logger
	tracer trace.Tracer
}

// NewMatch creates a match in PhaseInit. Each side gets a fresh controller built
// from its record.
func NewMatch(opts Options) (*Match, error) {
	switch {
	case opts.Player == nil || opts.Enemy == nil:
		return nil, errors.New("match needs a player and an enemy record")
	case opts.Catalog == nil:
		return nil, errors.New("match needs an ability catalog")
	case opts.PlayerSource == nil || opts.EnemySource == nil:
		return nil, errors.New("match needs an action source for each side")
	}

	roller := opts.Roller
	if roller == nil {
		roller = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New()
	m := &Match{
		ID:        id,
		sources:   [2]ActionSource{opts.PlayerSource, opts.EnemySource},
		presenter: opts.Presenter,
		catalog:   opts.Catalog,
		active:    SidePlayer,
		round:     1,
		logger:    logger.With(zap.String("match_id", id.String())),
		tracer:    telemetry.Tracer("combat"),
	}

	ctrlOpts := []combat.Option{combat.WithRoller(roller), combat.WithCostPolicy(opts.CostPolicy)}
	m.fighters[SidePlayer] = NewFighter(SidePlayer, opts.Player, ctrlOpts...)
	m.fighters[SideEnemy] = NewFighter(SideEnemy, opts.Enemy, ctrlOpts...)

	m.machine = fsm.NewFSM(
		PhaseInit.String(),
		fsm.Events{
			{Name: eventStart, Src: []string{PhaseInit.String()}, Dst: PhaseRoundInProgress.String()},
			{Name: eventWin, Src: []string{PhaseRoundInProgress.String()}, Dst: PhaseVictory.String()},
			{Name: eventLose, Src: []string{PhaseRoundInProgress.String()}, Dst: PhaseDefeat.String()},
			{Name: eventFinish, Src: []string{PhaseVictory.String(), PhaseDefeat.String()}, Dst: PhaseTerminal.String()},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Debug("phase changed",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)

	return m, nil
}

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	return parsePhase(m.machine.Current())
}

// Fighter returns one side's fighter.
func (m *Match) Fighter(side Side) *Fighter {
	return m.fighters[side]
}

// Active returns the side whose turn is next.
func (m *Match) Active() Side {
	return m.active
}

// Round returns the current round, starting at 1. A round is one player turn
// followed by one enemy turn.
func (m *Match) Round() int {
	return m.round
}

// Outcome returns the match result so far.
func (m *Match) Outcome() Outcome {
	o := Outcome{Phase: m.Phase(), Rounds: m.round, Turns: m.turns}
	switch m.result {
	case PhaseVictory:
		o.Winner = SidePlayer
	case PhaseDefeat:
		o.Winner = SideEnemy
	}
	return o
}

// Start moves the match from PhaseInit into PhaseRoundInProgress. Calling it
// again is a no-op.
func (m *Match) Start(ctx context.Context) error {
	if m.Phase() != PhaseInit {
		return nil
	}

	_, span := m.tracer.Start(ctx, "combat.start")
	span.SetAttributes(
		attribute.String("match_id", m.ID.String()),
		attribute.String("player", m.fighters[SidePlayer].Record.ID),
		attribute.String("enemy", m.fighters[SideEnemy].Record.ID),
		attribute.String("cost_policy", m.fighters[SidePlayer].Controller.CostPolicy().String()),
	)
	defer span.End()

	m.logger.Info("match started",
		zap.String("player", m.fighters[SidePlayer].Record.ID),
		zap.String("enemy", m.fighters[SideEnemy].Record.ID),
	)
	return m.machine.Event(ctx, eventStart)
}

// Step plays the active side's turn. A stunned side loses the turn without
// consulting its ActionSource. The turn report is handed to the Presenter
// before Step returns.
func (m *Match) Step(ctx context.Context) (TurnReport, error) {
	if err := ctx.Err(); err != nil {
		return TurnReport{}, err
	}

	switch m.Phase() {
	case PhaseInit:
		if err := m.Start(ctx); err != nil {
			return TurnReport{}, err
		}
	case PhaseRoundInProgress:
	default:
		return TurnReport{}, ErrMatchOver
	}

	actor := m.fighters[m.active]
	target := m.fighters[m.active.Opponent()]

	ctx, span := m.tracer.Start(ctx, "combat.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("match_id", m.ID.String()),
		attribute.Int("round", m.round),
		attribute.String("side", m.active.String()),
		attribute.String("actor", actor.Record.ID),
	)

	report := TurnReport{
		MatchID: m.ID,
		Round:   m.round,
		Side:    m.active,
		Actor:   actor.Name(),
		Target:  target.Name(),
	}

	if actor.Controller.IsStunned() {
		actor.Controller.StunnedRound()
		report.Stunned = true
	} else {
		action, err := m.sources[m.active].ChooseAction(ctx, m.view(m.active))
		if err != nil {
			span.RecordError(err)
			return TurnReport{}, err
		}

		ability, err := m.resolveAbility(actor, action.Ability)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			m.logger.Debug("action rejected", zap.String("side", m.active.String()), zap.Error(err))
			return TurnReport{}, err
		}

		hit, err := actor.Controller.Attack(action.HitHeight, ability)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			m.logger.Debug("action rejected", zap.String("side", m.active.String()), zap.Error(err))
			return TurnReport{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}

		report.HitHeight = action.HitHeight
		report.Hit = hit
		report.Impact = target.Controller.Receive(hit)
		if ability != nil {
			report.Ability = ability.Name
		}
	}

	actor.Controller.Regenerate()

	report.Phase = m.checkEnd()
	report.ActorHealth = actor.Controller.Health()
	report.TargetHealth = target.Controller.Health()

	span.SetAttributes(
		attribute.Bool("stunned", report.Stunned),
		attribute.String("ability", report.Ability),
		attribute.Int("damage", report.Impact.HealthLost),
		attribute.Int("critical_bonus", report.Hit.CriticalBonus),
		attribute.Int("target_health", report.TargetHealth),
	)
	m.logger.Info("turn resolved",
		zap.Int("round", report.Round),
		zap.String("side", report.Side.String()),
		zap.Bool("stunned", report.Stunned),
		zap.String("ability", report.Ability),
		zap.Int("damage", report.Impact.HealthLost),
		zap.Int("bleed", report.Impact.Bleed),
		zap.Int("critical_bonus", report.Hit.CriticalBonus),
		zap.Int("actor_health", report.ActorHealth),
		zap.Int("target_health", report.TargetHealth),
	)

	m.turns++
	if m.active == SideEnemy {
		m.round++
	}
	m.active = m.active.Opponent()

	switch report.Phase {
	case PhaseVictory:
		m.result = PhaseVictory
		if err := m.machine.Event(ctx, eventWin); err != nil {
			return report, err
		}
	case PhaseDefeat:
		m.result = PhaseDefeat
		if err := m.machine.Event(ctx, eventLose); err != nil {
			return report, err
		}
	}

	if m.presenter != nil {
		if err := m.presenter.TurnResolved(ctx, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Run steps the match until an outcome is reached, records it, and moves to
// PhaseTerminal. Errors from the action sources, the presenter or ctx stop the
// loop and are returned with the outcome so far.
func (m *Match) Run(ctx context.Context) (Outcome, error) {
	for {
		switch m.Phase() {
		case PhaseVictory, PhaseDefeat:
			if err := m.finish(ctx); err != nil {
				return m.Outcome(), err
			}
			return m.Outcome(), nil
		case PhaseTerminal:
			return m.Outcome(), nil
		}

		if _, err := m.Step(ctx); err != nil {
			return m.Outcome(), err
		}
	}
}

// finish records the outcome and moves to PhaseTerminal.
func (m *Match) finish(ctx context.Context) error {
	outcome := m.Outcome()

	_, span := m.tracer.Start(ctx, "combat.end")
	span.SetAttributes(
		attribute.String("match_id", m.ID.String()),
		attribute.String("result", outcome.Phase.String()),
		attribute.String("winner", outcome.Winner.String()),
		attribute.Int("rounds", outcome.Rounds),
		attribute.Int("turns", outcome.Turns),
	)
	defer span.End()

	m.logger.Info("match finished",
		zap.String("result", outcome.Phase.String()),
		zap.String("winner", outcome.Winner.String()),
		zap.Int("turns", outcome.Turns),
	)
	return m.machine.Event(ctx, eventFinish)
}

// checkEnd decides the phase after a turn. Defeat is checked first so a turn
// that drops both sides to zero counts as a loss.
func (m *Match) checkEnd() Phase {
	if !m.fighters[SidePlayer].Controller.IsAlive() {
		return PhaseDefeat
	}
	if !m.fighters[SideEnemy].Controller.IsAlive() {
		return PhaseVictory
	}
	return PhaseRoundInProgress
}

// resolveAbility maps a chosen ability to its catalog template and checks that
// the actor may use it now. Affordability is left to the controller.
func (m *Match) resolveAbility(actor *Fighter, chosen *gamedata.Ability) (*gamedata.Ability, error) {
	if chosen == nil {
		return nil, nil
	}

	ability := m.catalog.GetByID(chosen.ID)
	switch {
	case ability == nil:
		return nil, fmt.Errorf("%w: unknown ability %q", ErrInvalidAction, chosen.ID)
	case !actor.Record.IsUnlocked(ability.ID):
		return nil, fmt.Errorf("%w: %s has not unlocked %s", ErrInvalidAction, actor.Name(), ability.Name)
	case actor.Controller.IsAbilityOnCooldown(ability):
		return nil, fmt.Errorf("%w: %s is on cooldown for %d turns",
			ErrInvalidAction, ability.Name, actor.Controller.Cooldowns()[ability.ID])
	}
	return ability, nil
}

func (m *Match) view(side Side) TurnView {
	self := m.fighters[side]
	return TurnView{
		MatchID:  m.ID,
		Round:    m.round,
		Side:     side,
		Self:     self,
		Opponent: m.fighters[side.Opponent()],
		Usable:   self.Usable(m.catalog),
	}
}

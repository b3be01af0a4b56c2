package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

// zeroRoller never rolls a critical bonus.
type zeroRoller struct{}

func (zeroRoller) Intn(int) int { return 0 }

func testCatalog() *gamedata.AbilityRegistry {
	return gamedata.NewAbilityRegistry([]gamedata.Ability{
		{
			ID:       "bash",
			Name:     "Bash",
			Effects:  gamedata.StatMap{gamedata.Stun: 1, gamedata.Cooldown: 3},
			Duration: 1,
		},
		{
			ID:      "focus",
			Name:    "Focus",
			Effects: gamedata.StatMap{gamedata.Critical: 50, gamedata.Cooldown: 1},
			Costs:   []gamedata.StatAmount{{Stat: gamedata.ManaPoints, Amount: 20}},
		},
		{
			ID:      "secret",
			Name:    "Secret",
			Effects: gamedata.StatMap{gamedata.Cooldown: 2},
		},
	})
}

func testPlayer() *entity.Record {
	return entity.NewRecord(&gamedata.CombatantDef{
		ID:           "hero",
		Name:         "Hero",
		SpriteHeight: 50,
		Level:        1,
		Stats: gamedata.StatMap{
			gamedata.HealthPoints:   100,
			gamedata.ManaPoints:     15,
			gamedata.PhysicalDamage: 10,
			gamedata.PhysicalPower:  50,
		},
		Abilities: []string{"bash", "focus", "secret"},
		Unlocked:  []string{"bash", "focus"},
	})
}

func testEnemy() *entity.Record {
	return entity.NewRecord(&gamedata.CombatantDef{
		ID:           "rat",
		Name:         "Rat",
		SpriteHeight: 20,
		Level:        1,
		Stats: gamedata.StatMap{
			gamedata.HealthPoints:   30,
			gamedata.PhysicalDamage: 5,
			gamedata.PhysicalPower:  50,
		},
	})
}

// script returns its actions in order and fails the test when it runs dry.
func script(t *testing.T, actions ...Action) ActionSource {
	t.Helper()
	i := 0
	return ActionFunc(func(_ context.Context, _ TurnView) (Action, error) {
		if i >= len(actions) {
			t.Fatalf("script exhausted after %d actions", i)
		}
		a := actions[i]
		i++
		return a, nil
	})
}

// repeat always returns the same action.
func repeat(a Action) ActionSource {
	return ActionFunc(func(context.Context, TurnView) (Action, error) {
		return a, nil
	})
}

func newTestMatch(t *testing.T, opts Options) *Match {
	t.Helper()
	if opts.Player == nil {
		opts.Player = testPlayer()
	}
	if opts.Enemy == nil {
		opts.Enemy = testEnemy()
	}
	if opts.Catalog == nil {
		opts.Catalog = testCatalog()
	}
	if opts.PlayerSource == nil {
		opts.PlayerSource = repeat(Action{})
	}
	if opts.EnemySource == nil {
		opts.EnemySource = repeat(Action{})
	}
	if opts.Roller == nil {
		opts.Roller = zeroRoller{}
	}
	m, err := NewMatch(opts)
	require.NoError(t, err)
	return m
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseInit, "init"},
		{PhaseRoundInProgress, "round_in_progress"},
		{PhaseVictory, "victory"},
		{PhaseDefeat, "defeat"},
		{PhaseTerminal, "terminal"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phase.String())
			if tt.want != "unknown" {
				assert.Equal(t, tt.phase, parsePhase(tt.want))
			}
		})
	}
}

func TestSideOpponent(t *testing.T) {
	assert.Equal(t, SideEnemy, SidePlayer.Opponent())
	assert.Equal(t, SidePlayer, SideEnemy.Opponent())
	assert.Equal(t, "player", SidePlayer.String())
	assert.Equal(t, "enemy", SideEnemy.String())
}

func TestNewMatchRequiresParticipants(t *testing.T) {
	catalog := testCatalog()
	src := repeat(Action{})

	tests := []struct {
		name string
		opts Options
	}{
		{"no player", Options{Enemy: testEnemy(), Catalog: catalog, PlayerSource: src, EnemySource: src}},
		{"no enemy", Options{Player: testPlayer(), Catalog: catalog, PlayerSource: src, EnemySource: src}},
		{"no catalog", Options{Player: testPlayer(), Enemy: testEnemy(), PlayerSource: src, EnemySource: src}},
		{"no source", Options{Player: testPlayer(), Enemy: testEnemy(), Catalog: catalog, PlayerSource: src}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestMatchStartsInInit(t *testing.T) {
	m := newTestMatch(t, Options{})

	assert.Equal(t, PhaseInit, m.Phase())
	assert.Equal(t, SidePlayer, m.Active())
	assert.Equal(t, 1, m.Round())
	assert.NotEqual(t, uuid.Nil, m.ID)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, PhaseRoundInProgress, m.Phase())
	require.NoError(t, m.Start(context.Background()), "second Start is a no-op")
}

func TestMatchAlternatesTurns(t *testing.T) {
	m := newTestMatch(t, Options{})
	ctx := context.Background()

	wantSides := []Side{SidePlayer, SideEnemy, SidePlayer, SideEnemy}
	wantRounds := []int{1, 1, 2, 2}
	for i, want := range wantSides {
		report, err := m.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, report.Side, "turn %d", i)
		assert.Equal(t, wantRounds[i], report.Round, "turn %d", i)
	}

	// 10 per player hit, 5 per enemy hit, no defense or regen
	assert.Equal(t, 10, m.Fighter(SideEnemy).Controller.Health())
	assert.Equal(t, 90, m.Fighter(SidePlayer).Controller.Health())
	assert.Equal(t, 3, m.Round())
}

func TestMatchVictory(t *testing.T) {
	var reports []TurnReport
	m := newTestMatch(t, Options{
		Presenter: PresenterFunc(func(_ context.Context, r TurnReport) error {
			reports = append(reports, r)
			return nil
		}),
	})

	outcome, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseTerminal, outcome.Phase)
	assert.Equal(t, SidePlayer, outcome.Winner)
	assert.True(t, outcome.Decided())
	assert.Equal(t, 5, outcome.Turns)
	assert.Equal(t, 3, outcome.Rounds)

	require.Len(t, reports, 5)
	last := reports[len(reports)-1]
	assert.Equal(t, PhaseVictory, last.Phase)
	assert.Equal(t, 0, last.TargetHealth)
	assert.Contains(t, last.Message(), "Victory!")

	_, err = m.Step(context.Background())
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestMatchDefeat(t *testing.T) {
	player := testPlayer()
	player.Stats[gamedata.HealthPoints] = 5

	m := newTestMatch(t, Options{Player: player})
	outcome, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SideEnemy, outcome.Winner)
	assert.Equal(t, 2, outcome.Turns)
	assert.Equal(t, 0, m.Fighter(SidePlayer).Controller.Health())
	assert.Equal(t, 5, player.Stats[gamedata.HealthPoints], "record is not written back")
}

func TestMatchDefeatCheckedFirst(t *testing.T) {
	// Frenzy costs the player its last health while killing the enemy.
	catalog := gamedata.NewAbilityRegistry([]gamedata.Ability{{
		ID:      "frenzy",
		Name:    "Frenzy",
		Effects: gamedata.StatMap{gamedata.Cooldown: 2},
		Costs:   []gamedata.StatAmount{{Stat: gamedata.HealthPoints, Amount: 10}},
	}})
	player := testPlayer()
	player.Stats[gamedata.HealthPoints] = 10
	player.Abilities = []string{"frenzy"}
	player.Unlocked = []string{"frenzy"}
	enemy := testEnemy()
	enemy.Stats[gamedata.HealthPoints] = 10

	m := newTestMatch(t, Options{
		Player:       player,
		Enemy:        enemy,
		Catalog:      catalog,
		PlayerSource: repeat(Action{Ability: catalog.GetByID("frenzy")}),
	})

	report, err := m.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ActorHealth)
	assert.Equal(t, 0, report.TargetHealth)
	assert.Equal(t, PhaseDefeat, report.Phase)
	assert.Equal(t, PhaseDefeat, m.Phase())
}

func TestMatchStunSkipsTurn(t *testing.T) {
	catalog := testCatalog()
	enemyCalls := 0

	m := newTestMatch(t, Options{
		Catalog:      catalog,
		PlayerSource: script(t, Action{Ability: catalog.GetByID("bash")}),
		EnemySource: ActionFunc(func(context.Context, TurnView) (Action, error) {
			enemyCalls++
			return Action{}, nil
		}),
	})
	ctx := context.Background()

	report, err := m.Step(ctx)
	require.NoError(t, err)
	assert.True(t, report.Impact.Stunned)
	assert.Equal(t, "Bash", report.Ability)
	assert.True(t, m.Fighter(SideEnemy).Controller.IsStunned())

	report, err = m.Step(ctx)
	require.NoError(t, err)
	assert.True(t, report.Stunned)
	assert.Equal(t, SideEnemy, report.Side)
	assert.Zero(t, enemyCalls, "stunned side is not asked for an action")
	assert.False(t, m.Fighter(SideEnemy).Controller.IsStunned())
	assert.Equal(t, SidePlayer, m.Active())
	assert.Contains(t, report.Message(), "stunned")
}

func TestMatchRejectsInvalidActions(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name    string
		setup   func(m *Match)
		action  Action
		wantErr error
	}{
		{
			name:    "locked ability",
			action:  Action{Ability: catalog.GetByID("secret")},
			wantErr: ErrInvalidAction,
		},
		{
			name:    "unknown ability",
			action:  Action{Ability: &gamedata.Ability{ID: "nope"}},
			wantErr: ErrInvalidAction,
		},
		{
			name:    "unaffordable ability",
			action:  Action{Ability: catalog.GetByID("focus")},
			wantErr: combat.ErrInsufficientResource,
		},
		{
			name: "ability on cooldown",
			setup: func(m *Match) {
				_, err := m.Fighter(SidePlayer).Controller.Attack(0, catalog.GetByID("bash"))
				require.NoError(t, err)
			},
			action:  Action{Ability: catalog.GetByID("bash")},
			wantErr: ErrInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMatch(t, Options{Catalog: catalog, PlayerSource: repeat(tt.action)})
			if tt.setup != nil {
				tt.setup(m)
			}
			player := m.Fighter(SidePlayer).Controller
			before := player.Stats()

			_, err := m.Step(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidAction)

			assert.Equal(t, SidePlayer, m.Active(), "turn not consumed")
			assert.Equal(t, before, player.Stats(), "actor unchanged")
			assert.Equal(t, 30, m.Fighter(SideEnemy).Controller.Health())
		})
	}
}

func TestMatchViewListsUsableAbilities(t *testing.T) {
	catalog := testCatalog()
	var views []TurnView

	m := newTestMatch(t, Options{
		Catalog: catalog,
		PlayerSource: ActionFunc(func(_ context.Context, v TurnView) (Action, error) {
			views = append(views, v)
			if len(views) == 1 {
				return Action{Ability: catalog.GetByID("bash")}, nil
			}
			return Action{}, nil
		}),
	})
	ctx := context.Background()

	for range 3 {
		_, err := m.Step(ctx)
		require.NoError(t, err)
	}

	require.Len(t, views, 2)
	// focus costs 20 mana against 15, secret is locked
	require.Len(t, views[0].Usable, 1)
	assert.Equal(t, "bash", views[0].Usable[0].ID)
	assert.Empty(t, views[1].Usable, "bash is cooling down")
	assert.Equal(t, SidePlayer, views[1].Side)
	assert.Equal(t, "Rat", views[1].Opponent.Name())
}

func TestMatchPropagatesErrors(t *testing.T) {
	errQuit := errors.New("quit")

	t.Run("presenter", func(t *testing.T) {
		m := newTestMatch(t, Options{
			Presenter: PresenterFunc(func(context.Context, TurnReport) error { return errQuit }),
		})
		outcome, err := m.Run(context.Background())
		assert.ErrorIs(t, err, errQuit)
		assert.Equal(t, 1, outcome.Turns)
		assert.False(t, outcome.Decided())
	})

	t.Run("action source", func(t *testing.T) {
		m := newTestMatch(t, Options{
			PlayerSource: ActionFunc(func(context.Context, TurnView) (Action, error) {
				return Action{}, errQuit
			}),
		})
		_, err := m.Run(context.Background())
		assert.ErrorIs(t, err, errQuit)
		assert.Equal(t, SidePlayer, m.Active())
	})

	t.Run("cancelled context", func(t *testing.T) {
		m := newTestMatch(t, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, PhaseInit, m.Phase())
	})
}

func TestRandomAIChoosesUniformly(t *testing.T) {
	catalog := testCatalog()
	ai := NewRandomAI(rand.New(rand.NewSource(7)))
	self := NewFighter(SideEnemy, testPlayer())
	view := TurnView{
		Self:   self,
		Usable: []*gamedata.Ability{catalog.GetByID("bash"), catalog.GetByID("focus")},
	}

	counts := map[string]int{}
	const picks = 3000
	for range picks {
		a, err := ai.ChooseAction(context.Background(), view)
		require.NoError(t, err)
		require.GreaterOrEqual(t, a.HitHeight, 0)
		require.LessOrEqual(t, a.HitHeight, self.Record.SpriteHeight)
		if a.Ability == nil {
			counts["attack"]++
		} else {
			counts[a.Ability.ID]++
		}
	}

	for _, choice := range []string{"attack", "bash", "focus"} {
		assert.InDelta(t, picks/3, counts[choice], 150, choice)
	}
}

func TestRandomAIHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRandomAI(nil).ChooseAction(ctx, TurnView{Self: NewFighter(SideEnemy, testEnemy())})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoMatchWithBundledData(t *testing.T) {
	catalog := gamedata.MustLoadAbilityRegistry()
	combatants := gamedata.MustLoadCombatantRegistry(catalog)

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		rng := rand.New(rand.NewSource(seed))
		m, err := NewMatch(Options{
			Player:       entity.NewRecord(combatants.GetByID("knight")),
			Enemy:        entity.NewRecord(combatants.SpawnRandom(rng)),
			Catalog:      catalog,
			PlayerSource: NewRandomAI(rng),
			EnemySource:  NewRandomAI(rng),
			Roller:       rng,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		outcome, err := m.Run(ctx)
		cancel()

		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, PhaseTerminal, outcome.Phase, "seed %d", seed)
		for _, side := range []Side{SidePlayer, SideEnemy} {
			c := m.Fighter(side).Controller
			assert.GreaterOrEqual(t, c.Health(), 0)
			assert.LessOrEqual(t, c.Health(), c.Cap().Get(gamedata.HealthPoints))
		}
	}
}

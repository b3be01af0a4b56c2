package ui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/game"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

// ErrQuit is returned when the player leaves the match.
var ErrQuit = errors.New("player quit")

// Terminal is the interactive front-end. It chooses the player's actions from key
// presses and shows every resolved turn until a key is pressed.
//
// Keys: 0 or a attacks, 1-9 use the listed ability, q or Esc quits.
type Terminal struct {
	screen   *Screen
	renderer *Renderer
	catalog  *gamedata.AbilityRegistry
	rng      *rand.Rand // strike location on the player's swings

	player   *game.Fighter
	enemy    *game.Fighter
	round    int
	messages []string
}

// NewTerminal creates a front-end for the given match.
func NewTerminal(screen *Screen, catalog *gamedata.AbilityRegistry, rng *rand.Rand) *Terminal {
	return &Terminal{
		screen:   screen,
		renderer: NewRenderer(screen),
		catalog:  catalog,
		rng:      rng,
		round:    1,
		messages: []string{"Combat begins!"},
	}
}

// Watch sets the fighters drawn on screen.
func (t *Terminal) Watch(m *game.Match) {
	t.player = m.Fighter(game.SidePlayer)
	t.enemy = m.Fighter(game.SideEnemy)
}

// Messages returns the turn log so far.
func (t *Terminal) Messages() []string {
	return t.messages
}

// ChooseAction waits for the player to pick an attack or a usable ability.
func (t *Terminal) ChooseAction(ctx context.Context, view game.TurnView) (game.Action, error) {
	t.round = view.Round
	if view.Side == game.SidePlayer {
		t.player, t.enemy = view.Self, view.Opponent
	} else {
		t.player, t.enemy = view.Opponent, view.Self
	}

	lines := t.abilityLines(view)
	prompt := "Choose: [0] attack, [1-9] ability, [q] quit"

	for {
		if err := ctx.Err(); err != nil {
			return game.Action{}, err
		}
		t.draw(true, lines, prompt)

		ev, ok := t.nextKey()
		if !ok {
			return game.Action{}, ErrQuit
		}
		if isQuit(ev) {
			return game.Action{}, ErrQuit
		}
		if ev.Key() != tcell.KeyRune {
			continue
		}

		switch r := ev.Rune(); {
		case r == '0' || r == 'a' || r == 'A':
			return game.Action{HitHeight: t.strike(view.Self)}, nil
		case r >= '1' && r <= '9':
			i := int(r - '1')
			if i >= len(lines) {
				continue
			}
			if !lines[i].Usable {
				prompt = fmt.Sprintf("%s: %s", lines[i].Ability.Name, lines[i].Note)
				continue
			}
			return game.Action{Ability: lines[i].Ability, HitHeight: t.strike(view.Self)}, nil
		}
	}
}

// TurnResolved logs the turn and waits for a key before the match moves on.
func (t *Terminal) TurnResolved(ctx context.Context, report game.TurnReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.messages = append(t.messages, report.Message())

	prompt := "Press any key to continue"
	if report.Phase == game.PhaseVictory || report.Phase == game.PhaseDefeat {
		prompt = "Press any key to leave the arena"
	}
	t.draw(false, nil, prompt)

	ev, ok := t.nextKey()
	if !ok || (isQuit(ev) && report.Phase == game.PhaseRoundInProgress) {
		return ErrQuit
	}
	return nil
}

func (t *Terminal) draw(menu bool, lines []AbilityLine, prompt string) {
	t.renderer.Render(Frame{
		Round:     t.round,
		Player:    t.player,
		Enemy:     t.enemy,
		Menu:      menu,
		Abilities: lines,
		Messages:  t.messages,
		Prompt:    prompt,
	})
}

// nextKey blocks until a key event arrives. ok is false once the screen is closed.
func (t *Terminal) nextKey() (ev *tcell.EventKey, ok bool) {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil, false
		case *tcell.EventKey:
			return ev, true
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// abilityLines lists the player's unlocked abilities, marking the ones that
// cannot be used this turn.
func (t *Terminal) abilityLines(view game.TurnView) []AbilityLine {
	usable := make(map[string]bool, len(view.Usable))
	for _, a := range view.Usable {
		usable[a.ID] = true
	}

	var lines []AbilityLine
	for i, a := range view.Self.Record.UnlockedAbilities(t.catalog) {
		if i >= 9 {
			break
		}
		line := AbilityLine{Key: rune('1' + i), Ability: a, Usable: usable[a.ID]}
		if !line.Usable {
			line.Note = unusableReason(view.Self.Controller, a)
		}
		lines = append(lines, line)
	}
	return lines
}

func unusableReason(c *combat.Controller, a *gamedata.Ability) string {
	if turns, ok := c.Cooldowns()[a.ID]; ok {
		return fmt.Sprintf("cooldown %d", turns)
	}
	if !c.CanAfford(a) {
		return "not enough resources"
	}
	return "unavailable"
}

// strike picks where on the sprite the swing lands.
func (t *Terminal) strike(f *game.Fighter) int {
	if f.Record.SpriteHeight <= 0 {
		return 0
	}
	return t.rng.Intn(f.Record.SpriteHeight + 1)
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

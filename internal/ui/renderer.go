package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/game"
	"github.com/samdwyer/skirmish/internal/gamedata"
)

const (
	panelWidth = 40
	barWidth   = 20
	logLines   = 6
)

// AbilityLine is one entry of the player's ability menu.
type AbilityLine struct {
	Key     rune
	Ability *gamedata.Ability
	Usable  bool
	Note    string // why the ability cannot be used
}

// Frame is everything drawn in one refresh.
type Frame struct {
	Round     int
	Player    *game.Fighter
	Enemy     *game.Fighter
	Menu      bool // draw the action menu
	Abilities []AbilityLine
	Messages  []string
	Prompt    string
}

// Renderer handles drawing a match to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render clears the screen and draws the frame.
func (r *Renderer) Render(f Frame) {
	r.screen.Clear()

	title := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	r.screen.DrawText(1, 0, fmt.Sprintf("SKIRMISH  round %d", f.Round), title)

	bottom := 2
	if f.Player != nil {
		bottom = max(bottom, r.drawFighter(1, 2, f.Player))
	}
	if f.Enemy != nil {
		bottom = max(bottom, r.drawFighter(1+panelWidth, 2, f.Enemy))
	}

	y := bottom + 1
	if f.Menu {
		r.screen.DrawText(1, y, "[0] Attack", tcell.StyleDefault.Foreground(tcell.ColorWhite))
		y++
		for _, line := range f.Abilities {
			r.drawAbility(1, y, line)
			y++
		}
		y++
	}

	msgStyle := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	start := max(len(f.Messages)-logLines, 0)
	for _, msg := range f.Messages[start:] {
		r.screen.DrawText(1, y, msg, msgStyle)
		y++
	}

	if f.Prompt != "" {
		_, h := r.screen.Size()
		r.screen.DrawText(1, max(y+1, h-1), f.Prompt, tcell.StyleDefault.Foreground(tcell.ColorAqua))
	}

	r.screen.Show()
}

// drawFighter draws one side's panel and returns the row below it.
func (r *Renderer) drawFighter(x, y int, f *game.Fighter) int {
	c := f.Controller
	caps := c.Cap()

	nameStyle := tcell.StyleDefault.Foreground(fighterColor(f)).Bold(true)
	label := fmt.Sprintf("%s (%s, lv %d)", f.Name(), f.Side, f.Record.Level)
	r.screen.DrawText(x, y, label, nameStyle)
	y++

	r.drawBar(x, y, "HP", c.Health(), caps.Get(gamedata.HealthPoints), tcell.ColorRed)
	y++
	if caps.Has(gamedata.ManaPoints) {
		r.drawBar(x, y, "MP", c.Stat(gamedata.ManaPoints), caps.Get(gamedata.ManaPoints), tcell.ColorBlue)
		y++
	}

	plain := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	r.screen.DrawText(x, y, fmt.Sprintf("DEF %d/%d  DMG %d/%d",
		c.Stat(gamedata.PhysicalDefense), c.Stat(gamedata.MagicalDefense),
		c.Stat(gamedata.PhysicalDamage), c.Stat(gamedata.MagicalDamage)), plain)
	y++

	warn := tcell.StyleDefault.Foreground(tcell.ColorOrange)
	if c.IsStunned() {
		r.screen.DrawText(x, y, "STUNNED", warn.Bold(true))
		y++
	}
	if effects := debuffSummary(c.Debuffs()); effects != "" {
		r.screen.DrawText(x, y, effects, warn)
		y++
	}
	if cds := cooldownSummary(c.Cooldowns()); cds != "" {
		r.screen.DrawText(x, y, cds, tcell.StyleDefault.Foreground(tcell.ColorGray))
		y++
	}
	return y
}

func (r *Renderer) drawBar(x, y int, label string, cur, limit int, color tcell.Color) {
	filled := 0
	if limit > 0 {
		filled = min(max(cur, 0)*barWidth/limit, barWidth)
	}
	x = r.screen.DrawText(x, y, label+" ", tcell.StyleDefault.Foreground(tcell.ColorWhite))
	x = r.screen.DrawText(x, y, strings.Repeat("█", filled), tcell.StyleDefault.Foreground(color))
	x = r.screen.DrawText(x, y, strings.Repeat("░", barWidth-filled), tcell.StyleDefault.Foreground(tcell.ColorDarkGray))
	r.screen.DrawText(x+1, y, fmt.Sprintf("%d/%d", cur, limit), tcell.StyleDefault.Foreground(tcell.ColorWhite))
}

func (r *Renderer) drawAbility(x, y int, line AbilityLine) {
	style := tcell.StyleDefault.Foreground(gamedata.AbilityColor(line.Ability))
	if !line.Usable {
		style = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	}
	text := fmt.Sprintf("[%c] %s", line.Key, line.Ability.Name)
	if costs := costSummary(line.Ability); costs != "" {
		text += "  " + costs
	}
	if line.Note != "" {
		text += "  (" + line.Note + ")"
	}
	r.screen.DrawText(x, y, text, style)
}

func fighterColor(f *game.Fighter) tcell.Color {
	c, err := gamedata.ParseHexColor(f.Record.Color)
	if err != nil {
		return tcell.ColorWhite
	}
	return c
}

func debuffSummary(debuffs map[gamedata.Stat]combat.Debuff) string {
	var parts []string
	for _, s := range gamedata.AllStats() {
		if d, ok := debuffs[s]; ok {
			parts = append(parts, fmt.Sprintf("%s %d (%d)", s, d.Magnitude, d.Remaining))
		}
	}
	return strings.Join(parts, ", ")
}

func cooldownSummary(cooldowns map[string]int) string {
	var parts []string
	for _, id := range slices.Sorted(maps.Keys(cooldowns)) {
		parts = append(parts, fmt.Sprintf("%s %d", id, cooldowns[id]))
	}
	if len(parts) == 0 {
		return ""
	}
	return "cooldown: " + strings.Join(parts, ", ")
}

func costSummary(a *gamedata.Ability) string {
	var parts []string
	for _, cost := range a.Costs {
		parts = append(parts, fmt.Sprintf("%d %s", cost.Amount, cost.Stat))
	}
	return strings.Join(parts, ", ")
}

// Package game provides the turn orchestrator that runs a duel between two
// combat controllers.
package game

// Phase is the orchestrator's state.
type Phase int

const (
	// PhaseInit - match created, no turn taken yet
	PhaseInit Phase = iota
	// PhaseRoundInProgress - sides are alternating turns
	PhaseRoundInProgress
	// PhaseVictory - the enemy reached zero health
	PhaseVictory
	// PhaseDefeat - the player reached zero health
	PhaseDefeat
	// PhaseTerminal - outcome recorded, nothing left to do
	PhaseTerminal
)

// String returns the phase name, also used as the fsm state name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRoundInProgress:
		return "round_in_progress"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// parsePhase maps an fsm state name back to a Phase.
func parsePhase(name string) Phase {
	for p := PhaseInit; p <= PhaseTerminal; p++ {
		if p.String() == name {
			return p
		}
	}
	return Phase(-1)
}

// fsm event names
const (
	eventStart  = "start"
	eventWin    = "win"
	eventLose   = "lose"
	eventFinish = "finish"
)

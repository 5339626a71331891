package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Action is what a participant chose to do this turn.
type Action struct {
	Kind combat.ActionKind
	// MoveID names the move for ActionMove.
	MoveID string
	// TargetID is carried from the client for ActionMove; battles are one-on-one,
	// so the target is always the opposing active combatant.
	TargetID string
	// SwitchIndex is the roster slot for ActionSwitch.
	SwitchIndex int
}

// MoveAction returns an action using moveID.
func MoveAction(moveID string) Action {
	return Action{Kind: combat.ActionMove, MoveID: moveID}
}

// SwitchAction returns an action switching to roster slot index.
func SwitchAction(index int) Action {
	return Action{Kind: combat.ActionSwitch, SwitchIndex: index}
}

// RunAction returns an attempt to flee.
func RunAction() Action {
	return Action{Kind: combat.ActionRun}
}

// StruggleAction returns the always-legal fallback move.
func StruggleAction() Action {
	return MoveAction(catalog.StruggleID)
}

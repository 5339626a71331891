package combat

// ActionKind identifies what a participant chose to do this turn.
// The zero value is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionMove
	ActionSwitch
	ActionRun
)

// String returns the wire name of the ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionSwitch:
		return "switch"
	case ActionRun:
		return "run"
	default:
		return "unknown"
	}
}

// Tier returns the priority bracket: switching and running resolve before any move.
func (k ActionKind) Tier() int {
	switch k {
	case ActionSwitch, ActionRun:
		return 1
	default:
		return 0
	}
}

// Intent is one participant's pending action reduced to what ordering needs.
type Intent struct {
	// Actor is the caller's index for the participant.
	Actor int
	Kind  ActionKind
	// Speed is the actor's effective speed.
	Speed int
}

// OrderActions returns intents in resolution order: higher tier first, then
// higher speed. Exact ties are settled by coin, which is only consulted when a
// tie actually exists; coin returning true keeps the later intent ahead.
//
// Precondition: coin must be non-nil.
// Postcondition: the result is a permutation of intents; intents is not modified.
func OrderActions(intents []Intent, coin func() bool) []Intent {
	sorted := make([]Intent, len(intents))
	copy(sorted, intents)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && before(sorted[j], sorted[j-1], coin); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

func before(a, b Intent, coin func() bool) bool {
	if a.Kind.Tier() != b.Kind.Tier() {
		return a.Kind.Tier() > b.Kind.Tier()
	}
	if a.Speed != b.Speed {
		return a.Speed > b.Speed
	}
	return coin()
}

package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Situation is what a Policy sees when it must pick an action.
// The combatants are live session state; policies must not modify them.
type Situation struct {
	SessionID string
	Turn      int
	Self      *combat.Combatant
	Opponent  *combat.Combatant
	Catalog   *catalog.Catalog
}

// Policy chooses an action for a participant that has not submitted one: the
// synthetic side of a wild battle every turn, or a real participant whose turn
// timer expired.
type Policy interface {
	Choose(s Situation) Action
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(s Situation) Action

// Choose calls f.
func (f PolicyFunc) Choose(s Situation) Action { return f(s) }

// StrugglePolicy always struggles. Struggle is always legal, so it is the default
// timeout fallback.
type StrugglePolicy struct{}

// Choose returns the struggle action.
func (StrugglePolicy) Choose(Situation) Action { return StruggleAction() }

// Intn is the randomness RandomMovePolicy draws from.
type Intn interface {
	Intn(n int) int
}

// RandomMovePolicy picks uniformly among the known moves with PP left and
// struggles when none remain.
type RandomMovePolicy struct {
	Rand Intn
}

// Choose picks a random usable move.
//
// Postcondition: the returned action is legal for s.Self.
func (p RandomMovePolicy) Choose(s Situation) Action {
	usable := s.Self.UsableMoves()
	if len(usable) == 0 {
		return StruggleAction()
	}
	return MoveAction(usable[p.Rand.Intn(len(usable))])
}

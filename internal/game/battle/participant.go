package battle

import (
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// SyntheticPrefix marks identities that belong to generated opponents.
const SyntheticPrefix = "wild:"

// IsSynthetic reports whether id names a generated opponent.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, SyntheticPrefix)
}

// Participant is one side of a battle.
//
// Invariant: once the session starts, 0 <= active < len(Roster).
type Participant struct {
	ID        string
	Name      string
	Synthetic bool
	Roster    []*combat.Combatant
	active    int
	pending   *Action
	// slots maps roster indices to persisted party slots when they differ.
	slots []int
}

// NewParticipant creates a participant with an empty roster.
func NewParticipant(id, name string) *Participant {
	return &Participant{ID: id, Name: name, Synthetic: IsSynthetic(id)}
}

// Active returns the combatant currently on the field, or nil before a roster is loaded.
func (p *Participant) Active() *combat.Combatant {
	if p.active < 0 || p.active >= len(p.Roster) {
		return nil
	}
	return p.Roster[p.active]
}

// ActiveIndex returns the roster slot of the active combatant.
func (p *Participant) ActiveIndex() int { return p.active }

// Ready reports whether an action is pending for this turn.
func (p *Participant) Ready() bool { return p.pending != nil }

// Defeated reports whether every roster member has fainted.
func (p *Participant) Defeated() bool {
	for _, c := range p.Roster {
		if !c.Fainted() {
			return false
		}
	}
	return true
}

// firstLiving returns the first non-fainted roster slot, or -1.
func (p *Participant) firstLiving() int {
	for i, c := range p.Roster {
		if !c.Fainted() {
			return i
		}
	}
	return -1
}

func (p *Participant) clearPending() { p.pending = nil }

// slot returns the persisted party slot of roster index i.
func (p *Participant) slot(i int) int {
	if i < len(p.slots) {
		return p.slots[i]
	}
	return i
}

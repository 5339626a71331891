package battle

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// RosterEntry is the persisted form of one party member.
type RosterEntry struct {
	// Slot is the party position; entries are ordered by it.
	Slot      int               `json:"slot"`
	Species   string            `json:"species"`
	Nickname  string            `json:"nickname,omitempty"`
	Level     int               `json:"level"`
	IVs       combat.Stats      `json:"ivs"`
	EVs       combat.Stats      `json:"evs"`
	CurrentHP int               `json:"currentHp"`
	Moves     []combat.MoveSlot `json:"moves"`
	// Condition is the id of a persistent status condition, if any.
	Condition string `json:"condition,omitempty"`
}

// RosterLoader fetches a trainer's active party.
type RosterLoader interface {
	// LoadActiveRoster returns the party in slot order.
	LoadActiveRoster(ctx context.Context, trainerID string) ([]RosterEntry, error)
}

// RosterLoaderFunc adapts a function to RosterLoader.
type RosterLoaderFunc func(ctx context.Context, trainerID string) ([]RosterEntry, error)

// LoadActiveRoster calls f.
func (f RosterLoaderFunc) LoadActiveRoster(ctx context.Context, trainerID string) ([]RosterEntry, error) {
	return f(ctx, trainerID)
}

// BuildCombatant turns a persisted entry into a battle-ready Combatant.
//
// Precondition: cat and conds must be non-nil.
// Postcondition: the combatant's CurrentHP is the entry's HP clamped to [0, MaxHP].
func BuildCombatant(cat *catalog.Catalog, conds *condition.Registry, e RosterEntry) (*combat.Combatant, error) {
	sp, ok := cat.Species(e.Species)
	if !ok {
		return nil, fmt.Errorf("unknown species %q", e.Species)
	}
	for _, m := range e.Moves {
		if _, ok := cat.Move(m.MoveID); !ok {
			return nil, fmt.Errorf("%s: unknown move %q", e.Species, m.MoveID)
		}
		if m.PP < 0 || m.PP > m.MaxPP {
			return nil, fmt.Errorf("%s: move %q has pp %d outside [0, %d]", e.Species, m.MoveID, m.PP, m.MaxPP)
		}
	}
	c, err := combat.NewCombatant(sp, e.Level, e.IVs, e.EVs, e.Moves)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Species, err)
	}
	if e.Nickname != "" {
		c.Name = e.Nickname
	}
	c.CurrentHP = min(max(e.CurrentHP, 0), c.MaxHP())
	if e.Condition != "" {
		def, ok := conds.Get(e.Condition)
		if !ok {
			return nil, fmt.Errorf("%s: unknown condition %q", e.Species, e.Condition)
		}
		if err := c.Conditions.Apply(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SnapshotEntry captures a combatant's persistent state in slot.
func SnapshotEntry(slot int, c *combat.Combatant) RosterEntry {
	moves := make([]combat.MoveSlot, len(c.Moves))
	copy(moves, c.Moves)
	e := RosterEntry{
		Slot:      slot,
		Species:   c.SpeciesID,
		Level:     c.Level,
		IVs:       c.IVs,
		EVs:       c.EVs,
		CurrentHP: c.CurrentHP,
		Moves:     moves,
	}
	if ids := c.Conditions.IDs(); len(ids) > 0 {
		e.Condition = ids[0]
	}
	if c.Name != c.SpeciesName {
		e.Nickname = c.Name
	}
	return e
}

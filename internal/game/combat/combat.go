// Package combat implements the per-combatant battle rules: stat derivation,
// stat stages, the damage calculator, move resolution, action ordering and the
// turn timer. It holds no session state; callers serialise access to Combatants.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/element"
)

const (
	// MaxIV is the largest individual variation per stat.
	MaxIV = 31
	// MaxEV is the largest effort value per stat.
	MaxEV = 252
	// MaxEVTotal is the largest sum of effort values across all stats.
	MaxEVTotal = 510
	// MaxMoves is the number of move slots a combatant has.
	MaxMoves = 4
)

// MoveSlot is one known move and its remaining uses.
type MoveSlot struct {
	MoveID string `json:"moveId"`
	PP     int    `json:"pp"`
	MaxPP  int    `json:"maxPp"`
}

// Usable reports whether the slot has uses left.
func (m MoveSlot) Usable() bool { return m.PP > 0 }

// Combatant is one battling creature: its derived stats, current HP, known moves,
// status condition and stat stages.
//
// Invariant: 0 <= CurrentHP <= Stats.HP.
type Combatant struct {
	SpeciesID   string
	SpeciesName string
	// Name is the display name: a nickname, or the species name.
	Name  string
	Level int
	Types [2]element.Type
	IVs   Stats
	EVs   Stats
	// Stats are the derived values; Stats.HP is the max HP.
	Stats      Stats
	CurrentHP  int
	Moves      []MoveSlot
	Conditions *condition.ActiveSet
	Stages     Stages
}

// NewCombatant builds a Combatant at full HP from a species definition.
//
// Precondition: species must be non-nil; level in [1, 100]; ivs and evs must pass ValidateSpread.
// Postcondition: CurrentHP == Stats.HP; stages are zero; no condition is active.
func NewCombatant(species *catalog.Species, level int, ivs, evs Stats, moves []MoveSlot) (*Combatant, error) {
	if level < 1 || level > 100 {
		return nil, fmt.Errorf("level must be within [1, 100], got %d", level)
	}
	if err := ValidateSpread(ivs, evs); err != nil {
		return nil, err
	}
	if len(moves) > MaxMoves {
		return nil, fmt.Errorf("combatant may know at most %d moves, got %d", MaxMoves, len(moves))
	}
	stats := DeriveStats(species.Base, ivs, evs, level)
	slots := make([]MoveSlot, len(moves))
	copy(slots, moves)
	return &Combatant{
		SpeciesID:   species.ID,
		SpeciesName: species.Name,
		Name:        species.Name,
		Level:       level,
		Types:       [2]element.Type{species.Primary(), species.Secondary()},
		IVs:         ivs,
		EVs:         evs,
		Stats:       stats,
		CurrentHP:   stats.HP,
		Moves:       slots,
		Conditions:  condition.NewActiveSet(),
		Stages:      NewStages(),
	}, nil
}

// MaxHP returns the derived HP stat.
func (c *Combatant) MaxHP() int { return c.Stats.HP }

// Fainted reports whether the combatant has no HP left.
func (c *Combatant) Fainted() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero, and returns the HP actually lost.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > c.CurrentHP {
		amount = c.CurrentHP
	}
	c.CurrentHP -= amount
	return amount
}

// Move returns the slot for moveID, or (nil, false) when the combatant does not know it.
func (c *Combatant) Move(moveID string) (*MoveSlot, bool) {
	for i := range c.Moves {
		if c.Moves[i].MoveID == moveID {
			return &c.Moves[i], true
		}
	}
	return nil, false
}

// HasUsableMove reports whether any known move has PP left.
func (c *Combatant) HasUsableMove() bool {
	for _, m := range c.Moves {
		if m.Usable() {
			return true
		}
	}
	return false
}

// UsableMoves returns the ids of every known move with PP left.
func (c *Combatant) UsableMoves() []string {
	var ids []string
	for _, m := range c.Moves {
		if m.Usable() {
			ids = append(ids, m.MoveID)
		}
	}
	return ids
}

// EffectiveSpeed returns speed after stages and any condition speed multiplier.
func (c *Combatant) EffectiveSpeed() int {
	speed := ApplyStage(c.Stats.Speed, c.Stages.Get(catalog.StatSpeed))
	return int(float64(speed) * condition.SpeedMultiplier(c.Conditions))
}

// SwitchOut clears the volatile battle state that does not survive leaving the field.
//
// Postcondition: every stage is zero.
func (c *Combatant) SwitchOut() {
	c.Stages.Reset()
}

package battle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// WildSpec describes a wild encounter.
type WildSpec struct {
	Species string `json:"species"`
	Level   int    `json:"level"`
	// Stats, when set, replaces the derived stats.
	Stats *combat.Stats `json:"stats,omitempty"`
	// Moves, when set, replaces the learnset-derived moves.
	Moves   []string       `json:"moves,omitempty"`
	Weather combat.Weather `json:"weather,omitempty"`
}

// Validate checks spec against cat.
func (spec WildSpec) Validate(cat *catalog.Catalog) error {
	if _, ok := cat.Species(spec.Species); !ok {
		return fmt.Errorf("unknown species %q", spec.Species)
	}
	if spec.Level < 1 || spec.Level > 100 {
		return fmt.Errorf("level must be within [1, 100], got %d", spec.Level)
	}
	if len(spec.Moves) > combat.MaxMoves {
		return fmt.Errorf("a wild combatant may know at most %d moves, got %d", combat.MaxMoves, len(spec.Moves))
	}
	for _, id := range spec.Moves {
		if _, ok := cat.Move(id); !ok || id == catalog.StruggleID {
			return fmt.Errorf("unknown move %q", id)
		}
	}
	if st := spec.Stats; st != nil {
		if min(st.HP, st.Attack, st.Defense, st.SpecialAttack, st.SpecialDefense, st.Speed) < 1 {
			return fmt.Errorf("stats override must be >= 1, got %+v", *st)
		}
	}
	if !spec.Weather.Valid() {
		return fmt.Errorf("unknown weather %q", spec.Weather)
	}
	return nil
}

// GenerateWild builds the synthetic participant for spec. Individual values are
// rolled per stat; effort values are zero.
//
// Precondition: cat and roller must be non-nil.
// Postcondition: the participant is synthetic and has exactly one living combatant.
func GenerateWild(cat *catalog.Catalog, spec WildSpec, roller *dice.Roller) (*Participant, error) {
	if err := spec.Validate(cat); err != nil {
		return nil, err
	}
	sp, _ := cat.Species(spec.Species)

	ivs := combat.Stats{
		HP:             roller.Roll(dice.IndividualValue).Total(),
		Attack:         roller.Roll(dice.IndividualValue).Total(),
		Defense:        roller.Roll(dice.IndividualValue).Total(),
		SpecialAttack:  roller.Roll(dice.IndividualValue).Total(),
		SpecialDefense: roller.Roll(dice.IndividualValue).Total(),
		Speed:          roller.Roll(dice.IndividualValue).Total(),
	}

	moveIDs := spec.Moves
	if len(moveIDs) == 0 {
		moveIDs = sp.MovesAt(spec.Level)
	}
	slots := make([]combat.MoveSlot, 0, len(moveIDs))
	for _, id := range moveIDs {
		m, _ := cat.Move(id)
		slots = append(slots, combat.MoveSlot{MoveID: m.ID, PP: m.PP, MaxPP: m.PP})
	}

	c, err := combat.NewCombatant(sp, spec.Level, ivs, combat.Stats{}, slots)
	if err != nil {
		return nil, err
	}
	if spec.Stats != nil {
		c.Stats = *spec.Stats
		c.CurrentHP = c.Stats.HP
	}
	c.Name = "Wild " + sp.Name

	p := NewParticipant(SyntheticPrefix+uuid.NewString(), c.Name)
	p.Roster = []*combat.Combatant{c}
	return p, nil
}

// NewWildSession creates a wild battle between player and a combatant generated
// from spec. The player's roster still has to be loaded.
//
// Precondition: player must not be synthetic.
func NewWildSession(id string, player *Participant, spec WildSpec, cfg Config, deps Deps) (*Session, error) {
	if player == nil || player.Synthetic {
		return nil, errors.New("wild battles need a real player")
	}
	if deps.Catalog == nil || deps.Roller == nil {
		return nil, errors.New("session dependencies must be non-nil")
	}
	wild, err := GenerateWild(deps.Catalog, spec, deps.Roller)
	if err != nil {
		return nil, fmt.Errorf("generating wild opponent: %w", err)
	}
	s, err := NewSession(id, TypeWild, player, wild, cfg, deps)
	if err != nil {
		return nil, err
	}
	s.field = combat.Field{Weather: spec.Weather}
	return s, nil
}

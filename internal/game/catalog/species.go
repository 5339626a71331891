package catalog

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/element"
)

// BaseStats are a species' six base values.
type BaseStats struct {
	HP             int `yaml:"hp" json:"hp"`
	Attack         int `yaml:"attack" json:"attack"`
	Defense        int `yaml:"defense" json:"defense"`
	SpecialAttack  int `yaml:"special_attack" json:"specialAttack"`
	SpecialDefense int `yaml:"special_defense" json:"specialDefense"`
	Speed          int `yaml:"speed" json:"speed"`
}

// LearnsetEntry is a move a species learns at a level.
type LearnsetEntry struct {
	Level int    `yaml:"level"`
	Move  string `yaml:"move"`
}

// Species is the static definition of a kind of combatant.
type Species struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Types    []element.Type  `yaml:"types"`
	Base     BaseStats       `yaml:"base"`
	Learnset []LearnsetEntry `yaml:"learnset"`
}

// Primary returns the first type.
func (s *Species) Primary() element.Type { return s.Types[0] }

// Secondary returns the second type, or element.None for single-typed species.
func (s *Species) Secondary() element.Type {
	if len(s.Types) < 2 {
		return element.None
	}
	return s.Types[1]
}

// Validate checks the species' invariants.
func (s *Species) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("species id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("species %q: name must not be empty", s.ID)
	}
	if len(s.Types) < 1 || len(s.Types) > 2 {
		return fmt.Errorf("species %q: must have one or two types, got %d", s.ID, len(s.Types))
	}
	for _, t := range s.Types {
		if !t.Valid() {
			return fmt.Errorf("species %q: unknown type %q", s.ID, t)
		}
	}
	if len(s.Types) == 2 && s.Types[0] == s.Types[1] {
		return fmt.Errorf("species %q: duplicate type %q", s.ID, s.Types[0])
	}
	b := s.Base
	if b.HP <= 0 || b.Attack <= 0 || b.Defense <= 0 || b.SpecialAttack <= 0 || b.SpecialDefense <= 0 || b.Speed <= 0 {
		return fmt.Errorf("species %q: base stats must all be > 0", s.ID)
	}
	if len(s.Learnset) == 0 {
		return fmt.Errorf("species %q: learnset must not be empty", s.ID)
	}
	for _, l := range s.Learnset {
		if l.Level < 1 || l.Level > 100 {
			return fmt.Errorf("species %q: learnset level %d out of range", s.ID, l.Level)
		}
	}
	return nil
}

// MovesAt returns the ids of the last four distinct moves learnable at or below
// level, in learn order. When no move is learnable yet the first learnset entry is used.
//
// Postcondition: 1 <= len(result) <= 4.
func (s *Species) MovesAt(level int) []string {
	entries := make([]LearnsetEntry, len(s.Learnset))
	copy(entries, s.Learnset)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Level < entries[j].Level })

	var learned []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Level > level || seen[e.Move] {
			continue
		}
		seen[e.Move] = true
		learned = append(learned, e.Move)
	}
	if len(learned) == 0 {
		return []string{entries[0].Move}
	}
	if len(learned) > 4 {
		learned = learned[len(learned)-4:]
	}
	return learned
}

// Package catalog holds the immutable species and move tables. Tables are parsed
// from YAML, validated for completeness, and then only read.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

//go:embed species.yaml
var defaultSpecies []byte

//go:embed moves.yaml
var defaultMoves []byte

// StruggleID is the always-legal fallback move every catalog must define.
const StruggleID = "struggle"

// Catalog is a validated, read-only lookup of species and moves.
// It is safe for concurrent readers.
type Catalog struct {
	species map[string]*Species
	moves   map[string]*Move
}

// Species returns the species with id, or (nil, false).
func (c *Catalog) Species(id string) (*Species, bool) {
	s, ok := c.species[id]
	return s, ok
}

// Move returns the move with id, or (nil, false).
func (c *Catalog) Move(id string) (*Move, bool) {
	m, ok := c.moves[id]
	return m, ok
}

// Struggle returns the fallback move.
//
// Postcondition: never nil for a Catalog built by Load.
func (c *Catalog) Struggle() *Move {
	return c.moves[StruggleID]
}

// SpeciesIDs returns every species id in sorted order.
func (c *Catalog) SpeciesIDs() []string {
	ids := make([]string, 0, len(c.species))
	for id := range c.species {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MoveIDs returns every move id in sorted order.
func (c *Catalog) MoveIDs() []string {
	ids := make([]string, 0, len(c.moves))
	for id := range c.moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type speciesFile struct {
	Species []*Species `yaml:"species"`
}

type movesFile struct {
	Moves []*Move `yaml:"moves"`
}

func decodeStrict(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Load parses and validates species and move tables. Move effects that name a
// condition are checked against conditions.
//
// Precondition: conditions must be non-nil.
// Postcondition: Returns a Catalog in which every id is unique, every learnset
// entry names a known move, and the struggle move is present; or an error.
func Load(speciesR, movesR io.Reader, conditions *condition.Registry) (*Catalog, error) {
	var mf movesFile
	if err := decodeStrict(movesR, &mf); err != nil {
		return nil, fmt.Errorf("parsing moves: %w", err)
	}
	var sf speciesFile
	if err := decodeStrict(speciesR, &sf); err != nil {
		return nil, fmt.Errorf("parsing species: %w", err)
	}

	c := &Catalog{
		species: make(map[string]*Species, len(sf.Species)),
		moves:   make(map[string]*Move, len(mf.Moves)),
	}
	for _, m := range mf.Moves {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if m.Effect != nil && m.Effect.Condition != "" {
			if _, ok := conditions.Get(m.Effect.Condition); !ok {
				return nil, fmt.Errorf("move %q: unknown condition %q", m.ID, m.Effect.Condition)
			}
		}
		if _, dup := c.moves[m.ID]; dup {
			return nil, fmt.Errorf("duplicate move id %q", m.ID)
		}
		c.moves[m.ID] = m
	}
	if _, ok := c.moves[StruggleID]; !ok {
		return nil, fmt.Errorf("move table must define %q", StruggleID)
	}

	for _, s := range sf.Species {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.species[s.ID]; dup {
			return nil, fmt.Errorf("duplicate species id %q", s.ID)
		}
		for _, l := range s.Learnset {
			if _, ok := c.moves[l.Move]; !ok {
				return nil, fmt.Errorf("species %q: learnset references unknown move %q", s.ID, l.Move)
			}
		}
		c.species[s.ID] = s
	}
	return c, nil
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	conds, err := condition.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(defaultSpecies), bytes.NewReader(defaultMoves), conds)
})

// Default returns the catalog built from the embedded tables. The tables are
// parsed once; the same Catalog is returned on every call.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

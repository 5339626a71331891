// Package condition defines the status conditions a combatant can suffer, the
// registry that holds their definitions, and the per-combatant active set.
package condition

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/element"
)

//go:embed conditions.yaml
var defaultConditions []byte

// ConditionDef is the static definition of a condition, loaded from YAML.
type ConditionDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Message is appended to the afflicted combatant's name when the condition lands,
	// e.g. "was poisoned!".
	Message string `yaml:"message"`
	// ResidualDivisor, when > 0, deals max(1, maxHP/ResidualDivisor) at end of turn.
	ResidualDivisor int `yaml:"residual_divisor"`
	// SpeedMultiplier scales effective speed; 0 means unchanged.
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	// PhysicalAttackMultiplier scales attack for physical moves; 0 means unchanged.
	PhysicalAttackMultiplier float64 `yaml:"physical_attack_multiplier"`
	// SkipChance is the percent chance the combatant loses its move each turn.
	SkipChance int `yaml:"skip_chance"`
	// ImmuneTypes lists combatant types that can never receive this condition.
	ImmuneTypes []element.Type `yaml:"immune_types"`
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil if the definition is usable, or an error naming the first violation.
func (d *ConditionDef) Validate() error {
	if d.ID == "" {
		return errors.New("condition id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("condition %q: name must not be empty", d.ID)
	}
	if d.ResidualDivisor < 0 {
		return fmt.Errorf("condition %q: residual_divisor must be >= 0", d.ID)
	}
	if d.SpeedMultiplier < 0 || d.PhysicalAttackMultiplier < 0 {
		return fmt.Errorf("condition %q: multipliers must be >= 0", d.ID)
	}
	if d.SkipChance < 0 || d.SkipChance > 100 {
		return fmt.Errorf("condition %q: skip_chance must be within [0, 100]", d.ID)
	}
	for _, t := range d.ImmuneTypes {
		if !t.Valid() {
			return fmt.Errorf("condition %q: unknown immune type %q", d.ID, t)
		}
	}
	return nil
}

// ImmuneTo reports whether a combatant carrying any of types cannot receive this condition.
func (d *ConditionDef) ImmuneTo(types ...element.Type) bool {
	for _, im := range d.ImmuneTypes {
		for _, t := range types {
			if t != element.None && t == im {
				return true
			}
		}
	}
	return false
}

// Registry holds all known ConditionDefs keyed by ID.
// A populated Registry is read-only and safe for concurrent readers.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *ConditionDef) {
	r.defs[def.ID] = def
}

// Get returns the ConditionDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered ConditionDefs sorted by ID.
func (r *Registry) All() []*ConditionDef {
	out := make([]*ConditionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type conditionFile struct {
	Conditions []*ConditionDef `yaml:"conditions"`
}

// Load parses a YAML document with a top-level "conditions" list into a Registry.
//
// Postcondition: Returns a Registry whose every definition passed Validate, or an error.
func Load(r io.Reader) (*Registry, error) {
	var file conditionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing conditions: %w", err)
	}
	reg := NewRegistry()
	for _, def := range file.Conditions {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.Get(def.ID); dup {
			return nil, fmt.Errorf("duplicate condition id %q", def.ID)
		}
		reg.Register(def)
	}
	return reg, nil
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Load(bytes.NewReader(defaultConditions))
})

// DefaultRegistry returns the registry built from the embedded condition table.
// The table is parsed once; the same Registry is returned on every call.
func DefaultRegistry() (*Registry, error) {
	return defaultRegistry()
}

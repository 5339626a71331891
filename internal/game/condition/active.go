package condition

import (
	"errors"
	"sort"
)

// ErrAlreadyAfflicted is returned by Apply when the combatant already carries a condition.
var ErrAlreadyAfflicted = errors.New("combatant already has a status condition")

// ActiveCondition tracks one applied condition on a combatant.
type ActiveCondition struct {
	Def *ConditionDef
	// Turns counts end-of-turn ticks since the condition was applied.
	Turns int
}

// ActiveSet tracks all conditions currently applied to one combatant.
// A combatant carries at most one condition at a time.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	conditions map[string]*ActiveCondition
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*ActiveCondition)}
}

// Apply adds def to the set.
//
// Precondition: def must not be nil.
// Postcondition: on nil error Has(def.ID) is true; ErrAlreadyAfflicted when any
// condition is already present (the set is unchanged).
func (s *ActiveSet) Apply(def *ConditionDef) error {
	if def == nil {
		return errors.New("Apply: def must not be nil")
	}
	if len(s.conditions) > 0 {
		return ErrAlreadyAfflicted
	}
	s.conditions[def.ID] = &ActiveCondition{Def: def}
	return nil
}

// Remove deletes the condition with the given ID from the set.
// If the condition is not present, Remove is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.conditions, id)
}

// Clear removes every condition.
func (s *ActiveSet) Clear() {
	clear(s.conditions)
}

// Tick advances every active condition by one turn.
func (s *ActiveSet) Tick() {
	for _, ac := range s.conditions {
		ac.Turns++
	}
}

// Has reports whether the condition with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Empty reports whether no condition is active.
func (s *ActiveSet) Empty() bool {
	return len(s.conditions) == 0
}

// IDs returns the active condition ids in sorted order.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.conditions))
	for id := range s.conditions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// All returns a slice of pointers to the active conditions sorted by id.
// The pointed-to values are shared; callers must not modify them.
func (s *ActiveSet) All() []*ActiveCondition {
	out := make([]*ActiveCondition, 0, len(s.conditions))
	for _, ac := range s.conditions {
		out = append(out, ac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// Clone returns an independent copy of the set sharing the immutable definitions.
func (s *ActiveSet) Clone() *ActiveSet {
	c := NewActiveSet()
	for id, ac := range s.conditions {
		cp := *ac
		c.conditions[id] = &cp
	}
	return c
}

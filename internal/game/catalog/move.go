package catalog

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/element"
)

// Category selects which stat pair a move uses, or marks it as non-damaging.
type Category string

const (
	Physical Category = "physical"
	Special  Category = "special"
	Status   Category = "status"
)

// Stat names a stat that can be raised or lowered in battle.
type Stat string

const (
	StatAttack         Stat = "attack"
	StatDefense        Stat = "defense"
	StatSpecialAttack  Stat = "special_attack"
	StatSpecialDefense Stat = "special_defense"
	StatSpeed          Stat = "speed"
	StatAccuracy       Stat = "accuracy"
	StatEvasion        Stat = "evasion"
)

// StageStats lists every stage-able stat in display order.
var StageStats = []Stat{
	StatAttack, StatDefense, StatSpecialAttack, StatSpecialDefense, StatSpeed, StatAccuracy, StatEvasion,
}

// Valid reports whether s names a stage-able stat.
func (s Stat) Valid() bool {
	for _, k := range StageStats {
		if s == k {
			return true
		}
	}
	return false
}

// Target selects who a move effect applies to.
type Target string

const (
	TargetSelf     Target = "self"
	TargetOpponent Target = "opponent"
)

// Effect is a move's non-damage consequence.
type Effect struct {
	Target Target `yaml:"target"`
	// Stat and Stages change a stat stage when Stages != 0.
	Stat   Stat `yaml:"stat"`
	Stages int  `yaml:"stages"`
	// Condition applies a status condition when non-empty.
	Condition string `yaml:"condition"`
	// Chance is the percent chance the effect triggers; 0 means always.
	Chance int `yaml:"chance"`
}

// Move is the static definition of a battle move.
type Move struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Type     element.Type `yaml:"type"`
	Category Category     `yaml:"category"`
	Power    int          `yaml:"power"`
	// Accuracy is the hit percentage; 0 means the move never misses.
	Accuracy int `yaml:"accuracy"`
	// PP is the number of uses; 0 means unlimited.
	PP     int     `yaml:"pp"`
	Effect *Effect `yaml:"effect"`
	// RecoilDivisor, when > 0, costs the user max(1, maxHP/RecoilDivisor) on use.
	RecoilDivisor int `yaml:"recoil_divisor"`
}

// Damaging reports whether the move deals direct damage.
func (m *Move) Damaging() bool { return m.Category != Status }

// Validate checks the move's invariants.
func (m *Move) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("move id must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("move %q: name must not be empty", m.ID)
	}
	if m.Type != element.None && !m.Type.Valid() {
		return fmt.Errorf("move %q: unknown type %q", m.ID, m.Type)
	}
	switch m.Category {
	case Physical, Special:
		if m.Power <= 0 {
			return fmt.Errorf("move %q: damaging move must have power > 0", m.ID)
		}
	case Status:
		if m.Power != 0 {
			return fmt.Errorf("move %q: status move must have power 0", m.ID)
		}
		if m.Effect == nil {
			return fmt.Errorf("move %q: status move must carry an effect", m.ID)
		}
	default:
		return fmt.Errorf("move %q: unknown category %q", m.ID, m.Category)
	}
	if m.Accuracy < 0 || m.Accuracy > 100 {
		return fmt.Errorf("move %q: accuracy must be within [0, 100]", m.ID)
	}
	if m.PP < 0 {
		return fmt.Errorf("move %q: pp must be >= 0", m.ID)
	}
	if m.RecoilDivisor < 0 {
		return fmt.Errorf("move %q: recoil_divisor must be >= 0", m.ID)
	}
	if m.Effect != nil {
		if err := m.Effect.validate(m.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Effect) validate(moveID string) error {
	if e.Target != TargetSelf && e.Target != TargetOpponent {
		return fmt.Errorf("move %q: effect target must be self or opponent, got %q", moveID, e.Target)
	}
	if e.Stages == 0 && e.Condition == "" {
		return fmt.Errorf("move %q: effect must change a stat or apply a condition", moveID)
	}
	if e.Stages != 0 && !e.Stat.Valid() {
		return fmt.Errorf("move %q: effect names unknown stat %q", moveID, e.Stat)
	}
	if e.Stages < -6 || e.Stages > 6 {
		return fmt.Errorf("move %q: effect stages must be within [-6, 6]", moveID)
	}
	if e.Chance < 0 || e.Chance > 100 {
		return fmt.Errorf("move %q: effect chance must be within [0, 100]", moveID)
	}
	return nil
}

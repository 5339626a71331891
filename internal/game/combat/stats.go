package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
)

// Stats is a full set of six stat values.
type Stats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"specialAttack"`
	SpecialDefense int `json:"specialDefense"`
	Speed          int `json:"speed"`
}

// Get returns the value for a battle stat. Accuracy and evasion have no base
// value and return 0.
func (s Stats) Get(stat catalog.Stat) int {
	switch stat {
	case catalog.StatAttack:
		return s.Attack
	case catalog.StatDefense:
		return s.Defense
	case catalog.StatSpecialAttack:
		return s.SpecialAttack
	case catalog.StatSpecialDefense:
		return s.SpecialDefense
	case catalog.StatSpeed:
		return s.Speed
	default:
		return 0
	}
}

func (s Stats) all() []int {
	return []int{s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed}
}

// ValidateSpread checks IVs are within [0, MaxIV] and EVs within [0, MaxEV] with a
// total of at most MaxEVTotal.
func ValidateSpread(ivs, evs Stats) error {
	for _, v := range ivs.all() {
		if v < 0 || v > MaxIV {
			return fmt.Errorf("individual values must be within [0, %d], got %d", MaxIV, v)
		}
	}
	total := 0
	for _, v := range evs.all() {
		if v < 0 || v > MaxEV {
			return fmt.Errorf("effort values must be within [0, %d], got %d", MaxEV, v)
		}
		total += v
	}
	if total > MaxEVTotal {
		return fmt.Errorf("effort values must total at most %d, got %d", MaxEVTotal, total)
	}
	return nil
}

// DeriveStat computes one stat from its base value, individual variation, effort
// value and level:
//
//	floor((2*base + iv + floor(ev/4)) * level / 100) + offset
//
// where offset is level+10 for HP and 5 otherwise.
//
// Precondition: base > 0; level in [1, 100].
// Postcondition: Returns >= 5 (non-HP) or >= level+10 (HP).
func DeriveStat(base, iv, ev, level int, isHP bool) int {
	v := (2*base + iv + ev/4) * level / 100
	if isHP {
		return v + level + 10
	}
	return v + 5
}

// DeriveStats derives all six stats for a combatant.
func DeriveStats(base catalog.BaseStats, ivs, evs Stats, level int) Stats {
	return Stats{
		HP:             DeriveStat(base.HP, ivs.HP, evs.HP, level, true),
		Attack:         DeriveStat(base.Attack, ivs.Attack, evs.Attack, level, false),
		Defense:        DeriveStat(base.Defense, ivs.Defense, evs.Defense, level, false),
		SpecialAttack:  DeriveStat(base.SpecialAttack, ivs.SpecialAttack, evs.SpecialAttack, level, false),
		SpecialDefense: DeriveStat(base.SpecialDefense, ivs.SpecialDefense, evs.SpecialDefense, level, false),
		Speed:          DeriveStat(base.Speed, ivs.Speed, evs.Speed, level, false),
	}
}

package combat

import "github.com/cory-johannsen/skirmish/internal/game/catalog"

const (
	MinStage = -6
	MaxStage = 6
)

// Stages holds the in-battle stage of every stage-able stat.
//
// Invariant: every value is within [MinStage, MaxStage].
type Stages map[catalog.Stat]int

// NewStages returns a zeroed Stages.
func NewStages() Stages {
	s := make(Stages, len(catalog.StageStats))
	for _, k := range catalog.StageStats {
		s[k] = 0
	}
	return s
}

// Get returns the stage for stat.
func (s Stages) Get(stat catalog.Stat) int { return s[stat] }

// Change adds delta to stat's stage, clamped to the valid range, and returns the
// change actually applied.
//
// Postcondition: MinStage <= Get(stat) <= MaxStage.
func (s Stages) Change(stat catalog.Stat, delta int) int {
	before := s[stat]
	after := ClampStage(before + delta)
	s[stat] = after
	return after - before
}

// Reset zeroes every stage.
func (s Stages) Reset() {
	for k := range s {
		s[k] = 0
	}
}

// ClampStage bounds stage to [MinStage, MaxStage].
func ClampStage(stage int) int {
	switch {
	case stage < MinStage:
		return MinStage
	case stage > MaxStage:
		return MaxStage
	default:
		return stage
	}
}

// StageMultiplier returns max(2, 2+s)/max(2, 2-s) for a battle-stat stage.
//
// Postcondition: result within [0.25, 4].
func StageMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	return float64(max(2, 2+stage)) / float64(max(2, 2-stage))
}

// AccuracyMultiplier returns max(3, 3+s)/max(3, 3-s) for an accuracy/evasion stage.
//
// Postcondition: result within [1/3, 3].
func AccuracyMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	return float64(max(3, 3+stage)) / float64(max(3, 3-stage))
}

// ApplyStage scales value by the stage multiplier using integer arithmetic.
//
// Postcondition: Returns >= 1 when value >= 1.
func ApplyStage(value, stage int) int {
	stage = ClampStage(stage)
	v := value * max(2, 2+stage) / max(2, 2-stage)
	if value > 0 && v < 1 {
		return 1
	}
	return v
}

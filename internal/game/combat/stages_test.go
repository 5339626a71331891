package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func TestStageMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, combat.StageMultiplier(0))
	assert.Equal(t, 1.5, combat.StageMultiplier(1))
	assert.Equal(t, 4.0, combat.StageMultiplier(6))
	assert.Equal(t, 0.25, combat.StageMultiplier(-6))
	assert.InDelta(t, 2.0/3.0, combat.StageMultiplier(-1), 1e-9)
	assert.Equal(t, 4.0, combat.StageMultiplier(9), "clamped")
}

func TestAccuracyMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, combat.AccuracyMultiplier(0))
	assert.InDelta(t, 4.0/3.0, combat.AccuracyMultiplier(1), 1e-9)
	assert.Equal(t, 3.0, combat.AccuracyMultiplier(6))
	assert.InDelta(t, 1.0/3.0, combat.AccuracyMultiplier(-6), 1e-9)
}

func TestApplyStage(t *testing.T) {
	assert.Equal(t, 150, combat.ApplyStage(100, 1))
	assert.Equal(t, 66, combat.ApplyStage(100, -1))
	assert.Equal(t, 1, combat.ApplyStage(1, -6))
}

func TestStages_ChangeClamps(t *testing.T) {
	s := combat.NewStages()
	assert.Equal(t, 2, s.Change(catalog.StatAttack, 2))
	assert.Equal(t, 4, s.Change(catalog.StatAttack, 6))
	assert.Equal(t, 0, s.Change(catalog.StatAttack, 1))
	assert.Equal(t, combat.MaxStage, s.Get(catalog.StatAttack))

	s.Reset()
	assert.Equal(t, 0, s.Get(catalog.StatAttack))
}

func TestPropertyStages_AlwaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := combat.NewStages()
		deltas := rapid.SliceOf(rapid.IntRange(-12, 12)).Draw(rt, "deltas")
		for _, d := range deltas {
			stat := rapid.SampledFrom(catalog.StageStats).Draw(rt, "stat")
			s.Change(stat, d)
			v := s.Get(stat)
			assert.GreaterOrEqual(rt, v, combat.MinStage)
			assert.LessOrEqual(rt, v, combat.MaxStage)
		}
	})
}

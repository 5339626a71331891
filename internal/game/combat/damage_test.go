package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/element"
)

func TestDamage_Example(t *testing.T) {
	// Level 50, power 80, attack 99 vs defense 93, neutral.
	assert.Equal(t, 39, combat.Damage(50, 80, 99, 93, 100, 1))
	assert.Equal(t, 33, combat.Damage(50, 80, 99, 93, 85, 1))
}

func TestDamage_Multiplier(t *testing.T) {
	assert.Equal(t, 78, combat.Damage(50, 80, 99, 93, 100, 2))
	assert.Equal(t, 19, combat.Damage(50, 80, 99, 93, 100, 0.5))
	assert.Equal(t, 0, combat.Damage(50, 80, 99, 93, 100, 0))
}

func TestDamage_MinimumOne(t *testing.T) {
	assert.Equal(t, 1, combat.Damage(1, 10, 5, 500, 85, 0.25))
}

func TestWeatherMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, combat.WeatherMultiplier(combat.WeatherRain, element.Water))
	assert.Equal(t, 0.5, combat.WeatherMultiplier(combat.WeatherRain, element.Fire))
	assert.Equal(t, 1.5, combat.WeatherMultiplier(combat.WeatherSun, element.Fire))
	assert.Equal(t, 0.5, combat.WeatherMultiplier(combat.WeatherSun, element.Water))
	assert.Equal(t, 1.0, combat.WeatherMultiplier(combat.WeatherNone, element.Water))
	assert.Equal(t, 1.0, combat.WeatherMultiplier(combat.WeatherRain, element.Grass))
	assert.False(t, combat.Weather("hail").Valid())
}

func TestPropertyDamage_WithinRandomRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 100).Draw(rt, "level")
		power := rapid.IntRange(1, 250).Draw(rt, "power")
		atk := rapid.IntRange(1, 500).Draw(rt, "attack")
		def := rapid.IntRange(1, 500).Draw(rt, "defense")
		pct := rapid.IntRange(85, 100).Draw(rt, "random")
		mult := rapid.SampledFrom([]float64{0.25, 0.5, 1, 2, 4}).Draw(rt, "mult")

		low := combat.Damage(level, power, atk, def, 85, mult)
		high := combat.Damage(level, power, atk, def, 100, mult)
		got := combat.Damage(level, power, atk, def, pct, mult)
		assert.GreaterOrEqual(rt, got, 1)
		assert.GreaterOrEqual(rt, got, low)
		assert.LessOrEqual(rt, got, high)
	})
}

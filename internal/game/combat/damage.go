package combat

import "github.com/cory-johannsen/skirmish/internal/game/element"

// Weather is a battlefield-wide modifier.
type Weather string

const (
	WeatherNone Weather = ""
	WeatherRain Weather = "rain"
	WeatherSun  Weather = "sun"
)

// Valid reports whether w is a known weather.
func (w Weather) Valid() bool {
	switch w {
	case WeatherNone, WeatherRain, WeatherSun:
		return true
	}
	return false
}

// Field is the shared battlefield state.
type Field struct {
	Weather Weather `json:"weather,omitempty"`
}

// WeatherMultiplier returns the damage multiplier weather applies to a move type.
// Rain boosts water and weakens fire; sun does the reverse.
func WeatherMultiplier(w Weather, moveType element.Type) float64 {
	switch {
	case w == WeatherRain && moveType == element.Water, w == WeatherSun && moveType == element.Fire:
		return 1.5
	case w == WeatherRain && moveType == element.Fire, w == WeatherSun && moveType == element.Water:
		return 0.5
	default:
		return 1
	}
}

// Damage computes the damage of a hit:
//
//	floor(floor((2*level/5+2)*power*attack/defense/50 + 2) * randomPercent/100) * multiplier
//
// All steps before the multiplier use integer arithmetic. A hit with a non-zero
// multiplier deals at least 1; a zero multiplier (immunity) deals 0.
//
// Precondition: level >= 1; power >= 1; attack >= 1; defense >= 1; randomPercent in [85, 100].
// Postcondition: Returns 0 iff multiplier == 0; otherwise >= 1.
func Damage(level, power, attack, defense, randomPercent int, multiplier float64) int {
	if multiplier <= 0 {
		return 0
	}
	base := (2*level/5+2)*power*attack/defense/50 + 2
	dmg := int(float64(base*randomPercent/100) * multiplier)
	if dmg < 1 {
		return 1
	}
	return dmg
}

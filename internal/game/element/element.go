// Package element defines the elemental types a combatant or move can carry and
// the effectiveness chart between them.
package element

import (
	"fmt"
	"sort"
)

// Type is an elemental type identifier as it appears in data files.
type Type string

// None is the typeless marker: a typeless attack is neutral against everything,
// and a combatant with a single type has None as its secondary.
const None Type = ""

const (
	Normal   Type = "normal"
	Fire     Type = "fire"
	Water    Type = "water"
	Electric Type = "electric"
	Grass    Type = "grass"
	Ice      Type = "ice"
	Fighting Type = "fighting"
	Poison   Type = "poison"
	Ground   Type = "ground"
	Flying   Type = "flying"
	Psychic  Type = "psychic"
	Bug      Type = "bug"
	Rock     Type = "rock"
	Ghost    Type = "ghost"
	Dragon   Type = "dragon"
	Dark     Type = "dark"
	Steel    Type = "steel"
	Fairy    Type = "fairy"
)

// All lists every known type in canonical order.
var All = []Type{
	Normal, Fire, Water, Electric, Grass, Ice, Fighting, Poison, Ground,
	Flying, Psychic, Bug, Rock, Ghost, Dragon, Dark, Steel, Fairy,
}

var known = func() map[Type]bool {
	m := make(map[Type]bool, len(All))
	for _, t := range All {
		m[t] = true
	}
	return m
}()

// Valid reports whether t is one of the known types. None is not valid.
func (t Type) Valid() bool { return known[t] }

// String returns the data-file name of t, or "none" for the typeless marker.
func (t Type) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Parse converts a data-file name into a Type.
//
// Postcondition: Returns a valid Type, None for "" or "none", or an error.
func Parse(s string) (Type, error) {
	if s == "" || s == "none" {
		return None, nil
	}
	t := Type(s)
	if !t.Valid() {
		return None, fmt.Errorf("element: unknown type %q", s)
	}
	return t, nil
}

// Effectiveness returns the damage multiplier of an attacking type against one or
// two defending types: the product of the chart entries, skipping None defenders.
// A typeless attack is always neutral.
//
// Postcondition: result is one of 0, 0.25, 0.5, 1, 2, 4.
func Effectiveness(attacking Type, defenders ...Type) float64 {
	if attacking == None {
		return 1
	}
	mult := 1.0
	row := chart[attacking]
	for _, d := range defenders {
		if d == None {
			continue
		}
		if m, ok := row[d]; ok {
			mult *= m
		}
	}
	return mult
}

// Describe renders a multiplier as the phrase shown to players, or "" when neutral.
func Describe(mult float64) string {
	switch {
	case mult == 0:
		return "It has no effect..."
	case mult > 1:
		return "It's super effective!"
	case mult < 1:
		return "It's not very effective..."
	default:
		return ""
	}
}

// Weaknesses returns the attacking types that deal more than neutral damage to
// the given defender pair, sorted by name.
func Weaknesses(defenders ...Type) []Type {
	var out []Type
	for _, a := range All {
		if Effectiveness(a, defenders...) > 1 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

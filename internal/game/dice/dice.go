// Package dice provides the randomness abstraction and roll-result types used by
// battle resolution: damage variance, accuracy checks, flee attempts, IV rolls and
// tie-break coin flips all go through here.
package dice

import "fmt"

// RollResult is one evaluated expression: the faces rolled and the flat modifier.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "d16+84"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll for debug logs: "d16+84: [7]+84 = 91", or
// "d100: [42] = 42" when there is no modifier. An unnamed result is labelled "roll".
func (r RollResult) String() string {
	label := r.Expression
	if label == "" {
		label = "roll"
	}
	if r.Modifier == 0 {
		return fmt.Sprintf("%s: %v = %d", label, r.Dice, r.Total())
	}
	return fmt.Sprintf("%s: %v%+d = %d", label, r.Dice, r.Modifier, r.Total())
}

// Single returns the face of a one-die roll and whether the roll had exactly one die.
func (r RollResult) Single() (int, bool) {
	if len(r.Dice) != 1 {
		return 0, false
	}
	return r.Dice[0], true
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

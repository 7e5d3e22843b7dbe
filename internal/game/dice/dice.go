// Package dice provides the randomness abstraction shared by the combat,
// loot, and scheduling code, plus dice expressions for content-authored values.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "2d6+3 → [4 5] +3 = 12".
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for every roll in the engine.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Between returns a uniformly distributed integer in [lo, hi].
// If hi <= lo, lo is returned without consuming randomness.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Chance draws one uniform roll in [0, 100) with two decimal places of
// resolution and reports whether it fell below percent.
//
// Postcondition: percent >= 100 always succeeds; percent <= 0 always fails.
func Chance(src Source, percent float64) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	roll := float64(src.Intn(10000)) / 100
	return roll < percent
}

// Pick returns a uniformly random index into a collection of length n,
// or -1 when n is zero.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

package dice

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:kh(\d+))?([+-]\d+)?$`)

// Expression is a parsed dice expression such as "d20", "2d6+3" or "4d6kh3".
//
// Invariant: Count >= 1, Sides >= 2, 0 <= KeepHighest < Count.
type Expression struct {
	Raw         string
	Count       int
	Sides       int
	Modifier    int
	KeepHighest int
}

// Parse parses a dice expression.
//
// Postcondition: Returns an Expression satisfying its invariant, or a descriptive error.
func Parse(raw string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	m := exprPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", raw)
	}

	e := Expression{Raw: raw, Count: 1}
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", raw)
		}
		e.Count = n
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}
	e.Sides = sides
	if m[3] != "" {
		kh, _ := strconv.Atoi(m[3])
		if kh <= 0 || kh >= e.Count {
			return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", kh, e.Count, raw)
		}
		e.KeepHighest = kh
	}
	if m[4] != "" {
		mod, err := strconv.Atoi(m[4])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
		e.Modifier = mod
	}
	return e, nil
}

// MustParse parses expr and panics on error. Useful for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates expr against src.
//
// Postcondition: len(result.Dice) == Count, or KeepHighest when it is set.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	kept := rolled
	if expr.KeepHighest > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(rolled)))
		kept = rolled[:expr.KeepHighest]
	}
	return RollResult{Expression: expr.Raw, Dice: kept, Modifier: expr.Modifier}
}

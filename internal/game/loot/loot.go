// Package loot rolls declarative drop tables when an adversary dies.
package loot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Entry is one line of a loot table.
type Entry struct {
	Kind     string  `yaml:"kind"`
	Chance   float64 `yaml:"chance"` // percent in (0, 100]
	MinCount int     `yaml:"min_count"`
	MaxCount int     `yaml:"max_count"`
}

// Table is an ordered list of entries plus bounds on the total number of drops.
// MaxTotalDrops <= 0 means the pool is unbounded above.
type Table struct {
	Entries       []Entry `yaml:"entries"`
	MinTotalDrops int     `yaml:"min_total_drops"`
	MaxTotalDrops int     `yaml:"max_total_drops"`
}

// Validate checks the table's invariants.
//
// Postcondition: Returns nil iff every entry has a kind, a chance in (0, 100]
// and 0 <= MinCount <= MaxCount, and the total bounds are consistent. An empty
// table with MinTotalDrops == 0 is valid.
func (t *Table) Validate() error {
	for i, e := range t.Entries {
		if e.Kind == "" {
			return fmt.Errorf("loot table: entry[%d] must have a non-empty kind", i)
		}
		if e.Chance <= 0 || e.Chance > 100 {
			return fmt.Errorf("loot table: entry[%d] chance must be in (0, 100], got %v", i, e.Chance)
		}
		if e.MinCount < 0 {
			return fmt.Errorf("loot table: entry[%d] min_count must be >= 0, got %d", i, e.MinCount)
		}
		if e.MinCount > e.MaxCount {
			return fmt.Errorf("loot table: entry[%d] min_count (%d) must be <= max_count (%d)", i, e.MinCount, e.MaxCount)
		}
	}
	if t.MinTotalDrops < 0 {
		return fmt.Errorf("loot table: min_total_drops must be >= 0, got %d", t.MinTotalDrops)
	}
	if t.MaxTotalDrops > 0 && t.MinTotalDrops > t.MaxTotalDrops {
		return fmt.Errorf("loot table: min_total_drops (%d) must be <= max_total_drops (%d)", t.MinTotalDrops, t.MaxTotalDrops)
	}
	if t.MinTotalDrops > 0 && len(t.Entries) == 0 {
		return fmt.Errorf("loot table: min_total_drops requires at least one entry")
	}
	return nil
}

// Drop is a single item instance produced by a roll.
type Drop struct {
	Kind       string
	InstanceID string
}

// Roll rolls every entry independently, then reshapes the pool to honour the
// table's total bounds: an oversized pool is shuffled and truncated, a short
// pool is padded with one item of a uniformly chosen entry at a time, ignoring
// that entry's chance.
//
// Precondition: t passed Validate; src must be non-nil.
// Postcondition: MinTotalDrops <= len(result), and len(result) <= MaxTotalDrops
// when MaxTotalDrops > 0.
func Roll(t Table, src dice.Source) []Drop {
	var pool []Drop
	for _, e := range t.Entries {
		if !dice.Chance(src, e.Chance) {
			continue
		}
		n := dice.Between(src, e.MinCount, e.MaxCount)
		for i := 0; i < n; i++ {
			pool = append(pool, newDrop(e.Kind))
		}
	}

	if t.MaxTotalDrops > 0 && len(pool) > t.MaxTotalDrops {
		shuffle(pool, src)
		clear(pool[t.MaxTotalDrops:])
		pool = pool[:t.MaxTotalDrops]
	}

	for len(pool) < t.MinTotalDrops && len(t.Entries) > 0 {
		e := t.Entries[src.Intn(len(t.Entries))]
		pool = append(pool, newDrop(e.Kind))
	}
	return pool
}

// Counts tallies drops by kind.
func Counts(drops []Drop) map[string]int {
	out := make(map[string]int, len(drops))
	for _, d := range drops {
		out[d.Kind]++
	}
	return out
}

func newDrop(kind string) Drop {
	return Drop{Kind: kind, InstanceID: uuid.New().String()}
}

// shuffle is a Fisher-Yates shuffle driven by src so seeded battles replay
// identically.
func shuffle(drops []Drop, src dice.Source) {
	for i := len(drops) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		drops[i], drops[j] = drops[j], drops[i]
	}
}

package loot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/loot"
)

func TestTable_Validate(t *testing.T) {
	ok := loot.Table{
		Entries:       []loot.Entry{{Kind: "potion", Chance: 50, MinCount: 1, MaxCount: 2}},
		MinTotalDrops: 0, MaxTotalDrops: 3,
	}
	assert.NoError(t, ok.Validate())
	assert.NoError(t, (&loot.Table{}).Validate())

	bad := []loot.Table{
		{Entries: []loot.Entry{{Chance: 50, MinCount: 1, MaxCount: 1}}},
		{Entries: []loot.Entry{{Kind: "x", Chance: 0, MinCount: 1, MaxCount: 1}}},
		{Entries: []loot.Entry{{Kind: "x", Chance: 101, MinCount: 1, MaxCount: 1}}},
		{Entries: []loot.Entry{{Kind: "x", Chance: 10, MinCount: 3, MaxCount: 1}}},
		{Entries: []loot.Entry{{Kind: "x", Chance: 10, MinCount: 1, MaxCount: 1}}, MinTotalDrops: 3, MaxTotalDrops: 2},
		{MinTotalDrops: 1},
	}
	for i, tb := range bad {
		assert.Error(t, tb.Validate(), "case %d", i)
	}
}

func TestRoll_ScenarioC_ExactlyTwo(t *testing.T) {
	tb := loot.Table{
		Entries:       []loot.Entry{{Kind: "gem", Chance: 100, MinCount: 1, MaxCount: 2}},
		MinTotalDrops: 2, MaxTotalDrops: 2,
	}
	require.NoError(t, tb.Validate())
	src := dice.NewSeededSource(1)
	for i := 0; i < 1000; i++ {
		drops := loot.Roll(tb, src)
		require.Len(t, drops, 2)
		for _, d := range drops {
			assert.Equal(t, "gem", d.Kind)
			assert.NotEmpty(t, d.InstanceID)
		}
	}
}

func TestRoll_TruncatesOversizedPool(t *testing.T) {
	tb := loot.Table{
		Entries: []loot.Entry{
			{Kind: "a", Chance: 100, MinCount: 3, MaxCount: 3},
			{Kind: "b", Chance: 100, MinCount: 3, MaxCount: 3},
		},
		MaxTotalDrops: 4,
	}
	drops := loot.Roll(tb, dice.NewSeededSource(9))
	assert.Len(t, drops, 4)
}

func TestRoll_PadsShortPool(t *testing.T) {
	tb := loot.Table{
		Entries:       []loot.Entry{{Kind: "rare", Chance: 0.01, MinCount: 1, MaxCount: 1}},
		MinTotalDrops: 3,
	}
	drops := loot.Roll(tb, dice.NewSeededSource(3))
	assert.Len(t, drops, 3)
	assert.Equal(t, map[string]int{"rare": 3}, loot.Counts(drops))
}

func TestRoll_EmptyTable(t *testing.T) {
	assert.Empty(t, loot.Roll(loot.Table{}, dice.NewSeededSource(1)))
}

func TestRoll_Bounds_TenThousandTrials(t *testing.T) {
	tb := loot.Table{
		Entries: []loot.Entry{
			{Kind: "coin", Chance: 100, MinCount: 1, MaxCount: 3},
			{Kind: "potion", Chance: 35, MinCount: 1, MaxCount: 2},
			{Kind: "relic", Chance: 2, MinCount: 1, MaxCount: 1},
		},
		MinTotalDrops: 2, MaxTotalDrops: 6,
	}
	require.NoError(t, tb.Validate())
	src := dice.NewSeededSource(2024)
	for i := 0; i < 10000; i++ {
		drops := loot.Roll(tb, src)
		require.GreaterOrEqual(t, len(drops), 2)
		require.LessOrEqual(t, len(drops), 6)
		require.Positive(t, loot.Counts(drops)["coin"], "a guaranteed entry with room under the cap always appears")
	}
}

func TestProperty_Roll_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "entries")
		var entries []loot.Entry
		for i := 0; i < n; i++ {
			lo := rapid.IntRange(0, 4).Draw(rt, "lo")
			entries = append(entries, loot.Entry{
				Kind:     string(rune('a' + i)),
				Chance:   rapid.Float64Range(0.01, 100).Draw(rt, "chance"),
				MinCount: lo,
				MaxCount: rapid.IntRange(lo, lo+4).Draw(rt, "hi"),
			})
		}
		minTotal := rapid.IntRange(0, 6).Draw(rt, "min")
		maxTotal := rapid.IntRange(minTotal, minTotal+6).Draw(rt, "max")
		tb := loot.Table{Entries: entries, MinTotalDrops: minTotal, MaxTotalDrops: maxTotal}
		if maxTotal == 0 {
			tb.MaxTotalDrops = 0
		}
		drops := loot.Roll(tb, dice.NewSeededSource(uint64(rapid.Int64().Draw(rt, "seed"))))
		assert.GreaterOrEqual(rt, len(drops), minTotal)
		if tb.MaxTotalDrops > 0 {
			assert.LessOrEqual(rt, len(drops), tb.MaxTotalDrops)
		}
	})
}

package inventory

import (
	"fmt"
	"sort"
)

// Snapshot is the persistable form of an Inventory: counts per item ID.
type Snapshot map[string]int

// Inventory is the player party's shared item store. Counts are capped at each
// definition's MaxStack; cooldowns are tracked per item kind.
// It is not safe for concurrent use; the battle owns it.
type Inventory struct {
	reg       *Registry
	counts    map[string]int
	cooldowns map[string]int
}

// New creates an empty Inventory backed by reg.
//
// Precondition: reg must not be nil.
func New(reg *Registry) *Inventory {
	return &Inventory{reg: reg, counts: make(map[string]int), cooldowns: make(map[string]int)}
}

// Def returns the definition of id.
func (inv *Inventory) Def(id string) (*ItemDef, bool) {
	return inv.reg.Item(id)
}

// Add stores up to n units of id and returns how many were kept; the rest
// overflow the stack cap and are discarded.
//
// Postcondition: Count(id) <= def.MaxStack.
func (inv *Inventory) Add(id string, n int) (int, error) {
	def, ok := inv.reg.Item(id)
	if !ok {
		return 0, fmt.Errorf("inventory: unknown item %q", id)
	}
	if n <= 0 {
		return 0, nil
	}
	kept := min(n, def.MaxStack-inv.counts[id])
	if kept <= 0 {
		return 0, nil
	}
	inv.counts[id] += kept
	return kept, nil
}

// Remove takes n units of id.
//
// Postcondition: on error the inventory is unchanged.
func (inv *Inventory) Remove(id string, n int) error {
	if inv.counts[id] < n {
		return fmt.Errorf("inventory: have %d of %q, need %d", inv.counts[id], id, n)
	}
	inv.counts[id] -= n
	if inv.counts[id] == 0 {
		delete(inv.counts, id)
	}
	return nil
}

// Count returns how many units of id are held.
func (inv *Inventory) Count(id string) int { return inv.counts[id] }

// Cooldown returns the remaining cooldown of id in turns.
func (inv *Inventory) Cooldown(id string) int { return inv.cooldowns[id] }

// IsAvailable reports whether id is held, usable, and off cooldown.
func (inv *Inventory) IsAvailable(id string) bool {
	def, ok := inv.reg.Item(id)
	if !ok || !def.Usable() {
		return false
	}
	return inv.counts[id] > 0 && inv.cooldowns[id] == 0
}

// StartCooldown puts id on its definition's cooldown.
func (inv *Inventory) StartCooldown(id string) {
	if def, ok := inv.reg.Item(id); ok && def.Cooldown > 0 {
		inv.cooldowns[id] = def.Cooldown
	}
}

// TickCooldowns decrements every running item cooldown by one turn.
//
// Postcondition: every cooldown is >= 0.
func (inv *Inventory) TickCooldowns() {
	for id, cd := range inv.cooldowns {
		if cd <= 1 {
			delete(inv.cooldowns, id)
			continue
		}
		inv.cooldowns[id] = cd - 1
	}
}

// Kinds returns the held item IDs in sorted order.
func (inv *Inventory) Kinds() []string {
	out := make([]string, 0, len(inv.counts))
	for id := range inv.counts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the counts for persistence.
func (inv *Inventory) Snapshot() Snapshot {
	out := make(Snapshot, len(inv.counts))
	for id, n := range inv.counts {
		out[id] = n
	}
	return out
}

// Restore replaces the counts with snap. Unknown IDs are skipped and reported.
func (inv *Inventory) Restore(snap Snapshot) []string {
	inv.counts = make(map[string]int, len(snap))
	var unknown []string
	for id, n := range snap {
		if _, err := inv.Add(id, n); err != nil {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return unknown
}

package effect

// DefaultMaxDamageReduction is the hard cap, in percent, on pooled damage reduction.
const DefaultMaxDamageReduction = 90.0

// each visits every effect of every non-nil set in order, over snapshots so
// hooks may mutate the sets they belong to.
func each(sets []*Set, fn func(e *StatusEffect)) {
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, e := range s.All() {
			fn(e)
		}
	}
}

// DamageTaken passes amount through every OnDamageTaken hook.
func DamageTaken(amount int, sets ...*Set) int {
	each(sets, func(e *StatusEffect) {
		if e.Hooks.OnDamageTaken != nil {
			amount = e.Hooks.OnDamageTaken(e, amount)
		}
	})
	return amount
}

// DamageIncrease passes amount through every ApplyDamageIncrease hook.
//
// Postcondition: Returns >= 0.
func DamageIncrease(amount int, sets ...*Set) int {
	each(sets, func(e *StatusEffect) {
		if e.Hooks.ApplyDamageIncrease != nil {
			amount = e.Hooks.ApplyDamageIncrease(e, amount)
		}
	})
	return max(amount, 0)
}

// ManaCost passes cost through every ModifyManaCost hook.
//
// Postcondition: Returns >= 0.
func ManaCost(cost int, sets ...*Set) int {
	each(sets, func(e *StatusEffect) {
		if e.Hooks.ModifyManaCost != nil {
			cost = e.Hooks.ModifyManaCost(e, cost)
		}
	})
	return max(cost, 0)
}

// HealingReceived passes amount through every ModifyHealingReceived hook.
//
// Postcondition: Returns >= 0.
func HealingReceived(amount int, sets ...*Set) int {
	each(sets, func(e *StatusEffect) {
		if e.Hooks.ModifyHealingReceived != nil {
			amount = e.Hooks.ModifyHealingReceived(e, amount)
		}
	})
	return max(amount, 0)
}

// HealingIncrease passes outgoing healing through every ApplyHealingIncrease hook.
//
// Postcondition: Returns >= 0.
func HealingIncrease(amount int, sets ...*Set) int {
	each(sets, func(e *StatusEffect) {
		if e.Hooks.ApplyHealingIncrease != nil {
			amount = e.Hooks.ApplyHealingIncrease(e, amount)
		}
	})
	return max(amount, 0)
}

// DamageDealt notifies every OnDamageDealt hook of the realized total.
func DamageDealt(total int, sets ...*Set) {
	if total <= 0 {
		return
	}
	each(sets, func(e *StatusEffect) {
		if e.Hooks.OnDamageDealt != nil {
			e.Hooks.OnDamageDealt(e, total)
		}
	})
}

// DamageReduction sums every contributed reduction percentage and clamps the
// pool to [0, capPercent].
func DamageReduction(capPercent float64, sets ...*Set) float64 {
	total := 0.0
	each(sets, func(e *StatusEffect) {
		if e.Hooks.DamageReduction != nil {
			total += e.Hooks.DamageReduction(e)
		}
	})
	return min(max(total, 0), capPercent)
}

// Targetable reports false if any effect hides its owner.
func Targetable(sets ...*Set) bool {
	ok := true
	each(sets, func(e *StatusEffect) {
		if e.Hooks.Targetable != nil && !e.Hooks.Targetable(e) {
			ok = false
		}
	})
	return ok
}

// AbilitiesLocked reports true if any effect forbids ability use.
func AbilitiesLocked(sets ...*Set) bool {
	locked := false
	each(sets, func(e *StatusEffect) {
		if e.Hooks.LocksAbilities != nil && e.Hooks.LocksAbilities(e) {
			locked = true
		}
	})
	return locked
}

// DefenseBonus sums flat defense granted by all effects.
func DefenseBonus(sets ...*Set) int {
	total := 0
	each(sets, func(e *StatusEffect) { total += e.DefenseBonus })
	return total
}

// MaxHPBonus sums the maximum-HP bonus granted by all effects.
func MaxHPBonus(sets ...*Set) int {
	total := 0
	each(sets, func(e *StatusEffect) { total += e.MaxHPBonus })
	return total
}

// HealPerTurn sums the end-of-turn healing granted by all effects.
func HealPerTurn(sets ...*Set) int {
	total := 0
	each(sets, func(e *StatusEffect) { total += e.HealPerTurn })
	return total
}

func scalePercent(amount int, percent float64) int {
	return int(float64(amount) * (100 + percent) / 100)
}

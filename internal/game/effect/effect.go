// Package effect implements buffs and debuffs: status effects attached to an
// entity that hook into the damage, healing, mana and targeting pipelines.
//
// Hooks are optional function slots. Dispatchers enumerate the slots they know
// about and skip nil ones; an effect never has to implement a hook it does not use.
package effect

import "fmt"

// Kind tags a status effect with the behaviour its hooks implement.
type Kind string

const (
	KindGeneric         Kind = "generic"
	KindDamageReduction Kind = "damage_reduction"
	KindDamageIncrease  Kind = "damage_increase"
	KindNullify         Kind = "nullify"
	KindManaCost        Kind = "mana_cost"
	KindHealingReceived Kind = "healing_received"
	KindHealingDone     Kind = "healing_done"
	KindSilence         Kind = "silence"
	KindStealth         Kind = "stealth"
	KindHealOverTime    Kind = "heal_over_time"
	KindDefense         Kind = "defense"
	KindVitality        Kind = "max_hp"
	KindRecoil          Kind = "recoil"
	KindLifesteal       Kind = "lifesteal"
	KindDisable         Kind = "disable"
)

// Hooks is the closed set of capability slots a status effect may fill.
// Every slot receives the effect itself so hooks read the current, possibly
// stacked, magnitude rather than a value captured at construction.
type Hooks struct {
	// OnApply runs once when the effect is attached (added or replacing).
	OnApply func(self *StatusEffect)
	// OnDamageTaken intercepts incoming damage before reduction and defense.
	OnDamageTaken func(self *StatusEffect, amount int) int
	// ApplyDamageIncrease modifies outgoing damage (caster side) or incoming
	// damage (target-side debuff).
	ApplyDamageIncrease func(self *StatusEffect, amount int) int
	ModifyManaCost      func(self *StatusEffect, cost int) int
	// ModifyHealingReceived alters healing arriving at the owner.
	ModifyHealingReceived func(self *StatusEffect, amount int) int
	// ApplyHealingIncrease alters healing the owner casts.
	ApplyHealingIncrease func(self *StatusEffect, amount int) int
	// OnDamageDealt reacts after the owner dealt damage. Fire and forget.
	OnDamageDealt func(self *StatusEffect, total int)
	// DamageReduction contributes a percentage to the capped reduction pool.
	DamageReduction func(self *StatusEffect) float64
	// Targetable returning false hides the owner from ability and item targeting.
	Targetable func(self *StatusEffect) bool
	// LocksAbilities returning true forbids ability use by the owner.
	LocksAbilities func(self *StatusEffect) bool
	// OnExpire runs when the effect detaches for any reason.
	OnExpire func(self *StatusEffect)
}

// StatusEffect is one buff or debuff instance on one entity.
//
// Invariant: Duration < 0 means permanent; a permanent effect never expires via Update.
type StatusEffect struct {
	Name        string
	Kind        Kind
	Value       float64
	Duration    int
	Removable   bool
	Protection  bool
	Stacking    bool
	Stacks      int
	HealPerTurn int
	// DefenseBonus adds to the owner's flat defense.
	DefenseBonus int
	// MaxHPBonus raises the owner's effective maximum HP.
	MaxHPBonus int
	Icon       string
	Hooks      Hooks
}

// Permanent reports whether the effect is exempt from duration ticks.
func (e *StatusEffect) Permanent() bool { return e.Duration < 0 }

// Update advances the duration by one turn.
//
// Postcondition: returns false iff the effect should detach now.
func (e *StatusEffect) Update() bool {
	if e.Permanent() {
		return true
	}
	e.Duration--
	return e.Duration > 0
}

// Describe returns a one-line description for logs and tooltips. Unknown
// kinds fall back to "kind: value".
func (e *StatusEffect) Describe() string {
	switch e.Kind {
	case KindDamageReduction:
		return fmt.Sprintf("%s: %.0f%% damage reduction", e.Name, e.Value)
	case KindDamageIncrease:
		return fmt.Sprintf("%s: %+.0f%% damage", e.Name, e.Value)
	case KindNullify:
		return fmt.Sprintf("%s: %.0f%% chance to nullify damage", e.Name, e.Value)
	case KindHealOverTime:
		return fmt.Sprintf("%s: heals %d per turn", e.Name, e.HealPerTurn)
	case KindDefense:
		return fmt.Sprintf("%s: %+d defense", e.Name, e.DefenseBonus)
	case KindVitality:
		return fmt.Sprintf("%s: %+d max HP", e.Name, e.MaxHPBonus)
	case KindSilence:
		return fmt.Sprintf("%s: cannot use abilities", e.Name)
	case KindStealth:
		return fmt.Sprintf("%s: cannot be targeted", e.Name)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Value)
	}
}

func mergeDuration(a, b int) int {
	if a < 0 || b < 0 {
		return -1
	}
	return max(a, b)
}

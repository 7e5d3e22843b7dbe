// Package ability defines ability and effect descriptors and their cooldown
// arithmetic. Resolution lives in package combat.
package ability

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// EffectKind selects how an EffectSpec resolves.
type EffectKind string

const (
	Damage            EffectKind = "damage"
	DamageAll         EffectKind = "damage_all"
	Heal              EffectKind = "heal"
	HealAll           EffectKind = "heal_all"
	Buff              EffectKind = "buff"
	BuffAll           EffectKind = "buff_all"
	Debuff            EffectKind = "debuff"
	DebuffAll         EffectKind = "debuff_all"
	DamageReduction   EffectKind = "damage_reduction"
	HealOverTime      EffectKind = "heal_over_time"
	RemoveEffects     EffectKind = "remove_effects"
	RestoreMana       EffectKind = "restore_mana"
	RestoreManaSelf   EffectKind = "restore_mana_self"
	IncreaseCooldowns EffectKind = "increase_cooldowns"
	SelfDamage        EffectKind = "self_damage"
)

var knownEffectKinds = map[EffectKind]bool{
	Damage: true, DamageAll: true, Heal: true, HealAll: true, Buff: true, BuffAll: true,
	Debuff: true, DebuffAll: true, DamageReduction: true, HealOverTime: true,
	RemoveEffects: true, RestoreMana: true, RestoreManaSelf: true,
	IncreaseCooldowns: true, SelfDamage: true,
}

// Known reports whether k is a kind the engine can resolve.
func (k EffectKind) Known() bool { return knownEffectKinds[k] }

// Targeted reports whether the kind applies to explicitly chosen targets, as
// opposed to whole rosters or the caster.
func (k EffectKind) Targeted() bool {
	switch k {
	case Damage, Heal, Buff, Debuff, DamageReduction, HealOverTime, RemoveEffects, RestoreMana:
		return true
	}
	return false
}

// UsesStatus reports whether the kind attaches a named status definition.
func (k EffectKind) UsesStatus() bool {
	switch k {
	case Buff, BuffAll, Debuff, DebuffAll:
		return true
	}
	return false
}

// Offensive reports whether the kind is aimed at the opposing side.
func (k EffectKind) Offensive() bool {
	switch k {
	case Damage, DamageAll, Debuff, DebuffAll, IncreaseCooldowns:
		return true
	}
	return false
}

// EffectSpec is one declarative step of an ability or item.
type EffectSpec struct {
	Kind EffectKind `yaml:"kind"`
	// Value is the magnitude; replaced by a roll of Dice when Dice is set.
	Value int    `yaml:"value"`
	Dice  string `yaml:"dice"`
	// AttackScaling adds caster attack * AttackScaling / 100 to damage kinds.
	AttackScaling int `yaml:"attack_scaling"`
	// Duration in turns for status-producing kinds; 0 keeps the status default.
	Duration int `yaml:"duration"`
	// Chance in percent; 0 means the step always applies.
	Chance float64 `yaml:"chance"`
	// Status names the status effect definition for buff/debuff kinds.
	Status string `yaml:"status"`
}

// Validate checks the spec in isolation. Status names are resolved by the
// content library.
func (s EffectSpec) Validate() error {
	if !s.Kind.Known() {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if s.Chance < 0 || s.Chance > 100 {
		return fmt.Errorf("%s: chance must be in [0, 100]", s.Kind)
	}
	if s.Dice != "" {
		if _, err := dice.Parse(s.Dice); err != nil {
			return fmt.Errorf("%s: %w", s.Kind, err)
		}
	}
	switch s.Kind {
	case DamageReduction, HealOverTime:
		if s.Duration < 1 {
			return fmt.Errorf("%s: duration must be >= 1", s.Kind)
		}
	}
	return nil
}

// Describe renders the spec for tooltips and logs. Unknown kinds fall back to
// "kind: value".
func (s EffectSpec) Describe() string {
	mag := fmt.Sprint(s.Value)
	if s.Dice != "" {
		mag = s.Dice
	}
	var out string
	switch s.Kind {
	case Damage:
		out = "Deal " + mag + " damage"
	case DamageAll:
		out = "Deal " + mag + " damage to all enemies"
	case Heal:
		out = "Heal " + mag + " HP"
	case HealAll:
		out = "Heal all allies for " + mag + " HP"
	case Buff, BuffAll, Debuff, DebuffAll:
		out = fmt.Sprintf("Apply %s", s.Status)
		if s.Duration != 0 {
			out += fmt.Sprintf(" for %d turns", s.Duration)
		}
	case DamageReduction:
		out = fmt.Sprintf("Reduce damage taken by %s%% for %d turns", mag, s.Duration)
	case HealOverTime:
		out = fmt.Sprintf("Heal %s HP per turn for %d turns", mag, s.Duration)
	case RemoveEffects:
		out = "Remove all removable effects"
	case RestoreMana:
		out = "Restore " + mag + " mana"
	case RestoreManaSelf:
		out = "Restore " + mag + " of your mana"
	case IncreaseCooldowns:
		out = "Increase enemy cooldowns by " + mag
	case SelfDamage:
		out = "Lose " + mag + " HP"
	default:
		out = fmt.Sprintf("%s: %s", s.Kind, mag)
	}
	if s.Chance > 0 && s.Chance < 100 {
		out += fmt.Sprintf(" (%.0f%% chance)", s.Chance)
	}
	return out
}

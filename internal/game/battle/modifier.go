package battle

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/entity"
)

// ModifierKind selects what a Modifier adjusts.
type ModifierKind string

const (
	ModAdversaryHP     ModifierKind = "adversary_hp_percent"
	ModAdversaryAttack ModifierKind = "adversary_attack_percent"
	ModPlayerManaRegen ModifierKind = "player_mana_regen"
)

// Modifier is a per-stage difficulty or bonus selection applied when a battle
// is set up and to every entity spawned afterwards.
type Modifier struct {
	ID    string       `yaml:"id" json:"id"`
	Kind  ModifierKind `yaml:"kind" json:"kind"`
	Value int          `yaml:"value" json:"value"`
}

// Validate checks the modifier's invariants.
func (m Modifier) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("modifier: id must not be empty")
	}
	switch m.Kind {
	case ModAdversaryHP, ModAdversaryAttack:
		if m.Value <= -100 {
			return fmt.Errorf("modifier %q: percent must be > -100, got %d", m.ID, m.Value)
		}
	case ModPlayerManaRegen:
	default:
		return fmt.Errorf("modifier %q: unknown kind %q", m.ID, m.Kind)
	}
	return nil
}

// Apply adjusts e if the modifier targets e's side.
//
// Postcondition: HP and mana stay within their maxima.
func (m Modifier) Apply(e *entity.Entity) {
	switch {
	case m.Kind == ModAdversaryHP && e.Side == entity.SideAdversary:
		e.Stats.MaxHP = max(e.Stats.MaxHP*(100+m.Value)/100, 1)
		e.Stats.HP = e.Stats.MaxHP
	case m.Kind == ModAdversaryAttack && e.Side == entity.SideAdversary:
		e.Stats.Attack = max(e.Stats.Attack*(100+m.Value)/100, 0)
	case m.Kind == ModPlayerManaRegen && e.Side == entity.SidePlayer:
		e.Stats.ManaRegen = max(e.Stats.ManaRegen+m.Value, 0)
	}
}

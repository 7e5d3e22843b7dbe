package main

import (
	"time"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// autopilot plays the party: it drinks a healing item when the most wounded
// player is below half health, otherwise it fires a random usable ability at a
// random valid target, and passes when nothing is usable.
type autopilot struct {
	src dice.Source
}

// act makes one player-phase decision.
//
// Precondition: b is in the player phase and not busy.
// Postcondition: Returns true when the battle accepted an action or a pass.
func (a autopilot) act(b *battle.Battle, now time.Time) bool {
	if a.heal(b, now) {
		return true
	}

	type choice struct {
		caster *entity.Entity
		ab     *ability.Ability
	}
	var choices []choice
	for _, p := range b.Players().Living() {
		for _, ab := range b.Engine().Usable(b.Context(p, now)) {
			choices = append(choices, choice{p, ab})
		}
	}
	for len(choices) > 0 {
		i := dice.Pick(a.src, len(choices))
		c := choices[i]
		choices = append(choices[:i], choices[i+1:]...)

		var targets []*entity.Entity
		if c.ab.NeedsTarget() {
			pool := combat.Candidates(b.Context(c.caster, now), c.ab.Targeting, c.ab.Offensive())
			if len(pool) == 0 {
				continue
			}
			targets = []*entity.Entity{pool[dice.Pick(a.src, len(pool))]}
		}
		if b.UseAbility(c.caster, c.ab, targets, now) {
			return true
		}
	}
	return b.Pass(now)
}

// heal uses the first available healing consumable on the most wounded living
// player when that player is under half of their effective maximum HP.
func (a autopilot) heal(b *battle.Battle, now time.Time) bool {
	inv, leader := b.Inventory(), b.Leader()
	if inv == nil || leader == nil {
		return false
	}
	var worst *entity.Entity
	for _, p := range b.Players().Living() {
		if worst == nil || p.Stats.HP*worst.EffectiveMaxHP() < worst.Stats.HP*p.EffectiveMaxHP() {
			worst = p
		}
	}
	if worst == nil || worst.Stats.HP*2 >= worst.EffectiveMaxHP() {
		return false
	}
	for _, kind := range inv.Kinds() {
		def, _ := inv.Def(kind)
		if !inv.IsAvailable(kind) || !heals(def.Effects) {
			continue
		}
		var targets []*entity.Entity
		if def.NeedsTarget() {
			targets = []*entity.Entity{worst}
		}
		if b.UseItem(kind, targets, now) {
			return true
		}
	}
	return false
}

func heals(effects []ability.EffectSpec) bool {
	for _, e := range effects {
		if e.Kind == ability.Heal || e.Kind == ability.HealAll {
			return true
		}
	}
	return false
}

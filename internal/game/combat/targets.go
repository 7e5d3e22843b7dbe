package combat

import (
	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Candidates returns the entities ctx.Caster may explicitly target with a kit
// of the given targeting and orientation.
func Candidates(ctx *Context, t ability.Targeting, offensive bool) []*entity.Entity {
	if t.AutoSelfTarget {
		return []*entity.Entity{ctx.Caster}
	}
	if offensive {
		return ctx.Opponents.Targetable()
	}
	var out []*entity.Entity
	for _, m := range ctx.Allies.Targetable() {
		if m == ctx.Caster && !t.CanSelfTarget {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SelectTargets validates chosen against the targeting rules.
//
// Postcondition: auto-self kits always yield the caster. Otherwise returns false
// if a target is required but none was chosen, or any chosen target is not a
// candidate.
func SelectTargets(ctx *Context, t ability.Targeting, needsTarget, offensive bool, chosen []*entity.Entity) ([]*entity.Entity, bool) {
	if t.AutoSelfTarget {
		return []*entity.Entity{ctx.Caster}, true
	}
	if !needsTarget {
		return nil, true
	}
	if len(chosen) == 0 {
		return nil, false
	}
	valid := Candidates(ctx, t, offensive)
	for _, c := range chosen {
		if !containsEntity(valid, c) {
			return nil, false
		}
	}
	return chosen, true
}

func containsEntity(list []*entity.Entity, e *entity.Entity) bool {
	for _, m := range list {
		if m == e {
			return true
		}
	}
	return false
}

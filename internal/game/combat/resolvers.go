package combat

import (
	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Resolver is a named resolution strategy for kits that need bespoke
// sequencing around their effect list.
type Resolver func(e *Engine, ctx *Context, ab *ability.Ability, targets []*entity.Entity, scale DamageScale) Outcome

// ExecuteThreshold is the HP fraction under which the execute resolver doubles damage.
const ExecuteThreshold = 0.3

// BuiltinResolvers returns the resolvers every engine starts with.
func BuiltinResolvers() map[string]Resolver {
	return map[string]Resolver{
		"lifesteal":     resolveLifesteal,
		"empathic_heal": resolveEmpathicHeal,
		"execute":       resolveExecute,
	}
}

// resolveLifesteal heals the caster for ResolverValue percent of realized damage.
func resolveLifesteal(e *Engine, ctx *Context, ab *ability.Ability, targets []*entity.Entity, scale DamageScale) Outcome {
	out := e.ApplyEffects(ctx, ab.Name, ab.Effects, targets, scale)
	if n := ctx.Caster.Heal(int(float64(out.Damage) * ab.ResolverValue / 100)); n > 0 {
		battlelog.Emitf(ctx.Log, battlelog.Heal, "%s drains %d HP", ctx.Caster.Name, n)
		out.Healed += n
	}
	return out
}

// resolveEmpathicHeal heals the caster for ResolverValue percent of the
// healing actually delivered.
func resolveEmpathicHeal(e *Engine, ctx *Context, ab *ability.Ability, targets []*entity.Entity, scale DamageScale) Outcome {
	out := e.ApplyEffects(ctx, ab.Name, ab.Effects, targets, scale)
	if n := ctx.Caster.Heal(int(float64(out.Healed) * ab.ResolverValue / 100)); n > 0 {
		battlelog.Emitf(ctx.Log, battlelog.Heal, "%s shares the healing and recovers %d HP", ctx.Caster.Name, n)
		out.Healed += n
	}
	return out
}

// resolveExecute doubles damage against targets below ExecuteThreshold of
// their effective max HP.
func resolveExecute(e *Engine, ctx *Context, ab *ability.Ability, targets []*entity.Entity, scale DamageScale) Outcome {
	exec := func(t *entity.Entity) float64 {
		m := 1.0
		if scale != nil {
			m = scale(t)
		}
		if float64(t.Stats.HP) < float64(t.EffectiveMaxHP())*ExecuteThreshold {
			m *= 2
		}
		return m
	}
	return e.ApplyEffects(ctx, ab.Name, ab.Effects, targets, exec)
}

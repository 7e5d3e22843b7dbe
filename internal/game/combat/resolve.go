package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// DamageScale multiplies damage against one target; nil means 1.
type DamageScale func(target *entity.Entity) float64

// Outcome is the realized totals of one resolution.
type Outcome struct {
	Damage int
	Healed int
}

func (o *Outcome) add(other Outcome) {
	o.Damage += other.Damage
	o.Healed += other.Healed
}

// ApplyEffects resolves effects in list order for ctx.Caster. source names the
// ability or item for log lines and inline status effects.
//
// Postcondition: Returns realized damage and healing. Caster OnDamageDealt hooks
// run once with the realized damage total.
func (e *Engine) ApplyEffects(ctx *Context, source string, effects []ability.EffectSpec, targets []*entity.Entity, scale DamageScale) Outcome {
	var out Outcome
	for _, spec := range effects {
		if !ctx.Caster.Alive() {
			break
		}
		if spec.Chance > 0 && !dice.Chance(e.Source(), spec.Chance) {
			battlelog.Emitf(ctx.Log, battlelog.Text, "%s: %s failed", source, spec.Kind)
			continue
		}
		out.add(e.applyOne(ctx, source, spec, targets, scale))
	}
	effect.DamageDealt(out.Damage, ctx.Caster.Buffs, ctx.Caster.Debuffs)
	return out
}

// magnitude returns the rolled or fixed value of spec.
func (e *Engine) magnitude(spec ability.EffectSpec) int {
	if spec.Dice == "" {
		return spec.Value
	}
	res, err := e.roller.RollExpr(spec.Dice)
	if err != nil {
		e.logger.Warn("bad dice expression", zap.String("dice", spec.Dice), zap.Error(err))
		return spec.Value
	}
	return res.Total()
}

func (e *Engine) applyOne(ctx *Context, source string, spec ability.EffectSpec, targets []*entity.Entity, scale DamageScale) Outcome {
	caster := ctx.Caster
	var out Outcome
	switch spec.Kind {
	case ability.Damage:
		out.Damage = e.damage(ctx, spec, targets, scale)
	case ability.DamageAll:
		out.Damage = e.damage(ctx, spec, ctx.Opponents.Targetable(), scale)
	case ability.Heal:
		out.Healed = e.heal(ctx, spec, targets)
	case ability.HealAll:
		out.Healed = e.heal(ctx, spec, ctx.Allies.Living())
	case ability.Buff:
		e.attachStatus(ctx, spec, targets, false)
	case ability.BuffAll:
		e.attachStatus(ctx, spec, ctx.Allies.Living(), false)
	case ability.Debuff:
		e.attachStatus(ctx, spec, targets, true)
	case ability.DebuffAll:
		e.attachStatus(ctx, spec, ctx.Opponents.Targetable(), true)
	case ability.DamageReduction:
		pct := e.magnitude(spec)
		for _, t := range living(targets) {
			t.Buffs.Apply(effect.NewDamageReduction(statusName(spec, source), float64(pct), spec.Duration))
			battlelog.Emitf(ctx.Log, battlelog.Buff, "%s gains %d%% damage reduction for %d turns", t.Name, pct, spec.Duration)
		}
	case ability.HealOverTime:
		per := e.magnitude(spec)
		for _, t := range living(targets) {
			t.Buffs.Apply(effect.NewHealOverTime(statusName(spec, source), per, spec.Duration))
			battlelog.Emitf(ctx.Log, battlelog.Buff, "%s regenerates %d HP per turn for %d turns", t.Name, per, spec.Duration)
		}
	case ability.RemoveEffects:
		for _, t := range living(targets) {
			removed := t.ClearRemovable()
			battlelog.Emitf(ctx.Log, battlelog.Buff, "%s loses %d effects", t.Name, len(removed))
		}
	case ability.RestoreMana:
		amount := e.magnitude(spec)
		for _, t := range living(targets) {
			if n := t.RestoreMana(amount); n > 0 {
				battlelog.Emitf(ctx.Log, battlelog.Mana, "%s restores %d mana", t.Name, n)
			}
		}
	case ability.RestoreManaSelf:
		if n := caster.RestoreMana(e.magnitude(spec)); n > 0 {
			battlelog.Emitf(ctx.Log, battlelog.Mana, "%s restores %d mana", caster.Name, n)
		}
	case ability.IncreaseCooldowns:
		turns := e.magnitude(spec)
		for _, opp := range ctx.Opponents.Living() {
			for _, ab := range opp.Abilities {
				if ab.Cooldown > 0 && !ab.Disabled {
					ab.DelayCooldown(turns)
				}
			}
		}
		battlelog.Emitf(ctx.Log, battlelog.Text, "Enemy cooldowns increased by %d", turns)
	case ability.SelfDamage:
		if n := caster.LoseHP(e.magnitude(spec)); n > 0 {
			battlelog.Emitf(ctx.Log, battlelog.Damage, "%s loses %d HP", caster.Name, n)
		}
	default:
		battlelog.Emitf(ctx.Log, battlelog.Text, "%s", spec.Describe())
	}
	return out
}

// damage runs the outgoing pipeline per target: base magnitude plus attack
// scaling, caster buff damage-increase hooks, target debuff hooks, scale, then
// TakeDamage. Dead or hidden targets are skipped.
func (e *Engine) damage(ctx *Context, spec ability.EffectSpec, targets []*entity.Entity, scale DamageScale) int {
	caster := ctx.Caster
	base := e.magnitude(spec) + caster.Stats.Attack*spec.AttackScaling/100
	total := 0
	for _, t := range targets {
		if !t.Targetable() {
			battlelog.Emitf(ctx.Log, battlelog.Text, "%s misses %s", caster.Name, t.Name)
			continue
		}
		amount := effect.DamageIncrease(base, caster.Buffs)
		amount = effect.DamageIncrease(amount, t.Debuffs)
		if scale != nil {
			amount = int(float64(amount) * scale(t))
		}
		dealt := t.TakeDamage(amount)
		total += dealt
		if dealt == 0 {
			battlelog.Emitf(ctx.Log, battlelog.Damage, "%s takes no damage", t.Name)
			continue
		}
		battlelog.Emitf(ctx.Log, battlelog.Damage, "%s deals %d damage to %s", caster.Name, dealt, t.Name)
	}
	return total
}

func (e *Engine) heal(ctx *Context, spec ability.EffectSpec, targets []*entity.Entity) int {
	amount := effect.HealingIncrease(e.magnitude(spec), ctx.Caster.Buffs, ctx.Caster.Debuffs)
	total := 0
	for _, t := range living(targets) {
		n := t.Heal(amount)
		total += n
		battlelog.Emitf(ctx.Log, battlelog.Heal, "%s heals %s for %d", ctx.Caster.Name, t.Name, n)
	}
	return total
}

func (e *Engine) attachStatus(ctx *Context, spec ability.EffectSpec, targets []*entity.Entity, debuff bool) {
	def, ok := e.statuses.Get(spec.Status)
	if !ok {
		e.logger.Warn("unknown status effect", zap.String("status", spec.Status))
		return
	}
	var opts []effect.Option
	if spec.Duration != 0 {
		opts = append(opts, effect.WithDuration(spec.Duration))
	}
	if spec.Value != 0 || spec.Dice != "" {
		opts = append(opts, effect.WithValue(float64(e.magnitude(spec))))
	}
	for _, t := range targets {
		if !t.Alive() || (debuff && !t.Targetable()) {
			continue
		}
		set := t.Buffs
		if debuff {
			set = t.Debuffs
		}
		res := set.Apply(def.Instantiate(t, e.Source(), opts...))
		if res == effect.Dropped {
			battlelog.Emitf(ctx.Log, battlelog.Buff, "%s resists %s", t.Name, def.Name)
			continue
		}
		battlelog.Emitf(ctx.Log, battlelog.Buff, "%s: %s %s", t.Name, def.Name, res)
	}
}

func statusName(spec ability.EffectSpec, source string) string {
	if spec.Status != "" {
		return spec.Status
	}
	return source
}

func living(targets []*entity.Entity) []*entity.Entity {
	var out []*entity.Entity
	for _, t := range targets {
		if t.Alive() {
			out = append(out, t)
		}
	}
	return out
}

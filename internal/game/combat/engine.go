// Package combat resolves abilities and items: cooldown and mana gating, the
// ordered effect pipeline, named resolver strategies, and the real-time paced
// multi-hit channel.
package combat

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// DefaultHitDelay paces channel hits when neither the ability nor the engine
// configuration provides a delay.
const DefaultHitDelay = 400 * time.Millisecond

// Context carries everything a resolution step may touch. It is rebuilt by the
// scheduler for every call and must not be retained.
type Context struct {
	Caster    *entity.Entity
	Allies    *entity.Roster
	Opponents *entity.Roster
	Log       battlelog.Sink
	Now       time.Time
}

// UseResult reports what Use did.
type UseResult int

const (
	// NotFired means a precondition failed and nothing changed.
	NotFired UseResult = iota
	// Resolved means the ability resolved completely; the turn may end.
	Resolved
	// Channeling means a multi-hit channel started; the turn stays open until
	// Update reports completion.
	Channeling
)

// String returns a human-readable label.
func (r UseResult) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Channeling:
		return "channeling"
	default:
		return "not_fired"
	}
}

// Engine resolves abilities and items for one battle.
// It is not safe for concurrent use; the battle owns it.
type Engine struct {
	statuses  *effect.Registry
	roller    *dice.Roller
	logger    *zap.Logger
	resolvers map[string]Resolver
	hitDelay  time.Duration
	channel   *channel
}

// Option configures an Engine.
type Option func(e *Engine)

// WithHitDelay sets the default delay between channel hits.
func WithHitDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.hitDelay = d
		}
	}
}

// WithResolver registers an additional named resolver.
func WithResolver(name string, r Resolver) Option {
	return func(e *Engine) { e.resolvers[name] = r }
}

// NewEngine creates an Engine with the built-in resolvers registered.
//
// Precondition: statuses, roller and logger must not be nil.
func NewEngine(statuses *effect.Registry, roller *dice.Roller, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		statuses:  statuses,
		roller:    roller,
		logger:    logger,
		resolvers: BuiltinResolvers(),
		hitDelay:  DefaultHitDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the engine's random source.
func (e *Engine) Source() dice.Source { return e.roller.Source() }

// HasResolver reports whether a resolver named name is registered.
func (e *Engine) HasResolver(name string) bool {
	_, ok := e.resolvers[name]
	return ok
}

// Busy reports whether a channel is in progress.
func (e *Engine) Busy() bool { return e.channel != nil }

// CanUse reports whether caster may use ab right now.
//
// Postcondition: Returns false if caster is dead, ab is on cooldown or disabled,
// an effect locks abilities, or caster cannot afford the modified mana cost.
func (e *Engine) CanUse(caster *entity.Entity, ab *ability.Ability) bool {
	if !caster.Alive() || !ab.IsAvailable() {
		return false
	}
	if caster.AbilitiesLocked() {
		return false
	}
	return caster.Stats.Mana >= caster.ManaCost(ab)
}

// Usable returns caster's abilities that pass CanUse and have at least one
// valid target, in kit order.
func (e *Engine) Usable(ctx *Context) []*ability.Ability {
	var out []*ability.Ability
	for _, ab := range ctx.Caster.Abilities {
		if !e.CanUse(ctx.Caster, ab) {
			continue
		}
		if ab.NeedsTarget() && len(Candidates(ctx, ab.Targeting, ab.Offensive())) == 0 {
			continue
		}
		out = append(out, ab)
	}
	return out
}

// Use resolves ab for ctx.Caster against targets.
//
// Precondition: ctx.Caster owns ab.
// Postcondition: NotFired leaves all state unchanged. Resolved means effects ran
// and the cooldown started. Channeling means mana was spent and hit one landed.
func (e *Engine) Use(ctx *Context, ab *ability.Ability, targets []*entity.Entity) UseResult {
	if e.Busy() || !e.CanUse(ctx.Caster, ab) {
		return NotFired
	}
	if ab.Resolver != "" && !e.HasResolver(ab.Resolver) {
		e.logger.Warn("unknown resolver", zap.String("ability", ab.Name), zap.String("resolver", ab.Resolver))
		return NotFired
	}
	targets, ok := SelectTargets(ctx, ab.Targeting, ab.NeedsTarget(), ab.Offensive(), targets)
	if !ok {
		return NotFired
	}
	caster := ctx.Caster
	cost := caster.ManaCost(ab)
	caster.SpendMana(cost)
	battlelog.Emitf(ctx.Log, battlelog.Text, "%s uses %s", caster.Name, ab.Name)
	if cost > 0 {
		battlelog.Emitf(ctx.Log, battlelog.Mana, "%s spends %d mana", caster.Name, cost)
	}
	e.logger.Debug("ability used",
		zap.String("caster", caster.Name),
		zap.String("ability", ab.Name),
		zap.Int("targets", len(targets)),
		zap.Int("mana_cost", cost),
	)

	if ab.IsChannel() {
		e.startChannel(ctx, ab, targets)
		if e.channel == nil {
			return Resolved
		}
		return Channeling
	}
	e.resolve(ctx, ab, targets, nil)
	ab.StartCooldown()
	return Resolved
}

// resolve runs ab's resolver, or its plain effect list, against targets.
func (e *Engine) resolve(ctx *Context, ab *ability.Ability, targets []*entity.Entity, scale DamageScale) Outcome {
	if ab.Resolver != "" {
		return e.resolvers[ab.Resolver](e, ctx, ab, targets, scale)
	}
	return e.ApplyEffects(ctx, ab.Name, ab.Effects, targets, scale)
}

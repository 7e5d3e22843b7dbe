package combat

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// channel is the in-flight state of a multi-hit ability. At most one exists
// per engine.
type channel struct {
	ab       *ability.Ability
	caster   *entity.Entity
	targets  []*entity.Entity
	hits     int
	lastHit  time.Time
	hitDelay time.Duration
}

// Channel reports the active channel's ability and hit count.
func (e *Engine) Channel() (ab *ability.Ability, hits int, ok bool) {
	if e.channel == nil {
		return nil, 0, false
	}
	return e.channel.ab, e.channel.hits, true
}

// ChannelCaster returns the caster of the active channel, or nil when idle.
func (e *Engine) ChannelCaster() *entity.Entity {
	if e.channel == nil {
		return nil
	}
	return e.channel.caster
}

// startChannel enters EXECUTING and lands the first hit. A single-hit channel
// completes immediately and leaves the engine idle.
func (e *Engine) startChannel(ctx *Context, ab *ability.Ability, targets []*entity.Entity) {
	delay := ab.Channel.HitDelay
	if delay <= 0 {
		delay = e.hitDelay
	}
	e.channel = &channel{
		ab:       ab,
		caster:   ctx.Caster,
		targets:  targets,
		hitDelay: delay,
	}
	e.hit(ctx)
	if e.channel.hits >= ab.Channel.MaxHits {
		e.finishChannel()
	}
}

// Update advances an active channel by at most one hit.
//
// Postcondition: Returns true exactly once per channel, on the tick that lands
// the final hit; the ability's cooldown has then started and Busy is false.
func (e *Engine) Update(ctx *Context) bool {
	ch := e.channel
	if ch == nil {
		return false
	}
	if ctx.Now.Sub(ch.lastHit) < ch.hitDelay {
		return false
	}
	e.hit(ctx)
	if ch.hits < ch.ab.Channel.MaxHits {
		return false
	}
	e.finishChannel()
	return true
}

func (e *Engine) finishChannel() {
	ch := e.channel
	ch.ab.StartCooldown()
	e.channel = nil
	e.logger.Debug("channel complete", zap.String("ability", ch.ab.Name), zap.Int("hits", ch.hits))
}

// hit lands one channel hit. The hit counts even when it no-ops so that turn
// accounting stays uniform.
func (e *Engine) hit(ctx *Context) {
	ch := e.channel
	ch.hits++
	ch.lastHit = ctx.Now
	hctx := *ctx
	hctx.Caster = ch.caster

	if !ch.caster.Alive() {
		return
	}
	targets := ch.targets
	if ch.ab.Channel.Retarget && ch.ab.NeedsTarget() {
		pool := Candidates(&hctx, ch.ab.Targeting, ch.ab.Offensive())
		if len(pool) == 0 {
			battlelog.Emitf(hctx.Log, battlelog.Text, "%s hit %d finds no target", ch.ab.Name, ch.hits)
			return
		}
		targets = []*entity.Entity{pool[dice.Pick(e.Source(), len(pool))]}
	} else if ch.ab.NeedsTarget() && len(living(targets)) == 0 {
		battlelog.Emitf(hctx.Log, battlelog.Text, "%s hit %d misses", ch.ab.Name, ch.hits)
		return
	}

	var scale DamageScale
	if ch.hits == ch.ab.Channel.MaxHits && ch.ab.Channel.LastHitMultiplier > 0 {
		m := ch.ab.Channel.LastHitMultiplier
		scale = func(*entity.Entity) float64 { return m }
	}
	e.resolve(&hctx, ch.ab, targets, scale)
}

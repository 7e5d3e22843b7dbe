package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

func flurry() *ability.Ability {
	return &ability.Ability{
		Name: "Flurry", Cooldown: 2, ManaCost: 10,
		Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: 10}},
		Channel: &ability.ChannelSpec{MaxHits: 3, HitDelay: 100 * time.Millisecond, LastHitMultiplier: 2},
	}
}

func at(ctx *combat.Context, d time.Duration) *combat.Context {
	cp := *ctx
	cp.Now = t0.Add(d)
	return &cp
}

func TestChannel_PacedHitsAndSingleManaCharge(t *testing.T) {
	f := newFixture(t, fixedSrc{}, flurry(), strike(10, 0))
	ab := f.hero.Abilities[0]

	require.Equal(t, combat.Channeling, f.eng.Use(f.ctx, ab, []*entity.Entity{f.foe}))
	assert.True(t, f.eng.Busy())
	assert.Equal(t, 40, f.hero.Stats.Mana)
	assert.Equal(t, 195, f.foe.Stats.HP, "first hit lands immediately")
	assert.Equal(t, 0, ab.CurrentCooldown, "cooldown waits for the last hit")

	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, f.hero.Abilities[1], []*entity.Entity{f.foe}), "busy")

	assert.False(t, f.eng.Update(at(f.ctx, 50*time.Millisecond)), "too early")
	assert.Equal(t, 195, f.foe.Stats.HP)

	assert.False(t, f.eng.Update(at(f.ctx, 100*time.Millisecond)))
	assert.Equal(t, 190, f.foe.Stats.HP)
	_, hits, ok := f.eng.Channel()
	require.True(t, ok)
	assert.Equal(t, 2, hits)

	assert.True(t, f.eng.Update(at(f.ctx, 200*time.Millisecond)))
	// last hit doubled: 20 - 5 defense.
	assert.Equal(t, 175, f.foe.Stats.HP)
	assert.False(t, f.eng.Busy())
	assert.Equal(t, 2, ab.CurrentCooldown)
	assert.Equal(t, 40, f.hero.Stats.Mana)

	assert.False(t, f.eng.Update(at(f.ctx, time.Second)), "completion is reported once")
}

func TestChannel_TargetDeathNoOpsRemainingHits(t *testing.T) {
	f := newFixture(t, fixedSrc{}, flurry())
	f.foe.Stats.HP = 5
	deaths := 0
	f.foe.SetDeathHook(func(*entity.Entity) { deaths++ })

	require.Equal(t, combat.Channeling, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe}))
	assert.False(t, f.foe.Alive())
	assert.False(t, f.eng.Update(at(f.ctx, 100*time.Millisecond)))
	assert.True(t, f.eng.Update(at(f.ctx, 200*time.Millisecond)), "channel still runs to max hits")
	assert.Equal(t, 1, deaths)
	assert.Equal(t, 0, f.foe.Stats.HP)
}

func TestChannel_RetargetPicksLivingOpponent(t *testing.T) {
	ab := flurry()
	ab.Channel.Retarget = true
	ab.Channel.LastHitMultiplier = 0
	f := newFixture(t, fixedSrc{}, ab)
	second := entity.New("rat", "Rat B", entity.SideAdversary, entity.Stats{MaxHP: 50}, nil)
	f.ctx.Opponents.Add(second)
	f.foe.Stats.HP = 5

	f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe})
	assert.False(t, f.foe.Alive())
	f.eng.Update(at(f.ctx, 100*time.Millisecond))
	f.eng.Update(at(f.ctx, 200*time.Millisecond))
	assert.Equal(t, 30, second.Stats.HP, "later hits move to the surviving rat")
}

func TestChannel_SingleHitResolvesImmediately(t *testing.T) {
	ab := flurry()
	ab.Channel.MaxHits = 1
	f := newFixture(t, fixedSrc{}, ab)
	assert.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe}))
	assert.False(t, f.eng.Busy())
	assert.Equal(t, 2, f.hero.Abilities[0].CurrentCooldown)
}

func TestChannel_EngineDefaultDelay(t *testing.T) {
	ab := flurry()
	ab.Channel.HitDelay = 0
	f := newFixture(t, fixedSrc{}, ab)
	f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe})
	assert.False(t, f.eng.Update(at(f.ctx, combat.DefaultHitDelay-time.Millisecond)))
	_, hits, _ := f.eng.Channel()
	assert.Equal(t, 1, hits)
	f.eng.Update(at(f.ctx, combat.DefaultHitDelay))
	_, hits, _ = f.eng.Channel()
	assert.Equal(t, 2, hits)
}

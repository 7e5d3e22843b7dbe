package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// fixedSrc always yields v modulo n.
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int { return f.v % n }

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	eng    *combat.Engine
	ctx    *combat.Context
	log    *battlelog.Log
	hero   *entity.Entity
	cleric *entity.Entity
	foe    *entity.Entity
}

func newFixture(t *testing.T, src dice.Source, heroKit ...*ability.Ability) *fixture {
	t.Helper()
	statuses := effect.NewRegistry()
	statuses.Register(&effect.Def{ID: "guard", Name: "Guard", Kind: effect.KindDamageReduction, Value: 40, Duration: 2})
	statuses.Register(&effect.Def{ID: "expose", Name: "Exposed", Kind: effect.KindDamageIncrease, Debuff: true, Value: 50, Duration: 2})

	hero := entity.New("hero", "Hero", entity.SidePlayer, entity.Stats{MaxHP: 100, MaxMana: 50, Attack: 20}, heroKit)
	cleric := entity.New("cleric", "Cleric", entity.SidePlayer, entity.Stats{MaxHP: 100}, nil)
	foe := entity.New("rat", "Rat", entity.SideAdversary, entity.Stats{MaxHP: 200, Defense: 5}, nil)
	log := battlelog.NewLog(nil)
	eng := combat.NewEngine(statuses, dice.NewLoggedRoller(src, zap.NewNop()), zap.NewNop())
	return &fixture{
		eng:    eng,
		log:    log,
		hero:   hero,
		cleric: cleric,
		foe:    foe,
		ctx: &combat.Context{
			Caster:    hero,
			Allies:    entity.NewRoster(entity.SidePlayer, hero, cleric),
			Opponents: entity.NewRoster(entity.SideAdversary, foe),
			Log:       log,
			Now:       t0,
		},
	}
}

func strike(value, scaling int) *ability.Ability {
	return &ability.Ability{
		Name: "Strike", Cooldown: 2, ManaCost: 10,
		Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: value, AttackScaling: scaling}},
	}
}

func TestCanUse_Gates(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(10, 0))
	ab := f.hero.Abilities[0]
	assert.True(t, f.eng.CanUse(f.hero, ab))

	ab.StartCooldown()
	assert.False(t, f.eng.CanUse(f.hero, ab), "on cooldown")
	ab.CurrentCooldown = 0

	f.hero.Stats.Mana = 5
	assert.False(t, f.eng.CanUse(f.hero, ab), "insufficient mana")
	f.hero.Stats.Mana = 50

	ab.Disabled = true
	assert.False(t, f.eng.CanUse(f.hero, ab), "disabled")
	ab.Disabled = false

	f.hero.Buffs.Apply(&effect.StatusEffect{
		Name: "Bulwark", Kind: effect.KindDamageReduction, Protection: true, Duration: 2, Removable: true,
		Hooks: effect.Hooks{DamageReduction: func(*effect.StatusEffect) float64 { return 50 }},
	})
	assert.True(t, f.eng.CanUse(f.hero, ab), "damage reduction never locks abilities")

	f.hero.Debuffs.Apply(&effect.StatusEffect{
		Name: "Silence", Kind: effect.KindSilence, Duration: 1, Removable: true,
		Hooks: effect.Hooks{LocksAbilities: func(*effect.StatusEffect) bool { return true }},
	})
	assert.False(t, f.eng.CanUse(f.hero, ab), "silenced")
}

func TestCanUse_ManaCostHooks(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(10, 0))
	f.hero.Stats.Mana = 0
	f.hero.Buffs.Apply(&effect.StatusEffect{
		Name: "Clarity", Duration: 1, Removable: true,
		Hooks: effect.Hooks{ModifyManaCost: func(*effect.StatusEffect, int) int { return 0 }},
	})
	assert.True(t, f.eng.CanUse(f.hero, f.hero.Abilities[0]))
}

func TestUse_DamageWithScalingAndCooldown(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(30, 50))
	ab := f.hero.Abilities[0]

	res := f.eng.Use(f.ctx, ab, []*entity.Entity{f.foe})
	require.Equal(t, combat.Resolved, res)
	// 30 + 20*50/100 = 40, minus 5 defense.
	assert.Equal(t, 165, f.foe.Stats.HP)
	assert.Equal(t, 40, f.hero.Stats.Mana)
	assert.Equal(t, 2, ab.CurrentCooldown)
	assert.NotEmpty(t, f.log.Entries())
}

func TestUse_DamageIncreaseOrder(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(30, 50))
	f.hero.Buffs.Apply(&effect.StatusEffect{
		Name: "Fury", Duration: 2, Removable: true,
		Hooks: effect.Hooks{ApplyDamageIncrease: func(_ *effect.StatusEffect, n int) int { return n * 2 }},
	})
	f.foe.Debuffs.Apply(&effect.StatusEffect{
		Name: "Marked", Duration: 2, Removable: true,
		Hooks: effect.Hooks{ApplyDamageIncrease: func(_ *effect.StatusEffect, n int) int { return n + 10 }},
	})
	f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe})
	// caster side first: 40*2 = 80, then target side: +10 = 90, defense 5.
	assert.Equal(t, 115, f.foe.Stats.HP)
}

func TestUse_PreconditionFailureChangesNothing(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(30, 0))
	ab := f.hero.Abilities[0]

	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, ab, nil), "no target")
	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, ab, []*entity.Entity{f.cleric}), "ally is not a valid offensive target")

	f.foe.Buffs.Apply(&effect.StatusEffect{
		Name: "Shadow", Duration: 1, Removable: true,
		Hooks: effect.Hooks{Targetable: func(*effect.StatusEffect) bool { return false }},
	})
	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, ab, []*entity.Entity{f.foe}), "stealthed target")

	assert.Equal(t, 50, f.hero.Stats.Mana)
	assert.Equal(t, 0, ab.CurrentCooldown)
	assert.Equal(t, 200, f.foe.Stats.HP)
}

func TestUse_AutoSelfTargetIgnoresChoice(t *testing.T) {
	fortify := &ability.Ability{
		Name: "Fortify", Targeting: ability.Targeting{AutoSelfTarget: true},
		Effects: []ability.EffectSpec{{Kind: ability.DamageReduction, Value: 30, Duration: 2}},
	}
	f := newFixture(t, fixedSrc{}, fortify)
	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe}))
	assert.Equal(t, 30.0, f.hero.DamageReduction())
	assert.Equal(t, 0.0, f.foe.DamageReduction())
}

func TestUse_SelfTargetRequiresPermission(t *testing.T) {
	mend := &ability.Ability{Name: "Mend", Effects: []ability.EffectSpec{{Kind: ability.Heal, Value: 10}}}
	f := newFixture(t, fixedSrc{}, mend)
	f.hero.Stats.HP = 50
	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.hero}))

	f.hero.Abilities[0].Targeting.CanSelfTarget = true
	assert.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.hero}))
	assert.Equal(t, 60, f.hero.Stats.HP)
}

func TestUse_BuffFromRegistry(t *testing.T) {
	bless := &ability.Ability{
		Name: "Bless", Targeting: ability.Targeting{CanSelfTarget: true},
		Effects: []ability.EffectSpec{{Kind: ability.Buff, Status: "guard", Duration: 4}},
	}
	f := newFixture(t, fixedSrc{}, bless)
	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.hero}))
	g, ok := f.hero.Buffs.Get("Guard")
	require.True(t, ok)
	assert.Equal(t, 4, g.Duration)
	assert.Equal(t, 40.0, f.hero.DamageReduction())
}

func TestUse_ChanceFailureSkipsStep(t *testing.T) {
	hex := &ability.Ability{
		Name: "Hex",
		Effects: []ability.EffectSpec{
			{Kind: ability.Debuff, Status: "expose", Chance: 50},
			{Kind: ability.Damage, Value: 15},
		},
	}
	f := newFixture(t, fixedSrc{v: 9999}, hex)
	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe}))
	assert.False(t, f.foe.Debuffs.Has("Exposed"))
	assert.Equal(t, 190, f.foe.Stats.HP, "later steps still resolve")

	g := newFixture(t, fixedSrc{v: 0}, hex)
	g.eng.Use(g.ctx, g.hero.Abilities[0], []*entity.Entity{g.foe})
	assert.True(t, g.foe.Debuffs.Has("Exposed"))
}

func TestUse_IncreaseCooldownsSkipsExhaustedAndDisabled(t *testing.T) {
	stall := &ability.Ability{Name: "Stall", Effects: []ability.EffectSpec{{Kind: ability.IncreaseCooldowns, Value: 2}}}
	f := newFixture(t, fixedSrc{}, stall)
	bite := &ability.Ability{Name: "Bite", Cooldown: 3, Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: 1}}}
	nibble := &ability.Ability{Name: "Nibble", Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: 1}}}
	gnaw := &ability.Ability{Name: "Gnaw", Cooldown: 2, Disabled: true, Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: 1}}}
	f.foe.Abilities = []*ability.Ability{bite, nibble, gnaw}

	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], nil))
	assert.Equal(t, 2, bite.CurrentCooldown)
	assert.Equal(t, 0, nibble.CurrentCooldown)
	assert.Equal(t, 0, gnaw.CurrentCooldown)
}

func TestUse_RemoveEffectsKeepsUnremovable(t *testing.T) {
	purge := &ability.Ability{Name: "Purge", Effects: []ability.EffectSpec{{Kind: ability.RemoveEffects}}}
	f := newFixture(t, fixedSrc{}, purge)
	f.cleric.Debuffs.Apply(&effect.StatusEffect{Name: "Poison", Duration: 3, Removable: true})
	f.cleric.Debuffs.Apply(&effect.StatusEffect{Name: "Curse", Duration: -1, Removable: false})

	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.cleric}))
	assert.False(t, f.cleric.Debuffs.Has("Poison"))
	assert.True(t, f.cleric.Debuffs.Has("Curse"))
}

func TestUse_SelfDamageAndManaSteps(t *testing.T) {
	pact := &ability.Ability{
		Name: "Blood Pact", Targeting: ability.Targeting{AutoSelfTarget: true},
		Effects: []ability.EffectSpec{
			{Kind: ability.SelfDamage, Value: 15},
			{Kind: ability.RestoreManaSelf, Value: 100},
		},
	}
	f := newFixture(t, fixedSrc{}, pact)
	f.hero.Stats.Mana = 10
	f.hero.Buffs.Apply(effect.NewDamageReduction("Wall", 90, 3))
	require.Equal(t, combat.Resolved, f.eng.Use(f.ctx, f.hero.Abilities[0], nil))
	assert.Equal(t, 85, f.hero.Stats.HP, "self damage ignores mitigation")
	assert.Equal(t, 50, f.hero.Stats.Mana)
}

func TestUse_DiceMagnitude(t *testing.T) {
	bolt := &ability.Ability{Name: "Bolt", Effects: []ability.EffectSpec{{Kind: ability.Damage, Dice: "2d6+3"}}}
	f := newFixture(t, fixedSrc{v: 5}, bolt)
	f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe})
	// fixedSrc yields the top face: 6+6+3 = 15, minus 5 defense.
	assert.Equal(t, 190, f.foe.Stats.HP)
}

func TestUse_DamageDealtHooksSeeRealizedTotal(t *testing.T) {
	f := newFixture(t, fixedSrc{}, strike(30, 0))
	var seen int
	f.hero.Buffs.Apply(&effect.StatusEffect{
		Name: "Tracker", Duration: 2, Removable: true,
		Hooks: effect.Hooks{OnDamageDealt: func(_ *effect.StatusEffect, total int) { seen = total }},
	})
	f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe})
	assert.Equal(t, 25, seen)
}

func TestUse_UnknownResolverNotFired(t *testing.T) {
	odd := &ability.Ability{Name: "Odd", Resolver: "nope", Effects: []ability.EffectSpec{{Kind: ability.Damage, Value: 1}}}
	f := newFixture(t, fixedSrc{}, odd)
	assert.Equal(t, combat.NotFired, f.eng.Use(f.ctx, f.hero.Abilities[0], []*entity.Entity{f.foe}))
}

func TestUsable_FiltersByTargetsAndGates(t *testing.T) {
	mend := &ability.Ability{Name: "Mend", Effects: []ability.EffectSpec{{Kind: ability.Heal, Value: 10}}}
	f := newFixture(t, fixedSrc{}, strike(10, 0), mend)
	assert.Len(t, f.eng.Usable(f.ctx), 2)

	f.ctx.Allies.Remove(f.cleric)
	got := f.eng.Usable(f.ctx)
	require.Len(t, got, 1, "mend has no ally target without self targeting")
	assert.Equal(t, "Strike", got[0].Name)
}

func TestProperty_CooldownMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, fixedSrc{}, strike(1, 0))
		f.foe.Stats.MaxHP, f.foe.Stats.HP = 1_000_000, 1_000_000
		ab := f.hero.Abilities[0]
		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			if op == 0 {
				f.hero.Stats.Mana = 50
				f.eng.Use(f.ctx, ab, []*entity.Entity{f.foe})
			} else {
				f.hero.TickCooldowns()
			}
			if ab.CurrentCooldown < 0 || ab.CurrentCooldown > ab.Cooldown {
				rt.Fatalf("cooldown %d out of [0, %d]", ab.CurrentCooldown, ab.Cooldown)
			}
		}
	})
}

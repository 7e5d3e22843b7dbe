// Package entity implements the stat model: combatants, their HP/mana
// arithmetic, and the rosters that hold each side of a battle.
package entity

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/effect"
)

// Side identifies which roster an entity fights for.
type Side int

const (
	SidePlayer Side = iota
	SideAdversary
)

// String returns "player" or "adversary".
func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "adversary"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideAdversary
	}
	return SidePlayer
}

// ParseSide converts "player" or "adversary" to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "player":
		return SidePlayer, true
	case "adversary":
		return SideAdversary, true
	}
	return 0, false
}

// Stats is the numeric record of an entity. Current values are clamped by the
// Entity mutators, never by callers.
type Stats struct {
	MaxHP     int `yaml:"max_hp"`
	HP        int `yaml:"-"`
	MaxMana   int `yaml:"max_mana"`
	Mana      int `yaml:"-"`
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	Speed     int `yaml:"speed"`
	ManaRegen int `yaml:"mana_regen"`
}

// DeathHook is invoked exactly once when an entity's HP reaches zero.
type DeathHook func(e *Entity)

// Entity is one combatant.
//
// Invariant: 0 <= Stats.HP <= EffectiveMaxHP(); 0 <= Stats.Mana <= Stats.MaxMana.
type Entity struct {
	ID        string
	Kind      string
	Name      string
	Side      Side
	Stats     Stats
	Abilities []*ability.Ability
	Buffs     *effect.Set
	Debuffs   *effect.Set

	reductionCap   float64
	deathProcessed bool
	onDeath        DeathHook
}

// Option configures an Entity at construction.
type Option func(e *Entity)

// WithReductionCap overrides the damage-reduction cap in percent.
func WithReductionCap(percent float64) Option {
	return func(e *Entity) { e.reductionCap = percent }
}

// New creates an entity at full HP and mana with a fresh instance ID.
// Abilities are cloned so one template can seed many entities.
//
// Precondition: stats.MaxHP > 0.
// Postcondition: Alive() is true.
func New(kind, name string, side Side, stats Stats, abilities []*ability.Ability, opts ...Option) *Entity {
	stats.HP = stats.MaxHP
	stats.Mana = stats.MaxMana
	e := &Entity{
		ID:           uuid.New().String(),
		Kind:         kind,
		Name:         name,
		Side:         side,
		Stats:        stats,
		Buffs:        effect.NewSet(),
		Debuffs:      effect.NewSet(),
		reductionCap: effect.DefaultMaxDamageReduction,
	}
	for _, ab := range abilities {
		e.Abilities = append(e.Abilities, ab.Clone())
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDeathHook installs fn as the one-shot death callback.
func (e *Entity) SetDeathHook(fn DeathHook) { e.onDeath = fn }

// Alive reports whether HP is above zero.
func (e *Entity) Alive() bool { return e.Stats.HP > 0 }

// DeathProcessed reports whether the death transition has already run.
func (e *Entity) DeathProcessed() bool { return e.deathProcessed }

// Targetable reports whether the entity is alive and not hidden by an effect.
func (e *Entity) Targetable() bool {
	return e.Alive() && effect.Targetable(e.Buffs, e.Debuffs)
}

// AbilitiesLocked reports whether an active effect forbids ability use.
func (e *Entity) AbilitiesLocked() bool {
	return effect.AbilitiesLocked(e.Buffs, e.Debuffs)
}

// Defense returns the flat defense including effect bonuses.
func (e *Entity) Defense() int {
	return e.Stats.Defense + effect.DefenseBonus(e.Buffs, e.Debuffs)
}

// EffectiveMaxHP returns base max HP plus effect bonuses.
func (e *Entity) EffectiveMaxHP() int {
	return max(e.Stats.MaxHP+effect.MaxHPBonus(e.Buffs, e.Debuffs), 1)
}

// DamageReduction returns the pooled reduction percentage, capped.
func (e *Entity) DamageReduction() float64 {
	return effect.DamageReduction(e.reductionCap, e.Buffs, e.Debuffs)
}

// TakeDamage runs incoming damage through the mitigation pipeline and applies it.
// Order: intercept hooks, capped percentage reduction, flat defense, floor of 1.
//
// Postcondition: Returns 0 with no HP change if the entity is already dead or an
// intercept hook nullified the hit; otherwise returns the mitigated damage (>= 1).
func (e *Entity) TakeDamage(amount int) int {
	if !e.Alive() || amount <= 0 {
		return 0
	}
	amount = effect.DamageTaken(amount, e.Buffs, e.Debuffs)
	if amount <= 0 {
		return 0
	}
	reduced := int(float64(amount) * (100 - e.DamageReduction()) / 100)
	final := max(reduced-e.Defense(), 1)
	e.subtractHP(final)
	return final
}

// LoseHP removes amount HP with no mitigation. Used for self-inflicted costs.
//
// Postcondition: Returns the HP actually removed.
func (e *Entity) LoseHP(amount int) int {
	if !e.Alive() || amount <= 0 {
		return 0
	}
	return e.subtractHP(amount)
}

// Kill drops HP to zero and runs the death transition if it has not run yet.
func (e *Entity) Kill() {
	e.Stats.HP = 0
	e.die()
}

func (e *Entity) subtractHP(amount int) int {
	removed := min(amount, e.Stats.HP)
	e.Stats.HP -= removed
	if e.Stats.HP <= 0 {
		e.die()
	}
	return removed
}

func (e *Entity) die() {
	if e.deathProcessed {
		return
	}
	e.deathProcessed = true
	if e.onDeath != nil {
		e.onDeath(e)
	}
}

// Heal restores HP after healing-received hooks, clamped to EffectiveMaxHP.
//
// Postcondition: Returns the actual HP delta; dead entities heal 0.
func (e *Entity) Heal(amount int) int {
	if !e.Alive() || amount <= 0 {
		return 0
	}
	amount = effect.HealingReceived(amount, e.Buffs, e.Debuffs)
	actual := max(min(amount, e.EffectiveMaxHP()-e.Stats.HP), 0)
	e.Stats.HP += actual
	return actual
}

// RestoreMana adds mana clamped to MaxMana and returns the actual delta.
func (e *Entity) RestoreMana(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := max(min(amount, e.Stats.MaxMana-e.Stats.Mana), 0)
	e.Stats.Mana += actual
	return actual
}

// SpendMana deducts amount if affordable.
//
// Postcondition: Returns false with no change when Mana < amount.
func (e *Entity) SpendMana(amount int) bool {
	if amount <= 0 {
		return true
	}
	if e.Stats.Mana < amount {
		return false
	}
	e.Stats.Mana -= amount
	return true
}

// ManaCost returns the cost of ab after mana-cost hooks.
func (e *Entity) ManaCost(ab *ability.Ability) int {
	return effect.ManaCost(ab.ManaCost, e.Buffs, e.Debuffs)
}

// Ability returns the ability named name.
func (e *Entity) Ability(name string) (*ability.Ability, bool) {
	for _, ab := range e.Abilities {
		if ab.Name == name {
			return ab, true
		}
	}
	return nil, false
}

// SetAbilityDisabled toggles the disabled flag on the named ability.
//
// Postcondition: Returns false if no such ability exists.
func (e *Entity) SetAbilityDisabled(name string, disabled bool) bool {
	ab, ok := e.Ability(name)
	if !ok {
		return false
	}
	ab.Disabled = disabled
	return true
}

// TickCooldowns decrements every ability cooldown by one turn.
func (e *Entity) TickCooldowns() {
	for _, ab := range e.Abilities {
		ab.TickCooldown()
	}
}

// Update performs the entity's end-of-round tick: heal-per-turn payout, then
// buff and debuff duration ticks. HP is re-clamped when a max-HP bonus expires.
//
// Postcondition: Returns the healing paid out and the effects that expired.
func (e *Entity) Update() (healed int, expired []*effect.StatusEffect) {
	if !e.Alive() {
		return 0, nil
	}
	if hpt := effect.HealPerTurn(e.Buffs, e.Debuffs); hpt > 0 {
		healed = e.Heal(hpt)
	}
	expired = append(expired, e.Buffs.Tick()...)
	expired = append(expired, e.Debuffs.Tick()...)
	if limit := e.EffectiveMaxHP(); e.Stats.HP > limit {
		e.Stats.HP = limit
	}
	return healed, expired
}

// ClearRemovable strips every removable buff and debuff.
func (e *Entity) ClearRemovable() []*effect.StatusEffect {
	return append(e.Buffs.ClearRemovable(), e.Debuffs.ClearRemovable()...)
}

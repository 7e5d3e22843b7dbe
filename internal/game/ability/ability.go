package ability

import (
	"fmt"
	"strings"
	"time"
)

// Targeting describes who an ability may be aimed at.
type Targeting struct {
	// AutoSelfTarget ignores chosen targets and aims at the caster.
	AutoSelfTarget bool `yaml:"auto_self_target"`
	// CanSelfTarget permits the caster as an explicit target.
	CanSelfTarget bool `yaml:"can_self_target"`
}

// ChannelSpec turns an ability into a multi-hit channel whose hits are paced
// in real time while the turn stays open.
type ChannelSpec struct {
	MaxHits int `yaml:"max_hits"`
	// HitDelay is the minimum time between hits; zero uses the engine default.
	HitDelay time.Duration `yaml:"hit_delay"`
	// LastHitMultiplier scales the final hit; zero or one leaves it unchanged.
	LastHitMultiplier float64 `yaml:"last_hit_multiplier"`
	// Retarget picks a fresh random target for every hit.
	Retarget bool `yaml:"retarget"`
}

// Ability is one entry of an entity's kit.
//
// Invariant: 0 <= CurrentCooldown; CurrentCooldown <= Cooldown unless raised
// by DelayCooldown.
type Ability struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Icon        string       `yaml:"icon"`
	Cooldown    int          `yaml:"cooldown"`
	ManaCost    int          `yaml:"mana_cost"`
	Targeting   Targeting    `yaml:"targeting"`
	Effects     []EffectSpec `yaml:"effects"`
	// Resolver names a custom resolution strategy wrapped around the effect list.
	Resolver string `yaml:"resolver"`
	// ResolverValue parameterises the resolver, e.g. the lifesteal percentage.
	ResolverValue float64      `yaml:"resolver_value"`
	Channel       *ChannelSpec `yaml:"channel"`

	CurrentCooldown int  `yaml:"-"`
	Disabled        bool `yaml:"-"`
}

// Validate checks construction-time invariants.
func (a *Ability) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("ability: name must not be empty")
	}
	if a.Cooldown < 0 {
		return fmt.Errorf("ability %q: cooldown must be >= 0", a.Name)
	}
	if a.ManaCost < 0 {
		return fmt.Errorf("ability %q: mana_cost must be >= 0", a.Name)
	}
	if len(a.Effects) == 0 && a.Resolver == "" {
		return fmt.Errorf("ability %q: needs effects or a resolver", a.Name)
	}
	for i, e := range a.Effects {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("ability %q: effect[%d]: %w", a.Name, i, err)
		}
	}
	if a.Channel != nil && a.Channel.MaxHits < 1 {
		return fmt.Errorf("ability %q: channel max_hits must be >= 1", a.Name)
	}
	return nil
}

// IsAvailable reports whether the ability is off cooldown and enabled.
// Mana and lockout checks belong to the combat engine.
func (a *Ability) IsAvailable() bool {
	return a.CurrentCooldown == 0 && !a.Disabled
}

// StartCooldown puts the ability on its full cooldown.
func (a *Ability) StartCooldown() {
	a.CurrentCooldown = a.Cooldown
}

// TickCooldown decrements the remaining cooldown by one turn.
//
// Postcondition: CurrentCooldown >= 0.
func (a *Ability) TickCooldown() {
	if a.CurrentCooldown > 0 {
		a.CurrentCooldown--
	}
}

// DelayCooldown adds turns to the remaining cooldown.
//
// Postcondition: CurrentCooldown >= 0.
func (a *Ability) DelayCooldown(turns int) {
	a.CurrentCooldown = max(a.CurrentCooldown+turns, 0)
}

// IsChannel reports whether the ability resolves as a multi-hit channel.
func (a *Ability) IsChannel() bool { return a.Channel != nil }

// NeedsTarget reports whether Use requires at least one explicit target.
func (a *Ability) NeedsTarget() bool {
	if a.Resolver != "" && !a.Targeting.AutoSelfTarget {
		return true
	}
	return NeedsTarget(a.Targeting, a.Effects)
}

// Offensive reports whether the ability is aimed at the opposing side.
func (a *Ability) Offensive() bool {
	if len(a.Effects) == 0 {
		return a.Resolver != ""
	}
	return Offensive(a.Effects)
}

// NeedsTarget reports whether a kit with targeting t and steps effects needs
// an explicitly chosen target.
func NeedsTarget(t Targeting, effects []EffectSpec) bool {
	if t.AutoSelfTarget {
		return false
	}
	for _, e := range effects {
		if e.Kind.Targeted() {
			return true
		}
	}
	return false
}

// Offensive classifies effects by their first targeted step, or by the first
// step when none is targeted.
func Offensive(effects []EffectSpec) bool {
	for _, e := range effects {
		if e.Kind.Targeted() {
			return e.Kind.Offensive()
		}
	}
	return len(effects) > 0 && effects[0].Kind.Offensive()
}

// Tooltip renders the ability for presenters.
func (a *Ability) Tooltip() string {
	var b strings.Builder
	b.WriteString(a.Name)
	if a.ManaCost > 0 {
		fmt.Fprintf(&b, " (%d mana)", a.ManaCost)
	}
	if a.Cooldown > 0 {
		fmt.Fprintf(&b, " [cd %d]", a.Cooldown)
	}
	if a.Description != "" {
		b.WriteString("\n" + a.Description)
	}
	for _, e := range a.Effects {
		b.WriteString("\n- " + e.Describe())
	}
	if a.Channel != nil {
		fmt.Fprintf(&b, "\n- Hits %d times", a.Channel.MaxHits)
	}
	return b.String()
}

// Clone returns an independent copy with fresh runtime state, so one template
// can seed many entities.
func (a *Ability) Clone() *Ability {
	cp := *a
	cp.Effects = append([]EffectSpec(nil), a.Effects...)
	if a.Channel != nil {
		ch := *a.Channel
		cp.Channel = &ch
	}
	cp.CurrentCooldown = 0
	cp.Disabled = false
	return &cp
}

package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Owner is the entity a status effect is attached to, as seen by hooks that
// react on its behalf.
type Owner interface {
	// LoseHP removes HP without mitigation and returns the amount removed.
	LoseHP(amount int) int
	// Heal restores HP and returns the amount actually restored.
	Heal(amount int) int
	// SetAbilityDisabled toggles the disabled flag of the owner's ability named name.
	SetAbilityDisabled(name string, disabled bool) bool
}

// Def is the static definition of a status effect, loaded from YAML.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        Kind    `yaml:"kind"`
	Debuff      bool    `yaml:"debuff"`
	Value       float64 `yaml:"value"`
	Duration    int     `yaml:"duration"` // turns; -1 = permanent
	Unremovable bool    `yaml:"unremovable"`
	Protection  bool    `yaml:"protection"`
	Stacking    bool    `yaml:"stacking"`
	Ability     string  `yaml:"ability"` // for kind "disable"
	Icon        string  `yaml:"icon"`
}

var knownKinds = map[Kind]bool{
	KindGeneric: true, KindDamageReduction: true, KindDamageIncrease: true, KindNullify: true,
	KindManaCost: true, KindHealingReceived: true, KindHealingDone: true, KindSilence: true,
	KindStealth: true, KindHealOverTime: true, KindDefense: true, KindVitality: true,
	KindRecoil: true, KindLifesteal: true, KindDisable: true,
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil iff ID and Name are set, Kind is known, Duration is
// non-zero, and kind-specific magnitudes are in range.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("status effect: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("status effect %q: name must not be empty", d.ID)
	}
	if !knownKinds[d.Kind] {
		return fmt.Errorf("status effect %q: unknown kind %q", d.ID, d.Kind)
	}
	if d.Duration == 0 {
		return fmt.Errorf("status effect %q: duration must be non-zero (-1 = permanent)", d.ID)
	}
	switch d.Kind {
	case KindDamageReduction, KindNullify:
		if d.Value <= 0 || d.Value > 100 {
			return fmt.Errorf("status effect %q: %s value must be in (0, 100], got %v", d.ID, d.Kind, d.Value)
		}
	case KindDisable:
		if d.Ability == "" {
			return fmt.Errorf("status effect %q: disable requires an ability name", d.ID)
		}
	}
	return nil
}

// Option adjusts an instance created by Instantiate.
type Option func(e *StatusEffect)

// WithValue overrides the definition's magnitude.
func WithValue(v float64) Option {
	return func(e *StatusEffect) { e.Value = v }
}

// WithDuration overrides the definition's duration.
func WithDuration(turns int) Option {
	return func(e *StatusEffect) { e.Duration = turns }
}

// Instantiate builds a live StatusEffect from d for owner. src drives the
// probabilistic hooks.
//
// Precondition: d passed Validate; owner and src are non-nil.
func (d *Def) Instantiate(owner Owner, src dice.Source, opts ...Option) *StatusEffect {
	e := &StatusEffect{
		Name:       d.Name,
		Kind:       d.Kind,
		Value:      d.Value,
		Duration:   d.Duration,
		Removable:  !d.Unremovable,
		Protection: d.Protection,
		Stacking:   d.Stacking,
		Stacks:     1,
		Icon:       d.Icon,
	}
	for _, opt := range opts {
		opt(e)
	}

	switch d.Kind {
	case KindDamageReduction:
		e.Hooks.DamageReduction = func(self *StatusEffect) float64 { return self.Value }
	case KindDamageIncrease:
		e.Hooks.ApplyDamageIncrease = func(self *StatusEffect, amount int) int {
			return scalePercent(amount, self.Value)
		}
	case KindNullify:
		e.Hooks.OnDamageTaken = func(self *StatusEffect, amount int) int {
			if dice.Chance(src, self.Value) {
				return 0
			}
			return amount
		}
	case KindManaCost:
		e.Hooks.ModifyManaCost = func(self *StatusEffect, cost int) int {
			return scalePercent(cost, self.Value)
		}
	case KindHealingReceived:
		e.Hooks.ModifyHealingReceived = func(self *StatusEffect, amount int) int {
			return scalePercent(amount, self.Value)
		}
	case KindHealingDone:
		e.Hooks.ApplyHealingIncrease = func(self *StatusEffect, amount int) int {
			return scalePercent(amount, self.Value)
		}
	case KindSilence:
		e.Hooks.LocksAbilities = func(*StatusEffect) bool { return true }
	case KindStealth:
		e.Hooks.Targetable = func(*StatusEffect) bool { return false }
	case KindHealOverTime:
		e.HealPerTurn = int(e.Value)
	case KindDefense:
		e.DefenseBonus = int(e.Value)
	case KindVitality:
		e.MaxHPBonus = int(e.Value)
	case KindRecoil:
		e.Hooks.OnDamageDealt = func(self *StatusEffect, total int) {
			owner.LoseHP(int(float64(total) * self.Value / 100))
		}
	case KindLifesteal:
		e.Hooks.OnDamageDealt = func(self *StatusEffect, total int) {
			owner.Heal(int(float64(total) * self.Value / 100))
		}
	case KindDisable:
		ability := d.Ability
		e.Hooks.OnApply = func(*StatusEffect) { owner.SetAbilityDisabled(ability, true) }
		e.Hooks.OnExpire = func(*StatusEffect) { owner.SetAbilityDisabled(ability, false) }
	}
	return e
}

// Registry holds all known status effect definitions keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every definition sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory parses every *.yaml file in dir as a Def.
//
// Postcondition: Returns a populated Registry, or an error naming the first bad file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}

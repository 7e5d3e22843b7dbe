// Package inventory holds item definitions and the party inventory that loot
// fills and item use drains.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/ability"
)

// Kind constants for ItemDef.Kind.
const (
	KindConsumable = "consumable"
	KindJunk       = "junk"
)

var validKinds = map[string]bool{
	KindConsumable: true,
	KindJunk:       true,
}

// ItemDef defines the static properties of an item loaded from YAML.
// Consumables resolve their Effects exactly like an ability does.
type ItemDef struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Kind        string               `yaml:"kind"`
	Icon        string               `yaml:"icon"`
	Cooldown    int                  `yaml:"cooldown"`
	MaxStack    int                  `yaml:"max_stack"`
	Targeting   ability.Targeting    `yaml:"targeting"`
	Effects     []ability.EffectSpec `yaml:"effects"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of consumable, junk; got %q", d.Kind))
	}
	if d.MaxStack < 1 {
		errs = append(errs, errors.New("MaxStack must be >= 1"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, errors.New("Cooldown must be >= 0"))
	}
	if d.Kind == KindConsumable && len(d.Effects) == 0 {
		errs = append(errs, errors.New("Effects are required when Kind is consumable"))
	}
	for i, e := range d.Effects {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("effect[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// Usable reports whether the item can be used in battle.
func (d *ItemDef) Usable() bool { return d.Kind == KindConsumable }

// NeedsTarget reports whether using the item requires an explicit target.
func (d *ItemDef) NeedsTarget() bool { return ability.NeedsTarget(d.Targeting, d.Effects) }

// Offensive reports whether the item is aimed at the opposing side.
func (d *ItemDef) Offensive() bool { return ability.Offensive(d.Effects) }

// LoadItems reads all *.yaml files from dir, parses each as an ItemDef,
// validates it, and returns the collected slice.
//
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}
	var defs []*ItemDef
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ItemDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

// Package content loads the hand-authored YAML game data (entity templates,
// status effects, items, stages) and adapts stages to the battle scheduler.
package content

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// EntityTemplate defines a spawnable combatant.
type EntityTemplate struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Icon        string             `yaml:"icon"`
	Stats       entity.Stats       `yaml:"stats"`
	Abilities   []*ability.Ability `yaml:"abilities"`
}

// Validate checks that the template satisfies its invariants.
//
// Postcondition: Returns nil iff ID and Name are set, MaxHP > 0, resources are
// non-negative, and every ability validates.
func (t *EntityTemplate) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if t.Stats.MaxHP <= 0 {
		errs = append(errs, errors.New("stats.max_hp must be > 0"))
	}
	if t.Stats.MaxMana < 0 || t.Stats.Defense < 0 || t.Stats.Attack < 0 || t.Stats.ManaRegen < 0 {
		errs = append(errs, errors.New("stats must be non-negative"))
	}
	for _, ab := range t.Abilities {
		if err := ab.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("entity template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// NewEntity instantiates the template on side.
//
// Postcondition: Returns a fresh entity at full HP and mana with cloned abilities.
func (t *EntityTemplate) NewEntity(side entity.Side, opts ...entity.Option) *entity.Entity {
	return entity.New(t.ID, t.Name, side, t.Stats, t.Abilities, opts...)
}

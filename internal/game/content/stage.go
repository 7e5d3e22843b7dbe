package content

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/loot"
)

// Wave spawns adversaries at the end of round Turn, or as soon as the
// adversary roster empties while the wave is still pending.
type Wave struct {
	Turn  int      `yaml:"turn"`
	Spawn []string `yaml:"spawn"`
}

// PeriodicHeal heals a whole side every Every rounds.
type PeriodicHeal struct {
	Every  int    `yaml:"every"`
	Amount int    `yaml:"amount"`
	Side   string `yaml:"side"`
}

// StageDef defines one battle: the rosters, loot tables by entity kind, and
// the scripted events.
type StageDef struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Party       []string              `yaml:"party"`
	Adversaries []string              `yaml:"adversaries"`
	Loot        map[string]loot.Table `yaml:"loot"`
	Waves       []Wave                `yaml:"waves"`
	Heals       []PeriodicHeal        `yaml:"heals"`
	// Script is a Lua file path relative to the content root.
	Script string `yaml:"script"`
	// Modifiers lists the selections a player may enable for this stage.
	Modifiers []battle.Modifier `yaml:"modifiers"`
	// StartingItems seeds a fresh inventory.
	StartingItems map[string]int `yaml:"starting_items"`
}

// Validate checks the stage in isolation; cross references are checked by Library.
func (s *StageDef) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if len(s.Party) == 0 {
		errs = append(errs, errors.New("party must not be empty"))
	}
	if len(s.Adversaries) == 0 && len(s.Waves) == 0 {
		errs = append(errs, errors.New("adversaries or waves are required"))
	}
	for kind, t := range s.Loot {
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("loot[%s]: %w", kind, err))
		}
	}
	for i, w := range s.Waves {
		if w.Turn < 1 || len(w.Spawn) == 0 {
			errs = append(errs, fmt.Errorf("waves[%d]: turn must be >= 1 and spawn non-empty", i))
		}
	}
	for i, h := range s.Heals {
		if _, ok := entity.ParseSide(h.Side); !ok || h.Every < 1 || h.Amount < 1 {
			errs = append(errs, fmt.Errorf("heals[%d]: need side player|adversary, every >= 1, amount >= 1", i))
		}
	}
	for _, m := range s.Modifiers {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("stage %q: %w", s.ID, errors.Join(errs...))
	}
	return nil
}

// Modifier returns the stage modifier with id.
func (s *StageDef) Modifier(id string) (battle.Modifier, bool) {
	for _, m := range s.Modifiers {
		if m.ID == id {
			return m, true
		}
	}
	return battle.Modifier{}, false
}

package content

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/inventory"
	"github.com/cory-johannsen/arena/internal/scripting"
)

// Setup describes a battle to build from a stage.
type Setup struct {
	Stage  string
	Engine *combat.Engine
	// Scripts hosts the stage's Lua VM; required only for scripted stages.
	Scripts          *scripting.Manager
	InstructionLimit int
	// Inventory carries over between battles; nil starts from the stage's
	// starting items.
	Inventory *inventory.Inventory
	Modifiers []battle.Modifier
	Logger    *zap.Logger
	Options   []battle.Option
}

// NewBattle spawns the stage's rosters and wires its loot tables, inventory,
// modifiers, and script into a battle.
//
// Precondition: s.Engine and s.Logger must not be nil.
// Postcondition: Returns a battle in the player phase, or an error for an
// unknown stage or a script load failure.
func (l *Library) NewBattle(s Setup) (*battle.Battle, *StageScript, error) {
	def, ok := l.Stage(s.Stage)
	if !ok {
		return nil, nil, fmt.Errorf("content: unknown stage %q", s.Stage)
	}
	party, err := l.Spawn(def.Party, entity.SidePlayer)
	if err != nil {
		return nil, nil, err
	}
	foes, err := l.Spawn(def.Adversaries, entity.SideAdversary)
	if err != nil {
		return nil, nil, err
	}
	inv := s.Inventory
	if inv == nil {
		inv = inventory.New(l.Items)
		for id, n := range def.StartingItems {
			if _, err := inv.Add(id, n); err != nil {
				return nil, nil, err
			}
		}
	}
	script, err := NewStageScript(def, l, s.Scripts, s.InstructionLimit, s.Logger)
	if err != nil {
		return nil, nil, err
	}
	opts := []battle.Option{
		battle.WithInventory(inv),
		battle.WithLootTables(def.Loot),
		battle.WithStage(script),
		battle.WithModifiers(s.Modifiers...),
		battle.WithLogger(s.Logger),
	}
	opts = append(opts, s.Options...)
	b := battle.New(s.Engine, party, foes, opts...)
	script.current = b
	s.Logger.Info("battle created",
		zap.String("stage", def.ID),
		zap.Int("party", len(party)),
		zap.Int("adversaries", len(foes)),
		zap.Int("modifiers", len(s.Modifiers)),
	)
	return b, script, nil
}

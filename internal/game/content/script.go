package content

import (
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/scripting"
)

// StageScript drives a stage's scripted events during one battle: declarative
// waves and periodic heals, then the optional Lua hooks on_turn_end(turn) and
// on_death(name, kind).
type StageScript struct {
	def     *StageDef
	lib     *Library
	scripts *scripting.Manager
	logger  *zap.Logger
	spawned []bool
	current *battle.Battle
}

// NewStageScript binds def to lib. When def names a script, it is loaded into
// mgr under the stage ID; mgr may be nil only when def has no script.
//
// Postcondition: the returned StageScript satisfies battle.Stage.
func NewStageScript(def *StageDef, lib *Library, mgr *scripting.Manager, instLimit int, logger *zap.Logger) (*StageScript, error) {
	s := &StageScript{
		def:     def,
		lib:     lib,
		scripts: mgr,
		logger:  logger,
		spawned: make([]bool, len(def.Waves)),
	}
	if def.Script == "" {
		return s, nil
	}
	if mgr == nil {
		return nil, fmt.Errorf("stage %q: script %q requires a scripting manager", def.ID, def.Script)
	}
	if err := mgr.LoadFile(def.ID, filepath.Join(lib.Root, def.Script), instLimit); err != nil {
		return nil, err
	}
	mgr.Log = func(msg string) { battlelog.Emitf(s.current.Log(), battlelog.Text, "%s", msg) }
	mgr.Spawn = func(id string) error { return s.spawn(id) }
	mgr.HealSide = func(side string, amount int) int {
		sd, ok := entity.ParseSide(side)
		if !ok {
			return 0
		}
		return s.current.HealSide(sd, amount)
	}
	mgr.Turn = func() int { return s.current.Turn() }
	mgr.Living = func(side string) int {
		sd, ok := entity.ParseSide(side)
		if !ok {
			return 0
		}
		return len(s.current.Roster(sd).Living())
	}
	return s, nil
}

// OnTurnEnd spawns due waves, pays periodic heals, then calls on_turn_end.
func (s *StageScript) OnTurnEnd(b *battle.Battle, turn int) {
	s.current = b
	for i, w := range s.def.Waves {
		if !s.spawned[i] && w.Turn <= turn {
			s.spawnWave(i)
		}
	}
	for _, h := range s.def.Heals {
		if turn%h.Every != 0 {
			continue
		}
		side, _ := entity.ParseSide(h.Side)
		b.HealSide(side, h.Amount)
	}
	s.call("on_turn_end", lua.LNumber(turn))
}

// OnStart binds the script to b and brings the first wave forward when the
// stage opens with no adversaries.
func (s *StageScript) OnStart(b *battle.Battle) {
	s.current = b
	if b.Adversaries().Empty() {
		s.spawnEarliest()
	}
}

// OnDeath calls on_death, then brings the next pending wave forward if the
// adversary roster is now empty.
func (s *StageScript) OnDeath(b *battle.Battle, e *entity.Entity) {
	s.current = b
	s.call("on_death", lua.LString(e.Name), lua.LString(e.Kind))
	if e.Side == entity.SideAdversary && b.Adversaries().Empty() {
		s.spawnEarliest()
	}
}

// Pending reports whether any wave has yet to spawn.
func (s *StageScript) Pending() bool { return s.PendingWaves() > 0 }

// PendingWaves reports how many waves have not spawned yet.
func (s *StageScript) PendingWaves() int {
	n := 0
	for _, done := range s.spawned {
		if !done {
			n++
		}
	}
	return n
}

func (s *StageScript) spawnEarliest() {
	next := -1
	for i, w := range s.def.Waves {
		if !s.spawned[i] && (next < 0 || w.Turn < s.def.Waves[next].Turn) {
			next = i
		}
	}
	if next >= 0 {
		s.spawnWave(next)
	}
}

func (s *StageScript) spawnWave(i int) {
	s.spawned[i] = true
	battlelog.Emitf(s.current.Log(), battlelog.Text, "A new wave arrives")
	for _, id := range s.def.Waves[i].Spawn {
		if err := s.spawn(id); err != nil {
			s.logger.Warn("wave spawn failed", zap.String("stage", s.def.ID), zap.Error(err))
		}
	}
}

func (s *StageScript) spawn(id string) error {
	spawned, err := s.lib.Spawn([]string{id}, entity.SideAdversary)
	if err != nil {
		return err
	}
	e := spawned[0]
	s.current.Spawn(entity.SideAdversary, e)
	battlelog.Emitf(s.current.Log(), battlelog.Text, "%s appears", e.Name)
	return nil
}

func (s *StageScript) call(hook string, args ...lua.LValue) {
	if s.scripts == nil || s.def.Script == "" {
		return
	}
	if _, err := s.scripts.CallHook(s.def.ID, hook, args...); err != nil {
		s.logger.Warn("stage hook failed", zap.String("stage", s.def.ID), zap.String("hook", hook), zap.Error(err))
	}
}

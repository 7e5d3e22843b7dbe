package content_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/content"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/scripting"
)

type zeroSrc struct{}

func (zeroSrc) Intn(int) int { return 0 }

const tick = 600 * time.Millisecond

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	lib    *content.Library
	engine *combat.Engine
	mgr    *scripting.Manager
	log    *battlelog.Log
}

func newFixture(t *testing.T, stageYAML string, extra map[string]string) *fixture {
	t.Helper()
	files := map[string]string{
		"entities/hero.yaml": heroYAML,
		"entities/rat.yaml":  ratYAML,
		"items/fang.yaml":    fangYAML,
		"items/potion.yaml":  potionYAML,
		"stages/test.yaml":   stageYAML,
	}
	for k, v := range extra {
		files[k] = v
	}
	lib, err := content.Load(writeContent(t, files))
	require.NoError(t, err)
	roller := dice.NewLoggedRoller(zeroSrc{}, zap.NewNop())
	mgr := scripting.NewManager(roller, zap.NewNop())
	t.Cleanup(mgr.Close)
	return &fixture{
		lib:    lib,
		engine: combat.NewEngine(lib.Statuses, roller, zap.NewNop()),
		mgr:    mgr,
		log:    battlelog.NewLog(nil),
	}
}

func (f *fixture) battle(t *testing.T, mods ...battle.Modifier) (*battle.Battle, *content.StageScript) {
	t.Helper()
	b, script, err := f.lib.NewBattle(content.Setup{
		Stage:     "test",
		Engine:    f.engine,
		Scripts:   f.mgr,
		Modifiers: mods,
		Logger:    zap.NewNop(),
		Options:   []battle.Option{battle.WithLog(f.log), battle.WithActionDelay(tick)},
	})
	require.NoError(t, err)
	return b, script
}

func drain(b *battle.Battle, now time.Time) time.Time {
	for i := 0; b.Busy() && i < 1000; i++ {
		now = now.Add(tick)
		b.Update(now)
	}
	return now
}

func smash(t *testing.T, b *battle.Battle, target *entity.Entity) {
	t.Helper()
	hero := b.Leader()
	require.NotNil(t, hero)
	require.True(t, b.UseAbility(hero, hero.Abilities[0], []*entity.Entity{target}, t0))
}

func messages(l *battlelog.Log) string {
	var sb strings.Builder
	for _, e := range l.Entries() {
		sb.WriteString(e.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestStageScript_WaveSpawnsAtRoundEnd(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat]
waves:
  - turn: 1
    spawn: [rat]
  - turn: 4
    spawn: [rat, rat]
`, nil)
	b, script := f.battle(t)
	require.Equal(t, 2, script.PendingWaves())

	require.True(t, b.Pass(t0))
	drain(b, t0)

	assert.Equal(t, 1, b.Turn())
	assert.Equal(t, battle.PhasePlayer, b.Phase())
	assert.Equal(t, 2, b.Adversaries().Len())
	assert.Equal(t, 1, script.PendingWaves())
	assert.Contains(t, messages(f.log), "A new wave arrives")
}

func TestStageScript_EmptyRosterBringsNextWaveForward(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat]
waves:
  - turn: 9
    spawn: [rat]
  - turn: 3
    spawn: [rat, rat]
`, nil)
	b, script := f.battle(t)

	smash(t, b, b.Adversaries().Members()[0])

	assert.Equal(t, battle.PhaseAdversary, b.Phase(), "a pending wave prevents victory")
	assert.Equal(t, 2, b.Adversaries().Len(), "the earliest wave spawned")
	assert.Equal(t, 1, script.PendingWaves())
}

func TestStageScript_VictoryOnceWavesAreExhausted(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat]
waves:
  - turn: 5
    spawn: [rat]
`, nil)
	b, script := f.battle(t)

	smash(t, b, b.Adversaries().Members()[0])
	require.Equal(t, 0, script.PendingWaves())
	now := drain(b, t0)

	smash(t, b, b.Adversaries().Members()[0])
	drain(b, now)
	assert.Equal(t, battle.PhaseVictory, b.Phase())
	assert.Equal(t, 2, b.Deaths("rat"))
}

func TestStageScript_WavesOnlyStageOpensWithFirstWave(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
waves:
  - turn: 4
    spawn: [rat, rat]
  - turn: 1
    spawn: [rat]
`, nil)
	b, script := f.battle(t)

	assert.Equal(t, battle.PhasePlayer, b.Phase())
	assert.Equal(t, 1, b.Adversaries().Len(), "the earliest wave spawned at start")
	assert.Equal(t, 1, script.PendingWaves())

	smash(t, b, b.Adversaries().Members()[0])
	assert.Equal(t, battle.PhaseAdversary, b.Phase())
	assert.Equal(t, 2, b.Adversaries().Len())
	assert.Equal(t, 0, script.PendingWaves())
}

func TestStageScript_PeriodicHeal(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat]
heals:
  - every: 2
    amount: 5
    side: player
`, nil)
	b, _ := f.battle(t)
	hero := b.Leader()

	now := t0
	require.True(t, b.Pass(now))
	now = drain(b, now)
	assert.Equal(t, 990, hero.Stats.HP, "no heal on turn 1")

	require.True(t, b.Pass(now))
	drain(b, now)
	assert.Equal(t, 2, b.Turn())
	assert.Equal(t, 985, hero.Stats.HP, "bitten again, then healed 5")
}

func TestStageScript_LuaHooks(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat, rat]
script: scripts/test.lua
`, map[string]string{
		"scripts/test.lua": `
function on_turn_end(turn)
	engine.log("turn " .. turn .. ", " .. engine.living("adversary") .. " rats")
	if turn == 1 then
		engine.spawn("rat")
	end
end

function on_death(name, kind)
	engine.log(name .. " fell (" .. kind .. ")")
	engine.heal_side("player", 3)
end
`,
	})
	b, _ := f.battle(t)
	hero := b.Leader()

	smash(t, b, b.Adversaries().Members()[0])
	drain(b, t0)

	out := messages(f.log)
	assert.Contains(t, out, "Rat fell (rat)")
	assert.Contains(t, out, "turn 1, 1 rats")
	assert.Contains(t, out, "Rat appears")
	assert.Equal(t, 2, b.Adversaries().Len())
	assert.Equal(t, 990, hero.Stats.HP, "on_death heal had nothing to restore before the bite")
}

func TestStageScript_ScriptRequiresManager(t *testing.T) {
	f := newFixture(t, `
id: test
name: Test
party: [hero]
adversaries: [rat]
script: scripts/test.lua
`, map[string]string{"scripts/test.lua": "-- empty\n"})
	_, _, err := f.lib.NewBattle(content.Setup{Stage: "test", Engine: f.engine, Logger: zap.NewNop()})
	assert.Error(t, err)
}

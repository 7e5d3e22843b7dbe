package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/content"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/inventory"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/scripting"
)

// outcome is the result of one simulated battle.
type outcome struct {
	Run       int
	Seed      int64
	Phase     battle.Phase
	Turns     int
	Drops     int
	Log       []battlelog.Entry
	Inventory inventory.Snapshot
}

// summary aggregates a batch.
type summary struct {
	Runs       int
	Victories  int
	Defeats    int
	Unfinished int
	AvgTurns   float64
	AvgDrops   float64
}

// WinRate is the fraction of runs that ended in victory.
func (s summary) WinRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Victories) / float64(s.Runs)
}

// simulator runs headless battles. It only reads its fields, so one simulator
// may drive many battles concurrently; each battle stays on one goroutine.
type simulator struct {
	cfg    config.Config
	lib    *content.Library
	logger *zap.Logger
}

// run plays one battle of stage to completion or to the configured turn cap
// on a simulated clock advanced by the tick interval.
//
// Precondition: stage exists in s.lib.
// Postcondition: Returns the outcome, or an error on setup failure or ctx
// cancellation. inv, when non-nil, is carried into and mutated by the battle.
func (s *simulator) run(ctx context.Context, run int, seed int64, stage string, mods []battle.Modifier, inv *inventory.Inventory) (outcome, error) {
	logger := observability.ForBattle(s.logger, stage, run, seed)
	roller := dice.NewLoggedRoller(dice.SourceFor(seed), logger)
	engine := combat.NewEngine(s.lib.Statuses, roller, logger, combat.WithHitDelay(s.cfg.Battle.HitDelay))
	scripts := scripting.NewManager(roller, logger)
	defer scripts.Close()
	log := battlelog.NewLog(logger)

	b, _, err := s.lib.NewBattle(content.Setup{
		Stage:            stage,
		Engine:           engine,
		Scripts:          scripts,
		InstructionLimit: s.cfg.Content.ScriptInstructionLimit,
		Inventory:        inv,
		Modifiers:        mods,
		Logger:           logger,
		Options: []battle.Option{
			battle.WithLog(log),
			battle.WithActionDelay(s.cfg.Battle.AdversaryActionDelay),
		},
	})
	if err != nil {
		return outcome{}, fmt.Errorf("setting up %q: %w", stage, err)
	}

	pilot := autopilot{src: roller.Source()}
	now := time.Unix(0, 0).UTC()
	for !b.Phase().Terminal() && b.Turn() < s.cfg.Battle.MaxTurns {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		if b.Phase() == battle.PhasePlayer && !b.Busy() {
			pilot.act(b, now)
		}
		now = now.Add(s.cfg.Battle.TickInterval)
		b.Update(now)
	}

	out := outcome{
		Run:   run,
		Seed:  seed,
		Phase: b.Phase(),
		Turns: b.Turn(),
		Drops: len(b.Drops()),
		Log:   log.Entries(),
	}
	if b.Inventory() != nil {
		out.Inventory = b.Inventory().Snapshot()
	}
	logger.Info("battle finished",
		zap.String("outcome", out.Phase.String()),
		zap.Int("turns", out.Turns),
		zap.Int("drops", out.Drops),
	)
	return out, nil
}

// batch runs n independent battles concurrently, seeded base, base+1, ...
//
// Precondition: n >= 1.
func (s *simulator) batch(ctx context.Context, stage string, mods []battle.Modifier, n int, base int64) (summary, error) {
	results := make([]outcome, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			out, err := s.run(gctx, i, base+int64(i), stage, mods, nil)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary{}, err
	}
	return summarize(results), nil
}

func summarize(results []outcome) summary {
	sum := summary{Runs: len(results)}
	turns, drops := 0, 0
	for _, r := range results {
		switch r.Phase {
		case battle.PhaseVictory:
			sum.Victories++
		case battle.PhaseDefeat:
			sum.Defeats++
		default:
			sum.Unfinished++
		}
		turns += r.Turns
		drops += r.Drops
	}
	if sum.Runs > 0 {
		sum.AvgTurns = float64(turns) / float64(sum.Runs)
		sum.AvgDrops = float64(drops) / float64(sum.Runs)
	}
	return sum
}

// parseModifiers resolves a comma-separated list of modifier ids against the
// stage's declared modifiers.
func parseModifiers(def *content.StageDef, list string) ([]battle.Modifier, error) {
	var mods []battle.Modifier
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		m, ok := def.Modifier(id)
		if !ok {
			return nil, fmt.Errorf("stage %q has no modifier %q", def.ID, id)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Package main provides the headless battle simulator: it loads the content
// tree, plays a stage with an autopilot party, prints the battle log, and
// optionally persists the party inventory to PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/content"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/inventory"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/battlesim.yaml", "path to configuration file")
	stageID := flag.String("stage", "cellar", "stage to play")
	modsFlag := flag.String("mods", "", "comma-separated stage modifier ids; empty = the profile's saved selection")
	profile := flag.String("profile", "", "profile id for saved modifiers and inventory (requires database.enabled)")
	batch := flag.Int("batch", 0, "run N independent battles concurrently and print a summary")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	lib, err := content.Load(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	lib.EntityOptions = []entity.Option{entity.WithReductionCap(cfg.Battle.MaxDamageReduction)}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.Int("templates", len(lib.Templates())),
		zap.Int("stages", len(lib.Stages())),
		zap.Int("items", len(lib.Items.AllItems())),
		zap.Duration("elapsed", time.Since(start)),
	)

	def, ok := lib.Stage(*stageID)
	if !ok {
		logger.Fatal("unknown stage", zap.String("stage", *stageID))
	}
	mods, err := parseModifiers(def, *modsFlag)
	if err != nil {
		logger.Fatal("parsing modifiers", zap.Error(err))
	}

	sim := &simulator{cfg: cfg, lib: lib, logger: logger}

	if *batch > 0 {
		base := cfg.Battle.Seed
		if base == 0 {
			base = time.Now().UnixNano()
		}
		sum, err := sim.batch(ctx, def.ID, mods, *batch, base)
		if err != nil {
			logger.Fatal("batch failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stdout, "%s: %d runs, win rate %.1f%% (%d won, %d lost, %d unfinished), avg turns %.1f, avg drops %.2f [%s]\n",
			def.Name, sum.Runs, sum.WinRate()*100, sum.Victories, sum.Defeats, sum.Unfinished,
			sum.AvgTurns, sum.AvgDrops, time.Since(start).Round(time.Millisecond))
		return
	}

	var repo *postgres.ProfileRepository
	var inv *inventory.Inventory
	if cfg.Database.Enabled && *profile != "" {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewProfileRepository(pool.DB())
		mods, inv, err = loadProfile(ctx, repo, lib, def, *profile, *modsFlag, mods, logger)
		if err != nil {
			logger.Fatal("loading profile", zap.Error(err))
		}
	}

	out, err := sim.run(ctx, 0, cfg.Battle.Seed, def.ID, mods, inv)
	if err != nil {
		logger.Fatal("battle failed", zap.Error(err))
	}
	for _, e := range out.Log {
		fmt.Fprintf(os.Stdout, "[%-6s] %s\n", e.Category, e.Message)
	}
	fmt.Fprintf(os.Stdout, "%s after %d turns, %d drops [%s]\n",
		out.Phase, out.Turns, out.Drops, time.Since(start).Round(time.Millisecond))

	if repo != nil {
		if err := repo.SaveInventory(ctx, *profile, out.Inventory); err != nil {
			logger.Fatal("saving inventory", zap.Error(err))
		}
		logger.Info("inventory saved", zap.String("profile", *profile), zap.Int("kinds", len(out.Inventory)))
	}
}

// loadProfile creates the profile if needed, then either saves the modifiers
// chosen on the command line or loads the saved selection, and restores the
// saved inventory. An empty saved inventory yields nil so the stage's
// starting items apply.
func loadProfile(ctx context.Context, repo *postgres.ProfileRepository, lib *content.Library, def *content.StageDef,
	profile, modsFlag string, mods []battle.Modifier, logger *zap.Logger) ([]battle.Modifier, *inventory.Inventory, error) {
	if err := repo.Ensure(ctx, profile); err != nil {
		return nil, nil, err
	}
	if modsFlag != "" {
		if err := repo.SaveModifiers(ctx, profile, def.ID, mods); err != nil {
			return nil, nil, err
		}
	} else {
		saved, err := repo.LoadModifiers(ctx, profile, def.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, m := range saved {
			if err := m.Validate(); err != nil {
				return nil, nil, fmt.Errorf("saved selection: %w", err)
			}
		}
		mods = saved
	}

	snap, err := repo.LoadInventory(ctx, profile)
	if err != nil {
		return nil, nil, err
	}
	if len(snap) == 0 {
		return mods, nil, nil
	}
	inv := inventory.New(lib.Items)
	if unknown := inv.Restore(snap); len(unknown) > 0 {
		logger.Warn("dropping unknown saved items", zap.Strings("items", unknown))
	}
	return mods, inv, nil
}

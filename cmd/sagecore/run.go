package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/command"
	"github.com/rtsforge/sagecore/internal/config"
	"github.com/rtsforge/sagecore/internal/content"
	"github.com/rtsforge/sagecore/internal/engine"
	"github.com/rtsforge/sagecore/internal/entity"
	"github.com/rtsforge/sagecore/internal/persist"
	"github.com/rtsforge/sagecore/internal/render"
	"github.com/rtsforge/sagecore/internal/scripting"
	"github.com/rtsforge/sagecore/internal/unit"
)

var (
	flagSeed   uint64
	flagResume bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation loop",
	Long: `Start the orchestrator loop: fixed-duration logic ticks fed by the
command queue and Lua scripts, interleaved with interpolated render
frames, autosaving on the configured cadence.

Examples:
  sagecore run
  sagecore run --seed 42
  sagecore run --resume`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Override the configured random seed")
	runCmd.Flags().BoolVar(&flagResume, "resume", false, "Restore the configured slot before running")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSeed != 0 {
		cfg.Engine.Seed = flagSeed
	}
	if cfg.Engine.Seed == 0 {
		// A logged seed keeps an unseeded run replayable after the fact.
		cfg.Engine.Seed = uint64(time.Now().UnixNano())
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	queue := command.NewQueue()
	driver, err := buildDriver(cfg, queue, log)
	if err != nil {
		return err
	}

	script, err := scripting.NewEngine(cfg.Content.ScriptsPath, queue, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer script.Close()
	driver.AddSystem(script.System())

	if store != nil {
		driver.AddSystem(engine.NewAutosaver(driver, store, cfg.Persistence.Slot, cfg.Persistence.AutosaveIntervalTicks))
	}

	if flagResume {
		if store == nil {
			return errors.New("--resume needs persistence.mode file or postgres")
		}
		snap, err := store.Load(ctx, cfg.Persistence.Slot)
		if errors.Is(err, persist.ErrNoSnapshot) {
			log.Info("no snapshot to resume, starting fresh",
				zap.String("slot", cfg.Persistence.Slot))
		} else if err != nil {
			return fmt.Errorf("load slot %s: %w", cfg.Persistence.Slot, err)
		} else {
			if err := driver.Restore(snap.Data); err != nil {
				return fmt.Errorf("restore slot %s: %w", cfg.Persistence.Slot, err)
			}
			log.Info("resumed",
				zap.String("slot", cfg.Persistence.Slot),
				zap.Uint64("frame", snap.Frame))
		}
	}

	log.Info("simulation starting",
		zap.String("session", driver.Session()),
		zap.Uint64("seed", cfg.Engine.Seed),
		zap.Duration("tick", cfg.Engine.TickRate),
		zap.Duration("frame", cfg.Engine.FrameRate))

	rd := engine.NewRenderDriver(driver, render.DebugBackend{Log: log})
	loop := engine.NewLoop(driver, rd, cfg.Engine.FrameRate, cfg.Engine.CatchupMaxTicks)
	return loop.Run(ctx)
}

// buildDriver assembles the content table, module registry and logic driver.
// Shared with verify, which needs an identically configured driver per
// replay.
func buildDriver(cfg *config.Config, queue *command.Queue, log *zap.Logger) (*engine.Driver, error) {
	table, err := content.LoadTable(cfg.Content.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	reg := entity.NewRegistry()
	unit.RegisterAll(reg)

	var sources []command.Source
	if queue != nil {
		sources = append(sources, queue)
	}

	return engine.New(engine.Params{
		TickDuration: cfg.Engine.TickRate,
		Seed:         cfg.Engine.Seed,
		Resolver:     table,
		Registry:     reg,
		Sources:      sources,
		Log:          log,
	}), nil
}

// openStore builds the snapshot store for the configured persistence mode.
// Mode "off" returns a nil store.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.Store, func(), error) {
	switch cfg.Persistence.Mode {
	case "off":
		return nil, nil, nil
	case "file":
		fs, err := persist.NewFileStore(cfg.Persistence.SnapshotDir)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot dir: %w", err)
		}
		return fs, nil, nil
	case "postgres":
		pgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pg, err := persist.NewPGStore(pgCtx, persist.PGConfig{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MinIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := pg.Migrate(pgCtx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence mode %q", cfg.Persistence.Mode)
	}
}

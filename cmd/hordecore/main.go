package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hordecore/hordecore/internal/config"
	"github.com/hordecore/hordecore/internal/data"
	"github.com/hordecore/hordecore/internal/game"
	"github.com/hordecore/hordecore/internal/meta"
	"github.com/hordecore/hordecore/internal/observe"
	"github.com/hordecore/hordecore/internal/persist"
	"github.com/hordecore/hordecore/internal/scripting"
	"github.com/hordecore/hordecore/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := "config/hordecore.toml"
	if p := os.Getenv("HORDECORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Balance tables and formulas
	tables, err := data.LoadTables(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	lua, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	log.Info("tables loaded",
		zap.Int("enemies", len(tables.Enemies.All())),
		zap.Int("weapons", len(tables.Weapons.All())),
		zap.Int("bosses", len(tables.Bosses.All())),
		zap.Int("maps", len(tables.Maps.All())),
	)

	// 4. Persistence: local sealed file, optional Postgres remote
	store, err := persist.NewFileStore(cfg.Storage.Path, cfg.Storage.Key, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	var (
		remote meta.Remote
		scores *persist.ScoreRepo
	)
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err == nil {
			var version int64
			version, err = persist.RunMigrations(ctx, db.Pool)
			if err != nil {
				db.Close()
			} else {
				log.Info("schema ready", zap.Int64("version", version))
			}
		}
		cancel()
		if err != nil {
			log.Warn("database unavailable, playing offline", zap.Error(err))
		} else {
			defer db.Close()
			remote = persist.NewProfileRepo(db, tables)
			scores = persist.NewScoreRepo(db, cfg.Integrity.VerifiedThreshold)
		}
	}
	manager := meta.NewManager(store, remote, tables, cfg.Sim.PlayerID, log)

	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	profile, err := manager.Load(loadCtx)
	cancel()
	if err != nil {
		log.Warn("profile load incomplete", zap.Error(err))
	}

	// 5. Simulation
	sim, err := game.New(game.Options{
		Tables:   tables,
		Formulas: lua,
		Sim:      cfg.Sim,
		Limits:   integrityLimits(cfg.Integrity),
		Profile:  profile,
		Manager:  manager,
		PlayerID: cfg.Sim.PlayerID,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("new run: %w", err)
	}

	// 6. Debug server
	board := observe.NewBoard()
	board.SetProfile(profile)
	metrics := observe.NewMetrics()
	hub := observe.NewHub(cfg.Debug.CORSOrigins, log)
	if cfg.Debug.Enabled {
		rc := observe.RouterConfig{
			Board:       board,
			Hub:         hub,
			Metrics:     metrics,
			CORSOrigins: cfg.Debug.CORSOrigins,
			Log:         log,
		}
		if scores != nil {
			rc.Leaderboard = scores
		}
		srv := &http.Server{
			Addr:              cfg.Debug.ListenAddr,
			Handler:           observe.NewRouter(rc),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("debug server", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info("debug server listening", zap.String("addr", cfg.Debug.ListenAddr))
	}

	// 7. Game loop
	if err := sim.Start(); err != nil {
		return err
	}
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	var (
		pilot   autopilot
		pending sync.WaitGroup
		last    = time.Now()
	)
	game.On(sim, func(over game.GameOver) {
		board.SetSummary(over.Summary)
		board.SetProfile(sim.Profile())
		report(&pending, cfg, manager, scores, sim.Profile(), over.Summary, log)
	})
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			switch sim.State() {
			case game.StateLevelUp:
				if _, err := sim.ChooseUpgrade(0); err != nil {
					log.Warn("autopilot upgrade", zap.Error(err))
				}
			case game.StateRewardSpin:
				if _, err := sim.ChooseChestReward(0); err != nil {
					log.Warn("autopilot chest", zap.Error(err))
				}
			}

			sim.SetInput(pilot.next(sim.World()))
			start := time.Now()
			sim.Update(dt)
			snap := sim.Snapshot()
			metrics.Observe(snap, time.Since(start))
			board.Publish(snap)
			hub.Broadcast("snapshot", snap)

			events := sim.Events()
			metrics.ObserveEvents(events)
			for _, ev := range events {
				hub.Broadcast(observe.EventKind(ev), ev)
			}
			if sim.State() == game.StateGameOver {
				pending.Wait()
				log.Info("run finished, exiting")
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// report submits the score and pushes the profile in the background. Both
// are best effort; failures are logged and the local save stands.
func report(wg *sync.WaitGroup, cfg *config.Config, manager *meta.Manager, scores *persist.ScoreRepo, profile meta.State, sum game.RunSummary, log *zap.Logger) {
	timeout := cfg.Database.Timeout
	wg.Add(2)
	go func() {
		defer wg.Done()
		if scores == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		verified, err := scores.Submit(ctx, persist.ScoreEntry{
			RunID:     sum.RunID,
			PlayerID:  sum.PlayerID,
			Character: sum.Character,
			Map:       sum.Map,
			Score:     sum.Score,
			Kills:     sum.Kills,
			Level:     sum.Level,
			Survival:  sum.Survival,
			Integrity: sum.Integrity,
		})
		if err != nil {
			log.Warn("score submission failed", zap.Error(err))
			return
		}
		log.Info("score submitted", zap.Int("score", sum.Score), zap.Bool("verified", verified))
	}()
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := manager.Push(ctx, profile); err != nil {
			log.Warn("profile push failed", zap.Error(err))
		}
	}()
}

func integrityLimits(c config.IntegrityConfig) world.IntegrityLimits {
	return world.IntegrityLimits{
		CheckpointInterval: c.CheckpointInterval.Seconds(),
		TimeTolerance:      c.TimeTolerance,
		TimeSlack:          c.TimeSlack.Seconds(),
		MaxKillRate:        c.MaxKillRate,
		KillWindow:         c.KillWindow.Seconds(),
		MaxDPS:             c.MaxDPS,
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// Command simserver runs the Emberfall simulation core: it loads the
// balance tables, restores any persisted characters and drives the world
// tick loop until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skalder/emberfall/internal/config"
	"github.com/skalder/emberfall/internal/data"
	"github.com/skalder/emberfall/internal/db"
	"github.com/skalder/emberfall/internal/game/effect"
	"github.com/skalder/emberfall/internal/sim"
)

func main() {
	if err := run(); err != nil && err != context.Canceled {
		slog.Error("simserver exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "simserver.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	tables, err := data.LoadFiles(cfg.Balance.Classes, cfg.Balance.Options)
	if err != nil {
		return fmt.Errorf("loading balance tables: %w", err)
	}

	world := sim.NewWorld(sim.Config{
		TickInterval: time.Duration(cfg.TickMS) * time.Millisecond,
		CorpseDelay:  time.Duration(cfg.CorpseMS) * time.Millisecond,
		TileSize:     cfg.TileSize,
		Seed:         cfg.Seed,
	}, tables, effect.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *db.DB
	if cfg.Database.Enabled() {
		dsn := cfg.Database.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return err
		}
		store, err = db.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer store.Close()

		snaps, err := store.ListCharacters(ctx)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			world.Restore(snap)
		}
		slog.Info("characters restored", "count", len(snaps))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return world.Run(ctx)
	})
	if store != nil {
		g.Go(func() error {
			return autosave(ctx, world, store, time.Duration(cfg.SaveEverySec)*time.Second)
		})
	}

	slog.Info("simserver started",
		"tick_ms", cfg.TickMS,
		"persistence", cfg.Database.Enabled())
	return g.Wait()
}

// autosave periodically writes every live character's snapshot and flushes
// once more on shutdown.
func autosave(ctx context.Context, world *sim.World, store *db.DB, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			saveAll(flushCtx, world, store)
			return ctx.Err()
		case <-ticker.C:
			saveAll(ctx, world, store)
		}
	}
}

func saveAll(ctx context.Context, world *sim.World, store *db.DB) {
	for _, ch := range world.Characters() {
		if err := store.SaveCharacter(ctx, ch.Snapshot()); err != nil {
			slog.Warn("autosave failed", "character", ch.Name(), "error", err)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

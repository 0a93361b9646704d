package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"skyisle/internal/app/game"
	appsave "skyisle/internal/app/save"
	"skyisle/internal/domain/world"
	"skyisle/internal/platform/config"
	"skyisle/internal/platform/desktop"
	"skyisle/internal/platform/observability"
	"skyisle/internal/platform/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	saves, err := store.OpenBolt(cfg.BoltPath)
	if err != nil {
		logger.Fatal().Err(err).Str("bolt_path", cfg.BoltPath).Msg("open save file failed")
	}
	defer saves.Close()

	repo := appsave.NewRepository(saves, cfg.SaveNamespace, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	g := repo.Resume(ctx, loadLayout(cfg.WorldLayoutFile, logger), game.Options{
		Logger:  logger,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		MaxStep: cfg.SimMaxStep,
	})
	cancel()

	logger.Info().Str("save_key", repo.Key()).Msg("starting sky island")
	if err := desktop.NewRunner(g, cfg.SimMaxStep, logger).Run("Sky Island"); err != nil {
		logger.Error().Err(err).Msg("game loop stopped")
	}
	if g.ResetPending() {
		logger.Info().Msg("save was reset, skipping exit save")
		return
	}
	repo.Save(g.Record())
}

func loadLayout(path string, logger zerolog.Logger) world.Layout {
	if path == "" {
		return world.DefaultLayout()
	}
	l, err := world.LoadLayout(path)
	if err != nil {
		logger.Warn().Err(err).Str("layout_file", path).Msg("failed to load world layout, using built-in island")
		return world.DefaultLayout()
	}
	return l
}

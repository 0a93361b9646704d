package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"skyisle/internal/api"
	sessionapp "skyisle/internal/app/session"
	slotapp "skyisle/internal/app/slot"
	"skyisle/internal/domain/world"
	"skyisle/internal/platform/cache"
	"skyisle/internal/platform/config"
	"skyisle/internal/platform/db"
	"skyisle/internal/platform/migrate"
	"skyisle/internal/platform/mq"
	"skyisle/internal/platform/observability"
	"skyisle/internal/platform/store"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	pg, err := db.Connect(ctx, cfg.PostgresURL, cfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pg.Close()

	if err := migrate.Up(ctx, pg, os.DirFS(cfg.MigrationDir)); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; continuing without cache")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := mq.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable; using noop publisher")
		publisher = mq.NewNoopPublisher()
	}
	defer publisher.Close()

	layout := loadLayout(cfg.WorldLayoutFile, logger)
	saves := store.NewCached(store.NewPostgres(pg), redisClient, cfg.SaveCacheTTL, logger)

	slotSvc := slotapp.NewService(pg, cfg.SlotSecret, cfg.SlotTokenTTL)
	sessionSvc := sessionapp.NewService(logger, publisher, saves, layout, cfg.SimTickRate, cfg.SimMaxStep)
	sessionSvc.Start()
	defer sessionSvc.Stop()

	ready := func(ctx context.Context) error {
		if err := pg.Ping(ctx); err != nil {
			return err
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn().Err(err).Msg("save cache unreachable")
			}
		}
		return nil
	}
	handler := api.NewHandler(logger, slotSvc, sessionSvc, ready, cfg.CorsOrigin, cfg.MaxRequestBody)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Int("tick_rate", cfg.SimTickRate).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("server stopped")
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

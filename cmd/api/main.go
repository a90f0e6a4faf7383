package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"downloader/internal/adapter/repo"
	"downloader/internal/domain"
	"downloader/internal/download"
	"downloader/internal/http/handlers"
	"downloader/internal/http/httpapi"
	"downloader/internal/infra"
	"downloader/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Result index: PostgreSQL when configured, file cache otherwise.
	var index domain.ResultIndex
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		videoRepo := repo.NewVideoRepository(pool)
		if err := videoRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		index = videoRepo
	} else {
		cache, err := storage.NewCache(cfg.CacheDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open result cache")
		}
		index = cache
		logger.Info().Str("dir", cfg.CacheDir).Msg("using file-backed result index")
	}

	supervisor := &download.Supervisor{
		Binary:      cfg.YtdlpPath,
		OutputDir:   cfg.DownloadDir,
		MergeFormat: cfg.MergeFormat,
		LiveWait:    cfg.LiveWait,
		KillGrace:   cfg.KillGrace,
		Logger:      logger,
	}
	registry := download.NewRegistry(cfg.JobRetention, logger)
	orchestrator := download.NewOrchestrator(registry, supervisor, index, logger)

	app := handlers.NewApp(orchestrator, index, logger)
	router := httpapi.NewRouter(app, logger, cfg.AllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	registry.Shutdown()
	logger.Info().Msg("server stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cafe-calorie/internal/app"
	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/config"
	"cafe-calorie/internal/database"
	"cafe-calorie/internal/llm"
	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"
	"cafe-calorie/internal/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	if err := config.LoadDotEnv(); err != nil {
		logging.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.RequireTelegram(); err != nil {
		logging.Fatal().Err(err).Msg("telegram is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Infrastructure
	textGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create LLM client")
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg.CatalogPath, catalog.NewRepository(db.SQL))
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer closeCatalog()

	// 3. Initialize Services
	reg := prometheus.NewRegistry()
	metricsStore := metrics.NewStore(db.SQL)
	application := app.NewApp(
		provider,
		planner.NewEngine(planner.Options{MaxEvaluations: cfg.SearchMaxEvaluations}),
		metricsStore,
		metrics.NewCollectors(reg),
	)
	parser := llm.NewGoalParser(textGen, cfg.DefaultGoals)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application, parser, telegram.NewSessionRepository(db.SQL), metricsStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize Telegram bot")
	}

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("port", cfg.Port).Str("data", filepath.Dir(cfg.DatabasePath)).Msg("telegram bot server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	logging.Info().Msg("server exiting")
}

package main

// @title           Shelfshare Books API
// @version         1.0
// @description     API for managing books and their prices in Shelfshare.

// @contact.name   Sina Niyavarzi
// @contact.email  sinaniya@gmail.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/snnyvrz/shelfshare-books/internal/config"
	"github.com/snnyvrz/shelfshare-books/internal/db"
	"github.com/snnyvrz/shelfshare-books/internal/logger"
	"github.com/snnyvrz/shelfshare-books/internal/metrics"
	"github.com/snnyvrz/shelfshare-books/internal/repository"
	"github.com/snnyvrz/shelfshare-books/internal/server"
)

const appVersion = "0.2.0"

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("service", "books-api").Logger()

	if err := run(cfg, log, startTime); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger, startTime time.Time) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.App.GinMode)

	database, err := db.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	dialect, err := repository.DialectFor(cfg.DB.Driver)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(database.SQL, cfg.DB.Driver),
	)
	repoMetrics, err := metrics.NewRepository(reg)
	if err != nil {
		return err
	}

	router, err := server.NewRouter(server.Deps{
		Config:    cfg,
		Logger:    log,
		Books:     repository.NewSQLBookRepository(database.SQL, dialect, log, repoMetrics),
		DB:        database.SQL,
		Gatherer:  reg,
		StartTime: startTime,
		Version:   appVersion,
	})
	if err != nil {
		return err
	}

	return server.New(cfg.HTTP, log, router).Run(ctx)
}

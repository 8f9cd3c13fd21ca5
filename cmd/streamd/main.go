package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketstream/internal/config"
	"github.com/rickgao/marketstream/internal/database"
	"github.com/rickgao/marketstream/internal/feed"
	"github.com/rickgao/marketstream/internal/hub"
	"github.com/rickgao/marketstream/internal/journal"
	"github.com/rickgao/marketstream/internal/metrics"
	"github.com/rickgao/marketstream/internal/publisher"
	"github.com/rickgao/marketstream/internal/server"
	"github.com/rickgao/marketstream/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/streamd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	// Hub
	hubCfg := hub.Config{
		QueueSize:    cfg.Hub.QueueSize,
		PingInterval: cfg.Hub.PingInterval,
		WriteTimeout: cfg.Hub.WriteTimeout,
		ReadTimeout:  cfg.Hub.ReadTimeout,
		MaxFrameSize: cfg.Hub.MaxFrameSize,
	}
	h := hub.New(hubCfg, recorder, logger)
	defer h.Close()

	// Order journal (optional, needs a database)
	var appender journal.Appender = journal.NewNop()
	var db server.Pinger
	if cfg.JournalEnabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		j := journal.New(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
			BufferSize:    cfg.Journal.BufferSize,
		}, pool, recorder, logger)

		if err := j.Start(ctx); err != nil {
			logger.Error("failed to start order journal", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			j.Stop(stopCtx)
		}()

		appender = j
		db = pool
	} else {
		logger.Warn("no database configured, orders will not be journaled")
	}

	// Publisher
	pub := publisher.New(h, appender, recorder, logger)

	// Market-data feed (optional)
	if cfg.FeedEnabled() {
		f := feed.New(feed.Config{
			URL:           cfg.Feed.URL,
			SubjectPrefix: cfg.Feed.SubjectPrefix,
			ConnectWait:   5 * time.Second,
		}, h, logger)

		if err := f.Start(ctx); err != nil {
			logger.Error("failed to start market feed", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			f.Stop(stopCtx)
		}()
	}

	// HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		MetricsPath:  cfg.Metrics.Path,
	}, server.Deps{
		Hub:       h,
		HubConfig: hubCfg,
		Publisher: pub,
		Recorder:  recorder,
		Gatherer:  registry,
		DB:        db,
	}, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("streamd stopped")
}

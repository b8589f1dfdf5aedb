package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/ashare-monitor/internal/clients/eastmoney"
	"github.com/aristath/ashare-monitor/internal/config"
	"github.com/aristath/ashare-monitor/internal/database"
	"github.com/aristath/ashare-monitor/internal/metrics"
	"github.com/aristath/ashare-monitor/internal/modules/journal"
	"github.com/aristath/ashare-monitor/internal/modules/market"
	"github.com/aristath/ashare-monitor/internal/modules/monitor"
	"github.com/aristath/ashare-monitor/internal/modules/signals"
	"github.com/aristath/ashare-monitor/internal/notify"
	"github.com/aristath/ashare-monitor/internal/scheduler"
	"github.com/aristath/ashare-monitor/internal/server"
	"github.com/aristath/ashare-monitor/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting A-share monitor")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Core services
	params := signals.DefaultStrategyParams()
	mon := monitor.NewService(monitor.Config{MaxWatchlistSize: cfg.MaxWatchlistSize}, log)
	engine := signals.NewEngine(params, log)
	detector := market.NewDetector(market.DefaultSessionConfig())
	provider := eastmoney.NewClient(log)
	collector := monitor.NewCollector(provider, monitor.CollectorConfig{
		QuoteTTL:      cfg.QuoteCacheTTL,
		HistoryTTL:    cfg.HistoryCacheTTL,
		FundFlowTTL:   cfg.FundFlowCacheTTL,
		HistoryDays:   cfg.HistoryDays,
		CacheCapacity: cfg.CacheCapacity,
	}, params, log)
	repo := journal.NewRepository(db.Conn(), log)
	// Additional delivery channels plug in alongside the log sink.
	notifier := notify.Multi{notify.NewLogNotifier(log)}

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	pollJob := scheduler.NewPollCycleJob(scheduler.PollCycleConfig{
		Log:       log,
		Monitor:   mon,
		Collector: collector,
		Engine:    engine,
		Market:    detector,
		Journal:   repo,
		Notifier:  notifier,
		Metrics:   m,
		Timeout:   cfg.PollTimeout,
	})
	schedule := fmt.Sprintf("@every %s", cfg.RefreshInterval)
	if err := sched.AddJob(schedule, pollJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register poll cycle job")
	}

	// Prime the first cycle instead of waiting out the refresh interval.
	if err := sched.RunNow(pollJob); err != nil {
		log.Error().Err(err).Msg("Initial poll cycle failed")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Log:       log,
		Monitor:   mon,
		Collector: collector,
		Engine:    engine,
		Market:    detector,
		Journal:   repo,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

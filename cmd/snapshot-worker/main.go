package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"carbonledger/internal/config"
	"carbonledger/internal/core"
	"carbonledger/internal/events"
	applog "carbonledger/internal/log"
	"carbonledger/internal/storage"
	"carbonledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup("snapshot-worker", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	snapshotWorker := worker.NewSnapshotWorker(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, bring every snapshot up to date before consuming events.
	logger.Info("Performing startup reconciliation...")
	if err := snapshotWorker.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
		// Don't exit - continue with normal operation
	}

	// Consume activity change notifications when AMQP is configured.
	if cfg.AMQPURL != "" {
		eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()

		go func() {
			handler := func(msg *events.ActivityMessage) error {
				return snapshotWorker.HandleActivityChange(ctx, msg)
			}
			if err := eventsClient.ConsumeActivityChanges(ctx, handler); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - snapshots rely on scheduled reconciliation only")
	}

	// Keep the live day's snapshot fresh between reconciliations; today is
	// the date mutations overwhelmingly land on.
	go func() {
		ticker := time.NewTicker(cfg.PendingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				today := core.DateKey(time.Now())
				if err := snapshotWorker.RebuildDate(ctx, today); err != nil {
					logger.Error("Pending rebuild failed", "date", today, "error", err)
				}
			}
		}
	}()

	// Scheduled full reconciliation as a safety net for lost notifications.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		if err := snapshotWorker.ReconcileAll(ctx); err != nil {
			logger.Error("Scheduled reconciliation failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid reconcile schedule", "schedule", cfg.ReconcileSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("Snapshot worker started",
		"schedule", cfg.ReconcileSchedule,
		"amqp_enabled", cfg.AMQPURL != "")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()

	// Give in-flight handlers a moment to finish.
	time.Sleep(5 * time.Second)
	logger.Info("Worker shutdown complete")
}

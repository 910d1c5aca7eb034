package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"busta/internal/amqp"
	"busta/internal/config"
	"busta/internal/core"
	"busta/internal/ingest"
	"busta/internal/ledger"
	"busta/internal/store"
	"busta/internal/subscription"
	"busta/internal/suggest"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting busta-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ingestService := ingest.New(st, ledger.New(st), suggest.New(st), nil)
	processor := subscription.NewProcessor(st)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	// Queued raw text becomes pending transactions.
	group.Go(func() error {
		return amqpClient.ConsumeIngest(ctx, func(msg *amqp.IngestMessage) error {
			_, err := ingestService.IngestText(ctx, msg.UserID, msg.RawText, msg.Source)
			if errors.Is(err, core.ErrNotATransaction) {
				// Drop silently; re-queueing would never make it a transaction.
				slog.InfoContext(ctx, "Dropped non-transaction message",
					"user_id", msg.UserID, "source", msg.Source)
				return nil
			}
			return err
		})
	})

	// Due subscriptions are processed immediately on startup, then on every
	// tick, across all owners.
	group.Go(func() error {
		ticker := time.NewTicker(cfg.ProcessInterval)
		defer ticker.Stop()

		if _, err := processor.ProcessDue(ctx, ""); err != nil {
			slog.ErrorContext(ctx, "Startup subscription batch failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := processor.ProcessDue(ctx, ""); err != nil {
					slog.ErrorContext(ctx, "Subscription batch failed", "error", err)
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

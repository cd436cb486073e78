package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendsense/internal/amqp"
	"spendsense/internal/config"
	"spendsense/internal/sheets"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting audit-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The spreadsheet archive is optional. Without it the worker only logs
	// the activity stream.
	var archive *sheets.Archive
	if cfg.GoogleSpreadsheetID != "" {
		archive, err = sheets.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets archive", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets archive enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.AuditSheetName)
	} else {
		logger.Info("Google Sheets archive disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	handler := func(msg *amqp.ActivityMessage) error {
		logger.Info("Activity received",
			"user_id", msg.UserID,
			"action", msg.Action,
			"entity", msg.Entity,
			"details", msg.Details,
		)
		if archive == nil {
			return nil
		}
		return archive.AppendActivity(ctx, msg)
	}

	logger.Info("Consuming activity messages", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeActivity(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Audit worker stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"atlas/internal/amqp"
	"atlas/internal/cli"
	"atlas/internal/config"
	"atlas/internal/log"
	"atlas/internal/services"
	gsheet "atlas/internal/sheets/google"
	"atlas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting atlas-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		OrdersSheet:     cfg.GoogleOrdersSheet,
		CapitalSheet:    cfg.GoogleCapitalSheet,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}
	if err := mirror.EnsureHeaders(ctx); err != nil {
		logger.Error("Failed to prepare spreadsheet headers", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror ready", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, repo, repo, mirror)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx, cfg.SyncBatchSize); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err.Error())
	}

	// The sweep republishes rows the consumer has not confirmed yet.
	processor := services.NewSyncProcessor(repo, amqpClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeSync(gctx, syncWorker.HandleSyncMessage)
	})

	err = g.Wait()
	stop()
	cli.RunCleanup(logger, 10*time.Second, processor.Stop)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

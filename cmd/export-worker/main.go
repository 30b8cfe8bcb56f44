package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kopilka/internal/amqp"
	"kopilka/internal/cli"
	"kopilka/internal/config"
	applog "kopilka/internal/log"
	gsheet "kopilka/internal/sheets/google"
	"kopilka/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateExportWorker)

	logger.Info("Starting export worker",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"queue", cfg.AMQPQueue)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	creds, err := gsheet.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to load Google credentials", "error", err)
		os.Exit(1)
	}
	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: creds,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(repo, sheetsClient)
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close failed", "error", err)
		}
	})

	err = amqpClient.ConsumeExpenseEvents(ctx, exporter.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}
	if ctx.Err() != nil {
		<-done
	}
	logger.Info("Export worker stopped")
}

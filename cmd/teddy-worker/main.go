package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"teddy/internal/amqp"
	"teddy/internal/cli"
	"teddy/internal/log"
	"teddy/internal/sheets"
	gsheet "teddy/internal/sheets/google"
	memsheet "teddy/internal/sheets/memory"
	"teddy/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	loc := cli.Location(logger, cfg)

	logger.Info("Starting teddy-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Close()

	var mirror sheets.Mirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			Location:        loc,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memsheet.New(loc)
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	w := worker.NewMirrorWorker(store.Store, mirror, cfg.TransactionsPath, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.SyncInterval)
	})

	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()

		g.Go(func() error {
			err := consumer.Consume(gctx, w.HandleChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - periodic resync only", "interval", cfg.SyncInterval.String())
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped", "last_sync", w.LastSync())
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"teddy/internal/advisor"
	"teddy/internal/amqp"
	"teddy/internal/cache"
	"teddy/internal/cli"
	"teddy/internal/core"
	apphttp "teddy/internal/http"
	"teddy/internal/ledger"
	"teddy/internal/log"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)
	loc := cli.Location(logger, cfg)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close document store", log.FieldError, err)
		}
	}()

	opts := []ledger.Option{
		ledger.WithPath(cfg.TransactionsPath),
		ledger.WithLogger(logger),
	}
	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Saving still works; the mirror worker catches up on its periodic resync.
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			defer publisher.Close()
			opts = append(opts, ledger.WithPublisher(publisher))
			logger.Info("Change notifications enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	repo := ledger.New(store.Store, opts...)

	// A failed load leaves the list empty with an error status; the user can
	// retry from the page.
	if err := repo.Load(ctx); err != nil {
		logger.Error("Initial load failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	var client advisor.ChatClient
	if cfg.OpenAIAPIKey != "" {
		client = advisor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.AdvisorModel, cfg.AdvisorMaxTokens)
		logger.Info("Advisor enabled", log.FieldModel, cfg.AdvisorModel)
	} else {
		logger.Info("Advisor disabled - no OPENAI_API_KEY provided")
	}
	advCfg := advisor.DefaultConfig()
	advCfg.HistoryTTL = cfg.AdvisorHistoryTTL
	adv := advisor.New(client, advCfg, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:   repo,
		Advisor:  adv,
		Profile:  core.Profile{Username: cfg.Username, Email: cfg.Email},
		Location: loc,
		Logger:   logger,
		Ready:    store.Ping,
	})
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	caches := cache.NewManager(logger)
	caches.Register(adv.History())
	for _, c := range srv.Cleaners() {
		caches.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting teddy server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, cleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.Shutdown(logger, shutdownTimeout, srv.Shutdown)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

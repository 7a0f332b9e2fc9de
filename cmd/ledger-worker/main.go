package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/cli"
	"finledger/internal/ledger"
	"finledger/internal/log"
	"finledger/internal/trace"
	"finledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	res := cli.OpenBackend(context.Background(), logger, cfg)
	if res.Events == nil {
		res.Cleanup()
		logger.Error("AMQP broker unreachable", "url", cfg.AMQPURL)
		os.Exit(1)
	}
	if res.Mirror == nil {
		logger.Info("Spreadsheet mirror disabled - only reconciling balances")
	}

	svc := ledger.NewService(res.Store, ledger.Options{Logger: logger})
	ledgerWorker := worker.NewLedgerWorker(svc, res.Mirror)
	tracer := trace.New()
	handler := amqp.Handler(tracer.Wrap(ledgerWorker.HandleEvent))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", "error", err)
		}
	})

	if err := res.Events.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)

	m := tracer.GetMetrics()
	logger.Info("Worker stopped", "processed", m.Processed, "failed", m.Failed)
}

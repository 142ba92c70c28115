package main

import (
	"context"
	"errors"
	"os"

	"viaggi/internal/amqp"
	"viaggi/internal/backend"
	"viaggi/internal/cli"
	applog "viaggi/internal/log"
	"viaggi/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting viaggi-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if bcfg.PersistMode != backend.QueuePersist {
		logger.Error("The worker needs PERSIST_MODE=queue", "mode", bcfg.PersistMode)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	remoteRes, err := backend.NewFactory(logger.WithComponent(applog.ComponentRemote).Logger).CreateRemote(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize remote store", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	if remoteRes.Cleanup != nil {
		defer remoteRes.Cleanup()
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Consuming snapshots",
		"queue", cfg.AMQPQueue,
		"backend", bcfg.Type)
	if err := worker.NewSyncWorker(remoteRes.Remote).Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docpipe/internal/config"
	"docpipe/internal/logging"
	"docpipe/internal/persistence/postgres"
	"docpipe/internal/pipeline"
	"docpipe/internal/repository"
	"docpipe/internal/stages"
	"docpipe/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env, "worker")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
	}

	store := repository.NewStore(pool, logger)

	workers := pipeline.Workers{
		Ingestor:   stages.NewIngestor(store, logger),
		Extractor:  stages.NewExtractor(store, logger),
		Classifier: stages.NewClassifier(store, logger),
		Router:     stages.NewRouter(store, nil, logger),
	}
	orchestrator := pipeline.NewOrchestrator(store, workers, logger)

	w := worker.New(worker.Deps{
		Pool:          pool,
		Docs:          store,
		Orchestrator:  orchestrator,
		Logger:        logger,
		ReclaimAfter:  cfg.Worker.ReclaimAfter,
		WebhookURL:    cfg.Webhook.URL,
		WebhookSecret: cfg.Webhook.Secret,
	})

	logger.Info("worker started", "poll_interval", cfg.Worker.PollInterval)

	ticker := time.NewTicker(cfg.Worker.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				logger.Error("worker process failed", "error", err)
			}
		}
	}
}

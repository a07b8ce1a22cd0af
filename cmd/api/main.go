// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net/http"
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
	httptransport "docpipe/internal/transport/http"

	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
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

	logger := logging.NewLogger(cfg.Env, "api")

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

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir failed: %v", err)
	}

	store := repository.NewStore(pool, logger)

	workers := pipeline.Workers{
		Ingestor:   stages.NewIngestor(store, logger),
		Extractor:  stages.NewExtractor(store, logger),
		Classifier: stages.NewClassifier(store, logger),
		Router:     stages.NewRouter(store, nil, logger),
	}
	orchestrator := pipeline.NewOrchestrator(store, workers, logger)

	handler := httptransport.NewRouter(httptransport.Deps{
		Documents:      store,
		Events:         store,
		Pipeline:       orchestrator,
		Collab:         store,
		PipelineConfig: store,
		Health:         postgres.NewSchemaHealthChecker(pool),
		Logger:         logger,
		UploadDir:      cfg.UploadDir,
		MaxFileSize:    cfg.MaxFileSize,
		Version:        Version,
		Commit:         Commit,
		BuildDate:      BuildDate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCPIPE_ENV", "")
	t.Setenv("DOCPIPE_HTTP_ADDR", "")
	t.Setenv("DOCPIPE_DATABASE_URL", "")
	t.Setenv("DOCPIPE_CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.UploadDir != "uploads" {
		t.Fatalf("expected default upload dir, got %s", cfg.UploadDir)
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Fatalf("expected 50MB max file size, got %d", cfg.MaxFileSize)
	}
	if !cfg.AutoMigrate {
		t.Fatal("expected auto migrate enabled by default")
	}
	if cfg.Worker.PollInterval != 800*time.Millisecond {
		t.Fatalf("expected default poll interval 800ms, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.ReclaimAfter != 5*time.Minute {
		t.Fatalf("expected default reclaim after 5m, got %s", cfg.Worker.ReclaimAfter)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCPIPE_CONFIG_FILE", "")
	t.Setenv("DOCPIPE_ENV", "prod")
	t.Setenv("DOCPIPE_HTTP_ADDR", ":9090")
	t.Setenv("DOCPIPE_DATABASE_URL", "postgres://example/db")
	t.Setenv("DOCPIPE_WORKER__POLL_INTERVAL", "2s")
	t.Setenv("DOCPIPE_WEBHOOK__URL", "https://hooks.example.com/docs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Fatalf("expected env prod, got %s", cfg.Env)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://example/db" {
		t.Fatalf("unexpected database url: %s", cfg.DatabaseURL)
	}
	if cfg.Worker.PollInterval != 2*time.Second {
		t.Fatalf("expected poll interval 2s, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/docs" {
		t.Fatalf("unexpected webhook url: %s", cfg.Webhook.URL)
	}
}

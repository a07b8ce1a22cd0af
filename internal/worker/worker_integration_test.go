//go:build integration

// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"docpipe/internal/domain"
	"docpipe/internal/pipeline"
	"docpipe/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordingProcessor struct {
	processed []string
}

func (p *recordingProcessor) Process(ctx context.Context, doc *domain.Document) pipeline.Outcome {
	p.processed = append(p.processed, doc.ID)
	return pipeline.Outcome{
		DocumentID:  doc.ID,
		FinalStatus: domain.DocRouted,
		Success:     true,
	}
}

func TestWorkerClaimsOldestUploadedFirst(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t, ctx)
	defer pool.Close()

	if err := truncateDocuments(ctx, pool); err != nil {
		t.Skipf("skip integration test: database not reachable (%v)", err)
	}

	older := insertUploaded(t, ctx, pool, time.Now().Add(-2*time.Hour), nil)
	insertUploaded(t, ctx, pool, time.Now().Add(-1*time.Hour), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := &recordingProcessor{}
	w := New(Deps{
		Pool:         pool,
		Docs:         repository.NewDocumentRepository(pool, logger),
		Orchestrator: processor,
		Logger:       logger,
	})

	if err := w.ProcessOnce(ctx); err != nil {
		t.Fatalf("process once: %v", err)
	}

	if len(processor.processed) != 1 || processor.processed[0] != older {
		t.Fatalf("processed = %v, want [%s]", processor.processed, older)
	}
}

func TestWorkerSkipsFreshClaimsAndReclaimsStaleOnes(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t, ctx)
	defer pool.Close()

	if err := truncateDocuments(ctx, pool); err != nil {
		t.Skipf("skip integration test: database not reachable (%v)", err)
	}

	fresh := time.Now()
	insertUploaded(t, ctx, pool, time.Now().Add(-2*time.Hour), &fresh)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := &recordingProcessor{}
	w := New(Deps{
		Pool:         pool,
		Docs:         repository.NewDocumentRepository(pool, logger),
		Orchestrator: processor,
		Logger:       logger,
		ReclaimAfter: time.Minute,
	})

	// a claim made just now is still owned by another worker
	if err := w.ProcessOnce(ctx); err != nil {
		t.Fatalf("process once: %v", err)
	}
	if len(processor.processed) != 0 {
		t.Fatalf("processed = %v, want nothing while the claim is fresh", processor.processed)
	}

	stale := time.Now().Add(-10 * time.Minute)
	abandoned := insertUploaded(t, ctx, pool, time.Now().Add(-3*time.Hour), &stale)

	if err := w.ProcessOnce(ctx); err != nil {
		t.Fatalf("process once: %v", err)
	}
	if len(processor.processed) != 1 || processor.processed[0] != abandoned {
		t.Fatalf("processed = %v, want reclaimed [%s]", processor.processed, abandoned)
	}
}

func insertUploaded(t *testing.T, ctx context.Context, pool *pgxpool.Pool, createdAt time.Time, claimedAt *time.Time) string {
	t.Helper()

	id := uuid.NewString()
	_, err := pool.Exec(ctx, `
		INSERT INTO documents (id, status, filename, created_at, claimed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, domain.DocUploaded, id+".txt", createdAt, claimedAt)
	if err != nil {
		t.Fatalf("insert document: %v", err)
	}
	return id
}

func truncateDocuments(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE TABLE notifications, assignments, comments, events, documents RESTART IDENTITY CASCADE`)
	return err
}

func integrationPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DATABASE_URL to run integration tests")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Skipf("skip integration test: cannot create pgx pool (%v)", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: cannot reach database (%v)", err)
	}

	return pool
}

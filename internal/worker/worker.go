// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"docpipe/internal/domain"
	"docpipe/internal/metrics"
	"docpipe/internal/pipeline"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentGetter loads a document for processing.
type DocumentGetter interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// Processor runs the stage pipeline for a claimed document.
type Processor interface {
	Process(ctx context.Context, doc *domain.Document) pipeline.Outcome
}

type Deps struct {
	Pool          *pgxpool.Pool
	Docs          DocumentGetter
	Orchestrator  Processor
	Logger        *slog.Logger
	ReclaimAfter  time.Duration
	HTTPClient    *http.Client
	WebhookURL    string
	WebhookSecret string
}

type Worker struct {
	pool          *pgxpool.Pool
	docs          DocumentGetter
	orchestrator  Processor
	logger        *slog.Logger
	reclaimAfter  time.Duration
	httpClient    *http.Client
	webhookURL    string
	webhookSecret string
}

func New(deps Deps) *Worker {
	l := deps.Logger
	if l == nil {
		l = slog.Default()
	}

	reclaim := deps.ReclaimAfter
	if reclaim <= 0 {
		reclaim = 5 * time.Minute
	}

	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Worker{
		pool:          deps.Pool,
		docs:          deps.Docs,
		orchestrator:  deps.Orchestrator,
		logger:        l,
		reclaimAfter:  reclaim,
		httpClient:    client,
		webhookURL:    deps.WebhookURL,
		webhookSecret: deps.WebhookSecret,
	}
}

// ProcessOnce claims at most one uploaded document and runs it through the
// pipeline. A drained queue is not an error.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	start := time.Now()

	documentID, err := w.claimOne(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		w.logger.Error("claim document failed", "error", err)
		return err
	}

	metrics.ObserveWorkerClaimLatency(time.Since(start))
	w.logger.Info("document claimed", "document_id", documentID)

	doc, err := w.docs.GetDocument(ctx, documentID)
	if err != nil {
		w.logger.Error("load claimed document failed", "document_id", documentID, "error", err)
		return err
	}

	outcome := w.orchestrator.Process(ctx, doc)

	w.logger.Info("document processed",
		"document_id", documentID,
		"final_status", outcome.FinalStatus,
		"success", outcome.Success,
		"total_time", outcome.TotalProcessingTime,
	)

	w.deliverTerminalWebhook(ctx, outcome, time.Now().UTC())

	return nil
}

// claimOne picks the oldest unclaimed uploaded document. A stale claim older
// than reclaimAfter is treated as abandoned and handed out again.
func (w *Worker) claimOne(ctx context.Context) (string, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	reclaimBefore := time.Now().Add(-w.reclaimAfter)

	var documentID string
	err = tx.QueryRow(ctx, `
		SELECT id
		FROM documents
		WHERE status = $1
		  AND (claimed_at IS NULL OR claimed_at < $2)
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`,
		domain.DocUploaded,
		reclaimBefore,
	).Scan(&documentID)
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE documents
		SET claimed_at = NOW()
		WHERE id = $1
	`, documentID); err != nil {
		return "", err
	}

	return documentID, tx.Commit(ctx)
}

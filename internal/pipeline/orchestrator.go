// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docpipe/internal/domain"
	"docpipe/internal/metrics"
)

// Outcome is the aggregate result of one pipeline run over a document.
type Outcome struct {
	DocumentID          string                                  `json:"document_id"`
	FinalStatus         domain.DocumentStatus                   `json:"final_status"`
	Results             map[domain.StageName]domain.StageResult `json:"results,omitempty"`
	TotalProcessingTime float64                                 `json:"total_processing_time"`
	Success             bool                                    `json:"success"`
	Error               string                                  `json:"error,omitempty"`
}

type Orchestrator struct {
	store   Store
	workers map[domain.StageName]Stage
	logger  *slog.Logger
}

func NewOrchestrator(store Store, workers Workers, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		workers: workers.registry(),
		logger:  logger,
	}
}

// Process drives a document through the pipeline definition one stage at a
// time. It never returns an error: any failure is folded into the outcome
// and persisted on the document, so store state and the returned outcome
// never disagree.
func (o *Orchestrator) Process(ctx context.Context, doc *domain.Document) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("document processing panicked", "document_id", doc.ID, "panic", r)
			out = o.failureOutcome(ctx, doc.ID, fmt.Sprint(r))
		}
	}()

	o.logger.Info("starting document processing", "document_id", doc.ID)
	return o.run(ctx, doc, o.definition(ctx), 0)
}

// Reprocess resets the document to the expected starting status of fromStage
// and re-runs the pipeline from there. An unknown or empty fromStage starts
// at the beginning. Concurrent reprocessing of the same document is not
// serialized; the last writer wins on the store.
func (o *Orchestrator) Reprocess(ctx context.Context, doc *domain.Document, fromStage domain.StageName) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("document reprocessing panicked", "document_id", doc.ID, "panic", r)
			out = o.failureOutcome(ctx, doc.ID, fmt.Sprint(r))
		}
	}()

	o.logger.Info("reprocessing document", "document_id", doc.ID, "from_stage", fromStage)

	steps := o.definition(ctx)

	startIndex := 0
	if fromStage != "" {
		for i, step := range steps {
			if step.Name == fromStage {
				startIndex = i
				break
			}
		}
	}

	reset := resetStatusForIndex(startIndex)
	if _, err := o.store.UpdateDocument(ctx, doc.ID, domain.DocumentUpdate{Status: &reset}); err != nil {
		o.logger.Error("status reset failed", "document_id", doc.ID, "status", reset, "error", err)
		return o.failureOutcome(ctx, doc.ID, err.Error())
	}

	refreshed, err := o.store.GetDocument(ctx, doc.ID)
	if err != nil {
		o.logger.Error("document fetch after reset failed", "document_id", doc.ID, "error", err)
		return o.failureOutcome(ctx, doc.ID, err.Error())
	}

	return o.run(ctx, refreshed, steps, startIndex)
}

// run is the shared stage loop for Process and Reprocess.
func (o *Orchestrator) run(ctx context.Context, doc *domain.Document, steps []Step, startIndex int) Outcome {
	results := make(map[domain.StageName]domain.StageResult, len(steps))
	current := doc
	started := time.Now()

	for _, step := range steps[startIndex:] {
		if current.Status != step.RequiredStatus {
			// Permissive by design: external state drift is logged, not fatal.
			o.logger.Warn("document not in expected status for stage",
				"document_id", doc.ID,
				"stage", step.Name,
				"current", current.Status,
				"expected", step.RequiredStatus,
			)
		}

		o.logger.Info("running stage", "document_id", doc.ID, "stage", step.Name)
		result := o.invokeStage(ctx, step, current)
		results[step.Name] = result

		if result.Status != domain.ResultSuccess {
			o.logger.Warn("stage failed, stopping run",
				"document_id", doc.ID,
				"stage", step.Name,
				"error", result.Error,
			)
			break
		}

		if result.NextAgent == "" {
			if step.Name == domain.StageClassifier && result.NeedsReview {
				// Review does not stop the pipeline: routing still has to
				// decide the destination.
				o.logger.Info("document flagged for review, continuing to router",
					"document_id", doc.ID,
				)
			} else {
				o.logger.Info("pipeline completed", "document_id", doc.ID, "stage", step.Name)
				break
			}
		}

		refreshed, err := o.store.GetDocument(ctx, doc.ID)
		if err != nil {
			o.logger.Error("document missing after stage, stopping run",
				"document_id", doc.ID,
				"stage", step.Name,
				"error", err,
			)
			break
		}
		current = refreshed
	}

	total := time.Since(started).Seconds()
	final := FinalStatus(results)

	if _, err := o.store.UpdateDocument(ctx, doc.ID, domain.DocumentUpdate{
		Status:              &final,
		TotalProcessingTime: &total,
		AgentResults:        results,
	}); err != nil {
		o.logger.Error("final status update failed", "document_id", doc.ID, "status", final, "error", err)
	}

	metrics.IncPipelineRun(final)
	metrics.IncDocumentStatus(final)

	o.logger.Info("document processing completed",
		"document_id", doc.ID,
		"final_status", final,
		"total_seconds", total,
	)

	return Outcome{
		DocumentID:          doc.ID,
		FinalStatus:         final,
		Results:             results,
		TotalProcessingTime: total,
		Success:             runSucceeded(final),
	}
}

// invokeStage runs one stage worker with wall-clock timing. Worker errors and
// panics are both folded into an error StageResult so a misbehaving stage can
// never take down the run.
func (o *Orchestrator) invokeStage(ctx context.Context, step Step, doc *domain.Document) (result domain.StageResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("stage panicked",
				"document_id", doc.ID,
				"stage", step.Name,
				"panic", r,
			)
			metrics.IncStageExecution(step.Name, domain.ResultError)
			result = domain.StageResult{
				Status: domain.ResultError,
				Error:  fmt.Sprint(r),
			}
		}
	}()

	started := time.Now()
	res, err := step.Worker.Process(ctx, doc)
	elapsed := time.Since(started)

	metrics.ObserveStageDuration(elapsed)

	if err != nil {
		metrics.IncStageExecution(step.Name, domain.ResultError)
		return domain.StageResult{
			Status:         domain.ResultError,
			Error:          err.Error(),
			ProcessingTime: elapsed.Seconds(),
		}
	}

	res.ProcessingTime = elapsed.Seconds()
	metrics.IncStageExecution(step.Name, res.Status)
	return res
}

// failureOutcome persists the failed status and returns the top-level
// failure envelope with no stage breakdown.
func (o *Orchestrator) failureOutcome(ctx context.Context, documentID, message string) Outcome {
	failed := domain.DocFailed
	if _, err := o.store.UpdateDocument(ctx, documentID, domain.DocumentUpdate{Status: &failed}); err != nil {
		o.logger.Error("failure status update failed", "document_id", documentID, "error", err)
	}
	return Outcome{
		DocumentID:  documentID,
		FinalStatus: domain.DocFailed,
		Success:     false,
		Error:       message,
	}
}

func runSucceeded(final domain.DocumentStatus) bool {
	switch final {
	case domain.DocRouted, domain.DocCompleted, domain.DocNeedsReview:
		return true
	}
	return false
}

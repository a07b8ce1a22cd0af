// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"docpipe/internal/domain"
	"docpipe/internal/testsupport"
)

type scriptedStage struct {
	name    domain.StageName
	calls   int
	process func(ctx context.Context, doc *domain.Document) (domain.StageResult, error)
}

func (s *scriptedStage) Name() domain.StageName { return s.name }

func (s *scriptedStage) Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
	s.calls++
	return s.process(ctx, doc)
}

// advanceStage builds a stage that moves the document to newStatus in the
// store and hands off to next, the way the real workers do.
func advanceStage(t *testing.T, store *testsupport.MemoryStore, name domain.StageName, newStatus domain.DocumentStatus, result domain.StageResult) *scriptedStage {
	t.Helper()

	return &scriptedStage{
		name: name,
		process: func(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
			if _, err := store.UpdateDocument(ctx, doc.ID, domain.DocumentUpdate{Status: &newStatus}); err != nil {
				t.Fatalf("stage %s status update: %v", name, err)
			}
			return result, nil
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func happyPathWorkers(t *testing.T, store *testsupport.MemoryStore) (Workers, map[domain.StageName]*scriptedStage) {
	t.Helper()

	ingestor := advanceStage(t, store, domain.StageIngestor, domain.DocIngested, domain.StageResult{
		Status:    domain.ResultSuccess,
		NextAgent: domain.StageExtractor,
	})
	extractor := advanceStage(t, store, domain.StageExtractor, domain.DocExtracted, domain.StageResult{
		Status:    domain.ResultSuccess,
		NextAgent: domain.StageClassifier,
	})
	classifier := advanceStage(t, store, domain.StageClassifier, domain.DocClassified, domain.StageResult{
		Status:       domain.ResultSuccess,
		DocumentType: "invoice",
		NextAgent:    domain.StageRouter,
	})
	router := advanceStage(t, store, domain.StageRouter, domain.DocRouted, domain.StageResult{
		Status:         domain.ResultSuccess,
		Destination:    "accounting_system",
		RoutingSuccess: true,
	})

	workers := Workers{Ingestor: ingestor, Extractor: extractor, Classifier: classifier, Router: router}
	stages := map[domain.StageName]*scriptedStage{
		domain.StageIngestor:   ingestor,
		domain.StageExtractor:  extractor,
		domain.StageClassifier: classifier,
		domain.StageRouter:     router,
	}
	return workers, stages
}

func mustCreateDocument(t *testing.T, store *testsupport.MemoryStore) *domain.Document {
	t.Helper()

	doc, err := store.CreateDocument(context.Background(), domain.Document{OriginalFilename: "doc.txt"})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestProcessHappyPathRoutesDocument(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)
	doc := mustCreateDocument(t, store)

	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if outcome.FinalStatus != domain.DocRouted {
		t.Fatalf("expected final status %s got %s", domain.DocRouted, outcome.FinalStatus)
	}
	if !outcome.Success {
		t.Fatal("expected successful outcome")
	}
	if len(outcome.Results) != 4 {
		t.Fatalf("expected 4 stage results got %d", len(outcome.Results))
	}
	for name, stage := range stages {
		if stage.calls != 1 {
			t.Fatalf("expected stage %s to run once, ran %d times", name, stage.calls)
		}
	}

	stored, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if stored.Status != domain.DocRouted {
		t.Fatalf("expected stored status %s got %s", domain.DocRouted, stored.Status)
	}
	if stored.TotalProcessingTime == nil {
		t.Fatal("expected total processing time to be persisted")
	}
	if len(stored.AgentResults) != 4 {
		t.Fatalf("expected 4 persisted agent results got %d", len(stored.AgentResults))
	}
	if stored.AgentResults[domain.StageRouter].Destination != "accounting_system" {
		t.Fatalf("expected router destination to be persisted, got %+v", stored.AgentResults[domain.StageRouter])
	}
}

func TestProcessStopsOnStageError(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	failing := &scriptedStage{
		name: domain.StageExtractor,
		process: func(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
			return domain.StageResult{}, errors.New("corrupt file")
		},
	}
	workers.Extractor = failing

	doc := mustCreateDocument(t, store)
	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if outcome.FinalStatus != domain.DocFailed {
		t.Fatalf("expected final status %s got %s", domain.DocFailed, outcome.FinalStatus)
	}
	if outcome.Success {
		t.Fatal("expected unsuccessful outcome")
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 stage results got %d", len(outcome.Results))
	}
	if got := outcome.Results[domain.StageExtractor]; got.Status != domain.ResultError || got.Error != "corrupt file" {
		t.Fatalf("expected extractor error result, got %+v", got)
	}
	if stages[domain.StageClassifier].calls != 0 {
		t.Fatal("expected classifier not to run after extractor failure")
	}

	stored, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if stored.Status != domain.DocFailed {
		t.Fatalf("expected stored status %s got %s", domain.DocFailed, stored.Status)
	}
}

func TestProcessNeedsReviewStillRoutes(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	// classifier flags review and names no successor, routing must still run
	workers.Classifier = advanceStage(t, store, domain.StageClassifier, domain.DocNeedsReview, domain.StageResult{
		Status:      domain.ResultSuccess,
		NeedsReview: true,
	})

	doc := mustCreateDocument(t, store)
	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if stages[domain.StageRouter].calls != 1 {
		t.Fatal("expected router to run for a document under review")
	}
	if outcome.FinalStatus != domain.DocRouted {
		t.Fatalf("expected final status %s got %s", domain.DocRouted, outcome.FinalStatus)
	}
	if !outcome.Success {
		t.Fatal("expected successful outcome")
	}
}

func TestProcessStopsWhenClassifierEndsWithoutReview(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	workers.Classifier = advanceStage(t, store, domain.StageClassifier, domain.DocClassified, domain.StageResult{
		Status:       domain.ResultSuccess,
		DocumentType: "report",
	})

	doc := mustCreateDocument(t, store)
	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if stages[domain.StageRouter].calls != 0 {
		t.Fatal("expected router not to run when classifier ends the pipeline")
	}
	if outcome.FinalStatus != domain.DocClassified {
		t.Fatalf("expected final status %s got %s", domain.DocClassified, outcome.FinalStatus)
	}
	if outcome.Success {
		t.Fatal("classified is not a terminal success status")
	}
}

func TestProcessContainsStagePanic(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, _ := happyPathWorkers(t, store)

	workers.Ingestor = &scriptedStage{
		name: domain.StageIngestor,
		process: func(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
			panic("ingest blew up")
		},
	}

	doc := mustCreateDocument(t, store)
	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if outcome.FinalStatus != domain.DocFailed {
		t.Fatalf("expected final status %s got %s", domain.DocFailed, outcome.FinalStatus)
	}
	got := outcome.Results[domain.StageIngestor]
	if got.Status != domain.ResultError || got.Error != "ingest blew up" {
		t.Fatalf("expected contained panic in stage result, got %+v", got)
	}
}

func TestProcessStopsWhenDocumentVanishes(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	doc := mustCreateDocument(t, store)

	workers.Ingestor = &scriptedStage{
		name: domain.StageIngestor,
		process: func(ctx context.Context, d *domain.Document) (domain.StageResult, error) {
			if _, err := store.DeleteDocument(ctx, d.ID); err != nil {
				t.Fatalf("delete document: %v", err)
			}
			return domain.StageResult{Status: domain.ResultSuccess, NextAgent: domain.StageExtractor}, nil
		},
	}

	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Process(ctx, doc)

	if stages[domain.StageExtractor].calls != 0 {
		t.Fatal("expected run to stop once the document disappeared")
	}
	if outcome.FinalStatus != domain.DocIngested {
		t.Fatalf("expected final status %s got %s", domain.DocIngested, outcome.FinalStatus)
	}
	if outcome.Success {
		t.Fatal("expected unsuccessful outcome")
	}
}

func TestReprocessFromClassifier(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	var observedStatus domain.DocumentStatus
	classifier := stages[domain.StageClassifier]
	inner := classifier.process
	classifier.process = func(ctx context.Context, d *domain.Document) (domain.StageResult, error) {
		observedStatus = d.Status
		return inner(ctx, d)
	}

	doc := mustCreateDocument(t, store)
	routed := domain.DocRouted
	if _, err := store.UpdateDocument(ctx, doc.ID, domain.DocumentUpdate{Status: &routed}); err != nil {
		t.Fatalf("seed routed status: %v", err)
	}

	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Reprocess(ctx, doc, domain.StageClassifier)

	if stages[domain.StageIngestor].calls != 0 || stages[domain.StageExtractor].calls != 0 {
		t.Fatal("expected earlier stages to be skipped")
	}
	if observedStatus != domain.DocExtracted {
		t.Fatalf("expected document reset to %s before classification, saw %s", domain.DocExtracted, observedStatus)
	}
	if outcome.FinalStatus != domain.DocRouted {
		t.Fatalf("expected final status %s got %s", domain.DocRouted, outcome.FinalStatus)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected classifier and router results got %d", len(outcome.Results))
	}
}

func TestReprocessUnknownStageStartsOver(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, stages := happyPathWorkers(t, store)

	doc := mustCreateDocument(t, store)
	classified := domain.DocClassified
	if _, err := store.UpdateDocument(ctx, doc.ID, domain.DocumentUpdate{Status: &classified}); err != nil {
		t.Fatalf("seed classified status: %v", err)
	}

	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Reprocess(ctx, doc, domain.StageName("shredder"))

	if stages[domain.StageIngestor].calls != 1 {
		t.Fatal("expected run to restart from the first stage")
	}
	if outcome.FinalStatus != domain.DocRouted {
		t.Fatalf("expected final status %s got %s", domain.DocRouted, outcome.FinalStatus)
	}
	if len(outcome.Results) != 4 {
		t.Fatalf("expected full stage breakdown got %d results", len(outcome.Results))
	}
}

func TestReprocessMissingDocumentFails(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	workers, _ := happyPathWorkers(t, store)

	o := NewOrchestrator(store, workers, testLogger())
	outcome := o.Reprocess(ctx, &domain.Document{ID: "missing"}, domain.StageIngestor)

	if outcome.FinalStatus != domain.DocFailed {
		t.Fatalf("expected final status %s got %s", domain.DocFailed, outcome.FinalStatus)
	}
	if outcome.Error == "" {
		t.Fatal("expected failure envelope to carry an error")
	}
	if len(outcome.Results) != 0 {
		t.Fatalf("expected no stage breakdown got %d results", len(outcome.Results))
	}
}

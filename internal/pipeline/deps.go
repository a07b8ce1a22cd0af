// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"

	"docpipe/internal/domain"
)

// Store is the slice of the persistence layer the orchestrator consumes.
// Implementations must provide read-your-writes consistency per document:
// an update committed by one stage is visible to the refresh that follows it.
type Store interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error)
	ListDocuments(ctx context.Context, filters domain.ListFilters) ([]domain.Document, error)
	ListEvents(ctx context.Context, documentID string) ([]domain.EventRecord, error)
	GetPipelineConfig(ctx context.Context) (domain.PipelineConfig, error)
}

// Stage is one unit of pipeline work. Process may block on I/O and may
// return an error; the orchestrator contains both errors and panics to the
// invoking stage.
type Stage interface {
	Name() domain.StageName
	Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error)
}

// Workers is the fixed worker set. The orchestrator resolves the configured
// stage order against it at construction time; there is no per-call lookup
// by arbitrary name.
type Workers struct {
	Ingestor   Stage
	Extractor  Stage
	Classifier Stage
	Router     Stage
}

func (w Workers) registry() map[domain.StageName]Stage {
	return map[domain.StageName]Stage{
		domain.StageIngestor:   w.Ingestor,
		domain.StageExtractor:  w.Extractor,
		domain.StageClassifier: w.Classifier,
		domain.StageRouter:     w.Router,
	}
}

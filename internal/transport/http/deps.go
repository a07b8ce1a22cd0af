// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"docpipe/internal/domain"
	"docpipe/internal/pipeline"
)

type DocumentStore interface {
	CreateDocument(ctx context.Context, doc domain.Document) (*domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, filters domain.ListFilters) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
}

type EventLister interface {
	ListEvents(ctx context.Context, documentID string) ([]domain.EventRecord, error)
}

// PipelineRunner is the orchestrator surface the API needs.
type PipelineRunner interface {
	Reprocess(ctx context.Context, doc *domain.Document, fromStage domain.StageName) pipeline.Outcome
	GetProcessingStatus(ctx context.Context, documentID string) (domain.ProcessingStatus, error)
	Statistics(ctx context.Context) (domain.PipelineStatistics, error)
	Summary(ctx context.Context) (domain.PipelineSummary, error)
	UserSummary(ctx context.Context, userEmail string) (domain.PipelineSummary, error)
}

type CollaborationStore interface {
	CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	ListComments(ctx context.Context, documentID string) ([]domain.Comment, error)
	CreateAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)
	ListAssignments(ctx context.Context, documentID string) ([]domain.Assignment, error)
	CreateNotification(ctx context.Context, notification domain.Notification) (domain.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
}

type PipelineConfigStore interface {
	GetPipelineConfig(ctx context.Context) (domain.PipelineConfig, error)
	SavePipelineConfig(ctx context.Context, cfg domain.PipelineConfig) error
}

type HealthChecker interface {
	Check(ctx context.Context) error
}

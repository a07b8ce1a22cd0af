// SPDX-License-Identifier: Apache-2.0

// Package stages holds the four pipeline stage workers. Each worker records
// audit events and updates the document in the store; the orchestrator only
// sees the StageResult it returns.
package stages

import (
	"context"
	"log/slog"

	"docpipe/internal/domain"
)

// Store is the slice of the persistence layer the stage workers consume.
type Store interface {
	UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error)
	CreateEvent(ctx context.Context, event domain.EventRecord) (domain.EventRecord, error)
	ListAssignments(ctx context.Context, documentID string) ([]domain.Assignment, error)
	CreateNotification(ctx context.Context, notification domain.Notification) (domain.Notification, error)
}

// agent is the shared base of every stage worker: event logging with
// fan-out notifications to assigned users, and status updates.
type agent struct {
	name   domain.StageName
	store  Store
	logger *slog.Logger
}

func newAgent(name domain.StageName, store Store, logger *slog.Logger) agent {
	if logger == nil {
		logger = slog.Default()
	}
	return agent{
		name:   name,
		store:  store,
		logger: logger.With("agent", string(name)),
	}
}

func (a agent) Name() domain.StageName {
	return a.name
}

// logEvent appends an audit event and notifies assigned users. Logging is
// best effort: a failed write never fails the stage.
func (a agent) logEvent(
	ctx context.Context,
	doc *domain.Document,
	eventType domain.EventType,
	status domain.EventStatus,
	message string,
	details map[string]any,
	processingTime *float64,
) {
	event, err := a.store.CreateEvent(ctx, domain.EventRecord{
		DocumentID:     doc.ID,
		AgentName:      a.name,
		EventType:      eventType,
		Status:         status,
		Message:        message,
		Details:        details,
		ProcessingTime: processingTime,
	})
	if err != nil {
		a.logger.Error("event write failed", "document_id", doc.ID, "event_type", eventType, "error", err)
		return
	}

	assignments, err := a.store.ListAssignments(ctx, doc.ID)
	if err != nil {
		a.logger.Error("assignment lookup failed", "document_id", doc.ID, "error", err)
		return
	}

	for _, assignment := range assignments {
		if assignment.UserID == "" || assignment.UserID == string(a.name) {
			continue
		}
		if _, err := a.store.CreateNotification(ctx, domain.Notification{
			UserID:     assignment.UserID,
			Type:       "event",
			DocumentID: doc.ID,
			Payload: map[string]any{
				"event_type": string(eventType),
				"agent_name": string(a.name),
				"message":    message,
				"created_at": event.CreatedAt,
			},
		}); err != nil {
			a.logger.Error("notification write failed",
				"document_id", doc.ID,
				"user_id", assignment.UserID,
				"error", err,
			)
		}
	}
}

func (a agent) updateStatus(ctx context.Context, doc *domain.Document, status domain.DocumentStatus, update domain.DocumentUpdate) {
	update.Status = &status
	if _, err := a.store.UpdateDocument(ctx, doc.ID, update); err != nil {
		a.logger.Error("document update failed", "document_id", doc.ID, "status", status, "error", err)
		return
	}
	a.logger.Info("document status updated", "document_id", doc.ID, "status", status)
}

// markFailed records the failure event and flips the document to failed.
// Called by stages right before returning their error to the orchestrator.
func (a agent) markFailed(ctx context.Context, doc *domain.Document, cause error) {
	a.logEvent(ctx, doc, domain.EventFailed, domain.EventError, cause.Error(), nil, nil)
	a.updateStatus(ctx, doc, domain.DocFailed, domain.DocumentUpdate{})
}

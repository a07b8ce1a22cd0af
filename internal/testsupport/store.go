// SPDX-License-Identifier: Apache-2.0

// Package testsupport provides an in-memory document store used as a test
// double for the Postgres repositories.
package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"docpipe/internal/domain"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu            sync.Mutex
	documents     map[string]domain.Document
	events        map[string][]domain.EventRecord
	comments      map[string][]domain.Comment
	assignments   map[string][]domain.Assignment
	notifications map[string][]domain.Notification
	pipeline      domain.PipelineConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:     make(map[string]domain.Document),
		events:        make(map[string][]domain.EventRecord),
		comments:      make(map[string][]domain.Comment),
		assignments:   make(map[string][]domain.Assignment),
		notifications: make(map[string][]domain.Notification),
	}
}

func (s *MemoryStore) CreateDocument(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = domain.DocUploaded
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	s.documents[doc.ID] = doc
	out := doc
	return &out, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := doc
	return &out, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	if update.Status != nil {
		doc.Status = *update.Status
	}
	if update.DocumentType != nil {
		doc.DocumentType = *update.DocumentType
	}
	if update.ConfidenceScore != nil {
		doc.ConfidenceScore = update.ConfidenceScore
	}
	if update.Priority != nil {
		doc.Priority = *update.Priority
	}
	if update.Entities != nil {
		doc.Entities = update.Entities
	}
	if update.Metadata != nil {
		doc.Metadata = update.Metadata
	}
	if update.ComplianceFlags != nil {
		doc.ComplianceFlags = update.ComplianceFlags
	}
	if update.ExtractedText != nil {
		doc.ExtractedText = *update.ExtractedText
	}
	if update.RoutingDestination != nil {
		doc.RoutingDestination = *update.RoutingDestination
	}
	if update.ProcessingNotes != nil {
		doc.ProcessingNotes = *update.ProcessingNotes
	}
	if update.TotalProcessingTime != nil {
		doc.TotalProcessingTime = update.TotalProcessingTime
	}
	if update.AgentResults != nil {
		doc.AgentResults = update.AgentResults
	}
	doc.UpdatedAt = time.Now().UTC()

	s.documents[id] = doc
	out := doc
	return &out, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, filters domain.ListFilters) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if filters.Status != "" && doc.Status != filters.Status {
			continue
		}
		if filters.DocumentType != "" && doc.DocumentType != filters.DocumentType {
			continue
		}
		if filters.UserID != "" && doc.UserID != filters.UserID {
			continue
		}
		if filters.UserEmail != "" && doc.UserEmail != filters.UserEmail {
			continue
		}
		if filters.UserRole != "" && doc.UserRole != filters.UserRole {
			continue
		}
		out = append(out, doc)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return false, nil
	}
	delete(s.documents, id)
	delete(s.events, id)
	delete(s.comments, id)
	delete(s.assignments, id)
	return true, nil
}

func (s *MemoryStore) CreateEvent(ctx context.Context, event domain.EventRecord) (domain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	s.events[event.DocumentID] = append(s.events[event.DocumentID], event)
	return event, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, documentID string) ([]domain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events[documentID]
	out := make([]domain.EventRecord, len(events))
	copy(out, events)
	return out, nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now().UTC()
	s.comments[comment.DocumentID] = append(s.comments[comment.DocumentID], comment)
	return comment, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, documentID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := s.comments[documentID]
	out := make([]domain.Comment, len(comments))
	copy(out, comments)
	return out, nil
}

func (s *MemoryStore) CreateAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	assignment.CreatedAt = time.Now().UTC()
	s.assignments[assignment.DocumentID] = append(s.assignments[assignment.DocumentID], assignment)
	return assignment, nil
}

func (s *MemoryStore) ListAssignments(ctx context.Context, documentID string) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignments := s.assignments[documentID]
	out := make([]domain.Assignment, len(assignments))
	copy(out, assignments)
	return out, nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notification.CreatedAt = time.Now().UTC()
	s.notifications[notification.UserID] = append(s.notifications[notification.UserID], notification)
	return notification, nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := s.notifications[userID]
	out := make([]domain.Notification, len(notifications))
	copy(out, notifications)
	return out, nil
}

func (s *MemoryStore) GetPipelineConfig(ctx context.Context) (domain.PipelineConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline, nil
}

func (s *MemoryStore) SavePipelineConfig(ctx context.Context, cfg domain.PipelineConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = cfg
	return nil
}

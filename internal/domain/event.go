// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string
type EventStatus string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

const (
	EventOK      EventStatus = "success"
	EventWarning EventStatus = "warning"
	EventError   EventStatus = "error"
)

// EventRecord is an append-only audit entry. Events are never mutated and are
// only removed by cascading delete of the parent document.
type EventRecord struct {
	ID             uuid.UUID      `json:"id"`
	DocumentID     string         `json:"document_id"`
	AgentName      StageName      `json:"agent_name"`
	EventType      EventType      `json:"event_type"`
	Status         EventStatus    `json:"status"`
	Message        string         `json:"message,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
	ProcessingTime *float64       `json:"processing_time,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

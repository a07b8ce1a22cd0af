// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type Assignment struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	AssignedBy string    `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Notification struct {
	ID         uuid.UUID      `json:"id"`
	UserID     string         `json:"user_id"`
	Type       string         `json:"type"`
	DocumentID string         `json:"document_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

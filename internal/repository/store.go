// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates the repositories into the single persistence surface the
// orchestrator and stage workers consume.
type Store struct {
	*DocumentRepository
	*EventRepository
	*CollaborationRepository
	*PipelineConfigRepository
}

func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		DocumentRepository:       NewDocumentRepository(pool, logger),
		EventRepository:          NewEventRepository(pool, logger),
		CollaborationRepository:  NewCollaborationRepository(pool, logger),
		PipelineConfigRepository: NewPipelineConfigRepository(pool, logger),
	}
}

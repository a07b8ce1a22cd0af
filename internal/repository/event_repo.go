// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"docpipe/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewEventRepository(pool *pgxpool.Pool, logger *slog.Logger) *EventRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.EventRecord) (domain.EventRecord, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, document_id, agent_name, event_type, status, message, details, processing_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, document_id, agent_name, event_type, status, message, details, processing_time, created_at`,
		event.ID,
		event.DocumentID,
		event.AgentName,
		event.EventType,
		event.Status,
		event.Message,
		event.Details,
		event.ProcessingTime,
	)

	var created domain.EventRecord
	if err := row.Scan(
		&created.ID,
		&created.DocumentID,
		&created.AgentName,
		&created.EventType,
		&created.Status,
		&created.Message,
		&created.Details,
		&created.ProcessingTime,
		&created.CreatedAt,
	); err != nil {
		r.logger.Error("insert event failed", "document_id", event.DocumentID, "agent", event.AgentName, "error", err)
		return domain.EventRecord{}, err
	}

	return created, nil
}

// ListEvents returns a document's events oldest first.
func (r *EventRepository) ListEvents(ctx context.Context, documentID string) ([]domain.EventRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, agent_name, event_type, status, message, details, processing_time, created_at
		FROM events
		WHERE document_id=$1
		ORDER BY created_at ASC`,
		documentID,
	)
	if err != nil {
		r.logger.Error("list events query failed", "document_id", documentID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EventRecord, 0, 16)
	for rows.Next() {
		var ev domain.EventRecord
		if err := rows.Scan(
			&ev.ID,
			&ev.DocumentID,
			&ev.AgentName,
			&ev.EventType,
			&ev.Status,
			&ev.Message,
			&ev.Details,
			&ev.ProcessingTime,
			&ev.CreatedAt,
		); err != nil {
			r.logger.Error("scan event row failed", "document_id", documentID, "error", err)
			return nil, err
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("events rows iteration failed", "document_id", documentID, "error", err)
		return nil, err
	}

	return out, nil
}

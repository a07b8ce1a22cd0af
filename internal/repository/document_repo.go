// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docpipe/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `
	id, status, filename, original_filename, file_path, file_size, mime_type,
	user_id, user_email, user_role, document_type, confidence_score, priority,
	entities, metadata, compliance_flags, extracted_text, routing_destination,
	processing_notes, total_processing_time, agent_results, created_at, updated_at`

type DocumentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) *DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &DocumentRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = domain.DocUploaded
	}
	if doc.Entities == nil {
		doc.Entities = map[string]any{}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	if doc.ComplianceFlags == nil {
		doc.ComplianceFlags = []string{}
	}
	if doc.AgentResults == nil {
		doc.AgentResults = map[domain.StageName]domain.StageResult{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO documents (
			id, status, filename, original_filename, file_path, file_size,
			mime_type, user_id, user_email, user_role, priority, entities,
			metadata, compliance_flags, agent_results
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING `+documentColumns,
		doc.ID,
		doc.Status,
		doc.Filename,
		doc.OriginalFilename,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		doc.UserID,
		doc.UserEmail,
		doc.UserRole,
		doc.Priority,
		doc.Entities,
		doc.Metadata,
		doc.ComplianceFlags,
		doc.AgentResults,
	)

	created, err := scanDocument(row)
	if err != nil {
		r.logger.Error("insert document failed", "document_id", doc.ID, "error", err)
		return nil, err
	}

	r.logger.Info("document created", "document_id", created.ID)
	return created, nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id=$1`,
		id,
	)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		r.logger.Error("get document failed", "document_id", id, "error", err)
		return nil, err
	}

	return doc, nil
}

// UpdateDocument applies a partial update and returns the updated row.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) (*domain.Document, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.DocumentType != nil {
		add("document_type", *update.DocumentType)
	}
	if update.ConfidenceScore != nil {
		add("confidence_score", *update.ConfidenceScore)
	}
	if update.Priority != nil {
		add("priority", *update.Priority)
	}
	if update.Entities != nil {
		add("entities", update.Entities)
	}
	if update.Metadata != nil {
		add("metadata", update.Metadata)
	}
	if update.ComplianceFlags != nil {
		add("compliance_flags", update.ComplianceFlags)
	}
	if update.ExtractedText != nil {
		add("extracted_text", *update.ExtractedText)
	}
	if update.RoutingDestination != nil {
		add("routing_destination", *update.RoutingDestination)
	}
	if update.ProcessingNotes != nil {
		add("processing_notes", *update.ProcessingNotes)
	}
	if update.TotalProcessingTime != nil {
		add("total_processing_time", *update.TotalProcessingTime)
	}
	if update.AgentResults != nil {
		add("agent_results", update.AgentResults)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE documents SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "),
		len(args),
		documentColumns,
	)

	doc, err := scanDocument(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		r.logger.Error("update document failed", "document_id", id, "error", err)
		return nil, err
	}

	return doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context, filters domain.ListFilters) ([]domain.Document, error) {
	where := []string{}
	args := []any{}

	filter := func(column string, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	filter("status", string(filters.Status))
	filter("document_type", filters.DocumentType)
	filter("user_id", filters.UserID)
	filter("user_email", filters.UserEmail)
	filter("user_role", filters.UserRole)

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("list documents query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Document, 0, 16)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			r.logger.Error("scan document row failed", "error", err)
			return nil, err
		}
		out = append(out, *doc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("documents rows iteration failed", "error", err)
		return nil, err
	}

	return out, nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		r.logger.Error("delete document failed", "document_id", id, "error", err)
		return false, err
	}

	deleted := cmd.RowsAffected() > 0
	if deleted {
		r.logger.Info("document deleted", "document_id", id)
	}
	return deleted, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document

	if err := row.Scan(
		&doc.ID,
		&doc.Status,
		&doc.Filename,
		&doc.OriginalFilename,
		&doc.FilePath,
		&doc.FileSize,
		&doc.MimeType,
		&doc.UserID,
		&doc.UserEmail,
		&doc.UserRole,
		&doc.DocumentType,
		&doc.ConfidenceScore,
		&doc.Priority,
		&doc.Entities,
		&doc.Metadata,
		&doc.ComplianceFlags,
		&doc.ExtractedText,
		&doc.RoutingDestination,
		&doc.ProcessingNotes,
		&doc.TotalProcessingTime,
		&doc.AgentResults,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &doc, nil
}

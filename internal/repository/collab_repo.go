// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"docpipe/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollaborationRepository persists comments, assignments and notifications.
type CollaborationRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCollaborationRepository(pool *pgxpool.Pool, logger *slog.Logger) *CollaborationRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &CollaborationRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *CollaborationRepository) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO comments (id, document_id, user_id, body)
		VALUES ($1,$2,$3,$4)
		RETURNING id, document_id, user_id, body, created_at`,
		comment.ID,
		comment.DocumentID,
		comment.UserID,
		comment.Text,
	)

	var created domain.Comment
	if err := row.Scan(&created.ID, &created.DocumentID, &created.UserID, &created.Text, &created.CreatedAt); err != nil {
		r.logger.Error("insert comment failed", "document_id", comment.DocumentID, "error", err)
		return domain.Comment{}, err
	}

	return created, nil
}

func (r *CollaborationRepository) ListComments(ctx context.Context, documentID string) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, user_id, body, created_at
		FROM comments
		WHERE document_id=$1
		ORDER BY created_at ASC`,
		documentID,
	)
	if err != nil {
		r.logger.Error("list comments query failed", "document_id", documentID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Comment, 0, 8)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *CollaborationRepository) CreateAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (id, document_id, user_id, assigned_by)
		VALUES ($1,$2,$3,$4)
		RETURNING id, document_id, user_id, assigned_by, created_at`,
		assignment.ID,
		assignment.DocumentID,
		assignment.UserID,
		assignment.AssignedBy,
	)

	var created domain.Assignment
	if err := row.Scan(&created.ID, &created.DocumentID, &created.UserID, &created.AssignedBy, &created.CreatedAt); err != nil {
		r.logger.Error("insert assignment failed", "document_id", assignment.DocumentID, "error", err)
		return domain.Assignment{}, err
	}

	return created, nil
}

func (r *CollaborationRepository) ListAssignments(ctx context.Context, documentID string) ([]domain.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, user_id, assigned_by, created_at
		FROM assignments
		WHERE document_id=$1
		ORDER BY created_at ASC`,
		documentID,
	)
	if err != nil {
		r.logger.Error("list assignments query failed", "document_id", documentID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Assignment, 0, 8)
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.UserID, &a.AssignedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *CollaborationRepository) CreateNotification(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}

	var docID *string
	if notification.DocumentID != "" {
		docID = &notification.DocumentID
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, document_id, payload)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, user_id, type, document_id, payload, created_at`,
		notification.ID,
		notification.UserID,
		notification.Type,
		docID,
		notification.Payload,
	)

	created, err := scanNotification(row)
	if err != nil {
		r.logger.Error("insert notification failed", "user_id", notification.UserID, "error", err)
		return domain.Notification{}, err
	}

	return *created, nil
}

// ListNotifications returns a user's notifications newest first.
func (r *CollaborationRepository) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, document_id, payload, created_at
		FROM notifications
		WHERE user_id=$1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		r.logger.Error("list notifications query failed", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Notification, 0, 8)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}

	return out, rows.Err()
}

func scanNotification(row interface{ Scan(...any) error }) (*domain.Notification, error) {
	var (
		n     domain.Notification
		docID *string
	)

	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &docID, &n.Payload, &n.CreatedAt); err != nil {
		return nil, err
	}
	if docID != nil {
		n.DocumentID = *docID
	}

	return &n, nil
}

// Package inapp persists delivered notifications for the in-app feed.
package inapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is a delivered in-app notification.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	ReceiverType string     `json:"receiverType"`
	ReceiverID   *uuid.UUID `json:"receiverId,omitempty"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Type         string     `json:"type"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CreateParams are the fields required to store a notification.
type CreateParams struct {
	ReceiverType string
	ReceiverID   *uuid.UUID
	Title        string
	Message      string
	Type         string
}

// Repository provides database operations for delivered notifications.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new in-app notification repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores a delivered notification.
func (r *Repository) Create(ctx context.Context, p CreateParams) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, errors.New("inapp repository not configured")
	}
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, receiver_type, receiver_id, title, message, type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		uuid.New(), p.ReceiverType, p.ReceiverID, p.Title, p.Message, p.Type,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListForReceiver returns the newest notifications for a receiver.
func (r *Repository) ListForReceiver(ctx context.Context, receiverType string, receiverID uuid.UUID, limit int) ([]Notification, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("inapp repository not configured")
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, receiver_type, receiver_id, title, message, type, read_at, created_at
		 FROM notifications
		 WHERE receiver_type = $1 AND (receiver_id = $2 OR receiver_id IS NULL)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		receiverType, receiverID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ReceiverType, &n.ReceiverID, &n.Title, &n.Message, &n.Type, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// CountUnread returns the number of unread notifications for a receiver.
func (r *Repository) CountUnread(ctx context.Context, receiverType string, receiverID uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("inapp repository not configured")
	}
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications
		 WHERE receiver_type = $1 AND (receiver_id = $2 OR receiver_id IS NULL) AND read_at IS NULL`,
		receiverType, receiverID,
	).Scan(&count)
	return count, err
}

// MarkRead marks a notification as read.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New("inapp repository not configured")
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE id = $1 AND read_at IS NULL`, id)
	return err
}

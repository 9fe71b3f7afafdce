// Package outbox stores notification intents transactionally with the
// workflow mutation that caused them. Rows are written inside the mutating
// transaction; delivery happens only after commit, when the scheduler claims
// pending rows and hands them to the dispatcher.
package outbox

import (
	"context"
	"errors"
	"time"

	"petcare_ops_backend/internal/billing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiverType identifies the audience of a notification.
type ReceiverType string

const (
	ReceiverUser     ReceiverType = "user"
	ReceiverEmployee ReceiverType = "employee"
	ReceiverAdmin    ReceiverType = "admin"
)

// Status is the delivery state of an outbox record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

const errRepoNotConfigured = "outbox repository not configured"

// Record is a stored notification intent.
type Record struct {
	ID           uuid.UUID
	ReceiverType ReceiverType
	ReceiverID   *uuid.UUID // nil for admin broadcasts
	Title        string
	Message      string
	Type         string
	RunAt        time.Time
	Status       Status
	Attempts     int
}

// InsertParams are the fields required to enqueue a notification intent.
type InsertParams struct {
	ReceiverType ReceiverType
	ReceiverID   *uuid.UUID
	Title        string
	Message      string
	Type         string
	RunAt        time.Time
}

// Repository provides database operations for the notification outbox.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new outbox repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx writes a notification intent using the caller's transaction so the
// intent rolls back together with the workflow mutation.
func InsertTx(ctx context.Context, q billing.DBTX, p InsertParams) (uuid.UUID, error) {
	if p.ReceiverType == "" {
		return uuid.Nil, errors.New("receiverType is required")
	}
	if p.Title == "" {
		return uuid.Nil, errors.New("title is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	var id uuid.UUID
	err := q.QueryRow(ctx,
		`INSERT INTO notification_outbox (id, receiver_type, receiver_id, title, message, type, run_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		uuid.New(), string(p.ReceiverType), p.ReceiverID, p.Title, p.Message, p.Type, p.RunAt, string(StatusPending),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetByID retrieves a single outbox record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if r == nil || r.pool == nil {
		return Record{}, errors.New(errRepoNotConfigured)
	}

	var rec Record
	var status string
	var receiverType string
	err := r.pool.QueryRow(ctx,
		`SELECT id, receiver_type, receiver_id, title, message, type, run_at, status, attempts
		 FROM notification_outbox
		 WHERE id = $1`,
		id,
	).Scan(&rec.ID, &receiverType, &rec.ReceiverID, &rec.Title, &rec.Message, &rec.Type, &rec.RunAt, &status, &rec.Attempts)
	if err != nil {
		return Record{}, err
	}
	rec.ReceiverType = ReceiverType(receiverType)
	rec.Status = Status(status)
	return rec, nil
}

// ClaimPending atomically claims up to limit pending records, marking them
// enqueued so concurrent dispatchers never claim the same row twice.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.receiver_type, o.receiver_id, o.title, o.message, o.type, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		var receiverType string
		if err := rows.Scan(&rec.ID, &receiverType, &rec.ReceiverID, &rec.Title, &rec.Message, &rec.Type, &rec.RunAt, &status, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.ReceiverType = ReceiverType(receiverType)
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkPending returns a record to the pending state for retry.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'pending', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}

// MarkProcessing marks a record as in delivery and bumps its attempt counter.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

// MarkSucceeded records a successful delivery.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

// MarkFailed records a permanently failed delivery.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_outbox
		 SET status = 'failed', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}

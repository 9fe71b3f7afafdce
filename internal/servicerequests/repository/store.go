package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petcare_ops_backend/internal/billing"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the set of operations available inside a workflow transaction.
// GetRequestForUpdate locks the request row, which serializes racing accepts
// and rejects for the same request.
type Tx interface {
	GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)
	UpdateRequest(ctx context.Context, id uuid.UUID, st status.RequestStatus, primary *uuid.UUID) error
	ReplaceAssignments(ctx context.Context, requestID uuid.UUID, employeeIDs []uuid.UUID) error
	GetAssignment(ctx context.Context, requestID, employeeID uuid.UUID) (*Assignment, error)
	SetAssignmentStatus(ctx context.Context, requestID, employeeID uuid.UUID, st status.AssignmentStatus) error
	CancelOutstandingOffers(ctx context.Context, requestID uuid.UUID, exceptEmployeeID *uuid.UUID) error
	ListOutstandingOffers(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error)
	SetQuotedPrice(ctx context.Context, id uuid.UUID, priceCents int64) error
	InvoiceExists(ctx context.Context, sourceID uuid.UUID) (bool, error)
	InsertInvoice(ctx context.Context, inv *billing.Invoice, line billing.Line) error
	AppendHistory(ctx context.Context, entry billing.HistoryEntry) error
	InsertNotification(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Store opens workflow transactions against the service request tables.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new transactional store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx runs fn inside a transaction, committing on nil and rolling back on
// error.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(ptx pgx.Tx) error {
		return fn(&pgxTx{tx: ptx})
	})
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("service request not found")
		}
		return nil, fmt.Errorf("failed to lock service request: %w", err)
	}
	return req, nil
}

func (t *pgxTx) UpdateRequest(ctx context.Context, id uuid.UUID, st status.RequestStatus, primary *uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE service_requests SET status = $2, employee_id = $3, updated_at = now() WHERE id = $1`,
		id, string(st), primary,
	)
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	return nil
}

// ReplaceAssignments clears the junction and writes one offered row per
// employee. Runs under the request row lock, so a concurrent accept of the
// previous offer set cannot interleave.
func (t *pgxTx) ReplaceAssignments(ctx context.Context, requestID uuid.UUID, employeeIDs []uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM employee_assignments WHERE request_id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for _, employeeID := range employeeIDs {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO employee_assignments (id, request_id, employee_id, status)
			 VALUES ($1, $2, $3, $4)`,
			uuid.New(), requestID, employeeID, string(status.AssignmentOffered),
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}
	return nil
}

func (t *pgxTx) GetAssignment(ctx context.Context, requestID, employeeID uuid.UUID) (*Assignment, error) {
	var a Assignment
	var st string
	err := t.tx.QueryRow(ctx,
		`SELECT id, request_id, employee_id, status, created_at, updated_at
		 FROM employee_assignments
		 WHERE request_id = $1 AND employee_id = $2`,
		requestID, employeeID,
	).Scan(&a.ID, &a.RequestID, &a.EmployeeID, &st, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("assignment not found")
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	a.Status = status.AssignmentStatus(st)
	return &a, nil
}

func (t *pgxTx) SetAssignmentStatus(ctx context.Context, requestID, employeeID uuid.UUID, st status.AssignmentStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE employee_assignments SET status = $3, updated_at = now()
		 WHERE request_id = $1 AND employee_id = $2`,
		requestID, employeeID, string(st),
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	return nil
}

func (t *pgxTx) CancelOutstandingOffers(ctx context.Context, requestID uuid.UUID, exceptEmployeeID *uuid.UUID) error {
	query := `UPDATE employee_assignments SET status = $2, updated_at = now()
		WHERE request_id = $1 AND status = $3`
	args := []any{requestID, string(status.AssignmentCancelled), string(status.AssignmentOffered)}
	if exceptEmployeeID != nil {
		query += ` AND employee_id <> $4`
		args = append(args, *exceptEmployeeID)
	}

	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to cancel outstanding offers: %w", err)
	}
	return nil
}

func (t *pgxTx) ListOutstandingOffers(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT employee_id FROM employee_assignments
		 WHERE request_id = $1 AND status = $2
		 ORDER BY created_at ASC, id ASC`,
		requestID, string(status.AssignmentOffered),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding offers: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding offer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *pgxTx) SetQuotedPrice(ctx context.Context, id uuid.UUID, priceCents int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE service_requests SET quoted_price_cents = $2, updated_at = now() WHERE id = $1`,
		id, priceCents,
	)
	if err != nil {
		return fmt.Errorf("failed to set quoted price: %w", err)
	}
	return nil
}

func (t *pgxTx) InvoiceExists(ctx context.Context, sourceID uuid.UUID) (bool, error) {
	return billing.ExistsForSource(ctx, t.tx, billing.SourceServiceRequest, sourceID)
}

func (t *pgxTx) InsertInvoice(ctx context.Context, inv *billing.Invoice, line billing.Line) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	return billing.Insert(ctx, t.tx, inv, line)
}

func (t *pgxTx) AppendHistory(ctx context.Context, entry billing.HistoryEntry) error {
	return billing.AppendHistory(ctx, t.tx, entry)
}

func (t *pgxTx) InsertNotification(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	return outbox.InsertTx(ctx, t.tx, p)
}

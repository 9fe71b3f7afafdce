// Package repository provides database access for service requests and their
// employee assignment junction rows.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceRequest is a customer request for non-standard work handled through
// the offer workflow. RequestedLabel is the customer's free-text ask; it is
// not a catalog row, so pricing is a manual quote stored on the request.
// EmployeeID is the primary assignee; it is provisional while the request is
// awaiting confirmation and definitive once an employee accepts.
type ServiceRequest struct {
	ID               uuid.UUID            `db:"id"`
	CustomerID       uuid.UUID            `db:"customer_id"`
	PetID            *uuid.UUID           `db:"pet_id"`
	RequestedLabel   string               `db:"requested_label"`
	QuotedPriceCents *int64               `db:"quoted_price_cents"`
	Notes            *string              `db:"notes"`
	Status           status.RequestStatus `db:"status"`
	EmployeeID       *uuid.UUID           `db:"employee_id"`
	CreatedAt        time.Time            `db:"created_at"`
	UpdatedAt        time.Time            `db:"updated_at"`
}

// Assignment is one junction row linking an offered employee to a request.
type Assignment struct {
	ID         uuid.UUID               `db:"id"`
	RequestID  uuid.UUID               `db:"request_id"`
	EmployeeID uuid.UUID               `db:"employee_id"`
	Status     status.AssignmentStatus `db:"status"`
	CreatedAt  time.Time               `db:"created_at"`
	UpdatedAt  time.Time               `db:"updated_at"`
}

const requestColumns = `id, customer_id, pet_id, requested_label, quoted_price_cents, notes, status, employee_id, created_at, updated_at`

// Repository provides pool-level read access for service requests.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new service requests repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRequest(row pgx.Row) (*ServiceRequest, error) {
	var r ServiceRequest
	var st string
	err := row.Scan(
		&r.ID, &r.CustomerID, &r.PetID, &r.RequestedLabel, &r.QuotedPriceCents,
		&r.Notes, &st, &r.EmployeeID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = status.RequestStatus(st)
	return &r, nil
}

// GetByID retrieves a service request by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("service request not found")
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return req, nil
}

// ListAssignments returns all junction rows for a request, oldest first.
func (r *Repository) ListAssignments(ctx context.Context, requestID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, request_id, employee_id, status, created_at, updated_at
		 FROM employee_assignments
		 WHERE request_id = $1
		 ORDER BY created_at ASC, id ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var items []Assignment
	for rows.Next() {
		var a Assignment
		var st string
		if err := rows.Scan(&a.ID, &a.RequestID, &a.EmployeeID, &st, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Status = status.AssignmentStatus(st)
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return items, nil
}

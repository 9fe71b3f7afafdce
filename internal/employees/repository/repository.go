// Package repository provides database read access for employees.
package repository

import (
	"context"
	"errors"
	"fmt"

	"petcare_ops_backend/internal/employees"
	"petcare_ops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const employeeColumns = `id, full_name, email, specialization, availability, created_at, updated_at`

// Repository provides database operations for employees.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new employees repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID retrieves an employee by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*employees.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var emp employees.Employee
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&emp.ID, &emp.FullName, &emp.Email, &emp.Specialization,
		&emp.Availability, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("employee not found")
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return &emp, nil
}

// ListWorking retrieves all employees currently in working status.
func (r *Repository) ListWorking(ctx context.Context) ([]employees.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE availability = $1 ORDER BY full_name ASC`

	rows, err := r.pool.Query(ctx, query, string(employees.AvailabilityWorking))
	if err != nil {
		return nil, fmt.Errorf("failed to list working employees: %w", err)
	}
	defer rows.Close()

	var items []employees.Employee
	for rows.Next() {
		var emp employees.Employee
		if err := rows.Scan(
			&emp.ID, &emp.FullName, &emp.Email, &emp.Specialization,
			&emp.Availability, &emp.CreatedAt, &emp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		items = append(items, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return items, nil
}

// GetEmail retrieves the email address for an employee. Returns empty string
// when the employee does not exist.
func (r *Repository) GetEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(email, '') FROM employees WHERE id = $1`, id).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get employee email: %w", err)
	}
	return email, nil
}

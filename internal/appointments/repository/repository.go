// Package repository provides database access for appointments.
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

// Appointment is a scheduled clinic visit. Start is stored as minutes from
// midnight on Date so the overlap arithmetic stays in integers.
type Appointment struct {
	ID              uuid.UUID                 `db:"id"`
	CustomerID      uuid.UUID                 `db:"customer_id"`
	PetID           uuid.UUID                 `db:"pet_id"`
	ServiceID       uuid.UUID                 `db:"service_id"`
	Date            time.Time                 `db:"date"`
	StartMinutes    int                       `db:"start_minutes"`
	DurationMinutes int                       `db:"duration_minutes"`
	Status          status.AppointmentStatus  `db:"status"`
	EmployeeID      *uuid.UUID                `db:"employee_id"`
	Notes           *string                   `db:"notes"`
	CreatedAt       time.Time                 `db:"created_at"`
	UpdatedAt       time.Time                 `db:"updated_at"`
}

const appointmentColumns = `id, customer_id, pet_id, service_id, date, start_minutes, duration_minutes, status, employee_id, notes, created_at, updated_at`

// Repository provides pool-level read access for appointments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var st string
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.PetID, &a.ServiceID, &a.Date,
		&a.StartMinutes, &a.DurationMinutes, &st, &a.EmployeeID,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = status.AppointmentStatus(st)
	return &a, nil
}

// GetByID retrieves an appointment by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// GetService retrieves the catalog name and price for a service.
func (r *Repository) GetService(ctx context.Context, serviceID uuid.UUID) (string, int64, error) {
	var name string
	var priceCents int64
	err := r.pool.QueryRow(ctx, `SELECT name, price_cents FROM services WHERE id = $1`, serviceID).
		Scan(&name, &priceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, apperr.NotFound("service not found")
		}
		return "", 0, fmt.Errorf("failed to get service: %w", err)
	}
	return name, priceCents, nil
}

// HasOverlap reports whether the employee already has a blocking appointment
// on the given date that intersects the [start, start+duration) window.
// Appointments in terminal states never block; excludeID skips the record
// being rescheduled so it does not collide with itself.
func (r *Repository) HasOverlap(ctx context.Context, employeeID uuid.UUID, date time.Time, startMinutes, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM appointments
		WHERE employee_id = $1
		  AND date = $2
		  AND status IN ('pending', 'confirmed', 'in_progress')
		  AND id <> $3
		  AND start_minutes < $4 + $5
		  AND start_minutes + duration_minutes > $4
	)`, employeeID, date, excludeID, startMinutes, durationMinutes).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return exists, nil
}

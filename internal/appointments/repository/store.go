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

// Tx is the set of operations available inside a workflow transaction. The
// target row is locked by GetForUpdate, so everything that follows within the
// same Tx is serialized against concurrent workflow calls for that record.
type Tx interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetAssignment(ctx context.Context, id uuid.UUID, employeeID uuid.UUID, st status.AppointmentStatus) error
	SetStatus(ctx context.Context, id uuid.UUID, st status.AppointmentStatus) error
	ServicePrice(ctx context.Context, serviceID uuid.UUID) (string, int64, error)
	InvoiceExists(ctx context.Context, sourceID uuid.UUID) (bool, error)
	InsertInvoice(ctx context.Context, inv *billing.Invoice, line billing.Line) error
	AppendHistory(ctx context.Context, entry billing.HistoryEntry) error
	InsertNotification(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Store opens workflow transactions against the appointments tables.
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

func (t *pgxTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to lock appointment: %w", err)
	}
	return appt, nil
}

func (t *pgxTx) SetAssignment(ctx context.Context, id uuid.UUID, employeeID uuid.UUID, st status.AppointmentStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE appointments SET employee_id = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, employeeID, string(st),
	)
	if err != nil {
		return fmt.Errorf("failed to assign appointment: %w", err)
	}
	return nil
}

func (t *pgxTx) SetStatus(ctx context.Context, id uuid.UUID, st status.AppointmentStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(st),
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return nil
}

func (t *pgxTx) ServicePrice(ctx context.Context, serviceID uuid.UUID) (string, int64, error) {
	var name string
	var priceCents int64
	err := t.tx.QueryRow(ctx, `SELECT name, price_cents FROM services WHERE id = $1`, serviceID).
		Scan(&name, &priceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, apperr.NotFound("service not found")
		}
		return "", 0, fmt.Errorf("failed to get service: %w", err)
	}
	return name, priceCents, nil
}

func (t *pgxTx) InvoiceExists(ctx context.Context, sourceID uuid.UUID) (bool, error) {
	return billing.ExistsForSource(ctx, t.tx, billing.SourceAppointment, sourceID)
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

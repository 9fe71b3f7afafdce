package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SourceType identifies which workflow entity an invoice bills.
type SourceType string

const (
	SourceAppointment    SourceType = "appointment"
	SourceServiceRequest SourceType = "service_request"
)

// PaymentStatus is the payment state of an invoice.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Invoice is the billing record created exactly once per completed source.
type Invoice struct {
	ID            uuid.UUID     `db:"id"`
	SourceType    SourceType    `db:"source_type"`
	SourceID      uuid.UUID     `db:"source_id"`
	CustomerID    uuid.UUID     `db:"customer_id"`
	SubtotalCents int64         `db:"subtotal_cents"`
	TaxCents      int64         `db:"tax_cents"`
	TotalCents    int64         `db:"total_cents"`
	TaxRateBps    int           `db:"tax_rate_bps"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	CreatedAt     time.Time     `db:"created_at"`
}

// Line is a single invoice line item.
type Line struct {
	Description    string
	Quantity       int
	UnitPriceCents int64
}

// HistoryEntry is a service-history record appended alongside invoice creation.
type HistoryEntry struct {
	SourceType SourceType
	SourceID   uuid.UUID
	CustomerID uuid.UUID
	EmployeeID *uuid.UUID
	PetID      *uuid.UUID
	Note       string
}

// DBTX is the subset of pgx operations the billing queries need. Both
// pgxpool.Pool and pgx.Tx satisfy it; workflow callers pass their open
// transaction so the existence check and insert share the caller's row lock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ExistsForSource reports whether an invoice already references the source
// record. Must run inside the same transaction as the completion status flip.
func ExistsForSource(ctx context.Context, q DBTX, sourceType SourceType, sourceID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT id FROM invoices WHERE source_type = $1 AND source_id = $2`,
		string(sourceType), sourceID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check invoice existence: %w", err)
	}
	return true, nil
}

// Insert writes the invoice and its line item.
func Insert(ctx context.Context, q DBTX, inv *Invoice, line Line) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	_, err := q.Exec(ctx,
		`INSERT INTO invoices (id, source_type, source_id, customer_id, subtotal_cents, tax_cents, total_cents, tax_rate_bps, payment_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, string(inv.SourceType), inv.SourceID, inv.CustomerID,
		inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.TaxRateBps,
		string(inv.PaymentStatus), inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	quantity := line.Quantity
	if quantity < 1 {
		quantity = 1
	}

	_, err = q.Exec(ctx,
		`INSERT INTO invoice_lines (id, invoice_id, description, quantity, unit_price_cents, amount_cents)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), inv.ID, line.Description, quantity, line.UnitPriceCents,
		line.UnitPriceCents*int64(quantity),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice line: %w", err)
	}

	return nil
}

// AppendHistory writes a service-history record.
func AppendHistory(ctx context.Context, q DBTX, entry HistoryEntry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO service_history (id, source_type, source_id, customer_id, employee_id, pet_id, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), string(entry.SourceType), entry.SourceID, entry.CustomerID,
		entry.EmployeeID, entry.PetID, entry.Note, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to append service history: %w", err)
	}
	return nil
}

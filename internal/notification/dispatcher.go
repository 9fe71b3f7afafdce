// Package notification delivers claimed outbox records to their channels.
package notification

import (
	"context"
	"fmt"

	"petcare_ops_backend/internal/email"
	"petcare_ops_backend/internal/notification/inapp"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
)

const maxDeliveryAttempts = 5

// OutboxStore is the subset of outbox operations the dispatcher needs.
type OutboxStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// InAppStore stores delivered notifications for the in-app feed.
type InAppStore interface {
	Create(ctx context.Context, p inapp.CreateParams) (uuid.UUID, error)
}

// EmailLookup resolves an employee id to an email address. An empty address
// means no email is on file and the email channel is skipped.
type EmailLookup interface {
	GetEmail(ctx context.Context, employeeID uuid.UUID) (string, error)
}

// Dispatcher delivers a single outbox record to the in-app store and, for
// employee receivers with an address on file, to email.
type Dispatcher struct {
	outbox OutboxStore
	inapp  InAppStore
	emails EmailLookup
	sender email.Sender
	log    *logger.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(ob OutboxStore, ia InAppStore, emails EmailLookup, sender email.Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{outbox: ob, inapp: ia, emails: emails, sender: sender, log: log}
}

// Deliver processes one claimed outbox record. Failures below the attempt
// limit return the record to pending for a later retry; at the limit the
// record is marked failed and the error is swallowed so the task is not
// retried forever.
func (d *Dispatcher) Deliver(ctx context.Context, id uuid.UUID) error {
	rec, err := d.outbox.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load outbox record %s: %w", id, err)
	}
	if rec.Status == outbox.StatusSucceeded || rec.Status == outbox.StatusFailed {
		return nil
	}

	if err := d.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	rec.Attempts++

	if err := d.deliverChannels(ctx, rec); err != nil {
		d.log.Error("notification delivery failed", "outboxId", rec.ID, "attempts", rec.Attempts, "error", err)
		if rec.Attempts >= maxDeliveryAttempts {
			return d.outbox.MarkFailed(ctx, rec.ID, err.Error())
		}
		msg := err.Error()
		if markErr := d.outbox.MarkPending(ctx, rec.ID, &msg); markErr != nil {
			return markErr
		}
		return fmt.Errorf("deliver outbox record %s: %w", rec.ID, err)
	}

	return d.outbox.MarkSucceeded(ctx, rec.ID)
}

func (d *Dispatcher) deliverChannels(ctx context.Context, rec outbox.Record) error {
	_, err := d.inapp.Create(ctx, inapp.CreateParams{
		ReceiverType: string(rec.ReceiverType),
		ReceiverID:   rec.ReceiverID,
		Title:        rec.Title,
		Message:      rec.Message,
		Type:         rec.Type,
	})
	if err != nil {
		return fmt.Errorf("store in-app notification: %w", err)
	}

	if rec.ReceiverType == outbox.ReceiverEmployee && rec.ReceiverID != nil {
		addr, err := d.emails.GetEmail(ctx, *rec.ReceiverID)
		if err != nil {
			return fmt.Errorf("lookup employee email: %w", err)
		}
		if addr != "" {
			if err := d.sender.Send(ctx, addr, rec.Title, rec.Message); err != nil {
				return err
			}
		}
	}

	return nil
}

// Package service implements the appointment workflow: employee assignment,
// availability checks and status transitions with the completion trigger.
package service

import (
	"context"
	"fmt"
	"time"

	"petcare_ops_backend/internal/appointments/repository"
	"petcare_ops_backend/internal/billing"
	"petcare_ops_backend/internal/employees"
	"petcare_ops_backend/internal/events"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/internal/specialization"
	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/apperr"
	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
)

const minutesPerDay = 24 * 60

// Store opens workflow transactions.
type Store interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

// Reader provides the pool-level reads the workflow needs before a
// transaction opens.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Appointment, error)
	GetService(ctx context.Context, serviceID uuid.UUID) (string, int64, error)
	HasOverlap(ctx context.Context, employeeID uuid.UUID, date time.Time, startMinutes, durationMinutes int, excludeID uuid.UUID) (bool, error)
}

// EmployeeReader resolves employee records for assignment validation.
type EmployeeReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*employees.Employee, error)
}

// Service orchestrates appointment workflow operations.
type Service struct {
	store      Store
	reader     Reader
	employees  EmployeeReader
	billingCfg config.BillingConfig
	bus        events.Bus
	log        *logger.Logger
}

// New creates a new appointments service.
func New(store Store, reader Reader, employeeReader EmployeeReader, billingCfg config.BillingConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		reader:     reader,
		employees:  employeeReader,
		billingCfg: billingCfg,
		bus:        bus,
		log:        log,
	}
}

// GetByID returns a single appointment.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.Appointment, error) {
	return s.reader.GetByID(ctx, id)
}

// IsAvailable reports whether the employee is free for the given window.
// Only appointments in non-terminal statuses block the slot; excludeID lets a
// reschedule check ignore the appointment being moved.
func (s *Service) IsAvailable(ctx context.Context, employeeID uuid.UUID, date time.Time, startMinutes, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	if durationMinutes < 1 {
		return false, apperr.Validation("durationMinutes must be positive")
	}
	if startMinutes < 0 || startMinutes >= minutesPerDay {
		return false, apperr.Validation("startTime is out of range")
	}

	overlap, err := s.reader.HasOverlap(ctx, employeeID, date, startMinutes, durationMinutes, excludeID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// Assign validates the employee against the appointment and, inside a row
// lock, sets the assignment and confirms the appointment. Validation runs
// before the transaction opens; a validation failure never touches the row.
func (s *Service) Assign(ctx context.Context, appointmentID, employeeID uuid.UUID) (*repository.Appointment, error) {
	appt, err := s.reader.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsWorking() {
		return nil, apperr.Conflict("employee is not on the working roster")
	}

	serviceName, _, err := s.reader.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}
	category := specialization.Canonicalize(serviceName)
	if !specialization.Matches(emp.Specialization, category) {
		return nil, apperr.Validation(fmt.Sprintf("employee specialization does not cover %q", serviceName))
	}

	overlap, err := s.reader.HasOverlap(ctx, employeeID, appt.Date, appt.StartMinutes, appt.DurationMinutes, appt.ID)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperr.Conflict("employee already has an appointment in this time slot")
	}

	var updated *repository.Appointment
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := status.ValidateAppointmentTransition(current.Status, status.AppointmentConfirmed); err != nil {
			return err
		}
		if err := tx.SetAssignment(ctx, appointmentID, employeeID, status.AppointmentConfirmed); err != nil {
			return err
		}

		_, err = tx.InsertNotification(ctx, outbox.InsertParams{
			ReceiverType: outbox.ReceiverEmployee,
			ReceiverID:   &employeeID,
			Title:        "New appointment assigned",
			Message:      fmt.Sprintf("You have been assigned a %s appointment.", serviceName),
			Type:         "appointment_assigned",
		})
		if err != nil {
			return err
		}

		current.EmployeeID = &employeeID
		current.Status = status.AppointmentConfirmed
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.StatusTransition("appointment", appointmentID.String(), string(appt.Status), string(status.AppointmentConfirmed))
	if s.bus != nil {
		s.bus.Publish(ctx, events.AppointmentAssigned{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appointmentID,
			EmployeeID:    employeeID,
		})
	}

	return updated, nil
}

// UpdateStatus moves the appointment through its state machine. Completing an
// appointment also runs the completion trigger in the same transaction:
// invoice, service-history entry and customer notification, created at most
// once per appointment.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, next status.AppointmentStatus) (*repository.Appointment, error) {
	if !status.ValidAppointmentStatus(next) {
		return nil, apperr.Validation(fmt.Sprintf("unknown appointment status %q", next))
	}

	var updated *repository.Appointment
	var invoiceID uuid.UUID
	var previous status.AppointmentStatus

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		previous = current.Status

		if err := status.ValidateAppointmentTransition(current.Status, next); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, appointmentID, next); err != nil {
			return err
		}

		if next == status.AppointmentCompleted {
			id, err := s.completeAppointment(ctx, tx, current)
			if err != nil {
				return err
			}
			invoiceID = id
		}

		current.Status = next
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.StatusTransition("appointment", appointmentID.String(), string(previous), string(next))
	if next == status.AppointmentCompleted && s.bus != nil {
		s.bus.Publish(ctx, events.AppointmentCompleted{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appointmentID,
			InvoiceID:     invoiceID,
		})
	}

	return updated, nil
}

// completeAppointment runs the completion trigger under the caller's row
// lock. The existence check makes invoice creation idempotent even if a
// completed row were somehow re-completed.
func (s *Service) completeAppointment(ctx context.Context, tx repository.Tx, appt *repository.Appointment) (uuid.UUID, error) {
	exists, err := tx.InvoiceExists(ctx, appt.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, nil
	}

	serviceName, priceCents, err := tx.ServicePrice(ctx, appt.ServiceID)
	if err != nil {
		return uuid.Nil, err
	}

	totals := billing.Calculate(priceCents, s.billingCfg.GetTaxRateBps())
	inv := &billing.Invoice{
		ID:            uuid.New(),
		SourceType:    billing.SourceAppointment,
		SourceID:      appt.ID,
		CustomerID:    appt.CustomerID,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		TaxRateBps:    s.billingCfg.GetTaxRateBps(),
		PaymentStatus: billing.PaymentUnpaid,
	}
	if err := tx.InsertInvoice(ctx, inv, billing.Line{
		Description:    serviceName,
		Quantity:       1,
		UnitPriceCents: priceCents,
	}); err != nil {
		return uuid.Nil, err
	}

	if err := tx.AppendHistory(ctx, billing.HistoryEntry{
		SourceType: billing.SourceAppointment,
		SourceID:   appt.ID,
		CustomerID: appt.CustomerID,
		EmployeeID: appt.EmployeeID,
		PetID:      &appt.PetID,
		Note:       fmt.Sprintf("Appointment completed: %s", serviceName),
	}); err != nil {
		return uuid.Nil, err
	}

	_, err = tx.InsertNotification(ctx, outbox.InsertParams{
		ReceiverType: outbox.ReceiverUser,
		ReceiverID:   &appt.CustomerID,
		Title:        "Appointment completed",
		Message:      fmt.Sprintf("Your %s appointment is complete. An invoice has been issued.", serviceName),
		Type:         "appointment_completed",
	})
	if err != nil {
		return uuid.Nil, err
	}

	return inv.ID, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"petcare_ops_backend/internal/appointments/repository"
	"petcare_ops_backend/internal/billing"
	"petcare_ops_backend/internal/employees"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/apperr"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type catalogService struct {
	name       string
	priceCents int64
}

// fakeBackend implements Store, Reader and repository.Tx in memory. InTx
// holds a mutex for the duration of the callback, which models the row lock
// serializing concurrent workflow calls, and restores the previous state when
// the callback returns an error, which models the rollback.
type fakeBackend struct {
	mu            sync.Mutex
	appt          *repository.Appointment
	services      map[uuid.UUID]catalogService
	overlap       bool
	invoices      []billing.Invoice
	history       []billing.HistoryEntry
	notifications []outbox.InsertParams
	failNotify    bool
}

func (f *fakeBackend) InTx(_ context.Context, fn func(tx repository.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := *f.appt
	invoices := len(f.invoices)
	history := len(f.history)
	notifications := len(f.notifications)

	if err := fn(f); err != nil {
		*f.appt = snapshot
		f.invoices = f.invoices[:invoices]
		f.history = f.history[:history]
		f.notifications = f.notifications[:notifications]
		return err
	}
	return nil
}

func (f *fakeBackend) GetByID(_ context.Context, id uuid.UUID) (*repository.Appointment, error) {
	if f.appt == nil || f.appt.ID != id {
		return nil, apperr.NotFound("appointment not found")
	}
	copied := *f.appt
	return &copied, nil
}

func (f *fakeBackend) GetService(_ context.Context, serviceID uuid.UUID) (string, int64, error) {
	svc, ok := f.services[serviceID]
	if !ok {
		return "", 0, apperr.NotFound("service not found")
	}
	return svc.name, svc.priceCents, nil
}

func (f *fakeBackend) HasOverlap(_ context.Context, _ uuid.UUID, _ time.Time, _, _ int, _ uuid.UUID) (bool, error) {
	return f.overlap, nil
}

func (f *fakeBackend) GetForUpdate(_ context.Context, id uuid.UUID) (*repository.Appointment, error) {
	if f.appt == nil || f.appt.ID != id {
		return nil, apperr.NotFound("appointment not found")
	}
	copied := *f.appt
	return &copied, nil
}

func (f *fakeBackend) SetAssignment(_ context.Context, _ uuid.UUID, employeeID uuid.UUID, st status.AppointmentStatus) error {
	f.appt.EmployeeID = &employeeID
	f.appt.Status = st
	return nil
}

func (f *fakeBackend) SetStatus(_ context.Context, _ uuid.UUID, st status.AppointmentStatus) error {
	f.appt.Status = st
	return nil
}

func (f *fakeBackend) ServicePrice(ctx context.Context, serviceID uuid.UUID) (string, int64, error) {
	return f.GetService(ctx, serviceID)
}

func (f *fakeBackend) InvoiceExists(_ context.Context, sourceID uuid.UUID) (bool, error) {
	for _, inv := range f.invoices {
		if inv.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBackend) InsertInvoice(_ context.Context, inv *billing.Invoice, _ billing.Line) error {
	f.invoices = append(f.invoices, *inv)
	return nil
}

func (f *fakeBackend) AppendHistory(_ context.Context, entry billing.HistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeBackend) InsertNotification(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	if f.failNotify {
		return uuid.Nil, errors.New("notification insert failed")
	}
	f.notifications = append(f.notifications, p)
	return uuid.New(), nil
}

type fakeEmployees struct {
	byID map[uuid.UUID]*employees.Employee
}

func (f *fakeEmployees) GetByID(_ context.Context, id uuid.UUID) (*employees.Employee, error) {
	emp, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("employee not found")
	}
	return emp, nil
}

type billingConfig int

func (b billingConfig) GetTaxRateBps() int { return int(b) }

func newFixture(t *testing.T) (*Service, *fakeBackend, uuid.UUID, uuid.UUID) {
	t.Helper()

	serviceID := uuid.New()
	employeeID := uuid.New()
	appt := &repository.Appointment{
		ID:              uuid.New(),
		CustomerID:      uuid.New(),
		PetID:           uuid.New(),
		ServiceID:       serviceID,
		Date:            time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		StartMinutes:    9 * 60,
		DurationMinutes: 30,
		Status:          status.AppointmentPending,
	}

	backend := &fakeBackend{
		appt: appt,
		services: map[uuid.UUID]catalogService{
			serviceID: {name: "Vaccination", priceCents: 10000},
		},
	}
	emps := &fakeEmployees{byID: map[uuid.UUID]*employees.Employee{
		employeeID: {
			ID:             employeeID,
			FullName:       "Dr. Chen",
			Specialization: "vaccination, examination",
			Availability:   employees.AvailabilityWorking,
		},
	}}

	svc := New(backend, backend, emps, billingConfig(800), nil, logger.New("test"))
	return svc, backend, appt.ID, employeeID
}

func TestAssign_SetsEmployeeAndConfirms(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)

	updated, err := svc.Assign(context.Background(), apptID, employeeID)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if updated.Status != status.AppointmentConfirmed {
		t.Fatalf("status = %s, want confirmed", updated.Status)
	}
	if updated.EmployeeID == nil || *updated.EmployeeID != employeeID {
		t.Fatalf("employee not set on appointment")
	}
	if len(backend.notifications) != 1 {
		t.Fatalf("expected 1 notification intent, got %d", len(backend.notifications))
	}
	if backend.notifications[0].ReceiverType != outbox.ReceiverEmployee {
		t.Fatalf("notification receiver = %s, want employee", backend.notifications[0].ReceiverType)
	}
}

func TestAssign_RejectsUnknownEmployee(t *testing.T) {
	svc, backend, apptID, _ := newFixture(t)

	_, err := svc.Assign(context.Background(), apptID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if backend.appt.Status != status.AppointmentPending {
		t.Fatalf("appointment must be untouched, got %s", backend.appt.Status)
	}
}

func TestAssign_RejectsNonWorkingEmployee(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)
	emps := svc.employees.(*fakeEmployees)
	emps.byID[employeeID].Availability = employees.AvailabilityNotWorking

	_, err := svc.Assign(context.Background(), apptID, employeeID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if backend.appt.EmployeeID != nil {
		t.Fatal("employee must not be set")
	}
}

func TestAssign_RejectsSpecializationMismatch(t *testing.T) {
	svc, _, apptID, employeeID := newFixture(t)
	emps := svc.employees.(*fakeEmployees)
	emps.byID[employeeID].Specialization = "grooming"

	_, err := svc.Assign(context.Background(), apptID, employeeID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssign_RejectsOverlappingSlot(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)
	backend.overlap = true

	_, err := svc.Assign(context.Background(), apptID, employeeID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIsAvailable_ValidatesInputs(t *testing.T) {
	svc, _, _, employeeID := newFixture(t)

	_, err := svc.IsAvailable(context.Background(), employeeID, time.Now(), 540, 0, uuid.Nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero duration, got %v", err)
	}

	_, err = svc.IsAvailable(context.Background(), employeeID, time.Now(), -10, 30, uuid.Nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative start, got %v", err)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _, apptID, _ := newFixture(t)

	_, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentStatus("archived"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_CompletionCreatesInvoiceOnce(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)

	if _, err := svc.Assign(context.Background(), apptID, employeeID); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentInProgress); err != nil {
		t.Fatalf("UpdateStatus(in_progress) error = %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentCompleted); err != nil {
		t.Fatalf("UpdateStatus(completed) error = %v", err)
	}

	if len(backend.invoices) != 1 {
		t.Fatalf("expected exactly 1 invoice, got %d", len(backend.invoices))
	}
	inv := backend.invoices[0]
	if inv.SubtotalCents != 10000 || inv.TaxCents != 800 || inv.TotalCents != 10800 {
		t.Fatalf("unexpected totals: %+v", inv)
	}
	if len(backend.history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(backend.history))
	}

	// second completion attempt is an illegal transition and adds nothing
	_, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentCompleted)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(backend.invoices) != 1 {
		t.Fatalf("double completion created a second invoice")
	}
}

func TestUpdateStatus_ConcurrentCompletionInvoicesOnce(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)

	if _, err := svc.Assign(context.Background(), apptID, employeeID); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentInProgress); err != nil {
		t.Fatalf("UpdateStatus(in_progress) error = %v", err)
	}

	var g errgroup.Group
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentCompleted)
			results <- err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("errgroup error = %v", err)
	}
	close(results)

	var successes, transitionErrs int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperr.Is(err, apperr.KindInvalidTransition):
			transitionErrs++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || transitionErrs != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d transition errors", successes, transitionErrs)
	}
	if len(backend.invoices) != 1 {
		t.Fatalf("expected exactly 1 invoice, got %d", len(backend.invoices))
	}
}

func TestUpdateStatus_FailureRollsBackEverything(t *testing.T) {
	svc, backend, apptID, employeeID := newFixture(t)

	if _, err := svc.Assign(context.Background(), apptID, employeeID); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentInProgress); err != nil {
		t.Fatalf("UpdateStatus(in_progress) error = %v", err)
	}

	backend.failNotify = true
	_, err := svc.UpdateStatus(context.Background(), apptID, status.AppointmentCompleted)
	if err == nil {
		t.Fatal("expected error")
	}
	if backend.appt.Status != status.AppointmentInProgress {
		t.Fatalf("status must roll back to in_progress, got %s", backend.appt.Status)
	}
	if len(backend.invoices) != 0 || len(backend.history) != 0 {
		t.Fatal("invoice and history must roll back with the transaction")
	}
}

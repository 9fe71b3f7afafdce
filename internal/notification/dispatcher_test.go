package notification

import (
	"context"
	"errors"
	"testing"

	"petcare_ops_backend/internal/notification/inapp"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOutbox struct {
	records map[uuid.UUID]*outbox.Record
}

func (f *fakeOutbox) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return outbox.Record{}, errors.New("not found")
	}
	return *rec, nil
}

func (f *fakeOutbox) MarkProcessing(_ context.Context, id uuid.UUID) error {
	f.records[id].Status = outbox.StatusProcessing
	f.records[id].Attempts++
	return nil
}

func (f *fakeOutbox) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	f.records[id].Status = outbox.StatusSucceeded
	return nil
}

func (f *fakeOutbox) MarkPending(_ context.Context, id uuid.UUID, _ *string) error {
	f.records[id].Status = outbox.StatusPending
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	f.records[id].Status = outbox.StatusFailed
	return nil
}

type fakeInApp struct {
	created []inapp.CreateParams
	err     error
}

func (f *fakeInApp) Create(_ context.Context, p inapp.CreateParams) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.created = append(f.created, p)
	return uuid.New(), nil
}

type fakeEmails struct {
	addresses map[uuid.UUID]string
}

func (f *fakeEmails) GetEmail(_ context.Context, id uuid.UUID) (string, error) {
	return f.addresses[id], nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, toEmail, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func newTestDispatcher(ob *fakeOutbox, ia *fakeInApp, em *fakeEmails, s *fakeSender) *Dispatcher {
	return NewDispatcher(ob, ia, em, s, logger.New("test"))
}

func seedRecord(ob *fakeOutbox, rec outbox.Record) uuid.UUID {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = outbox.StatusEnqueued
	}
	ob.records[rec.ID] = &rec
	return rec.ID
}

func TestDeliver_EmployeeGetsInAppAndEmail(t *testing.T) {
	employeeID := uuid.New()
	ob := &fakeOutbox{records: map[uuid.UUID]*outbox.Record{}}
	ia := &fakeInApp{}
	em := &fakeEmails{addresses: map[uuid.UUID]string{employeeID: "vet@clinic.test"}}
	s := &fakeSender{}

	id := seedRecord(ob, outbox.Record{
		ReceiverType: outbox.ReceiverEmployee,
		ReceiverID:   &employeeID,
		Title:        "New work offer",
		Message:      "You have been offered a service request.",
		Type:         "offer_extended",
	})

	if err := newTestDispatcher(ob, ia, em, s).Deliver(context.Background(), id); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if len(ia.created) != 1 {
		t.Fatalf("expected 1 in-app notification, got %d", len(ia.created))
	}
	if len(s.sent) != 1 || s.sent[0] != "vet@clinic.test" {
		t.Fatalf("expected email to vet@clinic.test, got %v", s.sent)
	}
	if ob.records[id].Status != outbox.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", ob.records[id].Status)
	}
}

func TestDeliver_AdminBroadcastSkipsEmail(t *testing.T) {
	ob := &fakeOutbox{records: map[uuid.UUID]*outbox.Record{}}
	ia := &fakeInApp{}
	em := &fakeEmails{addresses: map[uuid.UUID]string{}}
	s := &fakeSender{}

	id := seedRecord(ob, outbox.Record{
		ReceiverType: outbox.ReceiverAdmin,
		Title:        "Offer expired",
		Message:      "A work offer went unanswered.",
		Type:         "offer_expired",
	})

	if err := newTestDispatcher(ob, ia, em, s).Deliver(context.Background(), id); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(ia.created) != 1 {
		t.Fatalf("expected 1 in-app notification, got %d", len(ia.created))
	}
	if len(s.sent) != 0 {
		t.Fatalf("expected no email for admin broadcast, got %v", s.sent)
	}
}

func TestDeliver_FailureReturnsRecordToPending(t *testing.T) {
	employeeID := uuid.New()
	ob := &fakeOutbox{records: map[uuid.UUID]*outbox.Record{}}
	ia := &fakeInApp{err: errors.New("db down")}
	em := &fakeEmails{addresses: map[uuid.UUID]string{}}
	s := &fakeSender{}

	id := seedRecord(ob, outbox.Record{
		ReceiverType: outbox.ReceiverEmployee,
		ReceiverID:   &employeeID,
		Title:        "New work offer",
	})

	if err := newTestDispatcher(ob, ia, em, s).Deliver(context.Background(), id); err == nil {
		t.Fatal("expected error when in-app store fails")
	}
	if ob.records[id].Status != outbox.StatusPending {
		t.Fatalf("expected pending for retry, got %s", ob.records[id].Status)
	}
}

func TestDeliver_AttemptLimitMarksFailed(t *testing.T) {
	employeeID := uuid.New()
	ob := &fakeOutbox{records: map[uuid.UUID]*outbox.Record{}}
	ia := &fakeInApp{err: errors.New("db down")}
	em := &fakeEmails{addresses: map[uuid.UUID]string{}}
	s := &fakeSender{}

	id := seedRecord(ob, outbox.Record{
		ReceiverType: outbox.ReceiverEmployee,
		ReceiverID:   &employeeID,
		Title:        "New work offer",
		Attempts:     maxDeliveryAttempts - 1,
	})

	if err := newTestDispatcher(ob, ia, em, s).Deliver(context.Background(), id); err != nil {
		t.Fatalf("Deliver() at attempt limit should swallow the error, got %v", err)
	}
	if ob.records[id].Status != outbox.StatusFailed {
		t.Fatalf("expected failed, got %s", ob.records[id].Status)
	}
}

func TestDeliver_AlreadySucceededIsNoOp(t *testing.T) {
	ob := &fakeOutbox{records: map[uuid.UUID]*outbox.Record{}}
	ia := &fakeInApp{}
	em := &fakeEmails{addresses: map[uuid.UUID]string{}}
	s := &fakeSender{}

	id := seedRecord(ob, outbox.Record{
		ReceiverType: outbox.ReceiverAdmin,
		Title:        "done",
		Status:       outbox.StatusSucceeded,
	})

	if err := newTestDispatcher(ob, ia, em, s).Deliver(context.Background(), id); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(ia.created) != 0 {
		t.Fatal("expected no redelivery of a succeeded record")
	}
}

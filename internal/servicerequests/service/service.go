// Package service implements the service request workflow: the multi-employee
// offer protocol, the accept race, rejection with revert, status transitions
// and the completion trigger.
package service

import (
	"context"
	"fmt"
	"time"

	"petcare_ops_backend/internal/billing"
	"petcare_ops_backend/internal/employees"
	"petcare_ops_backend/internal/events"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/internal/scheduler"
	"petcare_ops_backend/internal/servicerequests/repository"
	"petcare_ops_backend/internal/specialization"
	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/apperr"
	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
)

// Store opens workflow transactions.
type Store interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

// Reader provides pool-level reads.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ServiceRequest, error)
	ListAssignments(ctx context.Context, requestID uuid.UUID) ([]repository.Assignment, error)
}

// EmployeeReader resolves employees for offer validation and candidate
// matching.
type EmployeeReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*employees.Employee, error)
	ListWorking(ctx context.Context) ([]employees.Employee, error)
}

// Service orchestrates the service request workflow.
type Service struct {
	store     Store
	reader    Reader
	employees EmployeeReader

	billingCfg config.BillingConfig
	offerCfg   config.OfferConfig
	expiry     scheduler.ExpiryScheduler
	bus        events.Bus
	log        *logger.Logger
}

// New creates a new service requests service.
func New(store Store, reader Reader, employeeReader EmployeeReader, billingCfg config.BillingConfig, offerCfg config.OfferConfig, expiry scheduler.ExpiryScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		reader:     reader,
		employees:  employeeReader,
		billingCfg: billingCfg,
		offerCfg:   offerCfg,
		expiry:     expiry,
		bus:        bus,
		log:        log,
	}
}

// GetByID returns a single request with its assignment rows.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.ServiceRequest, []repository.Assignment, error) {
	req, err := s.reader.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	assignments, err := s.reader.ListAssignments(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return req, assignments, nil
}

// Candidates returns the working employees whose specialization matches the
// customer's free-text requested label. When nobody matches, the whole
// working pool is returned so an administrator can still pick someone.
func (s *Service) Candidates(ctx context.Context, requestID uuid.UUID) ([]employees.Employee, error) {
	req, err := s.reader.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	pool, err := s.employees.ListWorking(ctx)
	if err != nil {
		return nil, err
	}
	return specialization.FilterEmployees(pool, specialization.Canonicalize(req.RequestedLabel)), nil
}

// Offer extends the request to a set of employees. Junction rows are replaced
// wholesale, the first employee becomes the provisional primary and the
// request moves to pending_employee_confirmation. Every offered employee gets
// a notification intent in the same transaction; the expiry task is scheduled
// only after the commit.
func (s *Service) Offer(ctx context.Context, requestID uuid.UUID, employeeIDs []uuid.UUID) (*repository.ServiceRequest, error) {
	employeeIDs = dedupe(employeeIDs)
	if len(employeeIDs) == 0 {
		return nil, apperr.Validation("at least one employee must be offered")
	}

	req, err := s.reader.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	for _, employeeID := range employeeIDs {
		emp, err := s.employees.GetByID(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if !emp.IsWorking() {
			return nil, apperr.Conflict(fmt.Sprintf("employee %s is not on the working roster", emp.FullName))
		}
	}

	primary := employeeIDs[0]
	var updated *repository.ServiceRequest
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		// A request already awaiting confirmation may be offered again;
		// the junction rows are replaced wholesale under the row lock.
		if current.Status != status.RequestAwaitingEmployee {
			if err := status.ValidateRequestTransition(current.Status, status.RequestAwaitingEmployee); err != nil {
				return err
			}
		}
		if err := tx.ReplaceAssignments(ctx, requestID, employeeIDs); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, requestID, status.RequestAwaitingEmployee, &primary); err != nil {
			return err
		}

		for _, employeeID := range employeeIDs {
			receiverID := employeeID
			_, err := tx.InsertNotification(ctx, outbox.InsertParams{
				ReceiverType: outbox.ReceiverEmployee,
				ReceiverID:   &receiverID,
				Title:        "New work offer",
				Message:      fmt.Sprintf("You have been offered a %q request. Please accept or decline.", req.RequestedLabel),
				Type:         "offer_extended",
			})
			if err != nil {
				return err
			}
		}

		current.Status = status.RequestAwaitingEmployee
		current.EmployeeID = &primary
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.StatusTransition("service_request", requestID.String(), string(req.Status), string(status.RequestAwaitingEmployee))
	s.scheduleExpiry(ctx, requestID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.OfferExtended{
			BaseEvent:   events.NewBaseEvent(),
			RequestID:   requestID,
			EmployeeIDs: employeeIDs,
		})
	}

	return updated, nil
}

func (s *Service) scheduleExpiry(ctx context.Context, requestID uuid.UUID) {
	if s.expiry == nil || s.offerCfg == nil {
		return
	}
	ttl := s.offerCfg.GetOfferExpiryTTL()
	if ttl <= 0 {
		return
	}
	err := s.expiry.ScheduleOfferExpiry(ctx, scheduler.OfferExpiryPayload{
		RequestID: requestID.String(),
	}, time.Now().Add(ttl))
	if err != nil {
		// the offer stands without a deadline; expiry is best effort
		s.log.Warn("failed to schedule offer expiry", "requestId", requestID, "error", err)
	}
}

// Accept resolves the offer race in favor of the calling employee. The row
// lock taken by GetRequestForUpdate serializes concurrent accepts: the first
// caller flips the request to in_progress, every later caller finds the
// status changed and gets a conflict.
func (s *Service) Accept(ctx context.Context, requestID, employeeID uuid.UUID) (*repository.ServiceRequest, error) {
	var updated *repository.ServiceRequest
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if current.Status != status.RequestAwaitingEmployee {
			if current.Status == status.RequestInProgress {
				return apperr.Conflict("another employee has already accepted this request")
			}
			return apperr.Conflict(fmt.Sprintf("request is not awaiting confirmation (status %q)", current.Status))
		}

		assignment, err := tx.GetAssignment(ctx, requestID, employeeID)
		if err != nil {
			return err
		}
		if assignment.Status != status.AssignmentOffered {
			return apperr.Conflict("this offer is no longer open")
		}

		if err := tx.SetAssignmentStatus(ctx, requestID, employeeID, status.AssignmentInProgress); err != nil {
			return err
		}
		if err := tx.CancelOutstandingOffers(ctx, requestID, &employeeID); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, requestID, status.RequestInProgress, &employeeID); err != nil {
			return err
		}

		_, err = tx.InsertNotification(ctx, outbox.InsertParams{
			ReceiverType: outbox.ReceiverUser,
			ReceiverID:   &current.CustomerID,
			Title:        "Request confirmed",
			Message:      "An employee has accepted your service request and work is underway.",
			Type:         "offer_accepted",
		})
		if err != nil {
			return err
		}

		current.Status = status.RequestInProgress
		current.EmployeeID = &employeeID
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.StatusTransition("service_request", requestID.String(), string(status.RequestAwaitingEmployee), string(status.RequestInProgress))
	if s.bus != nil {
		s.bus.Publish(ctx, events.OfferAccepted{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  requestID,
			EmployeeID: employeeID,
		})
	}

	return updated, nil
}

// Reject declines one employee's offer. When the last outstanding offer is
// declined the request reverts to pending with no primary, exactly as if it
// had never been offered. When the provisional primary declines but offers
// remain, the oldest outstanding offer becomes the new provisional primary.
func (s *Service) Reject(ctx context.Context, requestID, employeeID uuid.UUID) (*repository.ServiceRequest, error) {
	var updated *repository.ServiceRequest
	var reverted bool

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		assignment, err := tx.GetAssignment(ctx, requestID, employeeID)
		if err != nil {
			return err
		}
		if assignment.Status != status.AssignmentOffered {
			return apperr.Conflict("this offer is no longer open")
		}

		if err := tx.SetAssignmentStatus(ctx, requestID, employeeID, status.AssignmentRejected); err != nil {
			return err
		}

		if current.Status == status.RequestAwaitingEmployee {
			outstanding, err := tx.ListOutstandingOffers(ctx, requestID)
			if err != nil {
				return err
			}

			switch {
			case len(outstanding) == 0:
				if err := tx.UpdateRequest(ctx, requestID, status.RequestPending, nil); err != nil {
					return err
				}
				_, err := tx.InsertNotification(ctx, outbox.InsertParams{
					ReceiverType: outbox.ReceiverAdmin,
					Title:        "All offers declined",
					Message:      "Every offered employee declined; the request is back in the pending queue.",
					Type:         "offer_reverted",
				})
				if err != nil {
					return err
				}
				reverted = true
				current.Status = status.RequestPending
				current.EmployeeID = nil
			case current.EmployeeID != nil && *current.EmployeeID == employeeID:
				next := outstanding[0]
				if err := tx.UpdateRequest(ctx, requestID, status.RequestAwaitingEmployee, &next); err != nil {
					return err
				}
				current.EmployeeID = &next
			}
		}

		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.OfferRejected{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  requestID,
			EmployeeID: employeeID,
			Reverted:   reverted,
		})
	}

	return updated, nil
}

// UpdateStatus moves the request through its state machine. Offering is its
// own operation, so transitions into pending_employee_confirmation are
// rejected here. Completion runs the invoice trigger inside the same
// transaction; administrative exits cancel any outstanding offers and clear
// the primary.
func (s *Service) UpdateStatus(ctx context.Context, requestID uuid.UUID, next status.RequestStatus) (*repository.ServiceRequest, error) {
	if !status.ValidRequestStatus(next) {
		return nil, apperr.Validation(fmt.Sprintf("unknown request status %q", next))
	}
	if next == status.RequestAwaitingEmployee {
		return nil, apperr.Validation("use the offer operation to put a request up for confirmation")
	}

	var updated *repository.ServiceRequest
	var invoiceID uuid.UUID
	var previous status.RequestStatus

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		previous = current.Status

		if err := status.ValidateRequestTransition(current.Status, next); err != nil {
			return err
		}

		primary := current.EmployeeID
		if !status.PrimaryEmployeeAllowed(next) {
			primary = nil
		}
		if err := tx.UpdateRequest(ctx, requestID, next, primary); err != nil {
			return err
		}

		if next == status.RequestRejected || next == status.RequestCancelled {
			if err := tx.CancelOutstandingOffers(ctx, requestID, nil); err != nil {
				return err
			}
		}

		if next == status.RequestCompleted {
			id, err := s.completeRequest(ctx, tx, current)
			if err != nil {
				return err
			}
			invoiceID = id
		}

		current.Status = next
		current.EmployeeID = primary
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.StatusTransition("service_request", requestID.String(), string(previous), string(next))
	if next == status.RequestCompleted && s.bus != nil {
		var employeeID uuid.UUID
		if updated.EmployeeID != nil {
			employeeID = *updated.EmployeeID
		}
		s.bus.Publish(ctx, events.RequestCompleted{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  requestID,
			InvoiceID:  invoiceID,
			EmployeeID: employeeID,
		})
	}

	return updated, nil
}

// Quote records the manually negotiated price for a request. There is no
// catalog row to look up, so the invoice line written on completion uses this
// amount. Quoting is allowed at any point before the request reaches a
// terminal state.
func (s *Service) Quote(ctx context.Context, requestID uuid.UUID, priceCents int64) (*repository.ServiceRequest, error) {
	if priceCents < 0 {
		return nil, apperr.Validation("quoted price must not be negative")
	}

	var updated *repository.ServiceRequest
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if status.RequestTerminal(current.Status) {
			return apperr.Conflict(fmt.Sprintf("cannot quote a request in terminal status %q", current.Status))
		}
		if err := tx.SetQuotedPrice(ctx, requestID, priceCents); err != nil {
			return err
		}
		current.QuotedPriceCents = &priceCents
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireOffer reverts a request whose offer deadline passed without an
// answer. A request that was resolved in the meantime is left alone, so the
// task is harmless to run late or twice.
func (s *Service) ExpireOffer(ctx context.Context, requestID uuid.UUID) error {
	var expired bool
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil
			}
			return err
		}
		if current.Status != status.RequestAwaitingEmployee {
			return nil
		}

		if err := tx.CancelOutstandingOffers(ctx, requestID, nil); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, requestID, status.RequestPending, nil); err != nil {
			return err
		}
		_, err = tx.InsertNotification(ctx, outbox.InsertParams{
			ReceiverType: outbox.ReceiverAdmin,
			Title:        "Work offer expired",
			Message:      "An offer went unanswered past its deadline; the request is back in the pending queue.",
			Type:         "offer_expired",
		})
		if err != nil {
			return err
		}

		expired = true
		return nil
	})
	if err != nil {
		return err
	}

	if expired {
		s.log.StatusTransition("service_request", requestID.String(), string(status.RequestAwaitingEmployee), string(status.RequestPending))
	}
	return nil
}

// completeRequest runs the completion trigger under the caller's row lock.
func (s *Service) completeRequest(ctx context.Context, tx repository.Tx, req *repository.ServiceRequest) (uuid.UUID, error) {
	exists, err := tx.InvoiceExists(ctx, req.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, nil
	}

	if req.QuotedPriceCents == nil {
		return uuid.Nil, apperr.Conflict("request has no quoted price; set one before completing")
	}
	priceCents := *req.QuotedPriceCents

	totals := billing.Calculate(priceCents, s.billingCfg.GetTaxRateBps())
	inv := &billing.Invoice{
		ID:            uuid.New(),
		SourceType:    billing.SourceServiceRequest,
		SourceID:      req.ID,
		CustomerID:    req.CustomerID,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		TaxRateBps:    s.billingCfg.GetTaxRateBps(),
		PaymentStatus: billing.PaymentUnpaid,
	}
	if err := tx.InsertInvoice(ctx, inv, billing.Line{
		Description:    req.RequestedLabel,
		Quantity:       1,
		UnitPriceCents: priceCents,
	}); err != nil {
		return uuid.Nil, err
	}

	if err := tx.AppendHistory(ctx, billing.HistoryEntry{
		SourceType: billing.SourceServiceRequest,
		SourceID:   req.ID,
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
		PetID:      req.PetID,
		Note:       fmt.Sprintf("Service request completed: %s", req.RequestedLabel),
	}); err != nil {
		return uuid.Nil, err
	}

	_, err = tx.InsertNotification(ctx, outbox.InsertParams{
		ReceiverType: outbox.ReceiverUser,
		ReceiverID:   &req.CustomerID,
		Title:        "Request completed",
		Message:      fmt.Sprintf("Your %q request is complete. An invoice has been issued.", req.RequestedLabel),
		Type:         "request_completed",
	})
	if err != nil {
		return uuid.Nil, err
	}

	return inv.ID, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

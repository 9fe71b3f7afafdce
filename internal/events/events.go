package events

import (
	platformevents "petcare_ops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-exported platform types so modules only import internal/events.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// Event names for workflow events.
const (
	EventOfferExtended        = "servicerequests.offer.extended"
	EventOfferAccepted        = "servicerequests.offer.accepted"
	EventOfferRejected        = "servicerequests.offer.rejected"
	EventRequestCompleted     = "servicerequests.completed"
	EventAppointmentAssigned  = "appointments.assigned"
	EventAppointmentCompleted = "appointments.completed"
)

// OfferExtended is published after a service request has been offered to a set
// of employees.
type OfferExtended struct {
	BaseEvent
	RequestID   uuid.UUID
	EmployeeIDs []uuid.UUID
}

func (OfferExtended) EventName() string { return EventOfferExtended }

// OfferAccepted is published after an employee wins the accept race on a
// service request.
type OfferAccepted struct {
	BaseEvent
	RequestID  uuid.UUID
	EmployeeID uuid.UUID
}

func (OfferAccepted) EventName() string { return EventOfferAccepted }

// OfferRejected is published after an employee rejects an offer. Reverted
// reports whether the request fell back to pending because no offers remain.
type OfferRejected struct {
	BaseEvent
	RequestID  uuid.UUID
	EmployeeID uuid.UUID
	Reverted   bool
}

func (OfferRejected) EventName() string { return EventOfferRejected }

// RequestCompleted is published after a service request reaches completed and
// its invoice has been recorded.
type RequestCompleted struct {
	BaseEvent
	RequestID  uuid.UUID
	InvoiceID  uuid.UUID
	EmployeeID uuid.UUID
}

func (RequestCompleted) EventName() string { return EventRequestCompleted }

// AppointmentAssigned is published after an appointment has been assigned to
// an employee and confirmed.
type AppointmentAssigned struct {
	BaseEvent
	AppointmentID uuid.UUID
	EmployeeID    uuid.UUID
}

func (AppointmentAssigned) EventName() string { return EventAppointmentAssigned }

// AppointmentCompleted is published after an appointment reaches completed and
// its invoice has been recorded.
type AppointmentCompleted struct {
	BaseEvent
	AppointmentID uuid.UUID
	InvoiceID     uuid.UUID
}

func (AppointmentCompleted) EventName() string { return EventAppointmentCompleted }

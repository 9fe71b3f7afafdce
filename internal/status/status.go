// Package status defines the canonical workflow states for appointments,
// service requests and employee assignment rows, and enforces transition
// legality through table-driven checks. All status mutation in the workflow
// services goes through Validate*Transition; no call site compares raw
// strings.
package status

import "petcare_ops_backend/platform/apperr"

// AppointmentStatus is the lifecycle state of a standard, catalog-backed
// appointment.
type AppointmentStatus string

const (
	AppointmentPending    AppointmentStatus = "pending"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

// RequestStatus is the lifecycle state of a customer service request.
type RequestStatus string

const (
	RequestPending          RequestStatus = "pending"
	RequestAwaitingEmployee RequestStatus = "pending_employee_confirmation"
	RequestInProgress       RequestStatus = "in_progress"
	RequestCompleted        RequestStatus = "completed"
	RequestRejected         RequestStatus = "rejected"
	RequestCancelled        RequestStatus = "cancelled"
)

// AssignmentStatus is the per-employee response state on an offered service
// request. There is one assignment row per offered employee.
type AssignmentStatus string

const (
	AssignmentOffered    AssignmentStatus = "pending_employee_confirmation"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentRejected   AssignmentStatus = "rejected"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

// appointmentTransitions is the legal edge set for appointments.
// Directed, no back-edges; cancelled is reachable from every non-terminal state.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:    {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed:  {AppointmentInProgress, AppointmentCancelled},
	AppointmentInProgress: {AppointmentCompleted, AppointmentCancelled},
}

// requestTransitions is the legal edge set for service requests. The
// awaiting-employee -> pending edge is the all-reject (or offer expiry)
// revert; rejected and cancelled are administrative exits.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:          {RequestAwaitingEmployee, RequestRejected, RequestCancelled},
	RequestAwaitingEmployee: {RequestInProgress, RequestPending, RequestRejected, RequestCancelled},
	RequestInProgress:       {RequestCompleted},
}

// ValidAppointmentStatus reports whether s is a member of the closed enumeration.
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentInProgress,
		AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// ValidRequestStatus reports whether s is a member of the closed enumeration.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestPending, RequestAwaitingEmployee, RequestInProgress,
		RequestCompleted, RequestRejected, RequestCancelled:
		return true
	}
	return false
}

// AppointmentTerminal reports whether s accepts no further transitions.
func AppointmentTerminal(s AppointmentStatus) bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// RequestTerminal reports whether s accepts no further transitions.
func RequestTerminal(s RequestStatus) bool {
	return s == RequestCompleted || s == RequestRejected || s == RequestCancelled
}

// ValidateAppointmentTransition returns an InvalidTransition error unless the
// from -> to edge exists in the appointment transition graph.
func ValidateAppointmentTransition(from, to AppointmentStatus) error {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.InvalidTransition("appointment", string(from), string(to))
}

// ValidateRequestTransition returns an InvalidTransition error unless the
// from -> to edge exists in the service request transition graph.
func ValidateRequestTransition(from, to RequestStatus) error {
	for _, next := range requestTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.InvalidTransition("service request", string(from), string(to))
}

// PrimaryEmployeeAllowed reports whether a request in status s may carry a
// non-null primary assigned employee.
func PrimaryEmployeeAllowed(s RequestStatus) bool {
	return s == RequestAwaitingEmployee || s == RequestInProgress || s == RequestCompleted
}

package transport

import (
	"fmt"
	"time"

	"petcare_ops_backend/internal/appointments/repository"

	"github.com/google/uuid"
)

// AssignEmployeeRequest is the request body for assigning an employee.
type AssignEmployeeRequest struct {
	EmployeeID uuid.UUID `json:"employeeId" validate:"required"`
}

// UpdateStatusRequest is the request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled"`
}

// AvailabilityRequest is the query for an availability check.
type AvailabilityRequest struct {
	EmployeeID      uuid.UUID  `form:"employeeId" validate:"required"`
	Date            string     `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string     `form:"startTime" validate:"required"`
	DurationMinutes int        `form:"durationMinutes" validate:"required,min=1"`
	ExcludeID       *uuid.UUID `form:"excludeId"`
}

// AvailabilityResponse reports the outcome of an availability check.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// AppointmentResponse is the response body for an appointment.
type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customerId"`
	PetID           uuid.UUID  `json:"petId"`
	ServiceID       uuid.UUID  `json:"serviceId"`
	Date            string     `json:"date"`
	StartTime       string     `json:"startTime"`
	DurationMinutes int        `json:"durationMinutes"`
	Status          string     `json:"status"`
	EmployeeID      *uuid.UUID `json:"employeeId,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// FromAppointment maps a repository record to its response shape.
func FromAppointment(a *repository.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		CustomerID:      a.CustomerID,
		PetID:           a.PetID,
		ServiceID:       a.ServiceID,
		Date:            a.Date.Format("2006-01-02"),
		StartTime:       FormatClock(a.StartMinutes),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		EmployeeID:      a.EmployeeID,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ParseClock converts an "HH:MM" string to minutes from midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight to an "HH:MM" string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

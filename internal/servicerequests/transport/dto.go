package transport

import (
	"time"

	"petcare_ops_backend/internal/employees"
	"petcare_ops_backend/internal/servicerequests/repository"

	"github.com/google/uuid"
)

// OfferRequest is the request body for extending a work offer.
type OfferRequest struct {
	EmployeeIDs []uuid.UUID `json:"employeeIds" validate:"required,min=1,dive,required"`
}

// QuoteRequest is the request body for setting the manual price.
type QuoteRequest struct {
	PriceCents int64 `json:"priceCents" validate:"required,gt=0"`
}

// UpdateStatusRequest is the request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending pending_employee_confirmation in_progress completed rejected cancelled"`
}

// AssignmentResponse is one junction row in a response.
type AssignmentResponse struct {
	EmployeeID uuid.UUID `json:"employeeId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ServiceRequestResponse is the response body for a service request.
type ServiceRequestResponse struct {
	ID               uuid.UUID            `json:"id"`
	CustomerID       uuid.UUID            `json:"customerId"`
	PetID            *uuid.UUID           `json:"petId,omitempty"`
	RequestedLabel   string               `json:"requestedLabel"`
	QuotedPriceCents *int64               `json:"quotedPriceCents,omitempty"`
	Notes            *string              `json:"notes,omitempty"`
	Status           string               `json:"status"`
	EmployeeID       *uuid.UUID           `json:"employeeId,omitempty"`
	Assignments      []AssignmentResponse `json:"assignments,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// CandidateResponse is one matching employee for an offer.
type CandidateResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"fullName"`
	Specialization string    `json:"specialization"`
}

// FromServiceRequest maps a repository record to its response shape.
func FromServiceRequest(req *repository.ServiceRequest, assignments []repository.Assignment) ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:               req.ID,
		CustomerID:       req.CustomerID,
		PetID:            req.PetID,
		RequestedLabel:   req.RequestedLabel,
		QuotedPriceCents: req.QuotedPriceCents,
		Notes:            req.Notes,
		Status:           string(req.Status),
		EmployeeID:       req.EmployeeID,
		CreatedAt:        req.CreatedAt,
		UpdatedAt:        req.UpdatedAt,
	}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, AssignmentResponse{
			EmployeeID: a.EmployeeID,
			Status:     string(a.Status),
			CreatedAt:  a.CreatedAt,
			UpdatedAt:  a.UpdatedAt,
		})
	}
	return resp
}

// FromEmployees maps employees to candidate responses.
func FromEmployees(items []employees.Employee) []CandidateResponse {
	results := make([]CandidateResponse, 0, len(items))
	for _, emp := range items {
		results = append(results, CandidateResponse{
			ID:             emp.ID,
			FullName:       emp.FullName,
			Specialization: emp.Specialization,
		})
	}
	return results
}

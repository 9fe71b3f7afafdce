package handler

import (
	"net/http"

	"petcare_ops_backend/internal/servicerequests/service"
	"petcare_ops_backend/internal/servicerequests/transport"
	"petcare_ops_backend/internal/status"
	"petcare_ops_backend/platform/httpkit"
	"petcare_ops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for service requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new service requests handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the service request routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/candidates", h.Candidates)
	rg.POST("/:id/offer", h.Offer)
	rg.POST("/:id/quote", h.Quote)
	rg.POST("/:id/accept", h.Accept)
	rg.POST("/:id/reject", h.Reject)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid service request id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// GetByID handles GET /api/service-requests/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, assignments, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(req, assignments))
}

// Candidates handles GET /api/service-requests/:id/candidates
func (h *Handler) Candidates(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	matches, err := h.svc.Candidates(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromEmployees(matches))
}

// Offer handles POST /api/service-requests/:id/offer
func (h *Handler) Offer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transport.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.Offer(c.Request.Context(), id, req.EmployeeIDs)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(updated, nil))
}

// Quote handles POST /api/service-requests/:id/quote
func (h *Handler) Quote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transport.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.Quote(c.Request.Context(), id, req.PriceCents)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(updated, nil))
}

// Accept handles POST /api/service-requests/:id/accept
// The acting employee comes from the access token, not the body.
func (h *Handler) Accept(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.svc.Accept(c.Request.Context(), id, identity.SubjectID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(updated, nil))
}

// Reject handles POST /api/service-requests/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.svc.Reject(c.Request.Context(), id, identity.SubjectID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(updated, nil))
}

// UpdateStatus handles PATCH /api/service-requests/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.UpdateStatus(c.Request.Context(), id, status.RequestStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromServiceRequest(updated, nil))
}

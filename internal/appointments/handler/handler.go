package handler

import (
	"net/http"
	"time"

	"petcare_ops_backend/internal/appointments/service"
	"petcare_ops_backend/internal/appointments/transport"
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

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new appointments handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the appointment routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/availability", h.CheckAvailability)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/assign", h.Assign)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid appointment id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// GetByID handles GET /api/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	appt, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromAppointment(appt))
}

// Assign handles POST /api/appointments/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transport.AssignEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	appt, err := h.svc.Assign(c.Request.Context(), id, req.EmployeeID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromAppointment(appt))
}

// UpdateStatus handles PATCH /api/appointments/:id/status
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

	appt, err := h.svc.UpdateStatus(c.Request.Context(), id, status.AppointmentStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromAppointment(appt))
}

// CheckAvailability handles GET /api/appointments/availability
func (h *Handler) CheckAvailability(c *gin.Context) {
	var req transport.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return
	}
	startMinutes, err := transport.ParseClock(req.StartTime)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	excludeID := uuid.Nil
	if req.ExcludeID != nil {
		excludeID = *req.ExcludeID
	}

	available, err := h.svc.IsAvailable(c.Request.Context(), req.EmployeeID, date, startMinutes, req.DurationMinutes, excludeID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AvailabilityResponse{Available: available})
}

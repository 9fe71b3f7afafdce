package handler

import (
	"net/http"
	"strconv"

	"petcare_ops_backend/internal/notification/inapp"
	"petcare_ops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the in-app notification feed.
type Handler struct {
	repo *inapp.Repository
}

// New creates a new notifications handler.
func New(repo *inapp.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
}

// receiverType maps the caller's roles to the notification audience.
func receiverType(identity httpkit.Identity) string {
	if identity.HasRole("admin") {
		return "admin"
	}
	if identity.HasRole("employee") {
		return "employee"
	}
	return "user"
}

// List handles GET /api/notifications
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.repo.ListForReceiver(c.Request.Context(), receiverType(identity), identity.SubjectID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, items)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), receiverType(identity), identity.SubjectID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"unread": count})
}

// MarkRead handles POST /api/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "read"})
}

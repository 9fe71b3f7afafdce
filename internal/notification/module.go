package notification

import (
	"petcare_ops_backend/internal/notification/handler"
	"petcare_ops_backend/internal/notification/inapp"
	apphttp "petcare_ops_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module exposes the in-app notification feed.
type Module struct {
	handler *handler.Handler
}

// NewModule creates a new notification module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{handler: handler.New(inapp.New(pool))}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes registers the module's routes under /api/notifications.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.handler.RegisterRoutes(notifications)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

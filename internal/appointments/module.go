// Package appointments provides the appointments domain module.
package appointments

import (
	"petcare_ops_backend/internal/appointments/handler"
	"petcare_ops_backend/internal/appointments/repository"
	"petcare_ops_backend/internal/appointments/service"
	employeerepo "petcare_ops_backend/internal/employees/repository"
	"petcare_ops_backend/internal/events"
	apphttp "petcare_ops_backend/internal/http"
	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"
	"petcare_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the appointments domain module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, billingCfg config.BillingConfig, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	store := repository.NewStore(pool)
	svc := service.New(store, repo, employeerepo.New(pool), billingCfg, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the module's routes under /api/appointments.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	appointments := ctx.Protected.Group("/appointments")
	m.handler.RegisterRoutes(appointments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

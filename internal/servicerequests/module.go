// Package servicerequests provides the service request workflow module.
package servicerequests

import (
	employeerepo "petcare_ops_backend/internal/employees/repository"
	"petcare_ops_backend/internal/events"
	apphttp "petcare_ops_backend/internal/http"
	"petcare_ops_backend/internal/scheduler"
	"petcare_ops_backend/internal/servicerequests/handler"
	"petcare_ops_backend/internal/servicerequests/repository"
	"petcare_ops_backend/internal/servicerequests/service"
	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"
	"petcare_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the service requests domain module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new service requests module with all dependencies
// wired. expiry may be a nil *scheduler.Client when redis is not configured;
// offers then simply never expire.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, billingCfg config.BillingConfig, offerCfg config.OfferConfig, expiry scheduler.ExpiryScheduler, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	store := repository.NewStore(pool)
	svc := service.New(store, repo, employeerepo.New(pool), billingCfg, offerCfg, expiry, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "servicerequests"
}

// RegisterRoutes registers the module's routes under /api/service-requests.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	requests := ctx.Protected.Group("/service-requests")
	m.handler.RegisterRoutes(requests)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package suppliers provides the supplier management bounded context.
// Supplier lead-time profiles feed the planning context's schedule
// calculator, so edits here trigger order recalculation over there.
package suppliers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"importdesk_backend/internal/events"
	apphttp "importdesk_backend/internal/http"
	"importdesk_backend/internal/suppliers/handler"
	"importdesk_backend/internal/suppliers/repository"
	"importdesk_backend/internal/suppliers/service"
	"importdesk_backend/platform/logger"
	"importdesk_backend/platform/validator"
)

// Module is the suppliers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the suppliers module.
// scheduler may be nil when no task queue is configured.
func NewModule(pool *pgxpool.Pool, bus events.Bus, scheduler service.RecalcScheduler, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, scheduler, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "suppliers"
}

// RegisterRoutes mounts supplier management endpoints. Reads are
// operational; mutations are admin-only because lead-time edits
// rewrite order schedules.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	suppliers := ctx.Protected.Group("/suppliers")
	suppliers.GET("", m.handler.List)
	suppliers.GET("/:id", m.handler.GetByID)

	admin := ctx.Admin.Group("/suppliers")
	admin.POST("", m.handler.Create)
	admin.PUT("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

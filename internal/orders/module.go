package orders

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "importdesk_backend/internal/http"
	"importdesk_backend/internal/orders/handler"
	"importdesk_backend/internal/orders/repository"
	"importdesk_backend/internal/orders/service"
	"importdesk_backend/platform/logger"
	"importdesk_backend/platform/validator"
)

// Module wires the orders bounded context.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the orders module. The planner materializes stage
// schedules for newly created orders; it belongs to the planning context
// and is passed in to keep the dependency one-directional.
func NewModule(pool *pgxpool.Pool, planner service.SchedulePlanner, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, planner, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Service exposes the orders service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// RegisterRoutes mounts order management endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orders := ctx.Protected.Group("/orders")
	orders.GET("", m.handler.List)
	orders.POST("", m.handler.Create)
	orders.GET("/:id", m.handler.GetByID)
	orders.PATCH("/:id/status", m.handler.UpdateStatus)
	orders.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

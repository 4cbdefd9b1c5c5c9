// Package planning provides the order phase scheduling bounded context:
// the stage template catalogue, the backward schedule calculator, the
// stage materializer and the supplier recalculation trigger.
package planning

import (
	"context"

	"importdesk_backend/internal/events"
	apphttp "importdesk_backend/internal/http"
	"importdesk_backend/internal/planning/handler"
	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/internal/planning/service"
	"importdesk_backend/platform/logger"
	"importdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the planning bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the planning module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "planning"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts planning routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Read-only endpoints
	ctx.Protected.GET("/planning/templates", m.handler.ListTemplates)
	ctx.Protected.GET("/planning/calendar", m.handler.Calendar)
	ctx.Protected.GET("/planning/orders/:orderId/stages", m.handler.OrderSchedule)

	// Admin catalogue management
	adminGroup := ctx.Admin.Group("/planning")
	adminGroup.POST("/templates", m.handler.CreateTemplate)
	adminGroup.PUT("/templates/:id", m.handler.UpdateTemplate)
	adminGroup.POST("/templates/:id/move", m.handler.MoveTemplate)
	adminGroup.POST("/templates/:id/active", m.handler.SetTemplateActive)
	adminGroup.DELETE("/templates/:id", m.handler.DeleteTemplate)
}

// RegisterHandlers subscribes to domain events that trigger recalculation.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.SupplierLeadTimeChanged{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SupplierLeadTimeChanged:
		_, err := m.service.RecalculateSupplierOrders(ctx, e.SupplierID, service.LeadTimeProfile{
			ProductionTimeWeeks: e.ProductionTimeWeeks,
			ShippingTimeWeeks:   e.ShippingTimeWeeks,
			HasAdvancePayment:   e.HasAdvancePayment,
		})
		return err
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

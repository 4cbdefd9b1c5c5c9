// Package adapters bridges bounded contexts without letting them import
// each other's services directly.
package adapters

import (
	"context"

	"github.com/google/uuid"

	planningservice "importdesk_backend/internal/planning/service"
)

// SchedulePlannerAdapter adapts the planning service for use by the orders
// domain. It implements the orders/service.SchedulePlanner interface.
type SchedulePlannerAdapter struct {
	svc *planningservice.Service
}

func NewSchedulePlannerAdapter(svc *planningservice.Service) *SchedulePlannerAdapter {
	return &SchedulePlannerAdapter{svc: svc}
}

// MaterializeOrder calculates and persists the stage schedule for the order,
// returning the number of stages written.
func (a *SchedulePlannerAdapter) MaterializeOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	return a.svc.MaterializeOrder(ctx, orderID)
}

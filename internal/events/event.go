// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"importdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Supplier Domain Events
// =============================================================================

// SupplierLeadTimeChanged is published when a supplier's lead-time profile
// (production weeks, shipping weeks or advance-payment flag) is edited.
// The planning module reacts by recalculating every open order of the supplier.
type SupplierLeadTimeChanged struct {
	BaseEvent
	SupplierID          uuid.UUID `json:"supplierId"`
	ProductionTimeWeeks int       `json:"productionTimeWeeks"`
	ShippingTimeWeeks   int       `json:"shippingTimeWeeks"`
	HasAdvancePayment   bool      `json:"hasAdvancePayment"`
}

func (e SupplierLeadTimeChanged) EventName() string { return "suppliers.lead_time.changed" }

// =============================================================================
// Order Domain Events
// =============================================================================

// OrderScheduleMaterialized is published after an order's stage set has been
// replaced with a freshly calculated schedule.
type OrderScheduleMaterialized struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	SupplierID uuid.UUID `json:"supplierId"`
	TargetDate time.Time `json:"targetDate"`
	StageCount int       `json:"stageCount"`
}

func (e OrderScheduleMaterialized) EventName() string { return "orders.schedule.materialized" }

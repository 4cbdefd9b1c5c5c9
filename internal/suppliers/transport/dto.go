// Package transport defines request and response DTOs for the suppliers API.
package transport

import "time"

// CreateSupplierRequest is the payload for registering a supplier.
type CreateSupplierRequest struct {
	Name                string `json:"name" validate:"required,min=2,max=200"`
	ProductionTimeWeeks int    `json:"productionTimeWeeks" validate:"required,min=1,max=104"`
	ShippingTimeWeeks   int    `json:"shippingTimeWeeks" validate:"required,min=1,max=104"`
	HasAdvancePayment   bool   `json:"hasAdvancePayment"`
}

// UpdateSupplierRequest is the payload for a full supplier update.
// Lead-time edits here ripple into every open order of the supplier.
type UpdateSupplierRequest struct {
	Name                string `json:"name" validate:"required,min=2,max=200"`
	ProductionTimeWeeks int    `json:"productionTimeWeeks" validate:"required,min=1,max=104"`
	ShippingTimeWeeks   int    `json:"shippingTimeWeeks" validate:"required,min=1,max=104"`
	HasAdvancePayment   bool   `json:"hasAdvancePayment"`
}

// SupplierResponse is the API representation of a supplier.
type SupplierResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	ProductionTimeWeeks int       `json:"productionTimeWeeks"`
	ShippingTimeWeeks   int       `json:"shippingTimeWeeks"`
	HasAdvancePayment   bool      `json:"hasAdvancePayment"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// SupplierListResponse wraps a supplier collection.
type SupplierListResponse struct {
	Suppliers []SupplierResponse `json:"suppliers"`
	Total     int                `json:"total"`
}

// UpdateSupplierResponse carries the updated supplier plus the outcome of
// the schedule recalculation its lead-time change triggered, if any.
type UpdateSupplierResponse struct {
	Supplier      SupplierResponse `json:"supplier"`
	Recalculation *RecalcSummary   `json:"recalculation,omitempty"`
}

// RecalcSummary reports how the recalculation of the supplier's open
// orders was dispatched or, for synchronous runs, how it went.
type RecalcSummary struct {
	Mode         string `json:"mode"` // "queued" or "inline"
	OrdersTotal  int    `json:"ordersTotal,omitempty"`
	Recalculated int    `json:"recalculated,omitempty"`
	Failed       int    `json:"failed,omitempty"`
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order statuses. The set is open-ended for future process steps, but
// completed and cancelled are terminal: they freeze the order's schedule.
const (
	StatusDraft        = "draft"
	StatusConfirmed    = "confirmed"
	StatusInProduction = "in_production"
	StatusInTransit    = "in_transit"
	StatusAtCustoms    = "at_customs"
	StatusCompleted    = "completed"
	StatusCancelled    = "cancelled"
)

// Order is one import order tracked by the system.
type Order struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	SupplierName string
	Reference    string
	TargetDate   time.Time
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

// CreateOrderParams carries the fields for a new order.
type CreateOrderParams struct {
	SupplierID uuid.UUID
	Reference  string
	TargetDate time.Time
	Status     string
}

// ListOrdersParams filters and paginates the order listing.
type ListOrdersParams struct {
	SupplierID *uuid.UUID
	Status     string
	Search     string
	Offset     int
	Limit      int
}

// Repository defines the persistence operations of the orders context.
type Repository interface {
	Create(ctx context.Context, params CreateOrderParams) (Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NextReference(ctx context.Context) (string, error)
}

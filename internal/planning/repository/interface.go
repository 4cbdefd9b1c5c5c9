package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StageTemplate is a reusable, ordered stage definition in the catalogue.
type StageTemplate struct {
	ID                  uuid.UUID
	Name                string
	Category            string
	Position            int
	NominalDurationDays int
	IsConditional       bool
	ConditionPredicate  *string
	IsDynamic           bool
	DurationFormula     *string
	IsActive            bool
	Description         *string
	CreatedAt           string
	UpdatedAt           string
}

// CreateTemplateParams carries the fields for a new stage template.
// Position is assigned by the repository (end of the catalogue).
type CreateTemplateParams struct {
	Name                string
	Category            string
	NominalDurationDays int
	IsConditional       bool
	ConditionPredicate  *string
	IsDynamic           bool
	DurationFormula     *string
	IsActive            bool
	Description         *string
}

// UpdateTemplateParams is a full replace of the editable template fields.
type UpdateTemplateParams struct {
	ID                  uuid.UUID
	Name                string
	Category            string
	NominalDurationDays int
	IsConditional       bool
	ConditionPredicate  *string
	IsDynamic           bool
	DurationFormula     *string
	IsActive            bool
	Description         *string
}

// StageInstance is one materialized, dated stage belonging to one order.
type StageInstance struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	TemplateID   uuid.UUID
	StageName    string
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	Position     int
}

// StageInstanceParams carries one calculated stage for materialization.
type StageInstanceParams struct {
	TemplateID   uuid.UUID
	StageName    string
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	Position     int
}

// CalendarStage is a stage instance joined with its order's reference,
// consumed by the reporting/calendar view.
type CalendarStage struct {
	StageInstance
	OrderReference string
}

// ScheduleOrder is the slice of an order the scheduling engine needs.
type ScheduleOrder struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Reference  string
	TargetDate time.Time
	Status     string
}

// SupplierProfile mirrors the supplier's lead-time attributes.
type SupplierProfile struct {
	ProductionTimeWeeks int
	ShippingTimeWeeks   int
	HasAdvancePayment   bool
}

// Repository defines the persistence operations of the planning context.
type Repository interface {
	// Template catalogue
	ListTemplates(ctx context.Context) ([]StageTemplate, error)
	ListActiveTemplates(ctx context.Context) ([]StageTemplate, error)
	GetTemplateByID(ctx context.Context, id uuid.UUID) (StageTemplate, error)
	CreateTemplate(ctx context.Context, params CreateTemplateParams) (StageTemplate, error)
	UpdateTemplate(ctx context.Context, params UpdateTemplateParams) (StageTemplate, error)
	SetTemplateActive(ctx context.Context, id uuid.UUID, isActive bool) (StageTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	SwapTemplatePositions(ctx context.Context, firstID, secondID uuid.UUID) error

	// Scheduling inputs
	GetOrderForScheduling(ctx context.Context, orderID uuid.UUID) (ScheduleOrder, error)
	GetSupplierProfile(ctx context.Context, supplierID uuid.UUID) (SupplierProfile, error)
	ListOpenOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]ScheduleOrder, error)

	// Stage instances
	ReplaceOrderStages(ctx context.Context, orderID uuid.UUID, stages []StageInstanceParams) error
	ListOrderStages(ctx context.Context, orderID uuid.UUID) ([]StageInstance, error)
	ListStagesBetween(ctx context.Context, from, to time.Time) ([]CalendarStage, error)
}

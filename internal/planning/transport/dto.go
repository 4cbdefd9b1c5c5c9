package transport

import "github.com/google/uuid"

// Stage templates

type CreateTemplateRequest struct {
	Name                string  `json:"name" validate:"required,min=1,max=200"`
	Category            string  `json:"category" validate:"omitempty,max=100"`
	NominalDurationDays int     `json:"nominalDurationDays" validate:"min=0"`
	IsConditional       bool    `json:"isConditional"`
	ConditionPredicate  *string `json:"conditionPredicate,omitempty" validate:"omitempty,max=100"`
	IsDynamic           bool    `json:"isDynamic"`
	DurationFormula     *string `json:"durationFormula,omitempty" validate:"omitempty,max=100"`
	IsActive            *bool   `json:"isActive,omitempty"`
	Description         *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateTemplateRequest struct {
	Name                string  `json:"name" validate:"required,min=1,max=200"`
	Category            string  `json:"category" validate:"omitempty,max=100"`
	NominalDurationDays int     `json:"nominalDurationDays" validate:"min=0"`
	IsConditional       bool    `json:"isConditional"`
	ConditionPredicate  *string `json:"conditionPredicate,omitempty" validate:"omitempty,max=100"`
	IsDynamic           bool    `json:"isDynamic"`
	DurationFormula     *string `json:"durationFormula,omitempty" validate:"omitempty,max=100"`
	IsActive            bool    `json:"isActive"`
	Description         *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type MoveTemplateRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type SetTemplateActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type TemplateResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	Position            int       `json:"position"`
	NominalDurationDays int       `json:"nominalDurationDays"`
	IsConditional       bool      `json:"isConditional"`
	ConditionPredicate  *string   `json:"conditionPredicate,omitempty"`
	IsDynamic           bool      `json:"isDynamic"`
	DurationFormula     *string   `json:"durationFormula,omitempty"`
	IsActive            bool      `json:"isActive"`
	Description         *string   `json:"description,omitempty"`
	CreatedAt           string    `json:"createdAt"`
	UpdatedAt           string    `json:"updatedAt"`
}

type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int                `json:"total"`
}

// Stage instances

type StageInstanceResponse struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"orderId"`
	TemplateID   uuid.UUID `json:"templateId"`
	StageName    string    `json:"stageName"`
	Category     string    `json:"category"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
	DurationDays int       `json:"durationDays"`
	Position     int       `json:"position"`
}

type OrderScheduleResponse struct {
	OrderID uuid.UUID               `json:"orderId"`
	Items   []StageInstanceResponse `json:"items"`
}

// Calendar feed

type CalendarRequest struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

type CalendarStageResponse struct {
	StageInstanceResponse
	OrderReference string `json:"orderReference"`
}

type CalendarResponse struct {
	From  string                  `json:"from"`
	To    string                  `json:"to"`
	Items []CalendarStageResponse `json:"items"`
}

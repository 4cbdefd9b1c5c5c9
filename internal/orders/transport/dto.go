package transport

import "github.com/google/uuid"

type CreateOrderRequest struct {
	SupplierID uuid.UUID `json:"supplierId" validate:"required"`
	Reference  *string   `json:"reference,omitempty" validate:"omitempty,min=1,max=100"`
	TargetDate string    `json:"targetDate" validate:"required,datetime=2006-01-02"`
	Status     *string   `json:"status,omitempty" validate:"omitempty,oneof=draft confirmed in_production in_transit at_customs"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft confirmed in_production in_transit at_customs completed cancelled"`
}

type ListOrdersRequest struct {
	SupplierID string `form:"supplierId" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,oneof=draft confirmed in_production in_transit at_customs completed cancelled"`
	Search     string `form:"search" validate:"max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type OrderResponse struct {
	ID           uuid.UUID `json:"id"`
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	Reference    string    `json:"reference"`
	TargetDate   string    `json:"targetDate"`
	Status       string    `json:"status"`
	StageCount   int       `json:"stageCount,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

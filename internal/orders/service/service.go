package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"importdesk_backend/internal/orders/repository"
	"importdesk_backend/internal/orders/transport"
	"importdesk_backend/platform/apperr"
	"importdesk_backend/platform/logger"
)

const dateLayout = "2006-01-02"

// SchedulePlanner materializes an order's stage schedule. Implemented by an
// adapter over the planning module so this context stays decoupled from it.
type SchedulePlanner interface {
	MaterializeOrder(ctx context.Context, orderID uuid.UUID) (int, error)
}

// Service provides business logic for orders.
type Service struct {
	repo    repository.Repository
	planner SchedulePlanner
	log     *logger.Logger
}

// New creates a new orders service.
func New(repo repository.Repository, planner SchedulePlanner, log *logger.Logger) *Service {
	return &Service{repo: repo, planner: planner, log: log}
}

// Create inserts a new order and materializes its stage schedule from the
// active template catalogue and the supplier's lead-time profile. If the
// schedule cannot be materialized the order insert is compensated, so an
// order never exists without its planned stages.
func (s *Service) Create(ctx context.Context, req transport.CreateOrderRequest) (transport.OrderResponse, error) {
	targetDate, err := time.Parse(dateLayout, req.TargetDate)
	if err != nil {
		return transport.OrderResponse{}, apperr.Validation("invalid target date")
	}

	reference := ""
	if req.Reference != nil {
		reference = strings.TrimSpace(*req.Reference)
	}
	if reference == "" {
		reference, err = s.repo.NextReference(ctx)
		if err != nil {
			return transport.OrderResponse{}, err
		}
	}

	status := repository.StatusDraft
	if req.Status != nil {
		status = *req.Status
	}

	order, err := s.repo.Create(ctx, repository.CreateOrderParams{
		SupplierID: req.SupplierID,
		Reference:  reference,
		TargetDate: targetDate,
		Status:     status,
	})
	if err != nil {
		return transport.OrderResponse{}, err
	}

	stageCount, err := s.planner.MaterializeOrder(ctx, order.ID)
	if err != nil {
		if deleteErr := s.repo.Delete(ctx, order.ID); deleteErr != nil {
			s.log.DatabaseError("compensate order create", deleteErr)
		}
		return transport.OrderResponse{}, err
	}

	s.log.Info("order created", "id", order.ID, "reference", order.Reference, "stages", stageCount)
	response := toOrderResponse(order)
	response.StageCount = stageCount
	return response, nil
}

// GetByID retrieves an order by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// ListWithFilters retrieves orders with filters and pagination.
func (s *Service) ListWithFilters(ctx context.Context, req transport.ListOrdersRequest) (transport.OrderListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListOrdersParams{
		Status: req.Status,
		Search: strings.TrimSpace(req.Search),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return transport.OrderListResponse{}, apperr.Validation("invalid supplier id")
		}
		params.SupplierID = &supplierID
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.OrderListResponse{}, err
	}

	responses := make([]transport.OrderResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toOrderResponse(item))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.OrderListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateStatus transitions an order to a new status. Terminal orders are
// closed out and refuse further transitions.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateOrderStatusRequest) (transport.OrderResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	if isTerminal(current.Status) {
		return transport.OrderResponse{}, apperr.Conflict("order is " + current.Status + " and can no longer change status")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.log.Info("order status updated", "id", updated.ID, "status", updated.Status)
	return toOrderResponse(updated), nil
}

// Delete removes an order together with its stage instances.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("order deleted", "id", id)
	return nil
}

func isTerminal(status string) bool {
	return status == repository.StatusCompleted || status == repository.StatusCancelled
}

func toOrderResponse(o repository.Order) transport.OrderResponse {
	return transport.OrderResponse{
		ID:           o.ID,
		SupplierID:   o.SupplierID,
		SupplierName: o.SupplierName,
		Reference:    o.Reference,
		TargetDate:   o.TargetDate.Format(dateLayout),
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

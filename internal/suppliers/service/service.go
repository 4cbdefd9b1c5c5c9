// Package service implements supplier management business logic.
package service

import (
	"context"

	"github.com/google/uuid"

	"importdesk_backend/internal/events"
	"importdesk_backend/internal/suppliers/repository"
	"importdesk_backend/internal/suppliers/transport"
	"importdesk_backend/platform/apperr"
	"importdesk_backend/platform/logger"
)

// RecalcScheduler enqueues a durable schedule recalculation task for a
// supplier. Implemented by the asynq-backed scheduler client; nil when
// no task queue is configured, in which case the in-process event bus
// carries the trigger instead.
type RecalcScheduler interface {
	EnqueueSupplierRecalculation(ctx context.Context, evt events.SupplierLeadTimeChanged) error
}

// Service implements supplier management.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	scheduler RecalcScheduler
	log       *logger.Logger
}

// New creates a new suppliers service. scheduler may be nil.
func New(repo repository.Repository, bus events.Bus, scheduler RecalcScheduler, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		bus:       bus,
		scheduler: scheduler,
		log:       log,
	}
}

// List returns all suppliers ordered by name.
func (s *Service) List(ctx context.Context) (transport.SupplierListResponse, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return transport.SupplierListResponse{}, err
	}

	resp := transport.SupplierListResponse{
		Suppliers: make([]transport.SupplierResponse, 0, len(suppliers)),
		Total:     len(suppliers),
	}
	for _, sup := range suppliers {
		resp.Suppliers = append(resp.Suppliers, toSupplierResponse(sup))
	}
	return resp, nil
}

// GetByID returns a single supplier.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.SupplierResponse, error) {
	sup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	return toSupplierResponse(sup), nil
}

// Create registers a new supplier.
func (s *Service) Create(ctx context.Context, req transport.CreateSupplierRequest) (transport.SupplierResponse, error) {
	sup, err := s.repo.Create(ctx, repository.CreateSupplierParams{
		Name:                req.Name,
		ProductionTimeWeeks: req.ProductionTimeWeeks,
		ShippingTimeWeeks:   req.ShippingTimeWeeks,
		HasAdvancePayment:   req.HasAdvancePayment,
	})
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	return toSupplierResponse(sup), nil
}

// Update replaces a supplier's attributes. When the lead-time profile
// changes, a recalculation of the supplier's open orders is triggered:
// through the durable task queue when one is configured, otherwise via
// the in-process event bus.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateSupplierRequest) (transport.UpdateSupplierResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.UpdateSupplierResponse{}, err
	}

	updated, err := s.repo.Update(ctx, id, repository.UpdateSupplierParams{
		Name:                req.Name,
		ProductionTimeWeeks: req.ProductionTimeWeeks,
		ShippingTimeWeeks:   req.ShippingTimeWeeks,
		HasAdvancePayment:   req.HasAdvancePayment,
	})
	if err != nil {
		return transport.UpdateSupplierResponse{}, err
	}

	resp := transport.UpdateSupplierResponse{Supplier: toSupplierResponse(updated)}

	if !leadTimeChanged(current, updated) {
		return resp, nil
	}

	evt := events.SupplierLeadTimeChanged{
		BaseEvent:           events.NewBaseEvent(),
		SupplierID:          updated.ID,
		ProductionTimeWeeks: updated.ProductionTimeWeeks,
		ShippingTimeWeeks:   updated.ShippingTimeWeeks,
		HasAdvancePayment:   updated.HasAdvancePayment,
	}

	if s.scheduler != nil {
		if err := s.scheduler.EnqueueSupplierRecalculation(ctx, evt); err != nil {
			// The supplier row is already updated; fall back to the bus
			// so open orders do not keep a stale schedule.
			s.log.Error("failed to enqueue supplier recalculation, falling back to event bus",
				"supplier_id", updated.ID.String(), "error", err)
			s.bus.Publish(ctx, evt)
			resp.Recalculation = &transport.RecalcSummary{Mode: "inline"}
			return resp, nil
		}
		resp.Recalculation = &transport.RecalcSummary{Mode: "queued"}
		return resp, nil
	}

	s.bus.Publish(ctx, evt)
	resp.Recalculation = &transport.RecalcSummary{Mode: "inline"}
	return resp, nil
}

// Delete removes a supplier. Suppliers with order history cannot be
// deleted because orders keep a hard reference to their supplier.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("supplier has orders and cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}

func leadTimeChanged(before, after repository.Supplier) bool {
	return before.ProductionTimeWeeks != after.ProductionTimeWeeks ||
		before.ShippingTimeWeeks != after.ShippingTimeWeeks ||
		before.HasAdvancePayment != after.HasAdvancePayment
}

func toSupplierResponse(s repository.Supplier) transport.SupplierResponse {
	return transport.SupplierResponse{
		ID:                  s.ID.String(),
		Name:                s.Name,
		ProductionTimeWeeks: s.ProductionTimeWeeks,
		ShippingTimeWeeks:   s.ShippingTimeWeeks,
		HasAdvancePayment:   s.HasAdvancePayment,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

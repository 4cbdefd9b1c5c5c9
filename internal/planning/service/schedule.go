package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"importdesk_backend/internal/events"
	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/internal/planning/transport"
	"importdesk_backend/platform/apperr"
)

const dateLayout = "2006-01-02"

// recalcConcurrency bounds the fan-out of a batch recalculation. Different
// orders share no mutable state, so they may proceed in parallel.
const recalcConcurrency = 4

var terminalStatuses = map[string]bool{
	"completed": true,
	"cancelled": true,
}

// IsTerminalStatus reports whether an order status freezes its schedule.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// MaterializeOrder calculates the order's schedule from the active catalogue
// and the supplier's current lead-time profile, then atomically replaces the
// order's persisted stage set. Returns the number of materialized stages.
func (s *Service) MaterializeOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	order, err := s.repo.GetOrderForScheduling(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if IsTerminalStatus(order.Status) {
		return 0, apperr.Conflict("order schedule is frozen: order is " + order.Status)
	}

	profile, err := s.repo.GetSupplierProfile(ctx, order.SupplierID)
	if err != nil {
		return 0, err
	}

	return s.materialize(ctx, order, LeadTimeProfile{
		ProductionTimeWeeks: profile.ProductionTimeWeeks,
		ShippingTimeWeeks:   profile.ShippingTimeWeeks,
		HasAdvancePayment:   profile.HasAdvancePayment,
	})
}

func (s *Service) materialize(ctx context.Context, order repository.ScheduleOrder, profile LeadTimeProfile) (int, error) {
	templates, err := s.repo.ListActiveTemplates(ctx)
	if err != nil {
		return 0, err
	}

	planned, err := BuildSchedule(order.TargetDate, templates, profile)
	if err != nil {
		return 0, err
	}

	stages := make([]repository.StageInstanceParams, 0, len(planned))
	for _, stage := range planned {
		stages = append(stages, repository.StageInstanceParams{
			TemplateID:   stage.TemplateID,
			StageName:    stage.Name,
			Category:     stage.Category,
			StartDate:    stage.StartDate,
			EndDate:      stage.EndDate,
			DurationDays: stage.DurationDays,
			Position:     stage.Position,
		})
	}

	if err := s.repo.ReplaceOrderStages(ctx, order.ID, stages); err != nil {
		return 0, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.OrderScheduleMaterialized{
			BaseEvent:  events.NewBaseEvent(),
			OrderID:    order.ID,
			SupplierID: order.SupplierID,
			TargetDate: order.TargetDate,
			StageCount: len(stages),
		})
	}

	return len(stages), nil
}

// OrderSchedule returns the materialized stage set of one order.
func (s *Service) OrderSchedule(ctx context.Context, orderID uuid.UUID) (transport.OrderScheduleResponse, error) {
	if _, err := s.repo.GetOrderForScheduling(ctx, orderID); err != nil {
		return transport.OrderScheduleResponse{}, err
	}

	stages, err := s.repo.ListOrderStages(ctx, orderID)
	if err != nil {
		return transport.OrderScheduleResponse{}, err
	}

	items := make([]transport.StageInstanceResponse, 0, len(stages))
	for _, stage := range stages {
		items = append(items, toStageInstanceResponse(stage))
	}
	return transport.OrderScheduleResponse{OrderID: orderID, Items: items}, nil
}

// Calendar returns all stage instances overlapping the requested window,
// joined with their order references, for the reporting/calendar view.
func (s *Service) Calendar(ctx context.Context, req transport.CalendarRequest) (transport.CalendarResponse, error) {
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return transport.CalendarResponse{}, apperr.Validation("invalid from date")
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return transport.CalendarResponse{}, apperr.Validation("invalid to date")
	}
	if to.Before(from) {
		return transport.CalendarResponse{}, apperr.Validation("to date precedes from date")
	}

	stages, err := s.repo.ListStagesBetween(ctx, from, to)
	if err != nil {
		return transport.CalendarResponse{}, err
	}

	items := make([]transport.CalendarStageResponse, 0, len(stages))
	for _, stage := range stages {
		items = append(items, transport.CalendarStageResponse{
			StageInstanceResponse: toStageInstanceResponse(stage.StageInstance),
			OrderReference:        stage.OrderReference,
		})
	}
	return transport.CalendarResponse{From: req.From, To: req.To, Items: items}, nil
}

// RecalculationFailure records one order whose recalculation failed.
type RecalculationFailure struct {
	OrderID   uuid.UUID
	Reference string
	Err       error
}

// RecalculationReport summarizes the outcome of one supplier batch.
type RecalculationReport struct {
	SupplierID   uuid.UUID
	Recalculated int
	Failures     []RecalculationFailure
	OrdersTotal  int
}

// RecalculateSupplierOrders re-runs calculate+materialize for every open
// order of the supplier using the given profile. Each order is an
// independent unit of work: one failure is reported in the result but never
// aborts the rest of the batch. Terminal orders are never touched.
func (s *Service) RecalculateSupplierOrders(ctx context.Context, supplierID uuid.UUID, profile LeadTimeProfile) (RecalculationReport, error) {
	orders, err := s.repo.ListOpenOrdersBySupplier(ctx, supplierID)
	if err != nil {
		return RecalculationReport{}, err
	}

	report := RecalculationReport{SupplierID: supplierID, OrdersTotal: len(orders)}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(recalcConcurrency)

	for _, order := range orders {
		order := order
		group.Go(func() error {
			_, err := s.materialize(groupCtx, order, profile)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, RecalculationFailure{
					OrderID:   order.ID,
					Reference: order.Reference,
					Err:       err,
				})
				return nil
			}
			report.Recalculated++
			return nil
		})
	}

	// Goroutines swallow per-order errors into the report, so Wait only
	// observes context cancellation.
	if err := group.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Reference < report.Failures[j].Reference
	})

	s.log.RecalculationOutcome(supplierID.String(), report.Recalculated, len(report.Failures))
	return report, nil
}

func toStageInstanceResponse(s repository.StageInstance) transport.StageInstanceResponse {
	return transport.StageInstanceResponse{
		ID:           s.ID,
		OrderID:      s.OrderID,
		TemplateID:   s.TemplateID,
		StageName:    s.StageName,
		Category:     s.Category,
		StartDate:    s.StartDate.Format(dateLayout),
		EndDate:      s.EndDate.Format(dateLayout),
		DurationDays: s.DurationDays,
		Position:     s.Position,
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/internal/planning/transport"
	"importdesk_backend/platform/apperr"
	"importdesk_backend/platform/logger"
)

// fakeRepo is an in-memory planning repository for service tests.
type fakeRepo struct {
	mu        sync.Mutex
	templates []repository.StageTemplate
	orders    map[uuid.UUID]repository.ScheduleOrder
	profiles  map[uuid.UUID]repository.SupplierProfile
	stages    map[uuid.UUID][]repository.StageInstance

	failReplaceFor map[uuid.UUID]error
	replaceCalls   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:         make(map[uuid.UUID]repository.ScheduleOrder),
		profiles:       make(map[uuid.UUID]repository.SupplierProfile),
		stages:         make(map[uuid.UUID][]repository.StageInstance),
		failReplaceFor: make(map[uuid.UUID]error),
	}
}

func (f *fakeRepo) ListTemplates(ctx context.Context) ([]repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.StageTemplate, len(f.templates))
	copy(out, f.templates)
	return out, nil
}

func (f *fakeRepo) ListActiveTemplates(ctx context.Context) ([]repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.StageTemplate, 0, len(f.templates))
	for _, t := range f.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTemplateByID(ctx context.Context, id uuid.UUID) (repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return repository.StageTemplate{}, apperr.NotFound("stage template not found")
}

func (f *fakeRepo) CreateTemplate(ctx context.Context, params repository.CreateTemplateParams) (repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := repository.StageTemplate{
		ID:                  uuid.New(),
		Name:                params.Name,
		Category:            params.Category,
		Position:            len(f.templates) + 1,
		NominalDurationDays: params.NominalDurationDays,
		IsConditional:       params.IsConditional,
		ConditionPredicate:  params.ConditionPredicate,
		IsDynamic:           params.IsDynamic,
		DurationFormula:     params.DurationFormula,
		IsActive:            params.IsActive,
		Description:         params.Description,
	}
	f.templates = append(f.templates, t)
	return t, nil
}

func (f *fakeRepo) UpdateTemplate(ctx context.Context, params repository.UpdateTemplateParams) (repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.templates {
		if t.ID == params.ID {
			t.Name = params.Name
			t.Category = params.Category
			t.NominalDurationDays = params.NominalDurationDays
			t.IsConditional = params.IsConditional
			t.ConditionPredicate = params.ConditionPredicate
			t.IsDynamic = params.IsDynamic
			t.DurationFormula = params.DurationFormula
			t.IsActive = params.IsActive
			t.Description = params.Description
			f.templates[i] = t
			return t, nil
		}
	}
	return repository.StageTemplate{}, apperr.NotFound("stage template not found")
}

func (f *fakeRepo) SetTemplateActive(ctx context.Context, id uuid.UUID, isActive bool) (repository.StageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.templates {
		if t.ID == id {
			f.templates[i].IsActive = isActive
			return f.templates[i], nil
		}
	}
	return repository.StageTemplate{}, apperr.NotFound("stage template not found")
}

func (f *fakeRepo) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.templates {
		if t.ID == id {
			f.templates = append(f.templates[:i], f.templates[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("stage template not found")
}

func (f *fakeRepo) SwapTemplatePositions(ctx context.Context, firstID, secondID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fi, si := -1, -1
	for i, t := range f.templates {
		if t.ID == firstID {
			fi = i
		}
		if t.ID == secondID {
			si = i
		}
	}
	if fi == -1 || si == -1 {
		return apperr.NotFound("stage template not found")
	}
	f.templates[fi].Position, f.templates[si].Position = f.templates[si].Position, f.templates[fi].Position
	f.templates[fi], f.templates[si] = f.templates[si], f.templates[fi]
	return nil
}

func (f *fakeRepo) GetOrderForScheduling(ctx context.Context, orderID uuid.UUID) (repository.ScheduleOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repository.ScheduleOrder{}, apperr.NotFound("order not found")
	}
	return order, nil
}

func (f *fakeRepo) GetSupplierProfile(ctx context.Context, supplierID uuid.UUID) (repository.SupplierProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[supplierID]
	if !ok {
		return repository.SupplierProfile{}, apperr.NotFound("supplier not found")
	}
	return profile, nil
}

func (f *fakeRepo) ListOpenOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]repository.ScheduleOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.ScheduleOrder, 0)
	for _, order := range f.orders {
		if order.SupplierID == supplierID && !IsTerminalStatus(order.Status) {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceOrderStages(ctx context.Context, orderID uuid.UUID, params []repository.StageInstanceParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if err, ok := f.failReplaceFor[orderID]; ok {
		return err
	}
	stages := make([]repository.StageInstance, 0, len(params))
	for _, p := range params {
		stages = append(stages, repository.StageInstance{
			ID:           uuid.New(),
			OrderID:      orderID,
			TemplateID:   p.TemplateID,
			StageName:    p.StageName,
			Category:     p.Category,
			StartDate:    p.StartDate,
			EndDate:      p.EndDate,
			DurationDays: p.DurationDays,
			Position:     p.Position,
		})
	}
	f.stages[orderID] = stages
	return nil
}

func (f *fakeRepo) ListOrderStages(ctx context.Context, orderID uuid.UUID) ([]repository.StageInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.StageInstance, len(f.stages[orderID]))
	copy(out, f.stages[orderID])
	return out, nil
}

func (f *fakeRepo) ListStagesBetween(ctx context.Context, from, to time.Time) ([]repository.CalendarStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.CalendarStage, 0)
	for orderID, stages := range f.stages {
		for _, s := range stages {
			if !s.StartDate.After(to) && !s.EndDate.Before(from) {
				out = append(out, repository.CalendarStage{
					StageInstance:  s,
					OrderReference: f.orders[orderID].Reference,
				})
			}
		}
	}
	return out, nil
}

func newTestService(repo repository.Repository) *Service {
	return New(repo, nil, logger.New("development"))
}

func calendarRequest(from, to string) transport.CalendarRequest {
	return transport.CalendarRequest{From: from, To: to}
}

func seedOrder(repo *fakeRepo, supplierID uuid.UUID, reference, status string, target time.Time) uuid.UUID {
	id := uuid.New()
	repo.orders[id] = repository.ScheduleOrder{
		ID:         id,
		SupplierID: supplierID,
		Reference:  reference,
		TargetDate: target,
		Status:     status,
	}
	return id
}

func TestMaterializeOrderWritesContiguousStages(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}
	orderID := seedOrder(repo, supplierID, "IMP-2025-0001", "confirmed", date("2025-08-15"))

	svc := newTestService(repo)
	count, err := svc.MaterializeOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 8 {
		t.Fatalf("expected 8 stages materialized, got %d", count)
	}

	stages := repo.stages[orderID]
	if len(stages) != 8 {
		t.Fatalf("expected 8 persisted stages, got %d", len(stages))
	}
	if !stages[len(stages)-1].EndDate.Equal(date("2025-08-15")) {
		t.Fatalf("expected schedule to end on the target date, got %s", stages[len(stages)-1].EndDate)
	}
	for i := 1; i < len(stages); i++ {
		if !stages[i].StartDate.Equal(stages[i-1].EndDate) {
			t.Fatalf("persisted stages are not contiguous at position %d", i)
		}
	}
}

func TestMaterializeOrderRefusesTerminalOrders(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1}

	for _, status := range []string{"completed", "cancelled"} {
		orderID := seedOrder(repo, supplierID, "IMP-2025-0002", status, date("2025-08-15"))

		svc := newTestService(repo)
		_, err := svc.MaterializeOrder(context.Background(), orderID)
		if err == nil {
			t.Fatalf("expected error for %s order", status)
		}
		if !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("expected conflict error for %s order, got %v", status, err)
		}
		if len(repo.stages[orderID]) != 0 {
			t.Fatalf("expected no stages written for %s order", status)
		}
	}
}

func TestMaterializeOrderIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}
	orderID := seedOrder(repo, supplierID, "IMP-2025-0003", "confirmed", date("2025-08-15"))

	svc := newTestService(repo)
	if _, err := svc.MaterializeOrder(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := repo.stages[orderID]

	if _, err := svc.MaterializeOrder(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := repo.stages[orderID]

	if len(first) != len(second) {
		t.Fatalf("expected same stage count after rerun, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].StartDate.Equal(second[i].StartDate) || !first[i].EndDate.Equal(second[i].EndDate) {
			t.Fatalf("stage %d dates changed on rerun", i)
		}
	}
}

func TestMaterializeOrderUsesFreshProfileNotNominalDuration(t *testing.T) {
	repo := newFakeRepo()
	// Nominal duration carries a stale value; the formula must win.
	templates := importFlowTemplates()
	for i := range templates {
		if templates[i].IsDynamic {
			templates[i].NominalDurationDays = 99
		}
	}
	repo.templates = templates

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 2, ShippingTimeWeeks: 2}
	orderID := seedOrder(repo, supplierID, "IMP-2025-0004", "confirmed", date("2025-08-15"))

	svc := newTestService(repo)
	if _, err := svc.MaterializeOrder(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range repo.stages[orderID] {
		if s.DurationDays == 99 {
			t.Fatalf("stage %s kept its stale nominal duration", s.StageName)
		}
		if s.StageName == "Production" && s.DurationDays != 14 {
			t.Fatalf("expected production of 14 days from fresh profile, got %d", s.DurationDays)
		}
	}
}

func TestMaterializeOrderSkipsInactiveTemplates(t *testing.T) {
	repo := newFakeRepo()
	templates := importFlowTemplates()
	for i := range templates {
		if templates[i].Name == "Packing" {
			templates[i].IsActive = false
		}
	}
	repo.templates = templates

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1, HasAdvancePayment: true}
	orderID := seedOrder(repo, supplierID, "IMP-2025-0005", "confirmed", date("2025-08-15"))

	svc := newTestService(repo)
	count, err := svc.MaterializeOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7 stages without the inactive template, got %d", count)
	}
	for _, s := range repo.stages[orderID] {
		if s.StageName == "Packing" {
			t.Fatal("inactive template must not be materialized")
		}
	}
}

func TestRecalculateSupplierOrdersContinuesPastFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 3, ShippingTimeWeeks: 2, HasAdvancePayment: true}

	okID := seedOrder(repo, supplierID, "IMP-2025-0010", "confirmed", date("2025-09-01"))
	badID := seedOrder(repo, supplierID, "IMP-2025-0011", "in_production", date("2025-10-01"))
	otherOK := seedOrder(repo, supplierID, "IMP-2025-0012", "in_transit", date("2025-11-01"))
	repo.failReplaceFor[badID] = errors.New("deadlock detected")

	svc := newTestService(repo)
	report, err := svc.RecalculateSupplierOrders(context.Background(), supplierID, LeadTimeProfile{
		ProductionTimeWeeks: 3, ShippingTimeWeeks: 2, HasAdvancePayment: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.OrdersTotal != 3 {
		t.Fatalf("expected 3 orders in scope, got %d", report.OrdersTotal)
	}
	if report.Recalculated != 2 {
		t.Fatalf("expected 2 recalculated orders, got %d", report.Recalculated)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(report.Failures))
	}
	if report.Failures[0].OrderID != badID {
		t.Fatalf("expected failure for the failing order, got %s", report.Failures[0].OrderID)
	}
	if len(repo.stages[okID]) == 0 || len(repo.stages[otherOK]) == 0 {
		t.Fatal("expected the healthy orders to be rescheduled despite the failure")
	}
}

func TestRecalculateSupplierOrdersSkipsTerminalOrders(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1}

	openID := seedOrder(repo, supplierID, "IMP-2025-0020", "confirmed", date("2025-09-01"))
	doneID := seedOrder(repo, supplierID, "IMP-2025-0021", "completed", date("2025-07-01"))

	svc := newTestService(repo)
	report, err := svc.RecalculateSupplierOrders(context.Background(), supplierID, LeadTimeProfile{
		ProductionTimeWeeks: 1, ShippingTimeWeeks: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.OrdersTotal != 1 || report.Recalculated != 1 {
		t.Fatalf("expected exactly the open order recalculated, got %+v", report)
	}
	if len(repo.stages[openID]) == 0 {
		t.Fatal("expected the open order to be rescheduled")
	}
	if len(repo.stages[doneID]) != 0 {
		t.Fatal("completed order schedule must stay frozen")
	}
}

func TestRecalculateSupplierOrdersEmptyBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	svc := newTestService(repo)
	report, err := svc.RecalculateSupplierOrders(context.Background(), uuid.New(), LeadTimeProfile{
		ProductionTimeWeeks: 1, ShippingTimeWeeks: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OrdersTotal != 0 || report.Recalculated != 0 || len(report.Failures) != 0 {
		t.Fatalf("expected an empty report, got %+v", report)
	}
}

func TestCalendarRejectsInvalidWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Calendar(context.Background(), calendarRequest("2025-09-01", "2025-08-01"))
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Calendar(context.Background(), calendarRequest("not-a-date", "2025-08-01"))
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestCalendarReturnsOverlappingStagesWithOrderReference(t *testing.T) {
	repo := newFakeRepo()
	repo.templates = importFlowTemplates()

	supplierID := uuid.New()
	repo.profiles[supplierID] = repository.SupplierProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}
	orderID := seedOrder(repo, supplierID, "IMP-2025-0030", "confirmed", date("2025-08-15"))

	svc := newTestService(repo)
	if _, err := svc.MaterializeOrder(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := svc.Calendar(context.Background(), calendarRequest("2025-06-01", "2025-06-30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Fatal("expected stages overlapping the window")
	}
	for _, item := range resp.Items {
		if item.OrderReference != "IMP-2025-0030" {
			t.Fatalf("expected order reference on calendar item, got %q", item.OrderReference)
		}
	}
}

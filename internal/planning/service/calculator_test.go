package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/platform/apperr"
)

func strPtr(s string) *string { return &s }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// importFlowTemplates builds the standard eight-stage import catalogue:
// fixed preparation and payment stages around a conditional advance-payment
// stage and two dynamic supplier-driven stages.
func importFlowTemplates() []repository.StageTemplate {
	mk := func(pos int, name string, days int) repository.StageTemplate {
		return repository.StageTemplate{
			ID:                  uuid.New(),
			Name:                name,
			Category:            "general",
			Position:            pos,
			NominalDurationDays: days,
			IsActive:            true,
		}
	}

	prep := mk(1, "Preparation", 2)
	send := mk(2, "Send to Supplier", 7)

	advance := mk(3, "Advance Payment", 2)
	advance.IsConditional = true
	advance.ConditionPredicate = strPtr(PredicateRequiresAdvancePayment)

	production := mk(4, "Production", 0)
	production.IsDynamic = true
	production.DurationFormula = strPtr(FormulaProductionWeeksToDays)

	packing := mk(5, "Packing", 7)

	shipping := mk(6, "Shipping", 0)
	shipping.IsDynamic = true
	shipping.DurationFormula = strPtr(FormulaShippingWeeksToDays)

	finalPayment := mk(7, "Final Payment", 2)
	portRelease := mk(8, "Port Release", 7)

	return []repository.StageTemplate{
		prep, send, advance, production, packing, shipping, finalPayment, portRelease,
	}
}

func TestBuildScheduleWithAdvancePayment(t *testing.T) {
	profile := LeadTimeProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}

	stages, err := BuildSchedule(date("2025-08-15"), importFlowTemplates(), profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stages) != 8 {
		t.Fatalf("expected 8 stages, got %d", len(stages))
	}

	total := 0
	for _, s := range stages {
		total += s.DurationDays
	}
	if total != 76 {
		t.Fatalf("expected total duration 76 days, got %d", total)
	}

	if got := stages[0].StartDate; !got.Equal(date("2025-05-31")) {
		t.Fatalf("expected first stage to start 2025-05-31, got %s", got.Format("2006-01-02"))
	}
	if got := stages[len(stages)-1].EndDate; !got.Equal(date("2025-08-15")) {
		t.Fatalf("expected last stage to end 2025-08-15, got %s", got.Format("2006-01-02"))
	}

	// Dynamic stages resolve from the profile, not the nominal duration.
	if stages[3].Name != "Production" || stages[3].DurationDays != 28 {
		t.Fatalf("expected Production of 28 days, got %s %d", stages[3].Name, stages[3].DurationDays)
	}
	if stages[5].Name != "Shipping" || stages[5].DurationDays != 21 {
		t.Fatalf("expected Shipping of 21 days, got %s %d", stages[5].Name, stages[5].DurationDays)
	}
}

func TestBuildScheduleOmitsConditionalStageAndCompresses(t *testing.T) {
	profile := LeadTimeProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: false}

	stages, err := BuildSchedule(date("2025-08-15"), importFlowTemplates(), profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stages) != 7 {
		t.Fatalf("expected 7 stages, got %d", len(stages))
	}
	for _, s := range stages {
		if s.Name == "Advance Payment" {
			t.Fatal("expected advance payment stage to be omitted")
		}
		if s.DurationDays == 0 {
			t.Fatalf("stage %s has zero duration, schedule must compress instead", s.Name)
		}
	}

	total := 0
	for _, s := range stages {
		total += s.DurationDays
	}
	if total != 74 {
		t.Fatalf("expected total duration 74 days, got %d", total)
	}

	if got := stages[0].StartDate; !got.Equal(date("2025-06-02")) {
		t.Fatalf("expected first stage to start 2025-06-02, got %s", got.Format("2006-01-02"))
	}
	if got := stages[len(stages)-1].EndDate; !got.Equal(date("2025-08-15")) {
		t.Fatalf("expected last stage to still end 2025-08-15, got %s", got.Format("2006-01-02"))
	}
}

func TestBuildScheduleStagesAreContiguous(t *testing.T) {
	profile := LeadTimeProfile{ProductionTimeWeeks: 2, ShippingTimeWeeks: 5, HasAdvancePayment: true}

	stages, err := BuildSchedule(date("2026-01-30"), importFlowTemplates(), profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(stages); i++ {
		if !stages[i].StartDate.Equal(stages[i-1].EndDate) {
			t.Fatalf("gap between %s (ends %s) and %s (starts %s)",
				stages[i-1].Name, stages[i-1].EndDate.Format("2006-01-02"),
				stages[i].Name, stages[i].StartDate.Format("2006-01-02"))
		}
		if span := int(stages[i].EndDate.Sub(stages[i].StartDate).Hours() / 24); span != stages[i].DurationDays {
			t.Fatalf("stage %s spans %d days but declares %d", stages[i].Name, span, stages[i].DurationDays)
		}
	}
}

func TestBuildScheduleClampsLeadTimesToOneWeek(t *testing.T) {
	profile := LeadTimeProfile{ProductionTimeWeeks: 0, ShippingTimeWeeks: -3, HasAdvancePayment: false}

	stages, err := BuildSchedule(date("2025-08-15"), importFlowTemplates(), profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range stages {
		if s.Name == "Production" && s.DurationDays != 7 {
			t.Fatalf("expected production clamped to 7 days, got %d", s.DurationDays)
		}
		if s.Name == "Shipping" && s.DurationDays != 7 {
			t.Fatalf("expected shipping clamped to 7 days, got %d", s.DurationDays)
		}
	}
}

func TestBuildScheduleEmptyCatalogueYieldsEmptySchedule(t *testing.T) {
	stages, err := BuildSchedule(date("2025-08-15"), nil, LeadTimeProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stages == nil || len(stages) != 0 {
		t.Fatalf("expected empty non-nil schedule, got %v", stages)
	}
}

func TestBuildScheduleAllConditionalStagesFilteredOut(t *testing.T) {
	only := repository.StageTemplate{
		ID:                  uuid.New(),
		Name:                "Advance Payment",
		Position:            1,
		NominalDurationDays: 2,
		IsConditional:       true,
		ConditionPredicate:  strPtr(PredicateRequiresAdvancePayment),
	}

	stages, err := BuildSchedule(date("2025-08-15"), []repository.StageTemplate{only}, LeadTimeProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1, HasAdvancePayment: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stages) != 0 {
		t.Fatalf("expected empty schedule, got %d stages", len(stages))
	}
}

func TestBuildScheduleUnknownFormulaFailsLoudly(t *testing.T) {
	broken := repository.StageTemplate{
		ID:                  uuid.New(),
		Name:                "Production",
		Position:            1,
		NominalDurationDays: 14,
		IsDynamic:           true,
		DurationFormula:     strPtr("phases_of_the_moon"),
	}

	_, err := BuildSchedule(date("2025-08-15"), []repository.StageTemplate{broken}, LeadTimeProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1})
	if err == nil {
		t.Fatal("expected an error for unrecognized duration formula")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error kind, got %v", err)
	}
}

func TestBuildScheduleUnknownPredicateFailsLoudly(t *testing.T) {
	broken := repository.StageTemplate{
		ID:                  uuid.New(),
		Name:                "Mystery Gate",
		Position:            1,
		NominalDurationDays: 2,
		IsConditional:       true,
		ConditionPredicate:  strPtr("mercury_in_retrograde"),
	}

	_, err := BuildSchedule(date("2025-08-15"), []repository.StageTemplate{broken}, LeadTimeProfile{ProductionTimeWeeks: 1, ShippingTimeWeeks: 1})
	if err == nil {
		t.Fatal("expected an error for unrecognized condition predicate")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error kind, got %v", err)
	}
}

func TestBuildScheduleIsDeterministic(t *testing.T) {
	templates := importFlowTemplates()
	profile := LeadTimeProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}

	first, err := BuildSchedule(date("2025-08-15"), templates, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildSchedule(date("2025-08-15"), templates, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical schedules, got %d vs %d stages", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("stage %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildScheduleIgnoresTimeOfDayOnTargetDate(t *testing.T) {
	profile := LeadTimeProfile{ProductionTimeWeeks: 4, ShippingTimeWeeks: 3, HasAdvancePayment: true}

	noon := time.Date(2025, 8, 15, 12, 30, 0, 0, time.UTC)
	stages, err := BuildSchedule(noon, importFlowTemplates(), profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stages[len(stages)-1].EndDate; !got.Equal(date("2025-08-15")) {
		t.Fatalf("expected end date truncated to midnight, got %s", got)
	}
}

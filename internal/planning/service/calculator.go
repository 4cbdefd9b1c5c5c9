package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/platform/apperr"
)

// Closed sets of recognized condition predicates and duration formulas.
// Anything else is rejected at template save time; if an unknown value still
// reaches the calculator, it fails loudly rather than substituting a zero or
// the template's stale nominal duration.
const (
	PredicateRequiresAdvancePayment = "requires_advance_payment"

	FormulaProductionWeeksToDays = "production_weeks_to_days"
	FormulaShippingWeeksToDays   = "shipping_weeks_to_days"
)

// minLeadTimeWeeks is the documented floor for lead-time attributes: a
// supplier profile missing or understating its weeks still schedules.
const minLeadTimeWeeks = 1

// LeadTimeProfile is the supplier input that parameterizes conditional and
// dynamic stages.
type LeadTimeProfile struct {
	ProductionTimeWeeks int
	ShippingTimeWeeks   int
	HasAdvancePayment   bool
}

func (p LeadTimeProfile) normalized() LeadTimeProfile {
	if p.ProductionTimeWeeks < minLeadTimeWeeks {
		p.ProductionTimeWeeks = minLeadTimeWeeks
	}
	if p.ShippingTimeWeeks < minLeadTimeWeeks {
		p.ShippingTimeWeeks = minLeadTimeWeeks
	}
	return p
}

// PlannedStage is one dated stage produced by the calculator.
type PlannedStage struct {
	TemplateID   uuid.UUID
	Name         string
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	Position     int
}

var conditionPredicates = map[string]func(LeadTimeProfile) bool{
	PredicateRequiresAdvancePayment: func(p LeadTimeProfile) bool { return p.HasAdvancePayment },
}

var durationFormulas = map[string]func(LeadTimeProfile) int{
	FormulaProductionWeeksToDays: func(p LeadTimeProfile) int { return p.ProductionTimeWeeks * 7 },
	FormulaShippingWeeksToDays:   func(p LeadTimeProfile) int { return p.ShippingTimeWeeks * 7 },
}

// KnownPredicate reports whether name is a recognized condition predicate.
func KnownPredicate(name string) bool {
	_, ok := conditionPredicates[name]
	return ok
}

// KnownFormula reports whether name is a recognized duration formula.
func KnownFormula(name string) bool {
	_, ok := durationFormulas[name]
	return ok
}

// BuildSchedule derives the dated stage sequence for one order by backward
// scheduling: the total effective duration is subtracted from the target
// date to anchor the first stage, then stages are laid out forward without
// gaps so the last stage ends exactly on the target date. Pure function:
// no I/O, deterministic for identical inputs.
func BuildSchedule(targetDate time.Time, templates []repository.StageTemplate, profile LeadTimeProfile) ([]PlannedStage, error) {
	profile = profile.normalized()
	target := truncateToDay(targetDate)

	type resolved struct {
		template repository.StageTemplate
		duration int
	}

	surviving := make([]resolved, 0, len(templates))
	totalDuration := 0
	for _, t := range templates {
		if t.IsConditional {
			if t.ConditionPredicate == nil {
				return nil, apperr.Internal(fmt.Sprintf("stage template %q is conditional but has no condition predicate", t.Name))
			}
			predicate, ok := conditionPredicates[*t.ConditionPredicate]
			if !ok {
				return nil, apperr.Internal(fmt.Sprintf("stage template %q has unrecognized condition predicate %q", t.Name, *t.ConditionPredicate))
			}
			if !predicate(profile) {
				// Omitted entirely: the schedule compresses, it does
				// not leave a zero-length hole.
				continue
			}
		}

		duration := t.NominalDurationDays
		if t.IsDynamic {
			if t.DurationFormula == nil {
				return nil, apperr.Internal(fmt.Sprintf("stage template %q is dynamic but has no duration formula", t.Name))
			}
			formula, ok := durationFormulas[*t.DurationFormula]
			if !ok {
				return nil, apperr.Internal(fmt.Sprintf("stage template %q has unrecognized duration formula %q", t.Name, *t.DurationFormula))
			}
			duration = formula(profile)
		}

		surviving = append(surviving, resolved{template: t, duration: duration})
		totalDuration += duration
	}

	if len(surviving) == 0 {
		return []PlannedStage{}, nil
	}

	cursor := target.AddDate(0, 0, -totalDuration)
	stages := make([]PlannedStage, 0, len(surviving))
	for _, item := range surviving {
		end := cursor.AddDate(0, 0, item.duration)
		stages = append(stages, PlannedStage{
			TemplateID:   item.template.ID,
			Name:         item.template.Name,
			Category:     item.template.Category,
			StartDate:    cursor,
			EndDate:      end,
			DurationDays: item.duration,
			Position:     item.template.Position,
		})
		cursor = end
	}

	return stages, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

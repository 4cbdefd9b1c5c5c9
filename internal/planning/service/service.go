package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"importdesk_backend/internal/events"
	"importdesk_backend/internal/planning/repository"
	"importdesk_backend/internal/planning/transport"
	"importdesk_backend/platform/apperr"
	"importdesk_backend/platform/logger"
)

const defaultCategory = "general"

// Move directions for template reordering.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// Service provides the planning business logic: the stage template
// catalogue, schedule calculation, materialization and recalculation.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new planning service. The event bus may be nil in contexts
// that do not publish domain events (e.g., some tests).
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// ListTemplates returns the whole catalogue ordered by position.
func (s *Service) ListTemplates(ctx context.Context) (transport.TemplateListResponse, error) {
	items, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}
	return toTemplateListResponse(items), nil
}

// CreateTemplate validates and appends a template to the catalogue.
func (s *Service) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	if err := validateTemplateConfig(req.IsConditional, req.ConditionPredicate, req.IsDynamic, req.DurationFormula); err != nil {
		return transport.TemplateResponse{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	created, err := s.repo.CreateTemplate(ctx, repository.CreateTemplateParams{
		Name:                strings.TrimSpace(req.Name),
		Category:            normalizeCategory(req.Category),
		NominalDurationDays: req.NominalDurationDays,
		IsConditional:       req.IsConditional,
		ConditionPredicate:  req.ConditionPredicate,
		IsDynamic:           req.IsDynamic,
		DurationFormula:     req.DurationFormula,
		IsActive:            isActive,
		Description:         req.Description,
	})
	if err != nil {
		return transport.TemplateResponse{}, err
	}

	s.log.Info("stage template created", "id", created.ID, "name", created.Name, "position", created.Position)
	return toTemplateResponse(created), nil
}

// UpdateTemplate fully replaces the editable fields of a template.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	if err := validateTemplateConfig(req.IsConditional, req.ConditionPredicate, req.IsDynamic, req.DurationFormula); err != nil {
		return transport.TemplateResponse{}, err
	}

	updated, err := s.repo.UpdateTemplate(ctx, repository.UpdateTemplateParams{
		ID:                  id,
		Name:                strings.TrimSpace(req.Name),
		Category:            normalizeCategory(req.Category),
		NominalDurationDays: req.NominalDurationDays,
		IsConditional:       req.IsConditional,
		ConditionPredicate:  req.ConditionPredicate,
		IsDynamic:           req.IsDynamic,
		DurationFormula:     req.DurationFormula,
		IsActive:            req.IsActive,
		Description:         req.Description,
	})
	if err != nil {
		return transport.TemplateResponse{}, err
	}

	s.log.Info("stage template updated", "id", updated.ID, "name", updated.Name)
	return toTemplateResponse(updated), nil
}

// MoveTemplate swaps a template's position with its neighbour in the given
// direction. At either end of the catalogue the move is a no-op.
func (s *Service) MoveTemplate(ctx context.Context, id uuid.UUID, direction string) (transport.TemplateListResponse, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}

	current := -1
	for i, t := range templates {
		if t.ID == id {
			current = i
			break
		}
	}
	if current == -1 {
		return transport.TemplateListResponse{}, apperr.NotFound("stage template not found")
	}

	neighbour := current - 1
	if direction == MoveDown {
		neighbour = current + 1
	}
	if neighbour < 0 || neighbour >= len(templates) {
		// Boundary: nothing to swap with.
		return toTemplateListResponse(templates), nil
	}

	if err := s.repo.SwapTemplatePositions(ctx, templates[current].ID, templates[neighbour].ID); err != nil {
		return transport.TemplateListResponse{}, err
	}

	reordered, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}
	return toTemplateListResponse(reordered), nil
}

// SetTemplateActive toggles inclusion in future scheduling. Materialized
// stage instances are never rewritten by a toggle.
func (s *Service) SetTemplateActive(ctx context.Context, id uuid.UUID, isActive bool) (transport.TemplateResponse, error) {
	updated, err := s.repo.SetTemplateActive(ctx, id, isActive)
	if err != nil {
		return transport.TemplateResponse{}, err
	}

	s.log.Info("stage template toggled", "id", updated.ID, "isActive", updated.IsActive)
	return toTemplateResponse(updated), nil
}

// DeleteTemplate removes a template from the catalogue. Stage instances
// referencing it keep their dangling template id.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}

	s.log.Info("stage template deleted", "id", id)
	return nil
}

// validateTemplateConfig rejects unrecognized predicates and formulas at
// save time, so they can never surface during a calculation.
func validateTemplateConfig(isConditional bool, predicate *string, isDynamic bool, formula *string) error {
	if isConditional {
		if predicate == nil || strings.TrimSpace(*predicate) == "" {
			return apperr.Validation("conditional template requires a condition predicate")
		}
	}
	if predicate != nil && !KnownPredicate(*predicate) {
		return apperr.Validation("unrecognized condition predicate: " + *predicate)
	}

	if isDynamic {
		if formula == nil || strings.TrimSpace(*formula) == "" {
			return apperr.Validation("dynamic template requires a duration formula")
		}
	}
	if formula != nil && !KnownFormula(*formula) {
		return apperr.Validation("unrecognized duration formula: " + *formula)
	}

	return nil
}

func normalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return defaultCategory
	}
	return trimmed
}

func toTemplateResponse(t repository.StageTemplate) transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:                  t.ID,
		Name:                t.Name,
		Category:            t.Category,
		Position:            t.Position,
		NominalDurationDays: t.NominalDurationDays,
		IsConditional:       t.IsConditional,
		ConditionPredicate:  t.ConditionPredicate,
		IsDynamic:           t.IsDynamic,
		DurationFormula:     t.DurationFormula,
		IsActive:            t.IsActive,
		Description:         t.Description,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func toTemplateListResponse(items []repository.StageTemplate) transport.TemplateListResponse {
	responses := make([]transport.TemplateResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toTemplateResponse(item))
	}
	return transport.TemplateListResponse{Items: responses, Total: len(responses)}
}

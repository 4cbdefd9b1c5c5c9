package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"importdesk_backend/platform/apperr"
)

const templateNotFoundMessage = "stage template not found"

const templateColumns = `id, name, category, position, nominal_duration_days,
		is_conditional, condition_predicate, is_dynamic, duration_formula,
		is_active, description, created_at, updated_at`

// Repo implements the planning repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new planning repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanTemplate(row pgx.Row) (StageTemplate, error) {
	var t StageTemplate
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&t.ID, &t.Name, &t.Category, &t.Position, &t.NominalDurationDays,
		&t.IsConditional, &t.ConditionPredicate, &t.IsDynamic, &t.DurationFormula,
		&t.IsActive, &t.Description, &createdAt, &updatedAt,
	); err != nil {
		return StageTemplate{}, err
	}
	t.CreatedAt = createdAt.Format(time.RFC3339)
	t.UpdatedAt = updatedAt.Format(time.RFC3339)
	return t, nil
}

func (r *Repo) listTemplates(ctx context.Context, query string, args ...interface{}) ([]StageTemplate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stage templates: %w", err)
	}
	defer rows.Close()

	items := make([]StageTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage template: %w", err)
		}
		items = append(items, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate stage templates: %w", rows.Err())
	}
	return items, nil
}

// ListTemplates lists every template ordered by position.
func (r *Repo) ListTemplates(ctx context.Context) ([]StageTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM stage_templates ORDER BY position ASC`, templateColumns)
	return r.listTemplates(ctx, query)
}

// ListActiveTemplates lists active templates ordered by position.
// This is the only view the schedule calculator consumes.
func (r *Repo) ListActiveTemplates(ctx context.Context) ([]StageTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM stage_templates WHERE is_active ORDER BY position ASC`, templateColumns)
	return r.listTemplates(ctx, query)
}

// GetTemplateByID retrieves a template by ID.
func (r *Repo) GetTemplateByID(ctx context.Context, id uuid.UUID) (StageTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM stage_templates WHERE id = $1`, templateColumns)
	t, err := scanTemplate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StageTemplate{}, apperr.NotFound(templateNotFoundMessage)
		}
		return StageTemplate{}, fmt.Errorf("get stage template by id: %w", err)
	}
	return t, nil
}

// CreateTemplate inserts a template at the end of the catalogue.
func (r *Repo) CreateTemplate(ctx context.Context, params CreateTemplateParams) (StageTemplate, error) {
	query := fmt.Sprintf(`
		INSERT INTO stage_templates (
			name, category, position, nominal_duration_days,
			is_conditional, condition_predicate, is_dynamic, duration_formula,
			is_active, description
		)
		VALUES (
			$1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM stage_templates),
			$3, $4, $5, $6, $7, $8, $9
		)
		RETURNING %s`, templateColumns)

	t, err := scanTemplate(r.pool.QueryRow(ctx, query,
		params.Name, params.Category, params.NominalDurationDays,
		params.IsConditional, params.ConditionPredicate, params.IsDynamic, params.DurationFormula,
		params.IsActive, params.Description,
	))
	if err != nil {
		return StageTemplate{}, fmt.Errorf("create stage template: %w", err)
	}
	return t, nil
}

// UpdateTemplate fully replaces the editable fields of a template.
func (r *Repo) UpdateTemplate(ctx context.Context, params UpdateTemplateParams) (StageTemplate, error) {
	query := fmt.Sprintf(`
		UPDATE stage_templates
		SET name = $2,
			category = $3,
			nominal_duration_days = $4,
			is_conditional = $5,
			condition_predicate = $6,
			is_dynamic = $7,
			duration_formula = $8,
			is_active = $9,
			description = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, templateColumns)

	t, err := scanTemplate(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Category, params.NominalDurationDays,
		params.IsConditional, params.ConditionPredicate, params.IsDynamic, params.DurationFormula,
		params.IsActive, params.Description,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StageTemplate{}, apperr.NotFound(templateNotFoundMessage)
		}
		return StageTemplate{}, fmt.Errorf("update stage template: %w", err)
	}
	return t, nil
}

// SetTemplateActive toggles a template's inclusion in future scheduling.
// Already-materialized stage instances are untouched.
func (r *Repo) SetTemplateActive(ctx context.Context, id uuid.UUID, isActive bool) (StageTemplate, error) {
	query := fmt.Sprintf(`
		UPDATE stage_templates
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, templateColumns)

	t, err := scanTemplate(r.pool.QueryRow(ctx, query, id, isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StageTemplate{}, apperr.NotFound(templateNotFoundMessage)
		}
		return StageTemplate{}, fmt.Errorf("set stage template active: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes a template. order_stage_instances.template_id is a
// weak reference, so historical schedules keep their (now dangling) ids.
func (r *Repo) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM stage_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stage template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMessage)
	}
	return nil
}

// SwapTemplatePositions exchanges the positions of two templates as one
// atomic unit. Both rows are locked in a stable order to avoid deadlocks
// between concurrent reorders, and the swap itself is a single statement so
// no reader can observe a duplicate position.
func (r *Repo) SwapTemplatePositions(ctx context.Context, firstID, secondID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin swap transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id FROM stage_templates
		WHERE id = $1 OR id = $2
		ORDER BY id
		FOR UPDATE`, firstID, secondID)
	if err != nil {
		return fmt.Errorf("lock templates for swap: %w", err)
	}
	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked template: %w", err)
		}
		locked++
	}
	rows.Close()
	if rows.Err() != nil {
		return fmt.Errorf("iterate locked templates: %w", rows.Err())
	}
	if locked != 2 {
		return apperr.NotFound(templateNotFoundMessage)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stage_templates st
		SET position = other.position, updated_at = now()
		FROM stage_templates other
		WHERE st.id IN ($1, $2)
		  AND other.id IN ($1, $2)
		  AND st.id <> other.id`, firstID, secondID); err != nil {
		return fmt.Errorf("swap template positions: %w", err)
	}

	return tx.Commit(ctx)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"importdesk_backend/platform/apperr"
)

const (
	orderNotFoundMessage    = "order not found"
	supplierNotFoundMessage = "supplier not found"
)

// GetOrderForScheduling loads the order fields the scheduling engine needs.
func (r *Repo) GetOrderForScheduling(ctx context.Context, orderID uuid.UUID) (ScheduleOrder, error) {
	query := `
		SELECT id, supplier_id, reference, target_date, status
		FROM orders
		WHERE id = $1`

	var o ScheduleOrder
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&o.ID, &o.SupplierID, &o.Reference, &o.TargetDate, &o.Status,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScheduleOrder{}, apperr.NotFound(orderNotFoundMessage)
		}
		return ScheduleOrder{}, fmt.Errorf("get order for scheduling: %w", err)
	}
	return o, nil
}

// GetSupplierProfile loads a supplier's lead-time attributes.
func (r *Repo) GetSupplierProfile(ctx context.Context, supplierID uuid.UUID) (SupplierProfile, error) {
	query := `
		SELECT production_time_weeks, shipping_time_weeks, has_advance_payment
		FROM suppliers
		WHERE id = $1`

	var p SupplierProfile
	if err := r.pool.QueryRow(ctx, query, supplierID).Scan(
		&p.ProductionTimeWeeks, &p.ShippingTimeWeeks, &p.HasAdvancePayment,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SupplierProfile{}, apperr.NotFound(supplierNotFoundMessage)
		}
		return SupplierProfile{}, fmt.Errorf("get supplier profile: %w", err)
	}
	return p, nil
}

// ListOpenOrdersBySupplier returns every order of a supplier whose status is
// not terminal. Terminal orders keep their historical schedule frozen.
func (r *Repo) ListOpenOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]ScheduleOrder, error) {
	query := `
		SELECT id, supplier_id, reference, target_date, status
		FROM orders
		WHERE supplier_id = $1
		  AND status NOT IN ('completed', 'cancelled')
		ORDER BY target_date ASC`

	rows, err := r.pool.Query(ctx, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list open orders by supplier: %w", err)
	}
	defer rows.Close()

	items := make([]ScheduleOrder, 0)
	for rows.Next() {
		var o ScheduleOrder
		if err := rows.Scan(&o.ID, &o.SupplierID, &o.Reference, &o.TargetDate, &o.Status); err != nil {
			return nil, fmt.Errorf("scan open order: %w", err)
		}
		items = append(items, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate open orders: %w", rows.Err())
	}
	return items, nil
}

// ReplaceOrderStages deletes the order's existing stage set and inserts the
// calculated one in a single transaction. The advisory lock serializes
// competing replacements for the same order, so the persisted set always
// corresponds to exactly one calculation. On any failure the previous set
// survives the rollback untouched.
func (r *Repo) ReplaceOrderStages(ctx context.Context, orderID uuid.UUID, stages []StageInstanceParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin materialize transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, orderID,
	); err != nil {
		return fmt.Errorf("acquire order schedule lock: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM order_stage_instances WHERE order_id = $1`, orderID,
	); err != nil {
		return fmt.Errorf("delete stage instances: %w", err)
	}

	insertQuery := `
		INSERT INTO order_stage_instances (
			order_id, template_id, stage_name, category,
			start_date, end_date, duration_days, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, stage := range stages {
		if _, err := tx.Exec(ctx, insertQuery,
			orderID, stage.TemplateID, stage.StageName, stage.Category,
			stage.StartDate, stage.EndDate, stage.DurationDays, stage.Position,
		); err != nil {
			return fmt.Errorf("insert stage instance: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListOrderStages returns the materialized stage set of one order, ordered
// by position.
func (r *Repo) ListOrderStages(ctx context.Context, orderID uuid.UUID) ([]StageInstance, error) {
	query := `
		SELECT id, order_id, template_id, stage_name, category,
			start_date, end_date, duration_days, position
		FROM order_stage_instances
		WHERE order_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order stages: %w", err)
	}
	defer rows.Close()

	items := make([]StageInstance, 0)
	for rows.Next() {
		var s StageInstance
		if err := rows.Scan(
			&s.ID, &s.OrderID, &s.TemplateID, &s.StageName, &s.Category,
			&s.StartDate, &s.EndDate, &s.DurationDays, &s.Position,
		); err != nil {
			return nil, fmt.Errorf("scan order stage: %w", err)
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order stages: %w", rows.Err())
	}
	return items, nil
}

// ListStagesBetween returns stage instances overlapping the [from, to] window
// across all orders, for the calendar view.
func (r *Repo) ListStagesBetween(ctx context.Context, from, to time.Time) ([]CalendarStage, error) {
	query := `
		SELECT i.id, i.order_id, i.template_id, i.stage_name, i.category,
			i.start_date, i.end_date, i.duration_days, i.position, o.reference
		FROM order_stage_instances i
		JOIN orders o ON o.id = i.order_id
		WHERE i.start_date <= $2 AND i.end_date >= $1
		ORDER BY i.start_date ASC, o.reference ASC, i.position ASC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list stages between: %w", err)
	}
	defer rows.Close()

	items := make([]CalendarStage, 0)
	for rows.Next() {
		var s CalendarStage
		if err := rows.Scan(
			&s.ID, &s.OrderID, &s.TemplateID, &s.StageName, &s.Category,
			&s.StartDate, &s.EndDate, &s.DurationDays, &s.Position, &s.OrderReference,
		); err != nil {
			return nil, fmt.Errorf("scan calendar stage: %w", err)
		}
		items = append(items, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate calendar stages: %w", rows.Err())
	}
	return items, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"importdesk_backend/platform/apperr"
)

const orderNotFoundMessage = "order not found"

const orderColumns = `o.id, o.supplier_id, s.name, o.reference, o.target_date, o.status, o.created_at, o.updated_at`

// Repo implements the orders repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&o.ID, &o.SupplierID, &o.SupplierName, &o.Reference, &o.TargetDate, &o.Status,
		&createdAt, &updatedAt,
	); err != nil {
		return Order{}, err
	}
	o.CreatedAt = createdAt.Format(time.RFC3339)
	o.UpdatedAt = updatedAt.Format(time.RFC3339)
	return o, nil
}

// Create inserts a new order.
func (r *Repo) Create(ctx context.Context, params CreateOrderParams) (Order, error) {
	query := fmt.Sprintf(`
		WITH inserted AS (
			INSERT INTO orders (supplier_id, reference, target_date, status)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT %s
		FROM inserted o
		JOIN suppliers s ON s.id = o.supplier_id`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query,
		params.SupplierID, params.Reference, params.TargetDate, params.Status,
	))
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// GetByID retrieves an order by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE o.id = $1`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get order by id: %w", err)
	}
	return o, nil
}

// List lists orders with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListOrdersParams) ([]Order, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.SupplierID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("o.supplier_id = $%d", argIdx))
		args = append(args, *params.SupplierID)
		argIdx++
	}

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("o.status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(o.reference ILIKE $%d OR s.name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM orders o
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE %s
		ORDER BY o.target_date ASC, o.reference ASC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	items := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, o)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", rows.Err())
	}

	return items, total, nil
}

// UpdateStatus sets an order's status. The target date is deliberately not
// updatable: it anchors the schedule and is immutable once set.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Order, error) {
	query := fmt.Sprintf(`
		WITH updated AS (
			UPDATE orders
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT %s
		FROM updated o
		JOIN suppliers s ON s.id = o.supplier_id`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

// Delete removes an order. Its stage instances go with it (FK cascade).
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// NextReference generates the next order reference for the current year,
// e.g. IMP-2026-0042.
func (r *Repo) NextReference(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("IMP-%d-", year)

	query := `
		SELECT reference FROM orders
		WHERE reference LIKE $1
		ORDER BY reference DESC
		LIMIT 1`

	nextNum := 1
	var latest string
	err := r.pool.QueryRow(ctx, query, prefix+"%").Scan(&latest)
	switch {
	case err == nil:
		if parsed, parseErr := strconv.Atoi(strings.TrimPrefix(latest, prefix)); parseErr == nil {
			nextNum = parsed + 1
		}
	case errors.Is(err, pgx.ErrNoRows):
		// First order of the year.
	default:
		return "", fmt.Errorf("next order reference: %w", err)
	}

	return fmt.Sprintf("%s%04d", prefix, nextNum), nil
}

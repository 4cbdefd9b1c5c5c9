// Package repository provides PostgreSQL persistence for suppliers.
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

// Supplier represents an import supplier with its lead-time profile.
type Supplier struct {
	ID                  uuid.UUID
	Name                string
	ProductionTimeWeeks int
	ShippingTimeWeeks   int
	HasAdvancePayment   bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateSupplierParams holds the fields needed to create a supplier.
type CreateSupplierParams struct {
	Name                string
	ProductionTimeWeeks int
	ShippingTimeWeeks   int
	HasAdvancePayment   bool
}

// UpdateSupplierParams holds the fields for a full supplier update.
type UpdateSupplierParams struct {
	Name                string
	ProductionTimeWeeks int
	ShippingTimeWeeks   int
	HasAdvancePayment   bool
}

// Repository defines the persistence operations of the suppliers context.
type Repository interface {
	Create(ctx context.Context, params CreateSupplierParams) (Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateSupplierParams) (Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrders(ctx context.Context, id uuid.UUID) (int, error)
}

// Repo implements Repository backed by pgx.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new suppliers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const supplierNotFoundMessage = "supplier not found"

const supplierColumns = `id, name, production_time_weeks, shipping_time_weeks, has_advance_payment, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.ProductionTimeWeeks,
		&s.ShippingTimeWeeks,
		&s.HasAdvancePayment,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *Repo) Create(ctx context.Context, params CreateSupplierParams) (Supplier, error) {
	query := `
		INSERT INTO suppliers (name, production_time_weeks, shipping_time_weeks, has_advance_payment)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + supplierColumns

	s, err := scanSupplier(r.pool.QueryRow(ctx, query,
		params.Name,
		params.ProductionTimeWeeks,
		params.ShippingTimeWeeks,
		params.HasAdvancePayment,
	))
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return s, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	s, err := scanSupplier(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, apperr.NotFound(supplierNotFoundMessage)
		}
		return Supplier{}, fmt.Errorf("get supplier by id: %w", err)
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context) ([]Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", rows.Err())
	}
	return suppliers, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, params UpdateSupplierParams) (Supplier, error) {
	query := `
		UPDATE suppliers
		SET name = $2,
		    production_time_weeks = $3,
		    shipping_time_weeks = $4,
		    has_advance_payment = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + supplierColumns

	s, err := scanSupplier(r.pool.QueryRow(ctx, query,
		id,
		params.Name,
		params.ProductionTimeWeeks,
		params.ShippingTimeWeeks,
		params.HasAdvancePayment,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, apperr.NotFound(supplierNotFoundMessage)
		}
		return Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	return s, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(supplierNotFoundMessage)
	}
	return nil
}

// CountOrders returns the number of orders referencing the supplier.
// Used to block deletion of suppliers with order history.
func (r *Repo) CountOrders(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE supplier_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count supplier orders: %w", err)
	}
	return count, nil
}

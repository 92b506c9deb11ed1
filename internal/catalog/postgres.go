package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists products to PostgreSQL. It implements Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	q := `
		INSERT INTO products (id, name, quantity_kg, price_per_kg, owner, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(ctx, q,
		p.ID, p.Name, p.QuantityKg, p.PricePerKg, p.Owner, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now().UTC()

	q := `
		UPDATE products
		SET name = $2, quantity_kg = $3, price_per_kg = $4, owner = $5, status = $6, updated_at = $7
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, q,
		p.ID, p.Name, p.QuantityKg, p.PricePerKg, p.Owner, p.Status, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Product, error) {
	p := &Product{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, quantity_kg, price_per_kg, owner, status, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.QuantityKg, &p.PricePerKg, &p.Owner, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, status Status) ([]*Product, error) {
	q := `SELECT id, name, quantity_kg, price_per_kg, owner, status, created_at, updated_at
	      FROM products`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.QuantityKg, &p.PricePerKg, &p.Owner, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}

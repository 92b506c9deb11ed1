package actors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry persists actors to PostgreSQL. It implements Registry.
type PostgresRegistry struct {
	db *pgxpool.Pool
}

// NewPostgresRegistry creates a PostgresRegistry backed by the given pool.
func NewPostgresRegistry(db *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Create implements Registry.
func (r *PostgresRegistry) Create(ctx context.Context, a *Actor) error {
	a.CreatedAt = time.Now().UTC()

	q := `
		INSERT INTO actors (id, role, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, q, a.ID, a.Role, a.DisplayName, a.PasswordHash, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("create actor: %w", err)
	}
	return nil
}

// Get implements Registry.
func (r *PostgresRegistry) Get(ctx context.Context, id string) (*Actor, error) {
	a := &Actor{}
	err := r.db.QueryRow(ctx,
		`SELECT id, role, display_name, password_hash, created_at FROM actors WHERE id = $1`, id,
	).Scan(&a.ID, &a.Role, &a.DisplayName, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get actor %s: %w", id, err)
	}
	return a, nil
}

// List implements Registry.
func (r *PostgresRegistry) List(ctx context.Context) ([]*Actor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, role, display_name, password_hash, created_at FROM actors ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var out []*Actor
	for rows.Next() {
		a := &Actor{}
		if err := rows.Scan(&a.ID, &a.Role, &a.DisplayName, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan actor row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

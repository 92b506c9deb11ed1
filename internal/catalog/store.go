package catalog

import "context"

// Store is the persistence interface for products.
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Create inserts a new product. Returns ErrDuplicateID if the id exists.
	Create(ctx context.Context, p *Product) error

	// Update replaces the stored product with the same id.
	Update(ctx context.Context, p *Product) error

	// Get returns the product with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Product, error)

	// List returns products ordered by creation time. An empty status
	// returns all products.
	List(ctx context.Context, status Status) ([]*Product, error)

	// Clear removes every product. Used only by the admin chain reset.
	Clear(ctx context.Context) error
}

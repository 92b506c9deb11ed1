// Package catalog holds the current marketplace view of products. Product
// state is derived from the ledger: a listing block creates a product, a
// transfer block changes its owner and status, and a chain reset removes it.
package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a product lookup finds no matching record.
var ErrNotFound = errors.New("product not found")

// ErrDuplicateID is returned when a listing reuses an existing product id.
var ErrDuplicateID = errors.New("product id already listed")

// Status is the lifecycle state of a product. The only permitted transition
// is listed → sold; reversal requires a whole-chain admin reset.
type Status string

const (
	StatusListed Status = "listed"
	StatusSold   Status = "sold"
)

// Product is one tradeable lot of produce.
type Product struct {
	ID         string    `json:"id"           db:"id"`
	Name       string    `json:"name"         db:"name"`
	QuantityKg float64   `json:"quantity_kg"  db:"quantity_kg"`
	PricePerKg float64   `json:"price_per_kg" db:"price_per_kg"`
	Owner      string    `json:"owner"        db:"owner"`
	Status     Status    `json:"status"       db:"status"`
	CreatedAt  time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"   db:"updated_at"`
}

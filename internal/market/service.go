// Package market implements the Agronova marketplace operations on top of
// the ledger: role-gated writes (list, order, reset) and the read-only
// provenance queries (trace, explorer, status listings).
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agronova-labs/agronova/internal/access"
	"github.com/agronova-labs/agronova/internal/actors"
	"github.com/agronova-labs/agronova/internal/catalog"
	"github.com/agronova-labs/agronova/internal/ledger"
	"github.com/agronova-labs/agronova/internal/trace"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service composes access control, the ledger, the trace index, the product
// catalog and the actor registry. Writes are serialised by a single mutex so
// that a ledger append, its catalog mutation and its trace index entry commit
// as one unit. Reads never take the write lock.
type Service struct {
	writeMu   sync.Mutex
	ledger    ledger.Ledger
	index     *trace.Index
	products  catalog.Store
	actors    actors.Registry
	corrupted atomic.Bool
	logger    *zap.Logger
}

// NewService creates a market Service.
func NewService(l ledger.Ledger, idx *trace.Index, products catalog.Store, reg actors.Registry, logger *zap.Logger) *Service {
	return &Service{
		ledger:   l,
		index:    idx,
		products: products,
		actors:   reg,
		logger:   logger,
	}
}

// ListingInput is the caller-supplied description of a new listing.
// ID may be empty, in which case one is generated.
type ListingInput struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	QuantityKg float64 `json:"quantity_kg"`
	PricePerKg float64 `json:"price_per_kg"`
}

// TraceResult classifies a product's block history.
type TraceResult struct {
	Listing  *ledger.Block `json:"listing"`
	Transfer *ledger.Block `json:"transfer"`
}

// ListProduct records a new listing: the farmer puts produce on the market.
// On success the product exists in the catalog with status listed and a
// listing block is committed to the chain.
func (s *Service) ListProduct(ctx context.Context, actorID string, role access.Role, in ListingInput) (*catalog.Product, *ledger.Block, error) {
	if s.corrupted.Load() {
		return nil, nil, ErrChainCorrupted
	}
	if err := validateListing(in); err != nil {
		return nil, nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = generateProductID()
	}

	now := time.Now().UTC()
	product := &catalog.Product{
		ID:         id,
		Name:       strings.TrimSpace(in.Name),
		QuantityKg: in.QuantityKg,
		PricePerKg: in.PricePerKg,
		Owner:      actorID,
		Status:     catalog.StatusListed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := access.Authorize(actorID, role, access.OpListProduct, product); err != nil {
		return nil, nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.products.Get(ctx, id); err == nil {
		return nil, nil, fmt.Errorf("product %s: %w: id already listed", id, ErrInvalidInput)
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return nil, nil, err
	}

	block, err := s.ledger.Append(ctx, id, ledger.KindListing, actorID, ledger.ListingPayload{
		Name:       product.Name,
		QuantityKg: product.QuantityKg,
		PricePerKg: product.PricePerKg,
		Owner:      actorID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("append listing block: %w", err)
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, nil, fmt.Errorf("store product %s: %w", id, err)
	}
	s.index.Record(id, block.Index)

	s.logger.Info("product listed",
		zap.String("product_id", id),
		zap.String("owner", actorID),
		zap.Int64("block", block.Index),
	)
	return product, block, nil
}

// OrderProduct transfers a listed product to buyer. An empty buyer means the
// ordering broker buys for themselves. The buyer must be a registered actor.
func (s *Service) OrderProduct(ctx context.Context, actorID string, role access.Role, productID, buyer string) (*catalog.Product, *ledger.Block, error) {
	if s.corrupted.Load() {
		return nil, nil, ErrChainCorrupted
	}

	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		buyer = actorID
	}
	if _, err := s.actors.Get(ctx, buyer); err != nil {
		if errors.Is(err, actors.ErrNotFound) {
			return nil, nil, fmt.Errorf("buyer %q is not a registered actor: %w", buyer, ErrInvalidInput)
		}
		return nil, nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	if err := access.Authorize(actorID, role, access.OpOrderProduct, product); err != nil {
		return nil, nil, err
	}

	block, err := s.ledger.Append(ctx, productID, ledger.KindTransfer, actorID, ledger.TransferPayload{
		From: product.Owner,
		To:   buyer,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("append transfer block: %w", err)
	}

	product.Owner = buyer
	product.Status = catalog.StatusSold
	product.UpdatedAt = time.Now().UTC()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, nil, fmt.Errorf("update product %s: %w", productID, err)
	}
	s.index.Record(productID, block.Index)

	s.logger.Info("product ordered",
		zap.String("product_id", productID),
		zap.String("buyer", buyer),
		zap.Int64("block", block.Index),
	)
	return product, block, nil
}

// Trace returns the listing and transfer blocks of a product's history.
// Unknown ids yield an empty result, not an error.
func (s *Service) Trace(ctx context.Context, productID string) (*TraceResult, error) {
	result := &TraceResult{}
	for _, idx := range s.index.History(productID) {
		block, err := s.ledger.Get(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", productID, err)
		}
		switch block.Kind {
		case ledger.KindListing:
			if result.Listing == nil {
				result.Listing = block
			}
		case ledger.KindTransfer:
			if result.Transfer == nil {
				result.Transfer = block
			}
		}
	}
	return result, nil
}

// ListByStatus returns products filtered by status; empty status means all.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]*catalog.Product, error) {
	switch catalog.Status(status) {
	case "", catalog.StatusListed, catalog.StatusSold:
	default:
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidInput)
	}
	return s.products.List(ctx, catalog.Status(status))
}

// Explorer returns the block range [from, to]. A negative to means the chain
// tail. Out-of-range bounds are clamped rather than rejected.
func (s *Service) Explorer(ctx context.Context, from, to int64) ([]*ledger.Block, error) {
	if from < 0 {
		return nil, fmt.Errorf("from must be non-negative: %w", ErrInvalidInput)
	}
	blocks, err := s.ledger.Blocks(ctx)
	if err != nil {
		return nil, err
	}
	n := int64(len(blocks))
	if to < 0 || to >= n {
		to = n - 1
	}
	if from > to {
		return []*ledger.Block{}, nil
	}
	return blocks[from : to+1], nil
}

// ResetLedger truncates the chain to a fresh genesis, clears all products and
// the trace index, and re-enables writes. Admin only.
func (s *Service) ResetLedger(ctx context.Context, actorID string, role access.Role) (*ledger.Block, error) {
	if err := access.Authorize(actorID, role, access.OpResetLedger, nil); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	genesis, err := s.ledger.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset chain: %w", err)
	}
	if err := s.products.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear products: %w", err)
	}
	s.index.Reset()
	s.corrupted.Store(false)

	s.logger.Warn("ledger reset", zap.String("actor", actorID))
	return genesis, nil
}

// VerifyChain walks the full chain. On failure the service marks itself
// corrupted and refuses writes until ResetLedger succeeds.
func (s *Service) VerifyChain(ctx context.Context) error {
	if err := s.ledger.Verify(ctx); err != nil {
		s.corrupted.Store(true)
		s.logger.Error("chain verification failed", zap.Error(err))
		return err
	}
	return nil
}

func validateListing(in ListingInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if in.QuantityKg <= 0 {
		return fmt.Errorf("quantity_kg must be positive: %w", ErrInvalidInput)
	}
	if in.PricePerKg <= 0 {
		return fmt.Errorf("price_per_kg must be positive: %w", ErrInvalidInput)
	}
	return nil
}

// generateProductID returns a short unique id like "AGR-9F2C41D0".
func generateProductID() string {
	return "AGR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Package trace maintains the secondary index from product id to the ledger
// blocks that reference it. The index is derived state: it can always be
// rebuilt from a full chain replay and is never authoritative.
package trace

import (
	"context"
	"sync"

	"github.com/agronova-labs/agronova/internal/ledger"
)

// Index maps product ids to the ordered block indices that reference them.
// Record is called synchronously after every committed append, so the index
// never references a block that is absent from the ledger.
type Index struct {
	mu   sync.RWMutex
	refs map[string][]int64
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{refs: make(map[string][]int64)}
}

// Record registers that the block at blockIndex references productID.
func (i *Index) Record(productID string, blockIndex int64) {
	if productID == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refs[productID] = append(i.refs[productID], blockIndex)
}

// History returns the ordered block indices referencing productID.
// An unknown id yields an empty slice, not an error.
func (i *Index) History(productID string) []int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]int64, len(i.refs[productID]))
	copy(out, i.refs[productID])
	return out
}

// Reset drops all references. Called when the chain itself is reset.
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refs = make(map[string][]int64)
}

// Rebuild replays the full chain and replaces the index contents. Used at
// startup when the ledger is durable, and by tests to check that the
// incrementally maintained index matches a fresh replay.
func (i *Index) Rebuild(ctx context.Context, l ledger.Ledger) error {
	blocks, err := l.Blocks(ctx)
	if err != nil {
		return err
	}

	refs := make(map[string][]int64)
	for _, b := range blocks {
		if b.ProductID == "" {
			continue
		}
		refs[b.ProductID] = append(refs[b.ProductID], b.Index)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.refs = refs
	return nil
}

// Snapshot returns a deep copy of the full index, keyed by product id.
func (i *Index) Snapshot() map[string][]int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string][]int64, len(i.refs))
	for id, idxs := range i.refs {
		cp := make([]int64, len(idxs))
		copy(cp, idxs)
		out[id] = cp
	}
	return out
}

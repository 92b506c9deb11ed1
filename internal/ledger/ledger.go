package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoGenesis is returned when an append finds an empty chain. A genesis
// block must exist before any other block may be appended.
var ErrNoGenesis = errors.New("ledger has no genesis block")

// CorruptionError reports the first block at which chain verification failed.
type CorruptionError struct {
	Index  int64
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("chain corrupted at block %d: %s", e.Index, e.Reason)
}

// Ledger is the interface for the append-only provenance chain.
// Both MemoryLedger and PostgresLedger implement this interface.
type Ledger interface {
	// Append adds a new block chained to the current tail.
	// payload is JSON-marshalled; its SHA-256 is stored as DataHash and the
	// raw bytes are kept on the block for trace classification.
	Append(ctx context.Context, productID string, kind Kind, actor string, payload any) (*Block, error)

	// Get returns the block at the given zero-based index.
	Get(ctx context.Context, index int64) (*Block, error)

	// Len returns the total number of blocks (including the genesis block).
	Len(ctx context.Context) (int, error)

	// Verify walks the entire chain and checks hash consistency.
	// Returns nil if the chain is intact, *CorruptionError otherwise.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent block (the chain tip).
	Root(ctx context.Context) (string, error)

	// Reset truncates the chain to a fresh genesis block and returns it.
	// Authorization is the caller's responsibility.
	Reset(ctx context.Context) (*Block, error)

	// Blocks returns an ordered snapshot of the full chain, used by the
	// explorer view and to rebuild derived indices after a restart.
	Blocks(ctx context.Context) ([]*Block, error)
}

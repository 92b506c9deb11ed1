package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryLedger is an in-memory, thread-safe Ledger implementation.
// Appends run under an exclusive lock so "read tail, hash, append" is a
// single atomic unit; two writers can never link to the same predecessor.
type MemoryLedger struct {
	mu     sync.RWMutex
	blocks []*Block
	now    func() time.Time
}

// New creates a MemoryLedger initialised with the canonical genesis block.
// The genesis block is at index 0 and its hash is GenesisHash.
func New() *MemoryLedger {
	l := &MemoryLedger{now: func() time.Time { return time.Now().UTC() }}
	l.blocks = append(l.blocks, genesisBlock(l.now()))
	return l
}

// SetClock replaces the timestamp source. Intended for tests that need
// reproducible block hashes.
func (l *MemoryLedger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func genesisBlock(ts time.Time) *Block {
	return &Block{
		Index:     0,
		Timestamp: ts,
		Kind:      KindGenesis,
		Actor:     SystemActor,
		DataHash:  GenesisHash,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash, // genesis hash is the well-known constant, not computed
	}
}

// Append implements Ledger.
func (l *MemoryLedger) Append(_ context.Context, productID string, kind Kind, actor string, payload any) (*Block, error) {
	if kind == KindGenesis {
		return nil, fmt.Errorf("genesis blocks are created by Reset, not Append")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.blocks) == 0 {
		return nil, ErrNoGenesis
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	prev := l.blocks[len(l.blocks)-1]
	block := &Block{
		Index:     prev.Index + 1,
		Timestamp: l.now(),
		Kind:      kind,
		ProductID: productID,
		Actor:     actor,
		Payload:   payloadJSON,
		DataHash:  sha256Sum(payloadJSON),
		PrevHash:  prev.Hash,
	}
	block.Hash = hashBlock(block)
	l.blocks = append(l.blocks, block)
	return block, nil
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, index int64) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= int64(len(l.blocks)) {
		return nil, fmt.Errorf("block index %d out of range", index)
	}
	return l.blocks[index], nil
}

// Len implements Ledger.
func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks), nil
}

// Verify implements Ledger. It walks the chain and checks that all hashes
// are consistent. The genesis block (index 0) is validated against GenesisHash.
func (l *MemoryLedger) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, curr := range l.blocks {
		if i == 0 {
			// Genesis: must equal the well-known constant.
			if curr.Hash != GenesisHash {
				return &CorruptionError{Index: 0, Reason: "genesis block has wrong hash"}
			}
			continue
		}

		prev := l.blocks[i-1]
		if curr.PrevHash != prev.Hash {
			return &CorruptionError{Index: curr.Index, Reason: "prev_hash does not match predecessor"}
		}
		if curr.DataHash != sha256Sum(curr.Payload) {
			return &CorruptionError{Index: curr.Index, Reason: "payload does not match data_hash"}
		}
		if curr.Hash != hashBlock(curr) {
			return &CorruptionError{Index: curr.Index, Reason: "hash does not match recomputation"}
		}
	}
	return nil
}

// Root implements Ledger.
func (l *MemoryLedger) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.blocks) == 0 {
		return "", ErrNoGenesis
	}
	return l.blocks[len(l.blocks)-1].Hash, nil
}

// Reset implements Ledger. It discards all blocks and installs a fresh genesis.
func (l *MemoryLedger) Reset(_ context.Context) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	genesis := genesisBlock(l.now())
	l.blocks = []*Block{genesis}
	return genesis, nil
}

// Blocks implements Ledger. Blocks are immutable once appended, so returning
// a copied slice of the shared pointers is safe for concurrent readers.
func (l *MemoryLedger) Blocks(_ context.Context) ([]*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Block, len(l.blocks))
	copy(out, l.blocks)
	return out, nil
}

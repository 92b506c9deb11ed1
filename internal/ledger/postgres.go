package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey is a stable PostgreSQL advisory lock key used to serialise
// concurrent Append and Reset calls. The value is arbitrary but must be
// consistent across all service instances sharing a database.
const advisoryLockKey = int64(7_204_110_188)

// PostgresLedger persists the provenance chain to a PostgreSQL database.
// It implements the Ledger interface.
type PostgresLedger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLedger creates a PostgresLedger backed by the given connection pool.
// The genesis row is installed by the schema migration, not by this constructor.
func NewPostgresLedger(pool *pgxpool.Pool, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{pool: pool, logger: logger}
}

// Append implements Ledger.
// It acquires a PostgreSQL advisory lock, reads the chain tail, computes the
// new block hash, and inserts it — all within a single transaction.
func (l *PostgresLedger) Append(ctx context.Context, productID string, kind Kind, actor string, payload any) (*Block, error) {
	if kind == KindGenesis {
		return nil, fmt.Errorf("genesis blocks are created by Reset, not Append")
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialise concurrent appends with a transaction-scoped advisory lock.
	// The lock is released automatically when the transaction ends.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	// Read the current tail of the chain.
	var prevIdx int64
	var prevHash string
	err = tx.QueryRow(ctx,
		"SELECT idx, hash FROM blocks ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoGenesis
	}
	if err != nil {
		return nil, fmt.Errorf("read chain tail: %w", err)
	}

	block := &Block{
		Index:     prevIdx + 1,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		ProductID: productID,
		Actor:     actor,
		Payload:   payloadJSON,
		DataHash:  sha256Sum(payloadJSON),
		PrevHash:  prevHash,
	}
	block.Hash = hashBlock(block)

	if _, err := tx.Exec(ctx,
		`INSERT INTO blocks (idx, timestamp, kind, product_id, actor, payload, data_hash, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		block.Index, block.Timestamp, block.Kind, block.ProductID,
		block.Actor, block.Payload, block.DataHash, block.PrevHash, block.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit block tx: %w", err)
	}

	l.logger.Debug("block appended",
		zap.Int64("idx", block.Index),
		zap.String("kind", string(block.Kind)),
		zap.String("product_id", block.ProductID),
	)
	return block, nil
}

// Get implements Ledger.
func (l *PostgresLedger) Get(ctx context.Context, index int64) (*Block, error) {
	block := &Block{}
	if err := l.pool.QueryRow(ctx,
		`SELECT idx, timestamp, kind, product_id, actor, payload, data_hash, prev_hash, hash
		 FROM blocks WHERE idx = $1`, index,
	).Scan(
		&block.Index, &block.Timestamp, &block.Kind, &block.ProductID,
		&block.Actor, &block.Payload, &block.DataHash, &block.PrevHash, &block.Hash,
	); err != nil {
		return nil, fmt.Errorf("get block %d: %w", index, err)
	}
	return block, nil
}

// Len implements Ledger.
func (l *PostgresLedger) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx, "SELECT COUNT(*) FROM blocks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocks: %w", err)
	}
	return n, nil
}

// Verify implements Ledger. It streams all rows ordered by idx and validates
// the hash chain. O(n) in chain length; may be slow for very large chains.
func (l *PostgresLedger) Verify(ctx context.Context) error {
	rows, err := l.pool.Query(ctx,
		`SELECT idx, timestamp, kind, product_id, actor, payload, data_hash, prev_hash, hash
		 FROM blocks ORDER BY idx ASC`,
	)
	if err != nil {
		return fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var prev *Block
	for rows.Next() {
		curr := &Block{}
		if err := rows.Scan(
			&curr.Index, &curr.Timestamp, &curr.Kind, &curr.ProductID,
			&curr.Actor, &curr.Payload, &curr.DataHash, &curr.PrevHash, &curr.Hash,
		); err != nil {
			return fmt.Errorf("scan block row: %w", err)
		}

		if prev == nil {
			// Validate genesis: hash must be the well-known constant.
			if curr.Hash != GenesisHash {
				return &CorruptionError{Index: curr.Index, Reason: "genesis block has wrong hash"}
			}
			prev = curr
			continue
		}

		if curr.PrevHash != prev.Hash {
			return &CorruptionError{Index: curr.Index, Reason: "prev_hash does not match predecessor"}
		}
		if curr.DataHash != sha256Sum(curr.Payload) {
			return &CorruptionError{Index: curr.Index, Reason: "payload does not match data_hash"}
		}
		if curr.Hash != hashBlock(curr) {
			return &CorruptionError{Index: curr.Index, Reason: "hash does not match recomputation"}
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Ledger.
func (l *PostgresLedger) Root(ctx context.Context) (string, error) {
	var hash string
	err := l.pool.QueryRow(ctx,
		"SELECT hash FROM blocks ORDER BY idx DESC LIMIT 1",
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoGenesis
	}
	if err != nil {
		return "", fmt.Errorf("get chain root: %w", err)
	}
	return hash, nil
}

// Reset implements Ledger. It truncates the chain and reinstalls genesis in
// a single transaction, serialised against concurrent appends.
func (l *PostgresLedger) Reset(ctx context.Context) (*Block, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM blocks"); err != nil {
		return nil, fmt.Errorf("truncate chain: %w", err)
	}

	genesis := genesisBlock(time.Now().UTC())
	if _, err := tx.Exec(ctx,
		`INSERT INTO blocks (idx, timestamp, kind, product_id, actor, payload, data_hash, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		genesis.Index, genesis.Timestamp, genesis.Kind, genesis.ProductID,
		genesis.Actor, genesis.Payload, genesis.DataHash, genesis.PrevHash, genesis.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert genesis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reset tx: %w", err)
	}

	l.logger.Info("chain reset to genesis")
	return genesis, nil
}

// Blocks implements Ledger.
func (l *PostgresLedger) Blocks(ctx context.Context) ([]*Block, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT idx, timestamp, kind, product_id, actor, payload, data_hash, prev_hash, hash
		 FROM blocks ORDER BY idx ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var out []*Block
	for rows.Next() {
		b := &Block{}
		if err := rows.Scan(
			&b.Index, &b.Timestamp, &b.Kind, &b.ProductID,
			&b.Actor, &b.Payload, &b.DataHash, &b.PrevHash, &b.Hash,
		); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

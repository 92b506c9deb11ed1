package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisHash is the canonical well-known hash of the genesis block.
// It serves as the trust anchor of the chain; all subsequent block hashes
// chain from this constant rather than from a computed value.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SystemActor is recorded as the author of blocks created by the service
// itself rather than by a marketplace participant.
const SystemActor = "agronova-system"

// Kind discriminates the marketplace event a block records.
type Kind string

const (
	// KindGenesis marks the first block of a chain. Never appended directly;
	// genesis blocks exist only via ledger construction or Reset.
	KindGenesis Kind = "genesis"

	// KindListing records a farmer putting produce on the market.
	KindListing Kind = "listing"

	// KindTransfer records a change of product ownership.
	KindTransfer Kind = "transfer"
)

// Block is a single immutable record in the provenance chain.
type Block struct {
	Index     int64           `json:"index"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	ProductID string          `json:"product_id,omitempty"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	DataHash  string          `json:"data_hash"` // SHA-256 of the payload bytes
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// ListingPayload is the payload of a KindListing block.
type ListingPayload struct {
	Name       string  `json:"name"`
	QuantityKg float64 `json:"quantity_kg"`
	PricePerKg float64 `json:"price_per_kg"`
	Owner      string  `json:"owner"`
}

// TransferPayload is the payload of a KindTransfer block.
type TransferPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// hashBlock computes a deterministic SHA-256 hash over a block's fields.
// The timestamp is the only source of entropy; given identical inputs the
// result is reproducible, which is what makes Verify meaningful.
// This function must never be called on a genesis block (index 0).
func hashBlock(b *Block) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s",
		b.Index, b.Timestamp.Format(time.RFC3339Nano),
		b.Kind, b.ProductID, b.Actor, b.DataHash, b.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// sha256Sum returns the hex-encoded SHA-256 digest of data.
func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

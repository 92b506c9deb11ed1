// Package ledger implements the tamper-evident append-only block chain that
// records every Agronova marketplace event.
//
// The chain begins with a well-known genesis block whose Hash equals GenesisHash
// (64 hex zeros). Every subsequent block records the SHA-256 of its predecessor,
// making any tampering detectable via Verify.
//
// Two implementations of the Ledger interface are provided:
//   - MemoryLedger: in-process, for testing and single-node deployments.
//   - PostgresLedger: durable, for production use.
package ledger

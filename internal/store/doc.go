// Package store provides SQLite-backed durable state for the host.
//
// The store holds:
//   - Codes: registered component implementations, by name
//   - Contracts: deployed component instances and their metadata
//   - KV: each contract's private key space
//   - Txs: an append-only log of every top-level call
//
// # Transactions
//
// Each top-level call runs inside one Tx. Sub-calls that may fail without
// aborting the parent run inside a savepoint, so a failed sub-call reverts
// only its own writes. The tx log is written outside the call's Tx so that
// failed calls are recorded after their state was rolled back.
//
// # Ordering
//
// All queries order by seq or by key (BLOB memcmp). Results are
// deterministic across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - one open connection: the host is the single writer
package store

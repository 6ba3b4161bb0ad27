// Package store persists precompiled view bundles in SQLite.
//
// A bundle row records the container pair, both digests and a logical
// sequence number; its views live in bundle_views. Bundles are immutable
// once written. Saving a bundle whose container pair and closure digest are
// already stored is a no-op that returns the existing ID.
//
// # Ordering
//
// "Latest" means highest seq, never wall time. Every multi-row query orders
// by seq and then by ID with binary collation so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

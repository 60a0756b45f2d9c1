// Package store provides SQLite-backed storage for mapping snapshots and
// document definitions.
//
// Mappings are kept as an append-only history per name:
//   - Every saved stylesheet gets the next seq for its name
//   - Saving the same content as the latest snapshot is a no-op
//   - Snapshots are content addressed by SHA-256 with domain separation
//
// Ordering uses seq INTEGER (logical clock), NEVER timestamps.
//
// Document definitions are stored as YAML keyed by document identity, so a
// session can be rebuilt from the store alone.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

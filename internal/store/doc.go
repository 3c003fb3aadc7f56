// Package store keeps the edit journal: a SQLite log of every edit the
// engine applied, grouped into sessions.
//
// Each entry carries the operation, its canonical arguments and the
// fingerprints of the document before and after the edit. Because an
// edit's output fingerprint is the next edit's input fingerprint, the
// journal can walk a document's lineage back to the file it started from.
//
// # Critical Patterns
//
// Idempotency: UNIQUE(session_id, operation_id, output) makes recording the
// same edit twice in a session a no-op.
//
// Ordering: every query orders by seq, the insertion counter. Wall times
// are recorded for people, not for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package store provides the SQLite workout journal.
//
// The journal is append-only:
//   - Sessions: one row per run, with the script source and its hash
//   - Cycles: the input batch of every runtime cycle, keyed by
//     (session_id, cycle)
//   - Exports: documents handed over by the Save control
//
// # Critical Patterns
//
// Replay From Inputs:
//   - Only cycle inputs are stored, never derived results
//   - Replaying the cycles of a session through a fresh runtime
//     reproduces its results, because durations come from the recorded
//     timestamps
//
// Deterministic Query Results:
//   - Every list query has a total ORDER BY
//     (cycles by cycle ASC; sessions by created_at ASC, id COLLATE BINARY)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

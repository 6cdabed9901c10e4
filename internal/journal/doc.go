// Package journal provides SQLite-backed durable history of mod operations.
//
// The journal records:
//   - Operations: one row per mutating request, written before any work
//   - Outcomes: one row per finished operation (ok, failed, declined)
//   - Pending injections: files an activation is about to write, cleared
//     once their ownership is committed
//
// Pending rows that survive a crash identify destination files that may
// exist without an owner. The journal only reports them.
//
// # Ordering
//
// Every row is stamped from a logical Clock. Queries order by seq, never by
// wall time. On open the clock resumes after the highest stored seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal

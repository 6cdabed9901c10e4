// Package store provides the bbolt-backed durable store shared by the mod
// registry and the file ownership tracker.
//
// The store is organised as:
//   - Partitions: named, byte-ordered key-value maps (bbolt buckets)
//   - An id generator: a persisted sequence, never reused across restarts
//   - A flush policy: commits skip fsync and are synced every FlushInterval,
//     on Flush, and on Close
//
// # Typed access
//
// Table[V] binds a partition to one value type and stores values as
// deterministic CBOR. A value written by a Table that later fails to decode
// means the file was corrupted or the type changed incompatibly; Table
// panics with *CorruptValueError instead of returning an error.
//
// # Atomicity
//
// One Update call on one partition is atomic. There is no atomicity across
// partitions or across calls; callers needing a multi-step protocol must
// serialize it themselves.
package store

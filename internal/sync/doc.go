// Package sync performs one launch synchronization cycle: fetch the full
// upstream launch list and upsert it into the local store.
//
// # Core Interface
//
//   - Manager: runs a single cycle through PerformSync
//
// The sync/coordinator subpackage schedules cycles in the background, runs
// manual triggers and tracks status.
//
// # Result Types
//
//   - Result: the outcome of a successful cycle (payload hash, launch count, rows upserted)
//   - Error: a failed cycle with the stage that failed (fetch or storage)
//
// Failures keep their cause, so service.KindOf(err) reports whether the
// upstream, the payload or the store was at fault.
package sync

// Package repositories implements SQLite persistence for migration history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Runs support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [RunRepository] : One row per migration run with status and card counters
//   - [CardRecordRepository] : Per-card outcomes of a run with the status of every sub-resource category
//   - [HistoryRecorder] : Adapts both repositories to the engine's run recorder hook
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

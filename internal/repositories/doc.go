// Package repositories implements SQLite persistence for finished batch runs.
//
// [RunRepository] stores a run's totals in `runs` and its per-item outcomes and log lines in `run_items`,
// written in a single transaction. Runs are soft deleted via deleted_at and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Only completed (or cancelled) runs are recorded; nothing here is used to resume a batch.
package repositories

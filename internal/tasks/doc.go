// Package tasks orchestrates batch additions to a playlist with real-time progress reporting.
//
// # Submitting a Batch
//
// A caller parses raw text with [ParseItems], builds a [BatchJob] (kind, target playlist, items, options) and
// hands it to [Engine.Submit] with a [ProgressReporter]:
//
//  1. Validation: a missing target, an empty item list, an unknown kind or bad artist options abort the job
//     with [shared.ErrValidation] before any remote call.
//  2. Dispatch: items are sent to the [Catalog] strictly in input order, one call at a time. A failed item is
//     recorded and the loop moves on.
//  3. Aggregation: every outcome is folded into an [Aggregator], whose [BatchSummary] keeps totals and
//     one log line per item in processing order.
//
// # Dispatch Strategies
//
// Each [BatchKind] has a [Strategy]. Artists and albums are dispatched once per item; songs are sent as a
// single call carrying the whole list, and [Aggregator.AddSongBatch] reconciles the aggregate reply into the
// same summary shape.
//
// # Progress Reporting
//
// A [ProgressEvent] is emitted once per dispatch unit, before its call, with increasing indexes.
// [ChannelReporter] uses select with default so a slow consumer never blocks the batch.
//
// # Cancellation
//
// The context is checked between items. Cancelling stops the batch before the next call and returns the
// partial summary, with the undispatched items logged as skipped.
package tasks

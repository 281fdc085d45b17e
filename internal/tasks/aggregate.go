package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Status classifies a summary purely from its counts.
type Status string

const (
	StatusComplete  Status = "complete"  // every item succeeded
	StatusPartial   Status = "partial"   // some items succeeded
	StatusFailed    Status = "failed"    // no item succeeded
	StatusCancelled Status = "cancelled" // the run stopped before the last item
)

// BatchSummary is the finalized report of a batch run.
//
// SucceededItems never exceeds TotalItems, and Log holds one line per processed item in input order.
type BatchSummary struct {
	Kind           BatchKind            `json:"kind"`
	TargetID       string               `json:"target_id"`
	TotalItems     int                  `json:"total_items"`
	SucceededItems int                  `json:"succeeded_items"`
	AddedTotal     int                  `json:"added_total"`
	Log            []string             `json:"log"`
	Outcomes       []models.ItemOutcome `json:"outcomes"`
	Cancelled      bool                 `json:"cancelled,omitempty"`
	StartedAt      time.Time            `json:"started_at"`
	CompletedAt    time.Time            `json:"completed_at"`
}

// FailedItems is the number of items that did not succeed.
func (s *BatchSummary) FailedItems() int {
	return s.TotalItems - s.SucceededItems
}

// Status derives the overall classification from the counts.
func (s *BatchSummary) Status() Status {
	switch {
	case s.Cancelled:
		return StatusCancelled
	case s.SucceededItems == 0:
		return StatusFailed
	case s.SucceededItems == s.TotalItems:
		return StatusComplete
	default:
		return StatusPartial
	}
}

// Failures returns the failed outcomes in processing order.
func (s *BatchSummary) Failures() []models.ItemOutcome {
	var failed []models.ItemOutcome
	for _, o := range s.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}

// Aggregator folds item outcomes, in order, into a [BatchSummary].
//
// An Aggregator is single use: after Finalize, further calls panic.
type Aggregator struct {
	summary   BatchSummary
	finalized bool
}

// NewAggregator seeds an aggregator expecting total items of the given kind.
func NewAggregator(kind BatchKind, targetID string, total int) *Aggregator {
	return &Aggregator{
		summary: BatchSummary{
			Kind:       kind,
			TargetID:   targetID,
			TotalItems: total,
			Log:        make([]string, 0, total),
			Outcomes:   make([]models.ItemOutcome, 0, total),
		},
	}
}

// Add records one item's outcome and its log line.
func (a *Aggregator) Add(o models.ItemOutcome) {
	a.mustBeOpen()

	if o.Succeeded {
		a.summary.SucceededItems++
		a.summary.AddedTotal += o.AddedCount
	}
	a.summary.Outcomes = append(a.summary.Outcomes, o)
	a.summary.Log = append(a.summary.Log, a.logLine(o))
}

// AddSongBatch reconciles the single add-songs reply with the submitted items.
//
// Each submitted item gets exactly one outcome, so TotalItems is len(items). Items listed as failed
// (matched as a multiset, so duplicates count separately) fail. The rest succeed with one song each,
// in order, until the service's added count is used up; any beyond that are failed as unconfirmed.
// Failed names that match no submitted line are ignored. When the call failed outright every item is
// logged with the call's error.
func (a *Aggregator) AddSongBatch(items []string, r models.SongBatchResult) {
	a.mustBeOpen()
	a.summary.TotalItems = len(items)

	if !r.OK() {
		for _, item := range items {
			a.Add(models.Failure(item, r.Err))
		}
		return
	}

	failed := make(map[string]int, len(r.Failed))
	for _, f := range r.Failed {
		failed[f]++
	}

	confirmed := max(r.Added, 0)
	for _, item := range items {
		switch {
		case failed[item] > 0:
			failed[item]--
			a.Add(models.Failure(item, "not found or could not be added"))
		case confirmed > 0:
			confirmed--
			a.Add(models.Success(item, 1))
		default:
			a.Add(models.Failure(item, "not confirmed by service"))
		}
	}
}

// Skip records an item that was never dispatched, e.g. after cancellation.
func (a *Aggregator) Skip(item, reason string) {
	a.Add(models.Failure(item, reason))
}

// MarkCancelled flags the summary as stopped early.
func (a *Aggregator) MarkCancelled() {
	a.mustBeOpen()
	a.summary.Cancelled = true
}

// Finalize returns the completed summary. The aggregator must not be used afterwards.
func (a *Aggregator) Finalize() *BatchSummary {
	a.mustBeOpen()
	a.finalized = true

	s := a.summary
	return &s
}

func (a *Aggregator) logLine(o models.ItemOutcome) string {
	if o.Succeeded {
		return fmt.Sprintf("✓ %s: %d %s", o.Item, o.AddedCount, shared.Pluralize(o.AddedCount, a.summary.Kind.Unit()))
	}
	return fmt.Sprintf("✗ %s: %s", o.Item, o.ErrorMessage)
}

func (a *Aggregator) mustBeOpen() {
	if a.finalized {
		panic("tasks: aggregator used after Finalize")
	}
}

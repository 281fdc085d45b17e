package models

import (
	"fmt"
	"time"
)

// RunItem is the persisted outcome of one item within a [Run].
type RunItem struct {
	Position int
	Outcome  ItemOutcome
	LogLine  string
}

// Run is a finished batch run as stored in the history database.
type Run struct {
	id             string
	sequence       int
	kind           string
	targetID       string
	totalItems     int
	succeededItems int
	addedTotal     int
	cancelled      bool
	startedAt      time.Time
	completedAt    time.Time
	createdAt      time.Time
	items          []RunItem
}

// RunParams carries the fields needed to build a [Run].
type RunParams struct {
	Kind           string
	TargetID       string
	TotalItems     int
	SucceededItems int
	AddedTotal     int
	Cancelled      bool
	StartedAt      time.Time
	CompletedAt    time.Time
	Items          []RunItem
}

// NewRun creates an unsaved run. ID and sequence are assigned by the repository.
func NewRun(p RunParams) *Run {
	return &Run{
		kind:           p.Kind,
		targetID:       p.TargetID,
		totalItems:     p.TotalItems,
		succeededItems: p.SucceededItems,
		addedTotal:     p.AddedTotal,
		cancelled:      p.Cancelled,
		startedAt:      p.StartedAt,
		completedAt:    p.CompletedAt,
		createdAt:      time.Now(),
		items:          p.Items,
	}
}

// LoadRun rebuilds a run from stored columns.
func LoadRun(id string, sequence int, p RunParams, createdAt time.Time) *Run {
	r := NewRun(p)
	r.id = id
	r.sequence = sequence
	r.createdAt = createdAt
	return r
}

func (r *Run) ID() string             { return r.id }
func (r *Run) SetID(id string)        { r.id = id }
func (r *Run) Sequence() int          { return r.sequence }
func (r *Run) SetSequence(seq int)    { r.sequence = seq }
func (r *Run) Kind() string           { return r.kind }
func (r *Run) TargetID() string       { return r.targetID }
func (r *Run) TotalItems() int        { return r.totalItems }
func (r *Run) SucceededItems() int    { return r.succeededItems }
func (r *Run) AddedTotal() int        { return r.addedTotal }
func (r *Run) Cancelled() bool        { return r.cancelled }
func (r *Run) StartedAt() time.Time   { return r.startedAt }
func (r *Run) CompletedAt() time.Time { return r.completedAt }
func (r *Run) CreatedAt() time.Time   { return r.createdAt }
func (r *Run) Items() []RunItem       { return r.items }
func (r *Run) SetItems(items []RunItem) {
	r.items = items
}

// Duration is the wall time between start and completion.
func (r *Run) Duration() time.Duration {
	return r.completedAt.Sub(r.startedAt)
}

// Validate checks the run's totals are consistent before it is stored.
func (r *Run) Validate() error {
	switch {
	case r.kind == "":
		return fmt.Errorf("kind is required")
	case r.targetID == "":
		return fmt.Errorf("target_id is required")
	case r.totalItems < 0 || r.succeededItems < 0 || r.addedTotal < 0:
		return fmt.Errorf("counts must not be negative")
	case r.succeededItems > r.totalItems:
		return fmt.Errorf("succeeded items (%d) exceed total items (%d)", r.succeededItems, r.totalItems)
	case r.completedAt.Before(r.startedAt):
		return fmt.Errorf("completed_at precedes started_at")
	}
	return nil
}

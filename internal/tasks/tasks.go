// package tasks implements the batch orchestration core.
//
// The core abstraction is [Engine], which validates a [BatchJob], dispatches its items to a [Catalog] one
// at a time, and folds every outcome into a [BatchSummary]. Progress is emitted to a [ProgressReporter]
// before each call.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// State is the lifecycle position of a single Submit call.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRunning
	StateCompleted
	StateAborted   // precondition failure, no remote calls made
	StateCancelled // context cancelled between items
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// EngineOpts contains the dependencies of an [Engine].
type EngineOpts struct {
	Catalog    Catalog
	Logger     *log.Logger
	Strategies map[BatchKind]Strategy // defaults to [DefaultStrategies]
	OnState    func(job BatchJob, s State)
}

// Engine runs batch jobs against a catalog.
//
// An Engine holds no per-job state, so independent jobs may be submitted concurrently.
type Engine struct {
	catalog    Catalog
	logger     *log.Logger
	strategies map[BatchKind]Strategy
	onState    func(BatchJob, State)
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.OnState == nil {
		opts.OnState = func(BatchJob, State) {}
	}

	return &Engine{
		catalog:    opts.Catalog,
		logger:     opts.Logger,
		strategies: opts.Strategies,
		onState:    opts.OnState,
	}
}

// Submit validates job, processes its items strictly in order and returns the finalized summary.
//
// Only precondition failures are returned as errors (wrapping [shared.ErrValidation]); item failures are
// recorded in the summary. If ctx is cancelled between items, the remaining items are logged as skipped and
// the partial summary is returned together with an error wrapping ctx.Err().
func (e *Engine) Submit(ctx context.Context, job BatchJob, reporter ProgressReporter) (*BatchSummary, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}
	if reporter == nil {
		reporter = nopReporter{}
	}

	e.onState(job, StateIdle)
	e.onState(job, StateValidating)
	if err := job.Validate(); err != nil {
		e.onState(job, StateAborted)
		return nil, err
	}

	strategy, ok := e.strategies[job.Kind]
	if !ok {
		e.onState(job, StateAborted)
		return nil, fmt.Errorf("%w: no dispatch strategy for kind %q", shared.ErrValidation, job.Kind)
	}

	if job.Kind == KindArtist && job.Options.Mode == "" {
		job.Options.Mode = ModeTop10
	}

	logger := shared.WithLogger(e.logger, "kind", job.Kind, "target", job.TargetID)
	logger.Info("batch started", "items", len(job.Items))

	e.onState(job, StateRunning)
	started := time.Now()
	units := strategy.Units(job)
	agg := NewAggregator(job.Kind, job.TargetID, len(job.Items))

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			for _, rest := range units[i:] {
				for _, item := range rest.Items {
					agg.Skip(item, "skipped: batch cancelled")
				}
			}
			agg.MarkCancelled()
			summary := e.finish(agg, started)

			logger.Warn("batch cancelled", "processed", i, "units", len(units))
			e.onState(job, StateCancelled)
			return summary, fmt.Errorf("batch cancelled after %d of %d: %w", i, len(units), err)
		}

		reporter.Report(ProgressEvent{Kind: job.Kind, Index: i, Total: len(units), CurrentItem: u.Label})
		strategy.Dispatch(ctx, e.catalog, job, u, agg)
		logger.Debug("dispatched", "step", i+1, "of", len(units), "item", u.Label)
	}

	summary := e.finish(agg, started)
	logger.Info("batch completed",
		"succeeded", summary.SucceededItems,
		"total", summary.TotalItems,
		"added", summary.AddedTotal,
		"elapsed", summary.CompletedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
	e.onState(job, StateCompleted)
	return summary, nil
}

func (e *Engine) finish(agg *Aggregator, started time.Time) *BatchSummary {
	summary := agg.Finalize()
	summary.StartedAt = started
	summary.CompletedAt = time.Now()
	return summary
}

// Run converts the summary into a history record.
func (s *BatchSummary) Run() *models.Run {
	items := make([]models.RunItem, len(s.Outcomes))
	for i, o := range s.Outcomes {
		line := ""
		if i < len(s.Log) {
			line = s.Log[i]
		}
		items[i] = models.RunItem{Position: i, Outcome: o, LogLine: line}
	}

	return models.NewRun(models.RunParams{
		Kind:           s.Kind.String(),
		TargetID:       s.TargetID,
		TotalItems:     s.TotalItems,
		SucceededItems: s.SucceededItems,
		AddedTotal:     s.AddedTotal,
		Cancelled:      s.Cancelled,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Items:          items,
	})
}

// SummaryFromRun rebuilds a summary from a stored history record.
func SummaryFromRun(run *models.Run) *BatchSummary {
	s := &BatchSummary{
		Kind:           BatchKind(run.Kind()),
		TargetID:       run.TargetID(),
		TotalItems:     run.TotalItems(),
		SucceededItems: run.SucceededItems(),
		AddedTotal:     run.AddedTotal(),
		Cancelled:      run.Cancelled(),
		StartedAt:      run.StartedAt(),
		CompletedAt:    run.CompletedAt(),
		Log:            make([]string, 0, len(run.Items())),
		Outcomes:       make([]models.ItemOutcome, 0, len(run.Items())),
	}
	for _, it := range run.Items() {
		s.Outcomes = append(s.Outcomes, it.Outcome)
		s.Log = append(s.Log, it.LogLine)
	}
	return s
}

package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Catalog is the remote call adapter the engine dispatches to.
//
// Implementations never return errors for item work: transport and domain failures come back as
// failed outcomes so the batch loop is never interrupted.
type Catalog interface {
	AddSongs(ctx context.Context, targetID string, songs []string) models.SongBatchResult
	AddArtist(ctx context.Context, targetID, artist string, opts Options) models.ItemOutcome
	AddAlbum(ctx context.Context, targetID, album string, opts Options) models.ItemOutcome
}

// Unit is one remote call's worth of a job: a single item, or the whole list for songs.
type Unit struct {
	Label string
	Items []string
}

// Strategy splits a job into units and dispatches each, folding the reply into the aggregator.
type Strategy interface {
	// Units returns the job's dispatch units in processing order.
	Units(job BatchJob) []Unit
	// Dispatch performs the remote call for u and records its outcome in agg.
	Dispatch(ctx context.Context, c Catalog, job BatchJob, u Unit, agg *Aggregator)
}

// perItem dispatches one call per item.
type perItem struct {
	call func(ctx context.Context, c Catalog, job BatchJob, item string) models.ItemOutcome
}

func (s perItem) Units(job BatchJob) []Unit {
	units := make([]Unit, len(job.Items))
	for i, item := range job.Items {
		units[i] = Unit{Label: item, Items: []string{item}}
	}
	return units
}

func (s perItem) Dispatch(ctx context.Context, c Catalog, job BatchJob, u Unit, agg *Aggregator) {
	agg.Add(s.call(ctx, c, job, u.Items[0]))
}

// wholeBatch dispatches the entire item list in a single call.
type wholeBatch struct{}

func (wholeBatch) Units(job BatchJob) []Unit {
	n := len(job.Items)
	return []Unit{{Label: fmt.Sprintf("%d %s", n, shared.Pluralize(n, job.Kind.Unit())), Items: job.Items}}
}

func (wholeBatch) Dispatch(ctx context.Context, c Catalog, job BatchJob, u Unit, agg *Aggregator) {
	agg.AddSongBatch(u.Items, c.AddSongs(ctx, job.TargetID, u.Items))
}

// DefaultStrategies maps each kind to how it is dispatched.
func DefaultStrategies() map[BatchKind]Strategy {
	return map[BatchKind]Strategy{
		KindSong: wholeBatch{},
		KindArtist: perItem{call: func(ctx context.Context, c Catalog, job BatchJob, item string) models.ItemOutcome {
			return c.AddArtist(ctx, job.TargetID, item, job.Options)
		}},
		KindAlbum: perItem{call: func(ctx context.Context, c Catalog, job BatchJob, item string) models.ItemOutcome {
			return c.AddAlbum(ctx, job.TargetID, item, job.Options)
		}},
	}
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.History()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if k := cmd.String("kind"); k != "" {
		kind, err := tasks.ParseKind(k)
		if err != nil {
			return err
		}
		criteria["kind"] = kind.String()
	}
	if target := cmd.String("playlist"); target != "" {
		criteria["target_id"] = target
	}

	runs, err := store.List(criteria)
	if err != nil {
		return err
	}

	_, err = r.output.Write(formatter.RunsToText(runs))
	return err
}

// HistoryShow prints the summary of one recorded run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	run, err := r.lookupRun(cmd.StringArg("run"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d  %s", run.Sequence(), run.CompletedAt().Local().Format("2006-01-02 15:04:05")))
	return formatter.Render(r.output, tasks.SummaryFromRun(run), format)
}

// HistoryDelete removes a run from the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	run, err := r.lookupRun(cmd.StringArg("run"))
	if err != nil {
		return err
	}

	store, err := r.History()
	if err != nil {
		return err
	}
	if err := store.Delete(run.ID()); err != nil {
		return err
	}

	r.writePlain("✓ Deleted run #%d\n", run.Sequence())
	return nil
}

// lookupRun resolves a run by sequence number ("12" or "#12") or by ID.
func (r *Runner) lookupRun(ref string) (*models.Run, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: run sequence number or ID", shared.ErrMissingArgument)
	}

	store, err := r.History()
	if err != nil {
		return nil, err
	}

	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return store.GetBySequence(seq)
	}
	return store.Get(ref)
}

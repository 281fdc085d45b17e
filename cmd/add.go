package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/metrics"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Add returns the action of `add <kind>`: build the job, run it, print the summary and record it.
//
// Items come from the arguments followed by the lines of --file. Per-item failures do not fail the
// command unless no item succeeded.
func (r *Runner) Add(kind tasks.BatchKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		job, err := r.buildJob(kind, cmd)
		if err != nil {
			return err
		}

		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		var summary *tasks.BatchSummary
		var runErr error
		if cmd.Bool("tui") {
			summary, runErr = r.runTUI(ctx, job)
		} else {
			reporter := tasks.MultiReporter{tasks.LogReporter{Logger: r.logger}, metrics.Reporter{}}
			summary, runErr = r.engine.Submit(ctx, job, reporter)
		}
		if summary == nil {
			return runErr
		}

		return r.finishBatch(summary, runErr, cmd, format)
	}
}

// finishBatch prints, saves and records a summary, then decides the command's result.
func (r *Runner) finishBatch(summary *tasks.BatchSummary, runErr error, cmd *cli.Command, format formatter.Format) error {
	if !cmd.Bool("no-history") {
		r.record(summary)
	}

	if err := formatter.Render(r.output, summary, format); err != nil {
		return err
	}

	if cmd.Bool("save") || cmd.String("output") != "" {
		fileFormat := format
		if !cmd.IsSet("format") && cmd.String("output") != "" {
			fileFormat = ""
		}
		path, err := formatter.WriteSummary(summary, cmd.String("output"), fileFormat)
		if err != nil {
			return err
		}
		r.logger.Info("summary saved", "path", path)
	}

	if runErr != nil {
		return runErr
	}
	if summary.Status() == tasks.StatusFailed {
		return fmt.Errorf("%w: none of %d %s could be added", shared.ErrAPIRequest,
			summary.TotalItems, shared.Pluralize(summary.TotalItems, summary.Kind.String()))
	}
	return nil
}

// buildJob assembles a job from flags, arguments and the [defaults] config section.
func (r *Runner) buildJob(kind tasks.BatchKind, cmd *cli.Command) (tasks.BatchJob, error) {
	lines := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		items, err := r.readItems(path)
		if err != nil {
			return tasks.BatchJob{}, err
		}
		lines = append(lines, items...)
	}

	target := cmd.String("playlist")
	if target == "" {
		target = r.config.Defaults.PlaylistID
	}

	opts, err := r.options(kind, cmd)
	if err != nil {
		return tasks.BatchJob{}, err
	}

	return tasks.NewJob(kind, target, strings.Join(lines, "\n"), opts), nil
}

func (r *Runner) options(kind tasks.BatchKind, cmd *cli.Command) (tasks.Options, error) {
	defaults := r.config.Defaults
	if kind == tasks.KindSong {
		return tasks.Options{}, nil
	}

	opts := tasks.Options{AutoSelect: defaults.AutoSelect}
	if cmd.IsSet("auto-select") {
		opts.AutoSelect = cmd.Bool("auto-select")
	}
	if kind != tasks.KindArtist {
		return opts, nil
	}

	mode := cmd.String("mode")
	if mode == "" {
		mode = defaults.ArtistMode
	}
	parsed, err := tasks.ParseArtistMode(mode)
	if err != nil {
		return tasks.Options{}, err
	}
	opts.Mode = parsed

	opts.CustomN = int(cmd.Int("n"))
	if opts.CustomN == 0 {
		opts.CustomN = defaults.CustomN
	}
	return opts, nil
}

// readItems reads one item per line from path, or from the runner's input when path is "-".
func (r *Runner) readItems(path string) ([]string, error) {
	if path == "-" {
		return tasks.ParseItemsFrom(r.input)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	return tasks.ParseItemsFrom(f)
}

// record stores a summary in the history. Failures are logged, never returned.
func (r *Runner) record(summary *tasks.BatchSummary) {
	store, err := r.History()
	if err != nil {
		r.logger.Warn("run not recorded", "error", err)
		return
	}

	run := summary.Run()
	if err := store.Create(run); err != nil {
		r.logger.Warn("run not recorded", "error", err)
		return
	}
	r.logger.Debug("run recorded", "sequence", run.Sequence(), "id", run.ID())
}

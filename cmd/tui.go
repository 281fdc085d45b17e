package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/desertthunder/setlist/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/setlist-tui.log"

// TUI launches the terminal UI starting from the playlist picker.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	kind, err := tasks.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	items, err := r.readItems(cmd.String("file"))
	if err != nil {
		return err
	}

	opts, err := r.options(kind, cmd)
	if err != nil {
		return err
	}

	job := tasks.BatchJob{Kind: kind, Items: items, Options: opts}
	summary, runErr := r.runTUI(ctx, job)
	if summary == nil {
		return runErr
	}
	return r.finishBatch(summary, runErr, cmd, formatter.FormatText)
}

// runTUI runs job inside the terminal UI and returns what the UI ended with.
func (r *Runner) runTUI(ctx context.Context, job tasks.BatchJob) (*tasks.BatchSummary, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	stderrLogger := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(stderrLogger)

	model := ui.NewModel(ctx, r.catalog, r.engine, job)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	m, ok := final.(*ui.Model)
	if !ok {
		return nil, fmt.Errorf("unexpected TUI model %T", final)
	}
	return m.Summary(), m.Err()
}

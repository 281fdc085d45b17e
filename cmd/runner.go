package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/metrics"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryStore is the run history the CLI reads and writes.
type HistoryStore interface {
	Create(run *models.Run) error
	Get(id string) (*models.Run, error)
	GetBySequence(sequence int) (*models.Run, error)
	List(criteria map[string]any) ([]*models.Run, error)
	Delete(id string) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Service
	api        *services.APIService
	history    HistoryStore
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	engine     *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Service
	API        *services.APIService
	History    HistoryStore // opened from Config.Database on first use when nil
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a Catalog, one is built from the config's [catalog] section.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.API == nil {
		httpClient := services.NewHTTPClient(context.Background(), opts.Config.Catalog.AccessToken, opts.Config.Catalog.Timeout.Duration)
		opts.API = services.NewAPIService(opts.Config.Catalog.BaseURL, httpClient)
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewCatalogClient(services.CatalogOpts{
			API:               opts.API,
			Timeout:           opts.Config.Catalog.Timeout.Duration,
			RequestsPerSecond: opts.Config.Catalog.RequestsPerSecond,
			Logger:            opts.Logger,
		})
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		api:        opts.API,
		history:    opts.History,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
	r.engine = r.newEngine(opts.Logger)
	return r
}

func (r *Runner) newEngine(logger *log.Logger) *tasks.Engine {
	return tasks.NewEngine(tasks.EngineOpts{
		Catalog: r.catalog,
		Logger:  logger,
		OnState: metrics.TrackState,
	})
}

// SetLogger swaps the logger, e.g. to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = r.newEngine(logger)
}

// SetVerbose enables debug logging.
func (r *Runner) SetVerbose(verbose bool) {
	if verbose {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
}

// History returns the run history, opening and migrating the database on first use.
func (r *Runner) History() (HistoryStore, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	r.db = db
	r.history = repositories.NewRunRepository(db)
	return r.history, nil
}

// Close releases the history database if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playlistCommand, addCommand, historyCommand, serveCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

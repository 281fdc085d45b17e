package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/metrics"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

const maxBatchBody = 1 << 20

// RunStore records finished runs.
type RunStore interface {
	Create(run *models.Run) error
}

// BatchRequest is the body of POST /batches.
//
// Items may be given as a list, as raw multi-line Text, or both (list first).
type BatchRequest struct {
	Kind       string   `json:"kind"`
	PlaylistID string   `json:"playlist_id"`
	Items      []string `json:"items"`
	Text       string   `json:"text"`
	Mode       string   `json:"mode"`
	CustomN    int      `json:"custom_n"`
	AutoSelect *bool    `json:"auto_select"`
}

// Job builds the batch job, filling omitted fields from defaults.
func (b BatchRequest) Job(defaults shared.DefaultsConfig) (tasks.BatchJob, error) {
	kind, err := tasks.ParseKind(b.Kind)
	if err != nil {
		return tasks.BatchJob{}, err
	}

	opts := tasks.Options{AutoSelect: defaults.AutoSelect, CustomN: b.CustomN}
	if b.AutoSelect != nil {
		opts.AutoSelect = *b.AutoSelect
	}
	if kind == tasks.KindArtist {
		mode := b.Mode
		if mode == "" {
			mode = defaults.ArtistMode
		}
		if opts.Mode, err = tasks.ParseArtistMode(mode); err != nil {
			return tasks.BatchJob{}, err
		}
		if opts.CustomN == 0 {
			opts.CustomN = defaults.CustomN
		}
	}

	target := b.PlaylistID
	if target == "" {
		target = defaults.PlaylistID
	}

	raw := strings.Join(b.Items, "\n")
	if b.Text != "" {
		raw += "\n" + b.Text
	}
	return tasks.NewJob(kind, target, raw, opts), nil
}

// BatchHandler runs batch jobs submitted over HTTP.
//
// POST /batches answers with the summary once the batch is done. POST /batches/stream answers with a
// text/event-stream of "progress" events followed by one "summary" event.
type BatchHandler struct {
	engine   *tasks.Engine
	runs     RunStore
	defaults shared.DefaultsConfig
	logger   *log.Logger
}

// NewBatchHandler creates a handler. runs may be nil to skip recording history.
func NewBatchHandler(engine *tasks.Engine, runs RunStore, defaults shared.DefaultsConfig, logger *log.Logger) *BatchHandler {
	return &BatchHandler{engine: engine, runs: runs, defaults: defaults, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *BatchHandler) Routes() []string {
	return []string{"POST /batches", "POST /batches/stream"}
}

func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	job, err := h.decode(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	// Reject before any streaming so precondition failures keep a plain 400.
	if err := job.Validate(); err != nil {
		metrics.TrackState(job, tasks.StateAborted)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.HasSuffix(r.URL.Path, "/stream") {
		h.stream(w, r, job)
		return
	}

	summary, err := h.engine.Submit(r.Context(), job, metrics.Reporter{})
	if summary == nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.finish(summary, err)

	data, err := formatter.SummaryToJSON(summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *BatchHandler) stream(w http.ResponseWriter, r *http.Request, job tasks.BatchJob) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The engine reports on this goroutine, so writing to w here is safe.
	reporter := tasks.MultiReporter{
		metrics.Reporter{},
		tasks.ReporterFunc(func(e tasks.ProgressEvent) {
			if err := writeEvent(w, "progress", e); err == nil {
				flusher.Flush()
			}
		}),
	}

	summary, err := h.engine.Submit(r.Context(), job, reporter)
	if summary == nil {
		writeEvent(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}
	h.finish(summary, err)

	data, mErr := formatter.SummaryToJSON(summary)
	if mErr != nil {
		writeEvent(w, "error", map[string]string{"error": mErr.Error()})
	} else {
		fmt.Fprintf(w, "event: summary\ndata: %s\n\n", compact(data))
	}
	flusher.Flush()
}

// finish records metrics and history for a finished (or cancelled) run.
func (h *BatchHandler) finish(summary *tasks.BatchSummary, runErr error) {
	metrics.Observe(summary)
	if runErr != nil {
		h.logger.Warn("batch ended early", "error", runErr)
	}
	if h.runs == nil {
		return
	}
	if err := h.runs.Create(summary.Run()); err != nil {
		h.logger.Error("failed to record run", "error", err)
	}
}

func (h *BatchHandler) decode(r *http.Request) (tasks.BatchJob, error) {
	var req BatchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return tasks.BatchJob{}, fmt.Errorf("%w: invalid request body: %s", shared.ErrInvalidInput, err)
	}
	return req.Job(h.defaults)
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// compact strips the indentation from pretty JSON so it fits on one data line.
func compact(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return data
	}
	return buf.Bytes()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

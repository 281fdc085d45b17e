package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/metrics"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	th "github.com/desertthunder/setlist/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRuns struct {
	mu   sync.Mutex
	runs []*models.Run
	err  error
}

func (m *memRuns) Create(run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) all() []*models.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Run(nil), m.runs...)
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func newTestServer(t *testing.T, catalog *th.StubCatalog, runs RunStore) *httptest.Server {
	t.Helper()
	engine := tasks.NewEngine(tasks.EngineOpts{Catalog: catalog, Logger: quietLogger()})
	srv := New(Options{
		Engine:   engine,
		Catalog:  catalog,
		Runs:     runs,
		Defaults: shared.DefaultsConfig{ArtistMode: "top10", AutoSelect: true},
		Logger:   quietLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	var (
		events  []sseEvent
		current sseEvent
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestBatchHandler(t *testing.T) {
	t.Run("runs an artist batch and records it", func(t *testing.T) {
		catalog := &th.StubCatalog{
			Fail:  map[string]string{"Nobody": "Artist not found"},
			Added: map[string]int{"Radiohead": 10, "Björk": 5},
		}
		runs := &memRuns{}
		ts := newTestServer(t, catalog, runs)

		resp := post(t, ts.URL+"/batches", `{"kind":"artists","playlist_id":"pl-1","items":["Radiohead","Nobody"],"text":"Björk\n\n"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			TotalItems     int      `json:"total_items"`
			SucceededItems int      `json:"succeeded_items"`
			AddedTotal     int      `json:"added_total"`
			Log            []string `json:"log"`
			Status         string   `json:"status"`
			Headline       string   `json:"headline"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		assert.Equal(t, 3, body.TotalItems)
		assert.Equal(t, 2, body.SucceededItems)
		assert.Equal(t, 15, body.AddedTotal)
		assert.Equal(t, "partial", body.Status)
		assert.Equal(t, []string{"✓ Radiohead: 10 songs", "✗ Nobody: Artist not found", "✓ Björk: 5 songs"}, body.Log)
		assert.Equal(t, "Successfully added 15 total songs from 3 artists", body.Headline)
		assert.Equal(t, []string{"Radiohead", "Nobody", "Björk"}, catalog.Calls())

		recorded := runs.all()
		require.Len(t, recorded, 1)
		assert.Equal(t, "pl-1", recorded[0].TargetID())
		assert.Equal(t, 2, recorded[0].SucceededItems())
	})

	t.Run("history failure does not fail the request", func(t *testing.T) {
		catalog := &th.StubCatalog{}
		ts := newTestServer(t, catalog, &memRuns{err: errors.New("disk full")})

		resp := post(t, ts.URL+"/batches", `{"kind":"album","playlist_id":"pl-1","items":["OK Computer"]}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"kind":`, "invalid input"},
		{"unknown field", `{"kind":"song","playlist_id":"p","items":["a"],"bogus":1}`, "invalid input"},
		{"unknown kind", `{"kind":"podcast","playlist_id":"p","items":["a"]}`, "unknown batch kind"},
		{"no target", `{"kind":"song","items":["a"]}`, "no target playlist"},
		{"no items", `{"kind":"song","playlist_id":"p","text":"\n  \n"}`, "no items"},
		{"bad mode", `{"kind":"artist","playlist_id":"p","items":["a"],"mode":"some"}`, "unknown artist mode"},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			catalog := &th.StubCatalog{}
			runs := &memRuns{}
			ts := newTestServer(t, catalog, runs)

			resp := post(t, ts.URL+"/batches", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Contains(t, body["error"], tt.want)
			assert.Empty(t, catalog.Calls())
			assert.Empty(t, runs.all())
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		ts := newTestServer(t, &th.StubCatalog{}, nil)

		resp, err := http.Get(ts.URL + "/batches")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestBatchHandler_Stream(t *testing.T) {
	t.Run("progress then summary", func(t *testing.T) {
		catalog := &th.StubCatalog{Added: map[string]int{"A": 3, "B": 4}}
		ts := newTestServer(t, catalog, nil)

		resp := post(t, ts.URL+"/batches/stream", `{"kind":"album","playlist_id":"pl-1","items":["A","B"]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		events := readEvents(t, resp.Body)
		require.Len(t, events, 3)

		var first tasks.ProgressEvent
		assert.Equal(t, "progress", events[0].name)
		require.NoError(t, json.Unmarshal([]byte(events[0].data), &first))
		assert.Equal(t, tasks.ProgressEvent{Kind: tasks.KindAlbum, Index: 0, Total: 2, CurrentItem: "A"}, first)
		assert.Equal(t, "progress", events[1].name)

		var summary struct {
			AddedTotal int      `json:"added_total"`
			Log        []string `json:"log"`
			Status     string   `json:"status"`
		}
		assert.Equal(t, "summary", events[2].name)
		require.NoError(t, json.Unmarshal([]byte(events[2].data), &summary))
		assert.Equal(t, 7, summary.AddedTotal)
		assert.Equal(t, "complete", summary.Status)
		assert.Equal(t, []string{"✓ A: 3 tracks", "✓ B: 4 tracks"}, summary.Log)
	})

	t.Run("songs stream a single progress event", func(t *testing.T) {
		catalog := &th.StubCatalog{Songs: models.SongBatchResult{Added: 2, Total: 2}}
		ts := newTestServer(t, catalog, nil)
		counted := testutil.ToFloat64(metrics.ProgressEventsTotal.WithLabelValues("song"))

		resp := post(t, ts.URL+"/batches/stream", `{"kind":"song","playlist_id":"pl-1","text":"x - a\ny - b"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		events := readEvents(t, resp.Body)
		require.Len(t, events, 2)
		assert.Equal(t, "progress", events[0].name)
		assert.Contains(t, events[0].data, `"current_item":"2 songs"`)
		assert.Equal(t, "summary", events[1].name)
		assert.Equal(t, []string{"songs"}, catalog.Calls())
		assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.ProgressEventsTotal.WithLabelValues("song"))-counted, 1.0)
	})

	t.Run("invalid job is a plain 400", func(t *testing.T) {
		ts := newTestServer(t, &th.StubCatalog{}, nil)

		resp := post(t, ts.URL+"/batches/stream", `{"kind":"album","items":["A"]}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	})
}

func TestBatchRequest_Job(t *testing.T) {
	defaults := shared.DefaultsConfig{PlaylistID: "fallback", ArtistMode: "topn", CustomN: 5, AutoSelect: true}

	t.Run("fills defaults", func(t *testing.T) {
		job, err := BatchRequest{Kind: "artist", Items: []string{"a"}}.Job(defaults)
		require.NoError(t, err)
		assert.Equal(t, "fallback", job.TargetID)
		assert.Equal(t, tasks.Options{Mode: tasks.ModeTopN, CustomN: 5, AutoSelect: true}, job.Options)
	})

	t.Run("request wins", func(t *testing.T) {
		off := false
		job, err := BatchRequest{
			Kind: "artists", PlaylistID: "pl", Items: []string{"a"}, Text: "b\n c ",
			Mode: "all", CustomN: 2, AutoSelect: &off,
		}.Job(defaults)
		require.NoError(t, err)
		assert.Equal(t, "pl", job.TargetID)
		assert.Equal(t, []string{"a", "b", "c"}, job.Items)
		assert.Equal(t, tasks.ModeAll, job.Options.Mode)
		assert.Equal(t, 2, job.Options.CustomN)
		assert.False(t, job.Options.AutoSelect)
	})

	t.Run("non-artist ignores mode", func(t *testing.T) {
		job, err := BatchRequest{Kind: "album", PlaylistID: "pl", Items: []string{"a"}, Mode: "bogus"}.Job(defaults)
		require.NoError(t, err)
		assert.Empty(t, job.Options.Mode)
	})
}

func TestHealthAndPlaylists(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t, &th.StubCatalog{}, nil)

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("catalog down", func(t *testing.T) {
		ts := newTestServer(t, &th.StubCatalog{Err: shared.ErrServiceUnavailable}, nil)

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		resp2, err := http.Get(ts.URL + "/playlists")
		require.NoError(t, err)
		defer resp2.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp2.StatusCode)
	})

	t.Run("lists playlists", func(t *testing.T) {
		catalog := &th.StubCatalog{Playlists: []models.Playlist{{ID: "1", Name: "Road trip"}}}
		ts := newTestServer(t, catalog, nil)

		resp, err := http.Get(ts.URL + "/playlists")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			Playlists []models.Playlist `json:"playlists"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, []models.Playlist{{ID: "1", Name: "Road trip"}}, body.Playlists)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		ts := newTestServer(t, &th.StubCatalog{}, nil)

		resp, err := http.Get(ts.URL + "/playlists")
		require.NoError(t, err)
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"playlists":[]}`, string(data))
	})
}

func TestMetricsRoute(t *testing.T) {
	catalog := &th.StubCatalog{}
	ts := newTestServer(t, catalog, nil)

	post(t, ts.URL+"/batches", `{"kind":"album","playlist_id":"pl","items":["A"]}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "setlist_batches_total")
}

func TestServer_ListenAndServe(t *testing.T) {
	catalog := &th.StubCatalog{}
	engine := tasks.NewEngine(tasks.EngineOpts{Catalog: catalog, Logger: quietLogger()})
	srv := New(Options{Addr: "127.0.0.1:0", Engine: engine, Catalog: catalog, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := New(Options{Addr: "256.0.0.1:99999", Engine: tasks.NewEngine(tasks.EngineOpts{}), Catalog: &th.StubCatalog{}, Logger: quietLogger()})
	err := srv.ListenAndServe(context.Background(), nil)
	assert.Error(t, err)
}

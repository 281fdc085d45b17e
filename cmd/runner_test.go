package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	tu "github.com/desertthunder/setlist/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner over catalog with its history in a temporary database.
func newTestRunner(t *testing.T, catalog *tu.StubCatalog, input string) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "history.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
		Input:   strings.NewReader(input),
	})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "setlist",
		Writer:   io.Discard,
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"setlist"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := &tu.StubCatalog{}
			api := services.NewAPIService("http://catalog.test", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Catalog:    catalog,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil catalog builds a client from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Catalog.BaseURL = "http://catalog.test/"
			runner := NewRunner(RunnerOpts{Config: config})

			if _, ok := runner.catalog.(*services.CatalogClient); !ok {
				t.Errorf("expected *services.CatalogClient, got %T", runner.catalog)
			}
			if runner.api.BaseURL() != "http://catalog.test" {
				t.Errorf("expected base URL from config, got %s", runner.api.BaseURL())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "playlist", "add", "history", "serve", "api", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("Close without history is a no-op", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if err := runner.Close(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestAdd(t *testing.T) {
	t.Run("albums continue past a failure", func(t *testing.T) {
		catalog := &tu.StubCatalog{
			Fail:  map[string]string{"Bad Album": "Album not found"},
			Added: map[string]int{"OK Computer": 12, "Kid A": 10},
		}
		runner, output := newTestRunner(t, catalog, "")

		err := run(runner, "add", "albums", "--playlist", "pl-1", "OK Computer", "Bad Album", "Kid A")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		for _, want := range []string{
			"Successfully added 22 total tracks from 3 albums",
			"✓ OK Computer: 12 tracks",
			"✗ Bad Album: Album not found",
			"✓ Kid A: 10 tracks",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, got)
			}
		}

		calls := catalog.Calls()
		if strings.Join(calls, ",") != "OK Computer,Bad Album,Kid A" {
			t.Errorf("unexpected call order %v", calls)
		}
	})

	t.Run("songs are read from stdin in one call", func(t *testing.T) {
		catalog := &tu.StubCatalog{Songs: models.SongBatchResult{Added: 2, Total: 2}}
		runner, output := newTestRunner(t, catalog, "Creep - Radiohead\n\n  Army of Me - Björk  \n")

		if err := run(runner, "add", "songs", "--playlist", "pl-1", "--file", "-"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if calls := catalog.Calls(); len(calls) != 1 || calls[0] != "songs" {
			t.Errorf("expected a single songs call, got %v", calls)
		}
		if !strings.Contains(output.String(), "Successfully added 2 out of 2 songs") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("items come from a file after the arguments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "artists.txt")
		if err := os.WriteFile(path, []byte("Björk\r\nPortishead\r\n"), 0644); err != nil {
			t.Fatal(err)
		}

		catalog := &tu.StubCatalog{}
		runner, _ := newTestRunner(t, catalog, "")

		if err := run(runner, "add", "artists", "--playlist", "pl-1", "--file", path, "Radiohead"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := strings.Join(catalog.Calls(), ","); got != "Radiohead,Björk,Portishead" {
			t.Errorf("unexpected calls %s", got)
		}
	})

	t.Run("playlist falls back to config default", func(t *testing.T) {
		catalog := &tu.StubCatalog{}
		runner, _ := newTestRunner(t, catalog, "")
		runner.config.Defaults.PlaylistID = "default-pl"

		if err := run(runner, "add", "albums", "--no-history", "A"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(catalog.Calls()) != 1 {
			t.Errorf("expected one call, got %v", catalog.Calls())
		}
	})

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no playlist", []string{"add", "albums", "A"}, shared.ErrValidation},
		{"no items", []string{"add", "songs", "--playlist", "pl"}, shared.ErrValidation},
		{"unknown mode", []string{"add", "artists", "--playlist", "pl", "--mode", "some", "A"}, shared.ErrValidation},
		{"topn without n", []string{"add", "artists", "--playlist", "pl", "--mode", "topn", "A"}, shared.ErrValidation},
		{"unknown format", []string{"add", "albums", "--playlist", "pl", "--format", "xml", "A"}, shared.ErrInvalidArgument},
		{"missing file", []string{"add", "albums", "--playlist", "pl", "--file", "/does/not/exist"}, shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			catalog := &tu.StubCatalog{}
			runner, _ := newTestRunner(t, catalog, "")

			err := run(runner, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if calls := catalog.Calls(); len(calls) != 0 {
				t.Errorf("expected no remote calls, got %v", calls)
			}
		})
	}

	t.Run("all failed is an error but still prints the summary", func(t *testing.T) {
		catalog := &tu.StubCatalog{Fail: map[string]string{"A": "Album not found"}}
		runner, output := newTestRunner(t, catalog, "")

		err := run(runner, "add", "albums", "--playlist", "pl", "A")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(output.String(), "✗ A: Album not found") {
			t.Errorf("expected failure line, got:\n%s", output.String())
		}
	})

	t.Run("output writes the summary file", func(t *testing.T) {
		catalog := &tu.StubCatalog{Added: map[string]int{"A": 3}}
		runner, _ := newTestRunner(t, catalog, "")
		path := filepath.Join(t.TempDir(), "summary.json")

		if err := run(runner, "add", "albums", "--playlist", "pl", "--output", path, "A"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var body struct {
			AddedTotal int    `json:"added_total"`
			Status     string `json:"status"`
		}
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &body); err != nil {
			t.Fatalf("summary file is not JSON: %v", err)
		}
		if body.AddedTotal != 3 || body.Status != "complete" {
			t.Errorf("unexpected summary %+v", body)
		}
	})
}

func TestHistory(t *testing.T) {
	catalog := &tu.StubCatalog{Fail: map[string]string{"B": "Album not found"}}
	runner, output := newTestRunner(t, catalog, "")

	if err := run(runner, "add", "albums", "--playlist", "pl-1", "A", "B"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := run(runner, "add", "artists", "--playlist", "pl-2", "C"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 runs, got %d:\n%s", len(lines), output.String())
		}
		if !strings.HasPrefix(lines[0], "#2") || !strings.HasPrefix(lines[1], "#1") {
			t.Errorf("expected newest first, got:\n%s", output.String())
		}
	})

	t.Run("list filtered by kind", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "history", "list", "--kind", "albums"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); !strings.Contains(got, "#1") || strings.Contains(got, "#2") {
			t.Errorf("unexpected filtered list:\n%s", got)
		}
	})

	t.Run("show rebuilds the summary", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "history", "show", "#1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		for _, want := range []string{"Run #1", "✓ A: 10 tracks", "✗ B: Album not found"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in:\n%s", want, got)
			}
		}
	})

	t.Run("show unknown run", func(t *testing.T) {
		err := run(runner, "history", "show", "99")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("show without argument", func(t *testing.T) {
		err := run(runner, "history", "show")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		output.Reset()
		if err := run(runner, "history", "delete", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Deleted run #2") {
			t.Errorf("unexpected output %q", output.String())
		}

		err := run(runner, "history", "show", "2")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted run to be gone, got %v", err)
		}
	})
}

func TestPlaylist(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		catalog := &tu.StubCatalog{Playlists: []models.Playlist{{ID: "PL1", Name: "Road trip"}}}
		runner, output := newTestRunner(t, catalog, "")

		if err := run(runner, "playlist", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != "PL1  Road trip\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("list as JSON", func(t *testing.T) {
		catalog := &tu.StubCatalog{Playlists: []models.Playlist{{ID: "PL1", Name: "Road trip"}}}
		runner, output := newTestRunner(t, catalog, "")

		if err := run(runner, "playlist", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"name": "Road trip"`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("create", func(t *testing.T) {
		catalog := &tu.StubCatalog{}
		runner, output := newTestRunner(t, catalog, "")

		if err := run(runner, "playlist", "create", "--description", "for the drive", "Road trip"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "ID: pl-Road trip") {
			t.Errorf("unexpected output %q", output.String())
		}
		if len(catalog.Playlists) != 1 {
			t.Errorf("expected playlist to be created, got %v", catalog.Playlists)
		}
	})

	t.Run("create without name", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.StubCatalog{}, "")

		err := run(runner, "playlist", "create")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.StubCatalog{Err: shared.ErrServiceUnavailable}, "")

		err := run(runner, "playlist", "list")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestAPI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/add-songs":
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no such route"}`))
		}
	}))
	defer ts.Close()

	newAPIRunner := func() (*Runner, *bytes.Buffer) {
		output := &bytes.Buffer{}
		return NewRunner(RunnerOpts{
			API:     services.NewAPIService(ts.URL, nil),
			Catalog: &tu.StubCatalog{},
			Logger:  shared.NewLogger(io.Discard),
			Output:  output,
		}), output
	}

	t.Run("get", func(t *testing.T) {
		runner, output := newAPIRunner()
		if err := run(runner, "api", "get", "--pretty=false", "/health"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != `{"status":"ok"}`+"\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("get error status", func(t *testing.T) {
		runner, _ := newAPIRunner()
		err := run(runner, "api", "get", "/missing")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "no such route") {
			t.Errorf("expected service message in error, got %v", err)
		}
	})

	t.Run("post", func(t *testing.T) {
		runner, output := newAPIRunner()
		if err := run(runner, "api", "post", "--data", `{"songs":["a"]}`, "/api/add-songs"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"songs": [`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("post invalid JSON", func(t *testing.T) {
		runner, _ := newAPIRunner()
		err := run(runner, "api", "post", "--data", `{nope`, "/api/add-songs")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, output := newTestRunner(t, &tu.StubCatalog{}, "")

		if err := run(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Wrote "+path) {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "setlist.db")
		config := "[database]\npath = \"" + filepath.ToSlash(dbPath) + "\"\n"
		if err := os.WriteFile(path, []byte(config), 0644); err != nil {
			t.Fatal(err)
		}

		runner, output := newTestRunner(t, &tu.StubCatalog{}, "")
		if err := run(runner, "setup", "database", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "Database ready at "+dbPath) {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

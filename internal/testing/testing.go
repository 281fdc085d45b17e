// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// StubCatalog is a test double for [services.Service].
//
// Items listed in Fail come back failed with the mapped message; every other item succeeds with
// Added[item] songs (10 when unset). Calls are recorded in order.
type StubCatalog struct {
	Fail      map[string]string
	Added     map[string]int
	Songs     models.SongBatchResult
	Playlists []models.Playlist
	Err       error // returned by the playlist and health operations

	mu    sync.Mutex
	calls []string
}

// Calls returns the item (or "songs") of each batch call so far.
func (m *StubCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *StubCatalog) record(item string) {
	m.mu.Lock()
	m.calls = append(m.calls, item)
	m.mu.Unlock()
}

func (m *StubCatalog) outcome(item string) models.ItemOutcome {
	m.record(item)
	if msg, ok := m.Fail[item]; ok {
		return models.Failure(item, msg)
	}
	if n, ok := m.Added[item]; ok {
		return models.Success(item, n)
	}
	return models.Success(item, 10)
}

func (m *StubCatalog) AddSongs(ctx context.Context, targetID string, songs []string) models.SongBatchResult {
	m.record("songs")
	return m.Songs
}

func (m *StubCatalog) AddArtist(ctx context.Context, targetID, artist string, opts tasks.Options) models.ItemOutcome {
	return m.outcome(artist)
}

func (m *StubCatalog) AddAlbum(ctx context.Context, targetID, album string, opts tasks.Options) models.ItemOutcome {
	return m.outcome(album)
}

func (m *StubCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Playlists = append(m.Playlists, models.Playlist{ID: "pl-" + name, Name: name})
	return "pl-" + name, nil
}

func (m *StubCatalog) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.Playlists, m.Err
}

func (m *StubCatalog) Health(ctx context.Context) error { return m.Err }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

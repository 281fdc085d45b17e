package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"golang.org/x/time/rate"
)

// Catalog endpoints.
const (
	pathPlaylists      = "/api/playlists"
	pathCreatePlaylist = "/api/playlists/create"
	pathAddSongs       = "/api/add-songs"
	pathAddArtist      = "/api/add-artist"
	pathAddAlbum       = "/api/add-album"
	pathHealth         = "/health"
)

// CatalogOpts configures a [CatalogClient].
type CatalogOpts struct {
	API               *APIService
	Timeout           time.Duration // per call; zero disables
	RequestsPerSecond float64       // zero or less disables throttling
	Logger            *log.Logger
}

// CatalogClient implements [Service] over the catalog's JSON API.
//
// Batch calls never return Go errors: transport failures, non-2xx statuses, malformed replies,
// timeouts and success:false replies all come back as failed outcomes.
type CatalogClient struct {
	api     *APIService
	timeout time.Duration
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewCatalogClient creates a client from opts.
func NewCatalogClient(opts CatalogOpts) *CatalogClient {
	if opts.API == nil {
		opts.API = NewAPIService("", nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &CatalogClient{
		api:     opts.API,
		timeout: opts.Timeout,
		limiter: limiter,
		logger:  opts.Logger,
	}
}

// NewCatalogClientFromConfig wires the HTTP client, transport and throttle from cfg.
func NewCatalogClientFromConfig(ctx context.Context, cfg shared.CatalogConfig, logger *log.Logger) *CatalogClient {
	httpClient := NewHTTPClient(ctx, cfg.AccessToken, cfg.Timeout.Duration)
	return NewCatalogClient(CatalogOpts{
		API:               NewAPIService(cfg.BaseURL, httpClient),
		Timeout:           cfg.Timeout.Duration,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
}

type addSongsRequest struct {
	PlaylistID string   `json:"playlist_id"`
	Songs      []string `json:"songs"`
}

type addArtistRequest struct {
	PlaylistID string `json:"playlist_id"`
	ArtistName string `json:"artist_name"`
	Mode       string `json:"mode"`
	CustomN    *int   `json:"custom_n,omitempty"`
	AutoSelect bool   `json:"auto_select"`
}

type addAlbumRequest struct {
	PlaylistID string `json:"playlist_id"`
	AlbumInput string `json:"album_input"`
	AutoSelect bool   `json:"auto_select"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// reply is the envelope every catalog operation answers with.
type reply struct {
	Success    *bool    `json:"success"`
	Error      string   `json:"error"`
	Added      int      `json:"added"`
	Total      int      `json:"total"`
	Failed     []string `json:"failed"`
	PlaylistID string   `json:"playlist_id"`
}

// AddSongs submits every song line in one call.
func (c *CatalogClient) AddSongs(ctx context.Context, targetID string, songs []string) models.SongBatchResult {
	var r reply
	if err := c.call(ctx, pathAddSongs, addSongsRequest{PlaylistID: targetID, Songs: songs}, &r); err != nil {
		c.logger.Debug("add songs failed", "target", targetID, "error", err)
		return models.SongBatchResult{Err: err.Error()}
	}
	return models.SongBatchResult{Added: r.Added, Total: r.Total, Failed: r.Failed}
}

// AddArtist adds an artist's songs according to opts.Mode.
func (c *CatalogClient) AddArtist(ctx context.Context, targetID, artist string, opts tasks.Options) models.ItemOutcome {
	mode := opts.Mode
	if mode == "" {
		mode = tasks.ModeTop10
	}
	req := addArtistRequest{PlaylistID: targetID, ArtistName: artist, Mode: string(mode), AutoSelect: opts.AutoSelect}
	if mode == tasks.ModeTopN {
		n := opts.CustomN
		req.CustomN = &n
	}
	return c.addItem(ctx, pathAddArtist, artist, req)
}

// AddAlbum adds every track of the album matched by album.
func (c *CatalogClient) AddAlbum(ctx context.Context, targetID, album string, opts tasks.Options) models.ItemOutcome {
	return c.addItem(ctx, pathAddAlbum, album, addAlbumRequest{PlaylistID: targetID, AlbumInput: album, AutoSelect: opts.AutoSelect})
}

func (c *CatalogClient) addItem(ctx context.Context, path, item string, body any) models.ItemOutcome {
	var r reply
	if err := c.call(ctx, path, body, &r); err != nil {
		c.logger.Debug("add item failed", "path", path, "item", item, "error", err)
		return models.Failure(item, err.Error())
	}
	return models.Success(item, r.Added)
}

// CreatePlaylist creates a playlist and returns its ID.
func (c *CatalogClient) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	var r reply
	if err := c.call(ctx, pathCreatePlaylist, createPlaylistRequest{Name: name, Description: description, Public: public}, &r); err != nil {
		return "", fmt.Errorf("%w: create playlist: %s", shared.ErrAPIRequest, err)
	}
	if r.PlaylistID == "" {
		return "", fmt.Errorf("%w: create playlist: reply has no playlist_id", shared.ErrAPIRequest)
	}
	return r.PlaylistID, nil
}

// ListPlaylists returns the playlists the user can add to.
func (c *CatalogClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.Get(ctx, pathPlaylists)
	if err != nil {
		return nil, fmt.Errorf("%w: list playlists: %s", shared.ErrAPIRequest, describe(err))
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: list playlists (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, resp.ErrorMessage())
	}

	var payload struct {
		Playlists []models.Playlist `json:"playlists"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("%w: list playlists: malformed reply: %s", shared.ErrAPIRequest, err)
	}
	return payload.Playlists, nil
}

// Health reports whether the catalog answers at all.
func (c *CatalogClient) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.Get(ctx, pathHealth)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, describe(err))
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// call throttles, posts body to path under the per-call timeout and decodes the reply envelope.
//
// The returned error message is what ends up in the item's log line.
func (c *CatalogClient) call(ctx context.Context, path string, body any, out *reply) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %s", describe(err))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.PostJSON(ctx, path, body)
	if err != nil {
		return errors.New(describe(err))
	}
	if !resp.OK() {
		return fmt.Errorf("catalog error (status %d): %s", resp.StatusCode, resp.ErrorMessage())
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("malformed reply: %s", err)
	}
	if out.Success == nil {
		return errors.New("malformed reply: missing success")
	}
	if !*out.Success {
		if out.Error != "" {
			return errors.New(out.Error)
		}
		return errors.New("catalog reported failure")
	}
	return nil
}

func (c *CatalogClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return err.Error()
	}
}

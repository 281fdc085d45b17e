// package services defines interface Service for talking to the remote catalog
package services

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
	"golang.org/x/oauth2"
)

// Service is the full surface of the catalog: the batch operations the engine dispatches to,
// plus the playlist operations the CLI and server use directly.
type Service interface {
	tasks.Catalog

	// CreatePlaylist creates a playlist and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)

	// ListPlaylists returns the playlists the user can add to.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Health reports whether the catalog is reachable.
	Health(ctx context.Context) error
}

// NewHTTPClient returns the client used for catalog requests.
//
// When accessToken is set every request carries it as a bearer token through an [oauth2.StaticTokenSource].
func NewHTTPClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	client := &http.Client{}
	if accessToken != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	}
	// Per-call deadlines are applied through the request context; this is only a backstop.
	if timeout > 0 {
		client.Timeout = 2 * timeout
	}
	return client
}

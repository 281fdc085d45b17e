// Package services defines the [Service] interface for the remote playlist catalog and implements it over HTTP.
//
// # Service Interface
//
// [Service] embeds [tasks.Catalog], the three batch operations the engine dispatches to, and adds the playlist
// operations used directly by the CLI and the local server.
//
// # Catalog Implementation
//
// [CatalogClient] talks to the catalog's JSON API through [APIService]:
//   - POST /api/add-songs   : every song line in one call, answers {added, total, failed}
//   - POST /api/add-artist  : one artist per call, answers {added}
//   - POST /api/add-album   : one album per call, answers {added}
//   - POST /api/playlists/create, GET /api/playlists, GET /health
//
// Consecutive calls are throttled with a [rate.Limiter] and each call runs under its own deadline.
// An access token, when configured, is attached by an [oauth2.StaticTokenSource] transport.
//
// # Error Handling
//
// Batch operations never return Go errors. Network errors, non-2xx statuses, malformed replies and
// {"success": false} all become failed outcomes whose message is shown in the batch log. Playlist operations
// return errors wrapping:
//   - [shared.ErrAPIRequest] : the catalog rejected or garbled the request
//   - [shared.ErrServiceUnavailable] : the catalog could not be reached
package services

// Package server provides HTTP routing, middleware, and the handlers of the local batch front.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method patterns.
//
// # Batch Handler
//
// [BatchHandler] accepts a [BatchRequest], builds a batch job with the configured defaults and hands it
// to the batch engine. POST /batches replies with the summary as JSON once the batch is done.
// POST /batches/stream replies with server-sent events:
//
//	event: progress   one per item (one for a whole song batch)
//	event: summary    the final summary, compact JSON
//	event: error      the batch failed before producing a summary
//
// Jobs that fail validation are rejected with 400 before any event is written.
//
// # Other Routes
//
//	GET /health     catalog reachability
//	GET /playlists  the catalog's playlists
//	GET /metrics    Prometheus exposition
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

package server

import (
	"net/http"
)

// Middleware wraps a handler with cross-cutting behavior (request logging, panic recovery, metrics).
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows its own mux patterns.
//
// Patterns use the [http.ServeMux] syntax and may carry a method, e.g. "POST /batches" or "GET /{$}".
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler) // an empty method matches any method
	Handler(handler Handler)
	Routes() []string // registered patterns, in order
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

var _ Router = (*BasicRouter)(nil)

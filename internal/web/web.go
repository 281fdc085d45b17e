// Package web serves the single-page front for the local batch server.
//
// The page is a server-rendered form: pick a playlist (fetched from GET /playlists), pick a kind, paste
// one item per line and submit. Submission posts to /batches/stream and renders the progress and summary
// events as they arrive. All state lives in the browser; the server keeps none between requests.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what the index template renders.
type PageData struct {
	Title    string
	Kinds    []tasks.BatchKind
	Modes    []tasks.ArtistMode
	Defaults shared.DefaultsConfig
}

// Page renders the index page.
type Page struct {
	tmpl *template.Template
	data PageData
}

// NewPage parses the embedded templates.
func NewPage(defaults shared.DefaultsConfig) (*Page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Page{
		tmpl: tmpl,
		data: PageData{
			Title:    "setlist",
			Kinds:    tasks.Kinds,
			Modes:    []tasks.ArtistMode{tasks.ModeTop10, tasks.ModeTopN, tasks.ModeAll},
			Defaults: defaults,
		},
	}, nil
}

// Routes returns the HTTP routes this handler serves.
func (p *Page) Routes() []string {
	return []string{"GET /{$}"}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Render to a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", p.data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Package server exposes the scrape engine over HTTP: post a page and get its entities
// back as JSON, or let the server fetch the page first.
package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"v2scrape/internal/fetch"
	"v2scrape/moderation"
)

const defaultIndexHTML = `<!DOCTYPE html>
<html><body>
<h1>v2scrape</h1>
<form action="/fetch" method="get">
<h3>Fetch and parse</h3>
URL: <input name="url" size="60"><br>
Kind: <input name="kind" value="topic"><br>
Viewer: <input name="viewer"><br>
<button type="submit">Parse</button>
</form>
<form action="/parse?kind=topic" method="post" enctype="text/plain">
<h3>Parse posted HTML</h3>
<textarea name="html" rows="12" cols="80"></textarea><br>
<button type="submit">Parse</button>
</form>
</body></html>`

const defaultMaxBody = 4 << 20

// Config describes server wiring. Nil fields get defaults in New.
type Config struct {
	IndexHTML string
	Logger    *zap.Logger
	Store     moderation.Store
	// Fetcher serves /fetch; without one the route answers 501.
	Fetcher fetch.Fetcher
	// BaseURL resolves relative /fetch targets.
	BaseURL  string
	PageSize int
	MaxBody  int64
}

type Server struct {
	cfg     Config
	mux     *http.ServeMux
	handler http.Handler
	logger  *zap.Logger
}

func New(cfg Config) *Server {
	if cfg.IndexHTML == "" {
		cfg.IndexHTML = defaultIndexHTML
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Store == nil {
		cfg.Store = moderation.NewMemoryStore()
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaultMaxBody
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: cfg.Logger,
	}
	s.registerRoutes()
	s.handler = withLogging(s.logger, s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/parse", s.handleParse)
	s.mux.HandleFunc("/fetch", s.handleFetch)
	s.mux.HandleFunc("/ping", s.handlePing)
}

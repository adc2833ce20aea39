package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"v2scrape/internal/extract"
	"v2scrape/internal/fetch"
	"v2scrape/scrape"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.cfg.IndexHTML)))
	io.WriteString(w, s.cfg.IndexHTML)
}

// handleParse parses the posted page. Query: kind, viewer, threads.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	r.Body.Close()
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.respond(w, r, body)
}

// handleFetch fetches url and parses it. Query: url, kind, viewer, threads.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Fetcher == nil {
		http.Error(w, "fetching disabled", http.StatusNotImplemented)
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	if strings.HasPrefix(target, "/") {
		target = s.cfg.BaseURL + target
	}
	doc, err := s.cfg.Fetcher.Fetch(r.Context(), target)
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", target), zap.Error(err))
		var se *fetch.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.respond(w, r, doc.Body)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "pong\n")
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, page []byte) {
	q := r.URL.Query()
	kind := firstNonEmpty(q.Get("kind"), "topic")
	threads, _ := strconv.Atoi(q.Get("threads"))

	doc, err := scrape.ParseString(string(page))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := scrape.New(scrape.Config{
		Viewer:   q.Get("viewer"),
		Store:    s.cfg.Store,
		Logger:   s.logger,
		PageSize: s.cfg.PageSize,
	})
	out, err := extract.Run(p, doc, kind, extract.Options{ThreadsOf: threads})
	switch {
	case errors.Is(err, extract.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, scrape.ErrMissingAnchor), errors.Is(err, extract.ErrNoSuchReply):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Package fetch downloads forum pages for the command line tools. The scrape engine
// never imports it.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
)

// Document is one fetched page.
type Document struct {
	URL    string
	Status int
	Body   []byte
}

// Fetcher downloads target and returns its final URL and body.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*Document, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Jars hands out one cookie jar per viewer so sessions never mix.
type Jars struct {
	mu   sync.Mutex
	jars map[string]http.CookieJar
}

func NewJars() *Jars {
	return &Jars{jars: make(map[string]http.CookieJar)}
}

func (s *Jars) Get(viewer string) http.CookieJar {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jar, ok := s.jars[viewer]; ok {
		return jar
	}
	jar, _ := cookiejar.New(nil)
	s.jars[viewer] = jar
	return jar
}

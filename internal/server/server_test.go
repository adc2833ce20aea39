package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v2scrape/internal/fetch"
	"v2scrape/moderation"
)

const topicPage = `<html><head><link rel="canonical" href="https://www.v2ex.com/t/7"></head><body>
<script>var ignored_topics = [99]; var blocked = [];</script>
<div id="Main"><div class="box"><div class="header"><h1>Served</h1></div></div></div></body></html>`

type fakeFetcher struct {
	pages map[string]string
	got   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, target string) (*fetch.Document, error) {
	f.got = append(f.got, target)
	body, ok := f.pages[target]
	if !ok {
		return nil, &fetch.StatusError{URL: target, Code: http.StatusNotFound}
	}
	return &fetch.Document{URL: target, Status: http.StatusOK, Body: []byte(body)}, nil
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()
	store := moderation.NewMemoryStore()
	s := New(Config{Store: store})

	req := httptest.NewRequest(http.MethodPost, "/parse?kind=topic&viewer=alice", strings.NewReader(topicPage))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "Served", got.Title)
	assert.Equal(t, []int{99}, store.Load("alice").IgnoredTopics)
}

func TestParseEndpointErrors(t *testing.T) {
	t.Parallel()
	s := New(Config{MaxBody: 64})
	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "/parse", "", http.StatusMethodNotAllowed},
		{"unknown kind", http.MethodPost, "/parse?kind=bogus", "<p>x</p>", http.StatusBadRequest},
		{"missing anchor", http.MethodPost, "/parse?kind=member", "<p>x</p>", http.StatusUnprocessableEntity},
		{"empty body", http.MethodPost, "/parse", "", http.StatusBadRequest},
		{"too large", http.MethodPost, "/parse", strings.Repeat("a", 65), http.StatusRequestEntityTooLarge},
		{"no fetcher", http.MethodGet, "/fetch?url=/t/1", "", http.StatusNotImplemented},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("%s %s = %d, want %d (%s)", tc.method, tc.target, rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestFetchEndpoint(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{pages: map[string]string{"https://v2.test/t/7": topicPage}}
	s := New(Config{Fetcher: f, BaseURL: "https://v2.test/"})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch?url=/t/7&kind=topic", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Served"`)
	assert.Equal(t, []string{"https://v2.test/t/7"}, f.got)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch?url=/t/8", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexAndPing(t *testing.T) {
	t.Parallel()
	s := New(Config{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>v2scrape</h1>")

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong\n", rec.Body.String())
}

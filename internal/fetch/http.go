package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxBody = 8 << 20

type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	Jar       http.CookieJar
	Logger    *zap.Logger
	// Transport overrides http.DefaultTransport, mainly for tests.
	Transport http.RoundTripper
}

// HTTP fetches pages with a plain client. Cookies persist in the configured jar.
type HTTP struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

func NewHTTP(opts HTTPOptions) *HTTP {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &HTTP{
		client: &http.Client{
			Jar:       opts.Jar,
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

func (h *HTTP) Fetch(ctx context.Context, target string) (*Document, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("fetch: empty target url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", target, err)
	}
	final := resp.Request.URL.String()
	h.logger.Debug("page fetched",
		zap.String("url", final),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: final, Code: resp.StatusCode}
	}
	return &Document{URL: final, Status: resp.StatusCode, Body: body}, nil
}

package fetch

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type ChromeOptions struct {
	UserAgent string
	Timeout   time.Duration
	Jar       http.CookieJar
	Logger    *zap.Logger
	// WaitSelector must become visible before the page is captured.
	WaitSelector string
	// NetworkIdle is how long the network must stay quiet before capture.
	NetworkIdle time.Duration
}

// Chrome fetches pages through a headless browser, for pages that only render their
// interesting parts after scripts run (or behind an interstitial). Cookies are copied
// from the jar before navigation and written back afterwards.
type Chrome struct {
	allocator context.Context
	cancel    context.CancelFunc
	opts      ChromeOptions
}

func NewChrome(opts ChromeOptions) *Chrome {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), flags...)
	return &Chrome{allocator: allocCtx, cancel: cancel, opts: opts}
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Chrome) Fetch(ctx context.Context, target string) (*Document, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("chrome fetch: empty target url")
	}
	taskCtx, cancelBrowser := chromedp.NewContext(c.allocator)
	defer cancelBrowser()

	// Bind the browser tab to the caller's context.
	taskCtx, cancel := context.WithCancel(taskCtx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-taskCtx.Done():
		}
	}()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.opts.Timeout)
	defer cancelTimeout()

	var (
		mu           sync.Mutex
		active       int
		lastActivity = time.Now()
		mainID       network.RequestID
		status       int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		mu.Lock()
		defer mu.Unlock()
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			active++
			lastActivity = time.Now()
			if e.Type == network.ResourceTypeDocument {
				mainID = e.RequestID
			}
		case *network.EventLoadingFinished:
			if active > 0 {
				active--
			}
			lastActivity = time.Now()
		case *network.EventLoadingFailed:
			if active > 0 {
				active--
			}
			lastActivity = time.Now()
		case *network.EventResponseReceived:
			if e.RequestID == mainID && e.Response != nil {
				status = int(e.Response.Status)
			}
		}
	})

	actions := []chromedp.Action{network.Enable()}
	if ua := c.opts.UserAgent; ua != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(ua).Do(ctx)
		}))
	}
	if params := c.cookieParams(target); len(params) > 0 {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(params).Do(ctx)
		}))
	}

	var finalURL, body string
	actions = append(actions,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if sel := strings.TrimSpace(c.opts.WaitSelector); sel != "" {
		actions = append(actions, chromedp.WaitVisible(sel, chromedp.ByQuery))
	}
	if idle := c.opts.NetworkIdle; idle > 0 {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				mu.Lock()
				quiet := active == 0 && time.Since(lastActivity) >= idle
				mu.Unlock()
				if quiet {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		}))
	}

	var browserCookies []*network.Cookie
	actions = append(actions,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &body, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			u := finalURL
			if u == "" {
				u = target
			}
			var err error
			browserCookies, err = network.GetCookies().WithUrls([]string{u}).Do(ctx)
			return err
		}),
	)

	start := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, fmt.Errorf("chrome fetch %s: %w", target, err)
	}
	if finalURL == "" {
		finalURL = target
	}
	c.storeCookies(finalURL, browserCookies)

	mu.Lock()
	code := status
	mu.Unlock()
	c.opts.Logger.Debug("page rendered",
		zap.String("url", finalURL),
		zap.Int("status", code),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))

	if code != 0 && (code < 200 || code > 299) {
		return nil, &StatusError{URL: finalURL, Code: code}
	}
	if code == 0 {
		code = http.StatusOK
	}
	return &Document{URL: finalURL, Status: code, Body: []byte(body)}, nil
}

func (c *Chrome) cookieParams(target string) []*network.CookieParam {
	if c.opts.Jar == nil {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil
	}
	cookies := c.opts.Jar.Cookies(u)
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		params = append(params, cookieParam(ck, u))
	}
	return params
}

func (c *Chrome) storeCookies(final string, cookies []*network.Cookie) {
	if c.opts.Jar == nil || len(cookies) == 0 {
		return
	}
	u, err := url.Parse(final)
	if err != nil {
		return
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if hc := cookieFromNetwork(ck); hc != nil {
			out = append(out, hc)
		}
	}
	c.opts.Jar.SetCookies(u, out)
}

// cookieParam converts a jar cookie for the browser. Jar cookies carry no domain or path,
// so those fall back to the target host and root.
func cookieParam(ck *http.Cookie, u *url.URL) *network.CookieParam {
	p := &network.CookieParam{
		Name:     ck.Name,
		Value:    ck.Value,
		Domain:   ck.Domain,
		Path:     ck.Path,
		Secure:   ck.Secure,
		HTTPOnly: ck.HttpOnly,
	}
	if p.Domain == "" && u != nil {
		p.Domain = u.Hostname()
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if !ck.Expires.IsZero() {
		exp := cdp.TimeSinceEpoch(ck.Expires.UTC())
		p.Expires = &exp
	}
	return p
}

func cookieFromNetwork(c *network.Cookie) *http.Cookie {
	if c == nil {
		return nil
	}
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
	if !c.Session && c.Expires > 0 {
		sec, frac := math.Modf(c.Expires)
		hc.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	switch c.SameSite {
	case network.CookieSameSiteLax:
		hc.SameSite = http.SameSiteLaxMode
	case network.CookieSameSiteStrict:
		hc.SameSite = http.SameSiteStrictMode
	case network.CookieSameSiteNone:
		hc.SameSite = http.SameSiteNoneMode
	}
	return hc
}

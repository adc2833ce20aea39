package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	scriptSel    = cascadia.MustCompile("script")
	pageInputSel = cascadia.MustCompile("input.page_input")
	pageCurSel   = cascadia.MustCompile("a.page_current")
	canonicalSel = cascadia.MustCompile("link[rel='canonical']")

	topicIDRe    = regexp.MustCompile(`/t/(\d+)`)
	avatarIDRe   = regexp.MustCompile(`/avatar/[^/]+/[^/]+/(\d+)_`)
	onceRe       = regexp.MustCompile(`[?&]once=(\d+)`)
	memberLinkRe = regexp.MustCompile(`<a href="(?:https?://[^/"]+)?/member/[^"]+"`)
)

// ExtractArgByHref returns the path segment following "{segment}/" in the anchor's
// href, e.g. "qna" for "/go/qna" with segment "go". It returns "" when absent.
func ExtractArgByHref(a *html.Node, segment string) string {
	return argFromHref(getAttr(a, "href"), segment)
}

func argFromHref(href, segment string) string {
	marker := "/" + strings.Trim(segment, "/") + "/"
	i := strings.Index(href, marker)
	if i < 0 {
		return ""
	}
	rest := href[i+len(marker):]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	if v, err := url.PathUnescape(rest); err == nil {
		rest = v
	}
	return strings.TrimSpace(rest)
}

// QueryArg returns the value of key in href's query string.
func QueryArg(href, key string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(key))
}

// ParseLastPage reads the max attribute of the page input, defaulting to 1.
func ParseLastPage(doc *html.Node) int {
	if v, err := strconv.Atoi(strings.TrimSpace(getAttr(findFirst(doc, pageInputSel), "max"))); err == nil && v > 0 {
		return v
	}
	return 1
}

// ParsePage reads the current page number, defaulting to 1.
func ParsePage(doc *html.Node) int {
	if v, err := strconv.Atoi(strings.TrimSpace(getAttr(findFirst(doc, pageInputSel), "value"))); err == nil && v > 0 {
		return v
	}
	if cur := findFirst(doc, pageCurSel); cur != nil {
		if v := firstInt(collectText(cur), 0); v > 0 {
			return v
		}
	}
	return 1
}

func topicIDFromHref(href string) (int, bool) {
	return submatchInt(topicIDRe, href)
}

// memberIDFromAvatar reads the member id embedded in uploaded avatar urls; gravatar and
// default avatars carry none.
func memberIDFromAvatar(src string) *int {
	if id, ok := submatchInt(avatarIDRe, src); ok {
		return intPtr(id)
	}
	return nil
}

// findOnce returns the first once token referenced anywhere in the document's links or
// handlers. Anonymous pages have none.
func findOnce(doc *html.Node) string {
	once := ""
	walkAttrs(doc, func(_, val string) bool {
		if m := onceRe.FindStringSubmatch(val); m != nil {
			once = m[1]
			return true
		}
		return false
	})
	return once
}

func canonicalPath(doc *html.Node) string {
	href := getAttr(findFirst(doc, canonicalSel), "href")
	if u, err := url.Parse(href); err == nil {
		return u.Path
	}
	return href
}

package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

func getAttr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if n == nil || want == "" {
		return false
	}
	for _, c := range strings.Fields(strings.ToLower(getAttr(n, "class"))) {
		if c == want {
			return true
		}
	}
	return false
}

// collectText returns the visible text under n with whitespace runs collapsed.
func collectText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(x *html.Node) {
		switch x.Type {
		case html.TextNode:
			b.WriteString(x.Data)
			return
		case html.ElementNode:
			t := strings.ToLower(x.Data)
			if t == "style" || t == "script" || t == "noscript" {
				return
			}
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return condenseSpaces(b.String())
}

// condenseSpaces collapses every whitespace run, nbsp included, into one space.
func condenseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func innerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return strings.TrimSpace(b.String())
}

func elementChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// findAll returns the matches strictly below n.
func findAll(n *html.Node, sel cascadia.Selector) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sel.MatchAll(c)...)
	}
	return out
}

func findFirst(n *html.Node, sel cascadia.Selector) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := sel.MatchFirst(c); m != nil {
			return m
		}
	}
	return nil
}

// walkAttrs calls fn for every attribute value in the tree until fn returns true.
func walkAttrs(n *html.Node, fn func(key, val string) bool) bool {
	if n == nil {
		return false
	}
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if fn(a.Key, a.Val) {
				return true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walkAttrs(c, fn) {
			return true
		}
	}
	return false
}

var leadingIntRe = regexp.MustCompile(`\d+`)

// firstInt returns the first run of digits in s, or def when there is none.
func firstInt(s string, def int) int {
	m := leadingIntRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return def
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return def
	}
	return v
}

func submatchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

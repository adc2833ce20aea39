package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html/atom"
)

var (
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	anchorOpenRe  = regexp.MustCompile(`(?i)^<a[\s>]`)
	anchorCloseRe = regexp.MustCompile(`(?i)^</a\s*>`)

	markdownImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(\s*([^)\s]+)(?:\s+(?:&#34;|&#39;|&quot;|"|')[^<>]*?(?:&#34;|&#39;|&quot;|"|'))?\s*\)`)
	escapedImgRe    = regexp.MustCompile(`(?i)&lt;img\s[^<>]*?src\s*=\s*(?:&#34;|&#39;|&quot;)([^<>]*?)(?:&#34;|&#39;|&quot;)[^<>]*?&gt;`)
	bareURLRe       = regexp.MustCompile(`(?:https?:)?(?://)?[A-Za-z0-9][A-Za-z0-9-]*(?:\.[A-Za-z0-9-]+)+(?::\d+)?/(?:[^\s<>"'&]|&amp;)+`)
	scriptTagRe     = regexp.MustCompile(`(?i)<(/?)script([^>]*)>`)
)

// PromoteImages turns image references in a post body into linked <img> tags: existing
// images, anchors pointing at images, markdown images, escaped <img> text and bare image
// URLs all end up in the same shape. It returns false when the body would not change.
func PromoteImages(s string) (string, bool) {
	root := parseFragment(s)

	// Unwrap images to their URL so old and new references share one path below.
	for _, img := range collectElements(root, atom.Img) {
		src := strings.TrimSpace(getAttr(img, "src"))
		if !IsImageURL(src) {
			continue
		}
		if a := closestAncestor(img, atom.A); a != nil {
			if !IsImageURL(getAttr(a, "href")) || strings.TrimSpace(textOf(a)) != "" {
				continue
			}
		}
		replaceWithText(img, src)
	}
	for _, a := range collectElements(root, atom.A) {
		href := strings.TrimSpace(getAttr(a, "href"))
		if IsImageURL(href) && IsImageURL(strings.TrimSpace(textOf(a))) {
			replaceWithText(a, NormalizeImageURL(href))
		}
	}

	out := renderChildren(root)
	out = mapText(out, promoteMarkdown)
	out = mapText(out, promoteEscapedImg)
	out = mapText(out, promoteBareURLs)
	out = scriptTagRe.ReplaceAllString(out, "&lt;${1}script${2}&gt;")

	if normalizeMarkup(out) == normalizeMarkup(s) {
		return s, false
	}
	return out, true
}

func imageLink(u string) string {
	return `<a href="` + u + `"><img src="` + u + `" /></a>`
}

func promoteMarkdown(text string) string {
	return markdownImageRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := markdownImageRe.FindStringSubmatch(m)
		if u, ok := ImageURL(sub[2]); ok {
			return imageLink(u)
		}
		return m
	})
}

func promoteEscapedImg(text string) string {
	return escapedImgRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := escapedImgRe.FindStringSubmatch(m)
		if u, ok := ImageURL(sub[1]); ok {
			return imageLink(u)
		}
		return m
	})
}

// Sentence punctuation right after a URL is not part of it.
const urlTrailing = ".,;:!?)"

func promoteBareURLs(text string) string {
	return bareURLRe.ReplaceAllStringFunc(text, func(m string) string {
		u := strings.TrimRight(m, urlTrailing)
		if img, ok := ImageURL(u); ok {
			return imageLink(img) + m[len(u):]
		}
		return m
	})
}

// mapText applies fn to the text between tags of rendered markup, leaving anchor
// contents alone.
func mapText(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	last := 0
	for _, loc := range tagRe.FindAllStringIndex(s, -1) {
		text := s[last:loc[0]]
		if depth == 0 && text != "" {
			text = fn(text)
		}
		b.WriteString(text)
		tag := s[loc[0]:loc[1]]
		switch {
		case anchorOpenRe.MatchString(tag):
			depth++
		case anchorCloseRe.MatchString(tag) && depth > 0:
			depth--
		}
		b.WriteString(tag)
		last = loc[1]
	}
	tail := s[last:]
	if depth == 0 && tail != "" {
		tail = fn(tail)
	}
	b.WriteString(tail)
	return b.String()
}

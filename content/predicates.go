package content

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	imageExtRe = regexp.MustCompile(`(?i)\.(?:jpe?g|gif|png|svg)$`)
	imgurRe    = regexp.MustCompile(`^https://imgur\.com/[A-Za-z0-9]{7}$`)
	hostPathRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*(?:\.[A-Za-z0-9-]+)+/`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeImageURL removes whitespace and gives scheme-less references an https scheme.
func NormalizeImageURL(s string) string {
	s = spaceRe.ReplaceAllString(s, "")
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return s
	case strings.HasPrefix(s, "//"):
		return "https:" + s
	case hostPathRe.MatchString(s):
		return "https://" + s
	}
	return s
}

// ImageURL reports whether s points at an image and returns the URL to render it from.
// Imgur short links resolve to their png.
func ImageURL(s string) (string, bool) {
	u := NormalizeImageURL(s)
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	if imgurRe.MatchString(u) {
		return u + ".png", true
	}
	p := u
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if imageExtRe.MatchString(p) {
		return u, true
	}
	return "", false
}

// IsImageURL reports whether ImageURL accepts s.
func IsImageURL(s string) bool {
	_, ok := ImageURL(s)
	return ok
}

// Tokens that look like base64 but are ordinary words in posts.
var base64Denylist = map[string]struct{}{
	"bilibili": {},
	"Bilibili": {},
	"Encrypto": {},
	"Window10": {},
	"Windows7": {},
	"airpords": {},
	"AirPods2": {},
	"Contents": {},
	"Whatever": {},
	"Homebrew": {},
	"Markdown": {},
	"Password": {},
	"password": {},
	"username": {},
	"Username": {},
	"iPhone12": {},
	"iPhone13": {},
	"iPhone14": {},
	"iPhone15": {},
}

// IsBase64Candidate applies the cheap shape checks to a run of base64 alphabet characters.
func IsBase64Candidate(run string) bool {
	if len(run) < 8 || len(run)%4 != 0 {
		return false
	}
	_, denied := base64Denylist[run]
	return !denied
}

const cjkPunctuation = "，。、；：？！“”‘’（）《》【】「」『』…—～·"

// IsSuspicious reports whether a decoded string contains anything other than CJK
// ideographs, printable non-space ASCII and common CJK punctuation.
func IsSuspicious(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		switch {
		case r >= 0x21 && r <= 0x7e:
		case unicode.Is(unicode.Han, r):
		case strings.ContainsRune(cjkPunctuation, r):
		default:
			return true
		}
	}
	return false
}

// Decode base64-decodes then percent-decodes run. ok is false on any failure or when
// IsSuspicious flags the result.
func Decode(run string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(run)
	if err != nil {
		return "", false
	}
	s, err := url.PathUnescape(string(raw))
	if err != nil {
		return "", false
	}
	if IsSuspicious(s) {
		return "", false
	}
	return s, true
}

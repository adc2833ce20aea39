package moderation

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ignoredTopicsRe = regexp.MustCompile(`ignored_topics\s*=\s*\[([^\]]*)\]`)
	blockedRe       = regexp.MustCompile(`\bblocked\s*=\s*\[([^\]]*)\]`)
)

// ParseScript recovers the moderation set from inline page script text such as
//
//	var ignored_topics = [101, 102];
//	var blocked = [7];
//
// An array missing from text stays nil, while a present but empty one is an empty slice.
// ok is false when neither array is present, which is the case for anonymous viewers.
func ParseScript(text string) (Set, bool) {
	var s Set
	found := false
	if m := ignoredTopicsRe.FindStringSubmatch(text); m != nil {
		s.IgnoredTopics = parseIDList(m[1])
		found = true
	}
	if m := blockedRe.FindStringSubmatch(text); m != nil {
		s.BlockedMembers = parseIDList(m[1])
		found = true
	}
	return s, found
}

func parseIDList(raw string) []int {
	ids := []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

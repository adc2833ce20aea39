// Package relation reconstructs @mention conversations inside one topic's replies.
//
// It works on parsed replies only. A focal reply that mentions several members yields
// one Thread per mentioned member, holding every reply exchanged between the focal
// author and that member plus the subset that actually addresses the other side.
package relation

import (
	"regexp"
	"slices"

	"v2scrape/model"
)

var mentionRe = regexp.MustCompile(`@<a href="(?:https?://[^/"]+)?/member/([^"]+)">`)

// Thread is the conversation between the focal reply's author and Username.
type Thread struct {
	Username string `json:"username"`
	// All holds every reply by either participant, in topic order.
	All []model.Reply `json:"all"`
	// Related is the subset of All that addresses the other participant.
	Related []model.Reply `json:"related"`
}

// Mentions returns the members @mentioned in raw reply HTML in first-appearance order,
// without duplicates.
func Mentions(content string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range mentionRe.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// Build returns one Thread per member focal mentions. replies should be the topic's
// full reply list; duplicates by id are ignored. Threads without any reply are left
// out, so a focal reply without mentions yields nil.
func Build(focal model.Reply, replies []model.Reply) []Thread {
	targets := Mentions(focal.Content)
	if len(targets) == 0 {
		return nil
	}
	author := focal.Username()
	replies = uniqueByID(replies)

	mentions := make([][]string, len(replies))
	for i, r := range replies {
		mentions[i] = Mentions(r.Content)
	}

	var out []Thread
	for _, u := range targets {
		t := Thread{Username: u}
		for i, r := range replies {
			by := r.Username()
			if by != author && by != u {
				continue
			}
			t.All = append(t.All, r)
			if related(r, mentions[i], focal, author, u) {
				t.Related = append(t.Related, r)
			}
		}
		if len(t.All) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// related decides whether r, written by author or u, addresses the other participant.
// A reply that mentions nobody is kept in either direction.
func related(r model.Reply, mentions []string, focal model.Reply, author, u string) bool {
	if len(mentions) == 0 {
		return true
	}
	if r.Username() == author {
		return slices.Contains(mentions, u)
	}
	return r.ID == focal.ID || slices.Contains(mentions, author)
}

func uniqueByID(replies []model.Reply) []model.Reply {
	seen := make(map[int]struct{}, len(replies))
	out := make([]model.Reply, 0, len(replies))
	for _, r := range replies {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

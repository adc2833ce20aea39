// Package extract maps a page kind name to the scrape parser for it. Both v2dump and
// v2serve dispatch through here.
package extract

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"v2scrape/relation"
	"v2scrape/scrape"
)

// Kinds lists the accepted page kinds.
var Kinds = []string{"home", "recent", "node", "topic", "member", "member-topics", "member-replies", "notices", "rank", "nav"}

var (
	ErrUnknownKind = errors.New("extract: unknown page kind")
	ErrNoSuchReply = errors.New("extract: reply not on this page")
)

// Options tweak what a kind returns.
type Options struct {
	// ThreadsOf, when positive on a topic page, returns the @mention threads of that
	// reply number instead of the topic.
	ThreadsOf int
}

// Run parses doc as kind and returns a JSON-ready value.
func Run(p *scrape.Parser, doc *html.Node, kind string, opts Options) (any, error) {
	switch kind {
	case "home":
		return map[string]any{
			"tabs":       scrape.ParseTabs(doc),
			"topics":     p.ParseHome(doc),
			"nav":        scrape.ParseNavGroups(doc),
			"viewer":     scrape.ParseViewer(doc),
			"moderation": p.Moderation(doc),
		}, nil
	case "recent":
		return p.ParseRecent(doc), nil
	case "node":
		node, page := p.ParseNodeTopics(doc)
		return map[string]any{"node": node, "topics": page}, nil
	case "topic":
		t, err := p.ParseTopic(doc)
		if err != nil {
			return nil, err
		}
		if opts.ThreadsOf <= 0 {
			return t, nil
		}
		for _, r := range t.Replies {
			if r.No == opts.ThreadsOf {
				return relation.Build(r, t.Replies), nil
			}
		}
		return nil, fmt.Errorf("reply #%d: %w", opts.ThreadsOf, ErrNoSuchReply)
	case "member":
		return p.ParseMember(doc)
	case "member-topics":
		return p.ParseMemberTopics(doc), nil
	case "member-replies":
		return p.ParseMemberReplies(doc), nil
	case "notices":
		return p.ParseNotices(doc), nil
	case "rank":
		return p.ParseRank(doc), nil
	case "nav":
		return scrape.ParseNavGroups(doc), nil
	}
	return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
}

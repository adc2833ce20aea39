package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/content"
	"v2scrape/model"
)

var (
	topicBoxSel      = cascadia.MustCompile("#Main > .box")
	topicHeaderSel   = cascadia.MustCompile(".header")
	topicTitleSel    = cascadia.MustCompile("h1")
	headerNodeSel    = cascadia.MustCompile("a[href^='/go/']")
	headerMetaSel    = cascadia.MustCompile("small.gray")
	headerMemberSel  = cascadia.MustCompile("small.gray a[href^='/member/']")
	headerCreatedSel = cascadia.MustCompile("small.gray span[title]")
	headerLinkSel    = cascadia.MustCompile("a[href]")
	topicContentSel  = cascadia.MustCompile(".cell .topic_content")
	supplementSel    = cascadia.MustCompile(".subtle")
	supplementAtSel  = cascadia.MustCompile(".fade")
	supplementBody   = cascadia.MustCompile(".topic_content")
	topicButtonsSel  = cascadia.MustCompile(".topic_buttons")
	topicThankedSel  = cascadia.MustCompile("#topic_thank .topic_thanked")
	topicStatsSel    = cascadia.MustCompile(".topic_stats")
	grayTextSel      = cascadia.MustCompile("span.gray")
	cellSel          = cascadia.MustCompile(".cell")

	viewsRe   = regexp.MustCompile(`(\d+)\s*(?:次点击|views?|clicks?)`)
	likesRe   = regexp.MustCompile(`(\d+)\s*(?:人收藏|likes?|favorites?)`)
	thanksRe  = regexp.MustCompile(`(\d+)\s*(?:人感谢|thanks?)`)
	votesIDRe = regexp.MustCompile(`^topic_(\d+)_votes$`)
)

// ParseTopic reads a topic detail page: the topic itself, its supplements and the
// replies rendered on this page. It fails with ErrMissingAnchor when the title is absent.
func (p *Parser) ParseTopic(doc *html.Node) (model.Topic, error) {
	boxes := findAll(doc, topicBoxSel)
	if len(boxes) == 0 {
		return model.Topic{}, fmt.Errorf("topic: no content box: %w", ErrMissingAnchor)
	}
	main := boxes[0]
	header := findFirst(main, topicHeaderSel)
	h1 := findFirst(header, topicTitleSel)
	if h1 == nil {
		return model.Topic{}, fmt.Errorf("topic: no title: %w", ErrMissingAnchor)
	}

	t := model.Topic{
		ID:       topicIDFromPage(doc, header),
		Title:    collectText(h1),
		Once:     findOnce(doc),
		Page:     ParsePage(doc),
		LastPage: ParseLastPage(doc),
	}

	if nodes := findAll(header, headerNodeSel); len(nodes) > 0 {
		a := nodes[len(nodes)-1]
		t.Node = &model.Node{Name: ExtractArgByHref(a, "go"), Title: collectText(a)}
	}
	if m := findFirst(header, headerMemberSel); m != nil {
		avatar := getAttr(findFirst(header, avatarSel), "src")
		t.Member = &model.Member{
			Username: collectText(m),
			Avatar:   avatar,
			ID:       memberIDFromAvatar(avatar),
		}
	}
	meta := collectText(findFirst(header, headerMetaSel))
	if v, ok := submatchInt(viewsRe, meta); ok {
		t.Views = v
	}
	t.Created = collectText(findFirst(header, headerCreatedSel))
	t.Votes = firstInt(collectText(findFirst(header, votesSel)), 0)

	// Edit and append rights only show up as operation links.
	for _, a := range findAll(header, headerLinkSel) {
		href := getAttr(a, "href")
		switch {
		case strings.HasPrefix(href, "/edit/topic/"):
			t.Editable = true
		case strings.HasPrefix(href, "/append/topic/"):
			t.Appendable = true
		}
	}

	if body := findFirst(main, topicContentSel); body != nil && closestClass(body, "subtle") == nil {
		t.Content = innerHTML(body)
		t.ParsedContent = content.Rewrite(t.Content, content.Independent)
	}
	for _, sub := range findAll(main, supplementSel) {
		raw := innerHTML(findFirst(sub, supplementBody))
		t.Supplements = append(t.Supplements, model.Supplement{
			Created:       collectText(findFirst(sub, supplementAtSel)),
			Content:       raw,
			ParsedContent: content.Rewrite(raw, content.Independent),
		})
	}

	if buttons := findFirst(main, topicButtonsSel); buttons != nil {
		walkAttrs(buttons, func(_, val string) bool {
			if strings.Contains(val, "/unfavorite/topic/") {
				t.Liked = true
			}
			if strings.Contains(val, "/unignore/topic/") {
				t.Ignored = true
			}
			return false
		})
		t.Thanked = findFirst(buttons, topicThankedSel) != nil
		stats := collectText(findFirst(buttons, topicStatsSel))
		if v, ok := submatchInt(likesRe, stats); ok {
			t.Likes = v
		}
		if v, ok := submatchInt(thanksRe, stats); ok {
			t.Thanks = v
		}
		if t.Views == 0 {
			if v, ok := submatchInt(viewsRe, stats); ok {
				t.Views = v
			}
		}
	}

	if len(boxes) > 1 {
		t.ReplyCount = parseReplyCount(boxes[1])
	}
	t.Replies = p.ParseReplies(doc)
	return t, nil
}

// parseReplyCount reads "N replies • date" from the reply box head; the count is
// whatever precedes the bullet.
func parseReplyCount(box *html.Node) int {
	cells := findAll(box, cellSel)
	if len(cells) == 0 {
		return 0
	}
	gray := findFirst(cells[0], grayTextSel)
	text := collectText(gray)
	head, _, _ := strings.Cut(text, "•")
	return firstInt(head, 0)
}

func topicIDFromPage(doc, header *html.Node) int {
	if id, ok := topicIDFromHref(canonicalPath(doc)); ok {
		return id
	}
	if v := findFirst(header, votesSel); v != nil {
		if id, ok := submatchInt(votesIDRe, getAttr(v, "id")); ok {
			return id
		}
	}
	return 0
}

func closestClass(n *html.Node, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if hasClass(p, class) {
			return p
		}
	}
	return nil
}

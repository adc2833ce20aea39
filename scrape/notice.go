package scrape

import (
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/content"
	"v2scrape/model"
)

var (
	noticeCellSel    = cascadia.MustCompile(".cell[id^='n_']")
	noticeSummarySel = cascadia.MustCompile("span.fade")
	noticePayloadSel = cascadia.MustCompile(".payload")
	noticeAgoSel     = cascadia.MustCompile(".snow")
	noticeDeleteSel  = cascadia.MustCompile("[onclick*='deleteNotification']")

	noticeIDRe     = regexp.MustCompile(`^n_(\d+)$`)
	noticeDeleteRe = regexp.MustCompile(`deleteNotification\(\s*(\d+)\s*,\s*(\d+)\s*\)`)
)

// ParseNotices reads one page of the viewer's notifications.
func (p *Parser) ParseNotices(doc *html.Node) model.PageData[model.Notice] {
	set := p.Moderation(doc)
	cells := findAll(doc, noticeCellSel)
	out := make([]model.Notice, 0, len(cells))
	for i, cell := range cells {
		n, err := parseNotice(cell)
		if err != nil {
			p.dropped("notice", i, err)
			continue
		}
		if memberBlocked(set, n.Member) || topicHidden(set, n.Topic) {
			continue
		}
		out = append(out, n)
	}
	return paginate(p, doc, out)
}

func parseNotice(cell *html.Node) (model.Notice, error) {
	summary := findFirst(cell, noticeSummarySel)
	if summary == nil {
		return model.Notice{}, malformed("notice without summary")
	}
	n := model.Notice{Created: collectText(findFirst(cell, noticeAgoSel))}
	if id, ok := submatchInt(noticeIDRe, getAttr(cell, "id")); ok {
		n.ID = id
	}
	if del := findFirst(cell, noticeDeleteSel); del != nil {
		if m := noticeDeleteRe.FindStringSubmatch(getAttr(del, "onclick")); m != nil {
			n.ID = firstInt(m[1], n.ID)
			n.Once = m[2]
		}
	}

	// The sentence is "<member> prev <topic> next"; only the two links are markup, the
	// verbs between them are loose text nodes.
	var memberA, topicA *html.Node
	var prev, next strings.Builder
	for c := summary.FirstChild; c != nil; c = c.NextSibling {
		href := getAttr(c, "href")
		switch {
		case memberA == nil && c.Type == html.ElementNode && strings.Contains(href, "/member/"):
			memberA = c
		case topicA == nil && c.Type == html.ElementNode && strings.Contains(href, "/t/"):
			topicA = c
		case memberA == nil:
		case topicA == nil:
			prev.WriteString(nodeText(c))
		default:
			next.WriteString(nodeText(c))
		}
	}
	if memberA == nil {
		return model.Notice{}, malformed("notice without member link")
	}

	avatar := getAttr(findFirst(cell, avatarSel), "src")
	n.Member = &model.Member{
		Username: ExtractArgByHref(memberA, "member"),
		Avatar:   avatar,
		ID:       memberIDFromAvatar(avatar),
	}
	if n.Member.Username == "" {
		n.Member.Username = collectText(memberA)
	}
	n.PrevActionText = condenseSpaces(prev.String())
	n.NextActionText = condenseSpaces(next.String())

	parts := []string{n.Member.Username, n.PrevActionText}
	if topicA != nil {
		id, _ := topicIDFromHref(getAttr(topicA, "href"))
		n.Topic = &model.Topic{ID: id, Title: collectText(topicA)}
		parts = append(parts, n.Topic.Title)
	}
	parts = append(parts, n.NextActionText)
	n.Text = condenseSpaces(strings.Join(parts, " "))

	if payload := findFirst(cell, noticePayloadSel); payload != nil {
		raw := innerHTML(payload)
		n.Content = &raw
		n.ParsedContent = content.Rewrite(raw, content.PromoteFirst)
	}
	return n, nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	return " " + collectText(n) + " "
}

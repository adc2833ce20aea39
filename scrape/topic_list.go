package scrape

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/parser"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"v2scrape/model"
)

var (
	homeItemSel    = cascadia.MustCompile("#Main .box .cell.item")
	nodeItemSel    = cascadia.MustCompile("#TopicsNode .cell")
	itemTitleSel   = cascadia.MustCompile(".item_title a")
	topicInfoSel   = cascadia.MustCompile(".topic_info")
	nodeBadgeSel   = cascadia.MustCompile("a.node")
	infoMemberSel  = cascadia.MustCompile("strong > a")
	replyCountSel  = cascadia.MustCompile("a.count_livid, a.count_orange")
	votesSel       = cascadia.MustCompile(".votes")
	avatarSel      = cascadia.MustCompile("img.avatar")
	nodeHeaderSel  = cascadia.MustCompile(".node_header")
	nodeInfoSel    = cascadia.MustCompile(".node_info")
	nodeAvatarSel  = cascadia.MustCompile(".node_avatar img")
	nodeTotalSel   = cascadia.MustCompile(".fr strong")
	nodeTitleFrSel = cascadia.MustCompile(".fr")
)

// ParseTopicList reads every topic row matched by selector. Rows that cannot be read and
// rows the viewer ignored or whose author the viewer blocked are left out.
func (p *Parser) ParseTopicList(doc *html.Node, selector string) []model.Topic {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		p.logger.Warn("bad topic selector", zap.String("selector", selector), zap.Error(err))
		return []model.Topic{}
	}
	return p.topicRows(doc, sel)
}

// ParseHome reads the topic rows of the front page and its tab views.
func (p *Parser) ParseHome(doc *html.Node) []model.Topic {
	return p.topicRows(doc, homeItemSel)
}

// ParseRecent reads one page of the recent-topics listing.
func (p *Parser) ParseRecent(doc *html.Node) model.PageData[model.Topic] {
	return paginate(p, doc, p.topicRows(doc, homeItemSel))
}

// ParseNodeTopics reads a node's header and one page of its topics. Rows on node pages
// carry no node badge, so each topic gets the page's node.
func (p *Parser) ParseNodeTopics(doc *html.Node) (model.Node, model.PageData[model.Topic]) {
	node := parseNodeHeader(doc)
	topics := p.topicRows(doc, nodeItemSel)
	for i := range topics {
		if topics[i].Node == nil && node.Name != "" {
			n := node
			topics[i].Node = &n
		}
	}
	return node, paginate(p, doc, topics)
}

func (p *Parser) topicRows(doc *html.Node, sel cascadia.Selector) []model.Topic {
	set := p.Moderation(doc)
	rows := findAll(doc, sel)
	out := make([]model.Topic, 0, len(rows))
	for i, row := range rows {
		t, err := parseTopicRow(row)
		if err != nil {
			p.dropped("topic", i, err)
			continue
		}
		if topicHidden(set, &t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func parseTopicRow(row *html.Node) (model.Topic, error) {
	title := findFirst(row, itemTitleSel)
	if title == nil {
		return model.Topic{}, malformed("no title link")
	}
	id, ok := topicIDFromHref(getAttr(title, "href"))
	if !ok {
		return model.Topic{}, malformed("title link without topic id")
	}
	t := model.Topic{
		ID:         id,
		Title:      collectText(title),
		ReplyCount: firstInt(collectText(findFirst(row, replyCountSel)), 0),
		Votes:      firstInt(collectText(findFirst(row, votesSel)), 0),
		PinToTop:   pinnedByStyle(getAttr(row, "style")),
	}

	info := findFirst(row, topicInfoSel)
	badge := findFirst(info, nodeBadgeSel)
	if badge != nil {
		if name := ExtractArgByHref(badge, "go"); name != "" {
			t.Node = &model.Node{Name: name, Title: collectText(badge)}
		}
	}

	members := findAll(info, infoMemberSel)
	if len(members) > 0 {
		avatar := getAttr(findFirst(row, avatarSel), "src")
		t.Member = &model.Member{
			Username: collectText(members[0]),
			Avatar:   avatar,
			ID:       memberIDFromAvatar(avatar),
		}
	}
	if len(members) > 1 {
		t.LastReplyBy = collectText(members[1])
	}

	// The info cell is positional: with a node badge the time is its 4th child,
	// without one it is the 2nd.
	cells := elementChildren(info)
	at := 1
	if t.Node != nil {
		at = 3
	}
	if at < len(cells) {
		t.LastTouched = collectText(cells[at])
	}
	return t, nil
}

// pinnedByStyle detects the corner star background the forum paints on pinned rows.
func pinnedByStyle(style string) bool {
	if strings.TrimSpace(style) == "" {
		return false
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return false
	}
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if (prop == "background-image" || prop == "background") && strings.Contains(d.Value, "corner_star") {
			return true
		}
	}
	return false
}

func parseNodeHeader(doc *html.Node) model.Node {
	var node model.Node
	node.Name = argFromHref(canonicalPath(doc), "go")
	header := findFirst(doc, nodeHeaderSel)
	if header == nil {
		return node
	}
	node.Avatar = getAttr(findFirst(header, nodeAvatarSel), "src")
	info := findFirst(header, nodeInfoSel)
	node.Topics = firstInt(collectText(findFirst(info, nodeTotalSel)), 0)

	// The title is the last breadcrumb segment, outside the floated counter.
	var b strings.Builder
	for c := firstChild(info); c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && nodeTitleFrSel.Match(c) {
			continue
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(" " + collectText(c) + " ")
		}
	}
	crumbs := strings.Split(b.String(), "›")
	node.Title = condenseSpaces(crumbs[len(crumbs)-1])
	return node
}

func firstChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	return n.FirstChild
}

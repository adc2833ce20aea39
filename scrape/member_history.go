package scrape

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/content"
	"v2scrape/model"
)

var (
	dockAreaSel    = cascadia.MustCompile("#Main .box .dock_area")
	dockTopicSel   = cascadia.MustCompile("span.gray a[href^='/t/']")
	dockMemberSel  = cascadia.MustCompile("span.gray a[href^='/member/']")
	dockCreatedSel = cascadia.MustCompile(".fr .fade")
	dockBodySel    = cascadia.MustCompile(".reply_content")
)

// ParseMemberTopics reads one page of a member's topics. Members who hide their topic
// list produce an empty page.
func (p *Parser) ParseMemberTopics(doc *html.Node) model.PageData[model.Topic] {
	return paginate(p, doc, p.topicRows(doc, homeItemSel))
}

// ParseMemberReplies reads one page of a member's reply history. Each entry is a dock
// area naming the topic followed by a sibling block holding the reply body.
func (p *Parser) ParseMemberReplies(doc *html.Node) model.PageData[model.MemberReply] {
	set := p.Moderation(doc)
	docks := findAll(doc, dockAreaSel)
	out := make([]model.MemberReply, 0, len(docks))
	for i, dock := range docks {
		r, err := parseMemberReply(dock)
		if err != nil {
			p.dropped("member_reply", i, err)
			continue
		}
		if topicHidden(set, r.Topic) {
			continue
		}
		out = append(out, r)
	}
	return paginate(p, doc, out)
}

func parseMemberReply(dock *html.Node) (model.MemberReply, error) {
	link := findFirst(dock, dockTopicSel)
	if link == nil {
		return model.MemberReply{}, malformed("dock without topic link")
	}
	id, ok := topicIDFromHref(getAttr(link, "href"))
	if !ok {
		return model.MemberReply{}, malformed("topic link without id")
	}
	topic := &model.Topic{ID: id, Title: collectText(link)}
	if author := findFirst(dock, dockMemberSel); author != nil {
		topic.Member = &model.Member{Username: ExtractArgByHref(author, "member")}
	}

	inner := nextElementSibling(dock)
	if inner == nil {
		return model.MemberReply{}, malformed("dock without reply body")
	}
	body := dockBodySel.MatchFirst(inner)
	if body == nil {
		return model.MemberReply{}, malformed("dock without reply body")
	}
	raw := innerHTML(body)
	return model.MemberReply{
		Topic:         topic,
		Content:       raw,
		ParsedContent: content.Rewrite(raw, content.PromoteFirst),
		Created:       collectText(findFirst(dock, dockCreatedSel)),
	}, nil
}

package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/content"
	"v2scrape/model"
)

var (
	replyCellSel    = cascadia.MustCompile("#Main .box .cell[id^='r_']")
	replyNoSel      = cascadia.MustCompile("span.no")
	replyAuthorSel  = cascadia.MustCompile("strong > a[href^='/member/']")
	replyContentSel = cascadia.MustCompile(".reply_content")
	replyAgoSel     = cascadia.MustCompile("span.ago")
	replyThanksSel  = cascadia.MustCompile("span.small.fade")
	replyThankedSel = cascadia.MustCompile(".thank_area.thanked")
	badgeModSel     = cascadia.MustCompile(".badge.mod")
	badgeOPSel      = cascadia.MustCompile(".badge.op")

	replyIDRe = regexp.MustCompile(`^r_(\d+)$`)
)

// ParseReplies reads the replies rendered on a topic page, in page order. Replies by
// blocked members are left out.
func (p *Parser) ParseReplies(doc *html.Node) []model.Reply {
	set := p.Moderation(doc)
	cells := findAll(doc, replyCellSel)
	out := make([]model.Reply, 0, len(cells))
	// A cell without a floor number counts on from the last numbered one; dropped
	// cells still occupy their floor.
	lastNo, lastAt := 0, -1
	for i, cell := range cells {
		r, err := parseReply(cell, lastNo+i-lastAt)
		if err != nil {
			p.dropped("reply", i, err)
			continue
		}
		lastNo, lastAt = r.No, i
		if memberBlocked(set, r.Member) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseReply(cell *html.Node, fallbackNo int) (model.Reply, error) {
	id, ok := submatchInt(replyIDRe, getAttr(cell, "id"))
	if !ok {
		return model.Reply{}, malformed("reply cell without id")
	}
	body := findFirst(cell, replyContentSel)
	if body == nil {
		return model.Reply{}, malformed("reply without content")
	}
	raw := innerHTML(body)

	r := model.Reply{
		ID:                id,
		No:                fallbackNo,
		Content:           raw,
		ParsedContent:     content.Rewrite(raw, content.Independent),
		Created:           collectText(findFirst(cell, replyAgoSel)),
		Thanks:            firstInt(collectText(findFirst(cell, replyThanksSel)), 0),
		Thanked:           findFirst(cell, replyThankedSel) != nil,
		Mod:               findFirst(cell, badgeModSel) != nil,
		OP:                findFirst(cell, badgeOPSel) != nil,
		HasRelatedReplies: memberLinkRe.MatchString(raw),
	}
	if no, err := strconv.Atoi(strings.TrimSpace(collectText(findFirst(cell, replyNoSel)))); err == nil && no > 0 {
		r.No = no
	}
	if a := findFirst(cell, replyAuthorSel); a != nil {
		avatar := getAttr(findFirst(cell, avatarSel), "src")
		r.Member = &model.Member{
			Username: ExtractArgByHref(a, "member"),
			Avatar:   avatar,
			ID:       memberIDFromAvatar(avatar),
		}
		if r.Member.Username == "" {
			r.Member.Username = collectText(a)
		}
	}
	return r, nil
}

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

const companyMarker = "🏢"

var (
	profileBoxSel     = cascadia.MustCompile("#Main > .box")
	profileNameSel    = cascadia.MustCompile("h1")
	profileTaglineSel = cascadia.MustCompile("span.bigger")
	profileGraySel    = cascadia.MustCompile("span.gray")
	profileButtonSel  = cascadia.MustCompile("input[onclick]")
	profileWebsiteSel = cascadia.MustCompile(".widgets a.social_label[href^='http']")
	balanceAreaSel    = cascadia.MustCompile(".balance_area")

	memberOpRe     = regexp.MustCompile(`/(un)?(follow|block)/(\d+)`)
	memberNoRe     = regexp.MustCompile(`第\s*(\d+)\s*号会员|member\s*#\s*(\d+)`)
	memberJoinedRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?: [+-]\d{2}:\d{2})?`)
	activityRe     = regexp.MustCompile(`(?:今日活跃度排名|activity\s+rank)\s*(\d+)`)
)

// ParseMember reads a member profile page. It fails with ErrMissingAnchor when the
// profile name heading is absent.
func (p *Parser) ParseMember(doc *html.Node) (model.Member, error) {
	set := p.Moderation(doc)
	boxes := findAll(doc, profileBoxSel)
	if len(boxes) == 0 {
		return model.Member{}, fmt.Errorf("member: no profile box: %w", ErrMissingAnchor)
	}
	box := boxes[0]
	h1 := findFirst(box, profileNameSel)
	if h1 == nil {
		return model.Member{}, fmt.Errorf("member: no name: %w", ErrMissingAnchor)
	}

	m := model.Member{
		Username: collectText(h1),
		Avatar:   getAttr(findFirst(box, avatarSel), "src"),
		Tagline:  collectText(findFirst(box, profileTaglineSel)),
		Website:  getAttr(findFirst(doc, profileWebsiteSel), "href"),
		Once:     findOnce(doc),
	}
	if area := findFirst(box, balanceAreaSel); area != nil {
		m.Balance = ParseBalance(area)
	}

	for _, btn := range findAll(box, profileButtonSel) {
		match := memberOpRe.FindStringSubmatch(getAttr(btn, "onclick"))
		if match == nil {
			continue
		}
		undo := match[1] != ""
		switch match[2] {
		case "follow":
			m.Followed = undo
		case "block":
			m.Blocked = undo
		}
		if m.ID == nil {
			m.ID = intPtr(firstInt(match[3], 0))
		}
	}

	gray := findFirst(box, profileGraySel)
	info := collectText(gray)
	if m.ID == nil {
		if match := memberNoRe.FindStringSubmatch(info); match != nil {
			m.ID = intPtr(firstInt(match[1]+match[2], 0))
		}
	}
	if m.ID == nil {
		m.ID = memberIDFromAvatar(m.Avatar)
	}
	if m.ID != nil && set.HasMember(*m.ID) {
		m.Blocked = true
	}
	m.Created = memberJoinedRe.FindString(info)
	if match := activityRe.FindStringSubmatch(info); match != nil {
		m.Activity = match[1]
	}
	m.Company, m.Title = parseCompany(gray)

	// The overview only exists as a second cell of the profile box.
	cells := profileCells(box)
	if len(cells) > 1 {
		raw := innerHTML(cells[1])
		m.Overview = &raw
		m.ParsedOverview = content.Rewrite(raw, content.PromoteFirst)
	}
	return m, nil
}

// parseCompany reads "🏢 <strong>Company</strong> / Title". Both stay nil without the
// marker.
func parseCompany(gray *html.Node) (*string, *string) {
	if gray == nil {
		return nil, nil
	}
	var marker *html.Node
	for c := gray.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.Contains(c.Data, companyMarker) {
			marker = c
			break
		}
	}
	if marker == nil {
		return nil, nil
	}
	var company, title string
	for c := marker.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "strong") {
			company = collectText(c)
			if t := c.NextSibling; t != nil && t.Type == html.TextNode {
				title = strings.TrimSpace(strings.TrimPrefix(condenseSpaces(t.Data), "/"))
			}
			break
		}
		if c.Type == html.ElementNode {
			break
		}
	}
	return strPtr(company), strPtr(title)
}

func profileCells(box *html.Node) []*html.Node {
	var cells []*html.Node
	for _, c := range elementChildren(box) {
		if hasClass(c, "cell") {
			cells = append(cells, c)
		}
	}
	return cells
}

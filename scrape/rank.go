package scrape

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/model"
)

var (
	rankCellSel = cascadia.MustCompile("#Main .box .cell")
	rankNameSel = cascadia.MustCompile("h2 a[href^='/member/']")
	rankNoSel   = cascadia.MustCompile("h2 .gray")
	rankInfoSel = cascadia.MustCompile("span.gray.f12")
)

// ParseRank reads the wealth and consumption leaderboards. Cells without a member
// heading are layout rows and are skipped.
func (p *Parser) ParseRank(doc *html.Node) []model.RankEntry {
	set := p.Moderation(doc)
	var out []model.RankEntry
	for i, cell := range findAll(doc, rankCellSel) {
		name := findFirst(cell, rankNameSel)
		if name == nil {
			continue
		}
		e := parseRankEntry(cell, name, len(out))
		if e.Member.Username == "" {
			p.dropped("rank", i, malformed("rank entry without username"))
			continue
		}
		if memberBlocked(set, &e.Member) {
			continue
		}
		out = append(out, e)
	}
	if out == nil {
		return []model.RankEntry{}
	}
	return out
}

func parseRankEntry(cell, name *html.Node, index int) model.RankEntry {
	avatar := getAttr(findFirst(cell, avatarSel), "src")
	m := model.Member{
		Username: ExtractArgByHref(name, "member"),
		Avatar:   avatar,
		ID:       memberIDFromAvatar(avatar),
	}
	if m.Username == "" {
		m.Username = collectText(name)
	}
	// The tagline and the member number line share classes.
	for _, info := range findAll(cell, rankInfoSel) {
		text := collectText(info)
		if match := memberNoRe.FindStringSubmatch(text); match != nil {
			m.ID = intPtr(firstInt(match[1]+match[2], 0))
		} else if m.Tagline == "" {
			m.Tagline = text
		}
	}
	if area := findFirst(cell, balanceAreaSel); area != nil {
		m.Balance = ParseBalance(area)
	}
	return model.RankEntry{
		Rank:   firstInt(collectText(findFirst(cell, rankNoSel)), index+1),
		Member: m,
	}
}

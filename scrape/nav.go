package scrape

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"v2scrape/model"
)

var (
	tabLinkSel   = cascadia.MustCompile("#Tabs a[href]")
	navCellSel   = cascadia.MustCompile("#Main .box .cell")
	navTitleSel  = cascadia.MustCompile("td > span.fade")
	navNodeSel   = cascadia.MustCompile("a[href^='/go/']")
	rightbarSel  = cascadia.MustCompile("#Rightbar")
	viewerSel    = cascadia.MustCompile("span.bigger a[href^='/member/']")
	unreadSel    = cascadia.MustCompile("a[href='/notifications']")
	viewerBoxSel = cascadia.MustCompile(".box")
)

// ParseTabs reads the front page tab strip. A tab's name is its tab query argument, or
// the bare path for tabs like /recent.
func ParseTabs(doc *html.Node) []model.Tab {
	links := findAll(doc, tabLinkSel)
	out := make([]model.Tab, 0, len(links))
	for _, a := range links {
		href := getAttr(a, "href")
		name := QueryArg(href, "tab")
		if name == "" {
			if u, err := url.Parse(href); err == nil {
				name = strings.Trim(u.Path, "/")
			}
		}
		if name == "" {
			continue
		}
		out = append(out, model.Tab{
			Name:    name,
			Title:   collectText(a),
			Current: hasClass(a, "tab_current"),
		})
	}
	return out
}

// ParseNavGroups reads the node navigation box at the bottom of the front page.
func ParseNavGroups(doc *html.Node) []model.NavGroup {
	var out []model.NavGroup
	for _, cell := range findAll(doc, navCellSel) {
		title := findFirst(cell, navTitleSel)
		if title == nil {
			continue
		}
		g := model.NavGroup{Title: collectText(title)}
		for _, a := range findAll(cell, navNodeSel) {
			if name := ExtractArgByHref(a, "go"); name != "" {
				g.Nodes = append(g.Nodes, model.Node{Name: name, Title: collectText(a)})
			}
		}
		if len(g.Nodes) > 0 {
			out = append(out, g)
		}
	}
	if out == nil {
		return []model.NavGroup{}
	}
	return out
}

// ParseViewer reads the signed-in account box from the sidebar, or nil for anonymous
// pages.
func ParseViewer(doc *html.Node) *model.Viewer {
	bar := findFirst(doc, rightbarSel)
	a := findFirst(bar, viewerSel)
	if a == nil {
		return nil
	}
	v := &model.Viewer{Username: ExtractArgByHref(a, "member")}
	if v.Username == "" {
		v.Username = collectText(a)
	}
	box := findFirst(bar, viewerBoxSel)
	v.Avatar = getAttr(findFirst(box, avatarSel), "src")
	v.UnreadNotices = firstInt(collectText(findFirst(bar, unreadSel)), 0)
	if area := findFirst(bar, balanceAreaSel); area != nil {
		v.Balance = ParseBalance(area)
	}
	return v
}

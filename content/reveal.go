package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RevealScheme prefixes the href of every reveal link. The link handler copies the rest
// of the href to the clipboard instead of navigating.
const RevealScheme = "base64_text:"

var base64RunRe = regexp.MustCompile(`[A-Za-z0-9+/=]+`)

// RevealBase64 appends a "(decoded)" link after every base64 run in the body's text that
// decodes to readable text. It returns false when nothing was revealed.
func RevealBase64(s string) (string, bool) {
	root := parseFragment(s)

	var anchors []string
	for _, a := range collectElements(root, atom.A) {
		var b strings.Builder
		if err := html.Render(&b, a); err == nil {
			anchors = append(anchors, b.String())
		}
	}

	var texts []*html.Node
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				texts = append(texts, c)
			case html.ElementNode:
				if c.DataAtom == atom.A || c.DataAtom == atom.Script || c.DataAtom == atom.Style {
					continue
				}
				rec(c)
			}
		}
	}
	rec(root)

	revealed := 0
	for _, t := range texts {
		var parts []*html.Node
		last := 0
		for _, loc := range base64RunRe.FindAllStringIndex(t.Data, -1) {
			run := t.Data[loc[0]:loc[1]]
			if !IsBase64Candidate(run) || inAnyAnchor(run, anchors) {
				continue
			}
			decoded, ok := Decode(run)
			if !ok {
				continue
			}
			parts = append(parts,
				&html.Node{Type: html.TextNode, Data: t.Data[last:loc[1]]},
				revealLink(decoded),
			)
			last = loc[1]
			revealed++
		}
		if len(parts) == 0 {
			continue
		}
		if last < len(t.Data) {
			parts = append(parts, &html.Node{Type: html.TextNode, Data: t.Data[last:]})
		}
		for _, p := range parts {
			t.Parent.InsertBefore(p, t)
		}
		t.Parent.RemoveChild(t)
	}
	if revealed == 0 {
		return s, false
	}
	return renderChildren(root), true
}

func inAnyAnchor(run string, anchors []string) bool {
	for _, a := range anchors {
		if strings.Contains(a, run) {
			return true
		}
	}
	return false
}

func revealLink(decoded string) *html.Node {
	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: RevealScheme + decoded}},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: "(" + decoded + ")"})
	return a
}

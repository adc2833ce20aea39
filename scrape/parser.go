// Package scrape turns server-rendered forum pages into model entities.
//
// Every parser takes an already parsed document and never fetches anything. List
// parsers drop entries they cannot read and filter out topics the viewer ignored and
// members the viewer blocked; single-entity parsers fail only when the page's title
// landmark is missing. Selectors for one page shape live together in that shape's file.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"v2scrape/model"
	"v2scrape/moderation"
)

// Config wires a Parser. Nil fields get defaults in New.
type Config struct {
	// Viewer scopes moderation state; empty is fine for a single-account client.
	Viewer string
	Store  moderation.Store
	Logger *zap.Logger
	// PageSize caps the list length of paginated results when positive.
	PageSize int
}

// Parser is safe for concurrent use. Its only shared state is the moderation Store.
type Parser struct {
	cfg    Config
	store  moderation.Store
	logger *zap.Logger
}

func New(cfg Config) *Parser {
	if cfg.Store == nil {
		cfg.Store = moderation.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Parser{
		cfg:    cfg,
		store:  cfg.Store,
		logger: cfg.Logger.With(zap.String("viewer", cfg.Viewer)),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("scrape: parse html: %w", err)
	}
	if doc.FirstChild == nil {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func ParseString(s string) (*html.Node, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmptyDocument
	}
	return Parse(strings.NewReader(s))
}

// Moderation returns the moderation set in effect for doc. Arrays the page carries
// replace the stored ones; arrays it lacks keep their stored value.
func (p *Parser) Moderation(doc *html.Node) moderation.Set {
	var b strings.Builder
	for _, s := range findAll(doc, scriptSel) {
		if s.FirstChild != nil {
			b.WriteString(s.FirstChild.Data)
			b.WriteByte('\n')
		}
	}
	if set, ok := moderation.ParseScript(b.String()); ok {
		// Only the arrays present on this page are fresh.
		if set.IgnoredTopics == nil || set.BlockedMembers == nil {
			set = set.Merge(p.store.Load(p.cfg.Viewer))
		}
		p.store.Save(p.cfg.Viewer, set)
		p.logger.Debug("moderation state refreshed",
			zap.Int("ignored_topics", len(set.IgnoredTopics)),
			zap.Int("blocked_members", len(set.BlockedMembers)))
		return set
	}
	return p.store.Load(p.cfg.Viewer)
}

func memberBlocked(set moderation.Set, m *model.Member) bool {
	return m != nil && m.ID != nil && set.HasMember(*m.ID)
}

func topicHidden(set moderation.Set, t *model.Topic) bool {
	if t == nil {
		return false
	}
	return set.HasTopic(t.ID) || memberBlocked(set, t.Member)
}

func (p *Parser) dropped(kind string, i int, err error) {
	p.logger.Debug("list item dropped", zap.String("kind", kind), zap.Int("index", i), zap.Error(err))
}

func paginate[T any](p *Parser, doc *html.Node, list []T) model.PageData[T] {
	if p.cfg.PageSize > 0 && len(list) > p.cfg.PageSize {
		p.logger.Debug("list truncated to page size", zap.Int("len", len(list)), zap.Int("page_size", p.cfg.PageSize))
		list = list[:p.cfg.PageSize]
	}
	return model.NewPageData(ParsePage(doc), ParseLastPage(doc), list)
}

func malformed(what string) error {
	return fmt.Errorf("%w: %s", ErrMalformedItem, what)
}

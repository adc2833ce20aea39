package scrape

import "errors"

var (
	// ErrMissingAnchor means the stable landmark of a single-entity page (its title) is
	// gone, so the page is not the expected kind or its markup changed.
	ErrMissingAnchor = errors.New("scrape: page anchor not found")
	// ErrMalformedItem marks one list entry that could not be read. List parsers drop
	// such entries; it is never returned from a list parser.
	ErrMalformedItem = errors.New("scrape: malformed list item")
	ErrEmptyDocument = errors.New("scrape: empty document")
)

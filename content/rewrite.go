// Package content rewrites post bodies: image references become inline images and
// base64-encoded snippets get a readable companion link.
package content

// Mode selects how image promotion and base64 reveal combine.
type Mode int

const (
	// Independent runs the base64 reveal whether or not images were promoted. Topic
	// bodies, supplements and replies use it.
	Independent Mode = iota
	// PromoteFirst only tries the base64 reveal when image promotion found nothing.
	// Notifications, member overviews and reply history use it.
	PromoteFirst
)

// Rewrite returns the enriched body, or nil when neither pass changed anything.
func Rewrite(raw string, mode Mode) *string {
	out, promoted := PromoteImages(raw)
	switch mode {
	case Independent:
		if revealed, ok := RevealBase64(out); ok {
			return &revealed
		}
	case PromoteFirst:
		if !promoted {
			if revealed, ok := RevealBase64(raw); ok {
				return &revealed
			}
		}
	}
	if promoted {
		return &out
	}
	return nil
}

package model

// PageData is one page of a paginated listing, in server render order.
type PageData[T any] struct {
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
	List     []T `json:"list"`
}

// NewPageData clamps page to 1 and lastPage to at least page. A nil list becomes empty.
func NewPageData[T any](page, lastPage int, list []T) PageData[T] {
	if page < 1 {
		page = 1
	}
	if lastPage < page {
		lastPage = page
	}
	if list == nil {
		list = []T{}
	}
	return PageData[T]{Page: page, LastPage: lastPage, List: list}
}

// NextPage returns the page to request after this one, or false when this is the last.
func (p PageData[T]) NextPage() (int, bool) {
	if p.LastPage > p.Page {
		return p.Page + 1, true
	}
	return 0, false
}

// MergeReplies concatenates reply pages of one topic keeping the first reply seen for
// each id.
func MergeReplies(pages ...[]Reply) []Reply {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	out := make([]Reply, 0, n)
	seen := make(map[int]struct{}, n)
	for _, p := range pages {
		for _, r := range p {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

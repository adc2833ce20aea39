// Package model holds the entities produced by the scrape parsers. Every value is a
// copy taken from one HTML snapshot; nothing here points back into a document tree.
package model

// Node is a sub-forum.
type Node struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Avatar string `json:"avatar,omitempty"`
	Topics int    `json:"topics,omitempty"`
}

// Balance is the three-tier coin count shown next to a member. A nil tier was not
// rendered at all, which is not the same thing as zero.
type Balance struct {
	Gold   *int `json:"gold,omitempty"`
	Silver *int `json:"silver,omitempty"`
	Bronze *int `json:"bronze,omitempty"`
}

// Empty reports whether no tier was present.
func (b *Balance) Empty() bool {
	return b == nil || (b.Gold == nil && b.Silver == nil && b.Bronze == nil)
}

type Member struct {
	Username string  `json:"username"`
	ID       *int    `json:"id,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
	Tagline  string  `json:"tagline,omitempty"`
	Company  *string `json:"company,omitempty"`
	Title    *string `json:"title,omitempty"`
	Website  string  `json:"website,omitempty"`
	Created  string  `json:"created,omitempty"`
	Activity string  `json:"activity,omitempty"`

	Overview       *string `json:"overview,omitempty"`
	ParsedOverview *string `json:"parsed_overview,omitempty"`

	Balance *Balance `json:"balance,omitempty"`

	// Followed and Blocked are relative to the viewer who fetched the page.
	Followed bool   `json:"followed"`
	Blocked  bool   `json:"blocked"`
	Once     string `json:"once,omitempty"`
}

// Supplement is text appended to a topic after it was posted.
type Supplement struct {
	Created       string  `json:"created"`
	Content       string  `json:"content"`
	ParsedContent *string `json:"parsed_content,omitempty"`
}

type Topic struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content,omitempty"`
	ParsedContent *string `json:"parsed_content,omitempty"`

	Node   *Node   `json:"node,omitempty"`
	Member *Member `json:"member,omitempty"`

	LastReplyBy string `json:"last_reply_by,omitempty"`
	LastTouched string `json:"last_touched,omitempty"`
	Created     string `json:"created,omitempty"`

	Views      int `json:"views"`
	Likes      int `json:"likes"`
	Thanks     int `json:"thanks"`
	Votes      int `json:"votes"`
	ReplyCount int `json:"reply_count"`

	Liked      bool `json:"liked"`
	Ignored    bool `json:"ignored"`
	Thanked    bool `json:"thanked"`
	PinToTop   bool `json:"pin_to_top"`
	Editable   bool `json:"editable"`
	Appendable bool `json:"appendable"`

	// Once is only rendered for signed-in viewers.
	Once string `json:"once,omitempty"`

	Page     int `json:"page,omitempty"`
	LastPage int `json:"last_page,omitempty"`

	Supplements []Supplement `json:"supplements,omitempty"`
	Replies     []Reply      `json:"replies,omitempty"`
}

type Reply struct {
	ID            int     `json:"id"`
	No            int     `json:"no"`
	Member        *Member `json:"member,omitempty"`
	Content       string  `json:"content"`
	ParsedContent *string `json:"parsed_content,omitempty"`
	Created       string  `json:"created,omitempty"`
	Thanks        int     `json:"thanks"`
	Thanked       bool    `json:"thanked"`
	Mod           bool    `json:"mod"`
	OP            bool    `json:"op"`

	HasRelatedReplies bool `json:"has_related_replies"`
}

// Username returns the reply author's handle, or "" when the author is unknown.
func (r Reply) Username() string {
	if r.Member == nil {
		return ""
	}
	return r.Member.Username
}

type Notice struct {
	ID     int     `json:"id"`
	Member *Member `json:"member,omitempty"`
	Topic  *Topic  `json:"topic,omitempty"`

	PrevActionText string `json:"prev_action_text,omitempty"`
	NextActionText string `json:"next_action_text,omitempty"`
	Text           string `json:"text"`

	Content       *string `json:"content,omitempty"`
	ParsedContent *string `json:"parsed_content,omitempty"`
	Created       string  `json:"created,omitempty"`
	Once          string  `json:"once,omitempty"`
}

// MemberReply is one row of a member's reply history.
type MemberReply struct {
	Topic         *Topic  `json:"topic"`
	Content       string  `json:"content"`
	ParsedContent *string `json:"parsed_content,omitempty"`
	Created       string  `json:"created,omitempty"`
}

type RankEntry struct {
	Rank   int    `json:"rank"`
	Member Member `json:"member"`
}

type Tab struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Current bool   `json:"current"`
}

type NavGroup struct {
	Title string `json:"title"`
	Nodes []Node `json:"nodes"`
}

// Viewer is the signed-in account summary from the sidebar.
type Viewer struct {
	Username      string   `json:"username"`
	Avatar        string   `json:"avatar,omitempty"`
	Balance       *Balance `json:"balance,omitempty"`
	UnreadNotices int      `json:"unread_notices"`
}

package scrape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v2scrape/moderation"
)

const homeHTML = `<html><head>
<script>var ignored_topics = [1002]; var blocked = [303];</script>
</head><body><div id="Wrapper"><div class="content"><div id="Main"><div class="box">
<div class="cell item" style="background-image: url('/static/img/corner_star.png'); background-repeat: no-repeat; background-size: 20px 20px; background-position: right top;">
<table><tr>
<td width="48"><a href="/member/alice"><img src="https://cdn.v2ex.com/avatar/c4ca/4238/101_normal.png" class="avatar"></a></td>
<td width="10"></td>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/1001#reply3" class="topic-link">Hello world</a></span>
<div class="sep5"></div>
<span class="topic_info"><div class="votes"></div><a class="node" href="/go/qna">问与答</a> &nbsp;•&nbsp; <strong><a href="/member/alice">alice</a></strong> &nbsp;•&nbsp; <span title="2024-01-01 10:00:00 +08:00">3 hours ago</span> &nbsp;•&nbsp; 最后回复来自 <strong><a href="/member/bob">bob</a></strong></span>
</td>
<td width="70" align="right" valign="middle"><a href="/t/1001#reply3" class="count_livid">3</a></td>
</tr></table></div>
<div class="cell item">
<table><tr>
<td width="48"><a href="/member/dave"><img src="https://cdn.v2ex.com/avatar/a/b/404_normal.png" class="avatar"></a></td>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/1002#reply0" class="topic-link">Ignored one</a></span>
<span class="topic_info"><a class="node" href="/go/share">分享发现</a> &nbsp;•&nbsp; <strong><a href="/member/dave">dave</a></strong> &nbsp;•&nbsp; <span>1 day ago</span></span></td>
</tr></table></div>
<div class="cell item">
<table><tr>
<td width="48"><a href="/member/carol"><img src="https://cdn.v2ex.com/avatar/e/f/303_normal.png" class="avatar"></a></td>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/1003" class="topic-link">Blocked author</a></span>
<span class="topic_info"><a class="node" href="/go/share">分享发现</a> &nbsp;•&nbsp; <strong><a href="/member/carol">carol</a></strong> &nbsp;•&nbsp; <span>2 days ago</span></span></td>
</tr></table></div>
<div class="cell item">
<span class="item_title"><a href="/about">No topic id</a></span>
</div>
<div class="cell item">
<table><tr>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/1004" class="topic-link">Second visible</a></span>
<span class="topic_info"><div class="votes"></div><a class="node" href="/go/apple">Apple</a> &nbsp;•&nbsp; <strong><a href="/member/erin">erin</a></strong> &nbsp;•&nbsp; <span>5 minutes ago</span></span></td>
<td width="70"><a href="/t/1004" class="count_orange">12</a></td>
</tr></table></div>
</div></div></div></div></body></html>`

func TestParseHome(t *testing.T) {
	t.Parallel()
	p := New(Config{})
	topics := p.ParseHome(mustDoc(t, homeHTML))
	require.Len(t, topics, 2)

	first := topics[0]
	assert.Equal(t, 1001, first.ID)
	assert.Equal(t, "Hello world", first.Title)
	require.NotNil(t, first.Node)
	assert.Equal(t, "qna", first.Node.Name)
	assert.Equal(t, "问与答", first.Node.Title)
	require.NotNil(t, first.Member)
	assert.Equal(t, "alice", first.Member.Username)
	require.NotNil(t, first.Member.ID)
	assert.Equal(t, 101, *first.Member.ID)
	assert.Equal(t, "3 hours ago", first.LastTouched)
	assert.Equal(t, "bob", first.LastReplyBy)
	assert.Equal(t, 3, first.ReplyCount)
	assert.True(t, first.PinToTop)

	second := topics[1]
	assert.Equal(t, 1004, second.ID)
	assert.Equal(t, 12, second.ReplyCount)
	assert.Equal(t, "5 minutes ago", second.LastTouched)
	assert.False(t, second.PinToTop)
}

func TestLastTouchedFollowsNodeBadge(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<div id="Main"><div class="box">
<div class="cell item"><span class="item_title"><a href="/t/1">badged</a></span>
<span class="topic_info"><div class="votes"></div><a class="node" href="/go/qna">问与答</a> &nbsp;•&nbsp; <strong><a href="/member/alice">alice</a></strong> &nbsp;•&nbsp; <span>3 hours ago</span></span></div>
<div class="cell item"><span class="item_title"><a href="/t/2">plain</a></span>
<span class="topic_info"><strong><a href="/member/bob">bob</a></strong> &nbsp;•&nbsp; <span>1 day ago</span></span></div>
</div></div>`)
	topics := New(Config{}).ParseHome(doc)
	require.Len(t, topics, 2)
	require.NotNil(t, topics[0].Node)
	assert.Equal(t, "3 hours ago", topics[0].LastTouched)
	assert.Nil(t, topics[1].Node)
	assert.Equal(t, "1 day ago", topics[1].LastTouched)
}

func TestModerationIsRememberedAcrossPages(t *testing.T) {
	t.Parallel()
	store := moderation.NewMemoryStore()
	p := New(Config{Viewer: "me", Store: store})
	_ = p.ParseHome(mustDoc(t, homeHTML))

	saved := store.Load("me")
	assert.Equal(t, []int{1002}, saved.IgnoredTopics)
	assert.Equal(t, []int{303}, saved.BlockedMembers)

	// A page without the script still filters with what was learned.
	p2 := New(Config{Viewer: "me", Store: store})
	doc := mustDoc(t, `<div id="Main"><div class="box">
<div class="cell item"><span class="item_title"><a href="/t/1002">gone</a></span></div>
<div class="cell item"><span class="item_title"><a href="/t/2000">kept</a></span></div>
</div></div>`)
	topics := p2.ParseHome(doc)
	require.Len(t, topics, 1)
	assert.Equal(t, 2000, topics[0].ID)

	other := New(Config{Viewer: "someone-else", Store: store})
	assert.Len(t, other.ParseHome(doc), 2)
}

func TestModerationKeepsArraysMissingFromPage(t *testing.T) {
	t.Parallel()
	store := moderation.NewMemoryStore()
	store.Save("me", moderation.Set{IgnoredTopics: []int{1}, BlockedMembers: []int{303}})
	p := New(Config{Viewer: "me", Store: store})

	doc := mustDoc(t, `<html><head><script>var ignored_topics = [5];</script></head><body>
<div id="Main"><div class="box">
<div class="cell item"><table><tr>
<td><img src="https://cdn.v2ex.com/avatar/e/f/303_normal.png" class="avatar"></td>
<td><span class="item_title"><a href="/t/3003">by a blocked member</a></span>
<span class="topic_info"><strong><a href="/member/carol">carol</a></strong></span></td>
</tr></table></div>
<div class="cell item"><span class="item_title"><a href="/t/5">ignored now</a></span></div>
<div class="cell item"><span class="item_title"><a href="/t/1">no longer ignored</a></span></div>
</div></div></body></html>`)
	topics := p.ParseHome(doc)
	require.Len(t, topics, 1)
	assert.Equal(t, 1, topics[0].ID)

	saved := store.Load("me")
	assert.Equal(t, []int{5}, saved.IgnoredTopics)
	assert.Equal(t, []int{303}, saved.BlockedMembers)
}

const nodeHTML = `<html><head><link rel="canonical" href="https://www.v2ex.com/go/qna"></head><body>
<div id="Main"><div class="box">
<div class="node_header">
<div class="node_avatar"><div style="float: left;"><img src="/static/img/node_qna.png" border="0" align="default"></div></div>
<div class="node_info"><div class="fr f12"><span>主题总数</span> <strong>1,234</strong></div>
<a href="/">V2EX</a> <span class="chevron">›</span> 问与答</div>
</div>
<div id="TopicsNode">
<div class="cell t_1"><table><tr>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/3001" class="topic-link">Question</a></span>
<span class="topic_info"><strong><a href="/member/frank">frank</a></strong> &nbsp;•&nbsp; <span title="2024-02-02">1 day ago</span> &nbsp;•&nbsp; 最后回复来自 <strong><a href="/member/gina">gina</a></strong></span></td>
</tr></table></div>
<div class="cell t_2"><table><tr>
<td width="auto" valign="middle"><span class="item_title"><a href="/t/3002" class="topic-link">Another</a></span>
<span class="topic_info"><strong><a href="/member/hank">hank</a></strong> &nbsp;•&nbsp; <span>2 days ago</span></span></td>
</tr></table></div>
</div>
<div class="cell"><input type="number" class="page_input" value="1" min="1" max="9"></div>
</div></div></body></html>`

func TestParseNodeTopics(t *testing.T) {
	t.Parallel()
	p := New(Config{})
	node, page := p.ParseNodeTopics(mustDoc(t, nodeHTML))
	assert.Equal(t, "qna", node.Name)
	assert.Equal(t, "问与答", node.Title)
	assert.Equal(t, 1234, node.Topics)
	assert.Equal(t, "/static/img/node_qna.png", node.Avatar)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 9, page.LastPage)
	require.Len(t, page.List, 2)
	q := page.List[0]
	assert.Equal(t, 3001, q.ID)
	assert.Equal(t, "1 day ago", q.LastTouched)
	assert.Equal(t, "gina", q.LastReplyBy)
	require.NotNil(t, q.Node)
	assert.Equal(t, "qna", q.Node.Name)
}

func TestPageSizeCapsList(t *testing.T) {
	t.Parallel()
	p := New(Config{PageSize: 1})
	_, page := p.ParseNodeTopics(mustDoc(t, nodeHTML))
	assert.Len(t, page.List, 1)
	assert.GreaterOrEqual(t, page.LastPage, page.Page)
}

func TestParseTopicListSelector(t *testing.T) {
	t.Parallel()
	p := New(Config{})
	doc := mustDoc(t, nodeHTML)
	assert.Len(t, p.ParseTopicList(doc, "#TopicsNode .cell"), 2)
	assert.Empty(t, p.ParseTopicList(doc, "#TopicsNode [["))
}

const topicHTML = `<html><head><link rel="canonical" href="https://www.v2ex.com/t/1001"></head><body>
<div id="Main">
<div class="box">
<div class="header">
<div class="fr"><a href="/member/alice"><img src="https://cdn.v2ex.com/avatar/c4ca/4238/101_large.png" class="avatar"></a></div>
<a href="/">V2EX</a> <span class="chevron">›</span> <a href="/go/qna">问与答</a>
<div class="sep10"></div>
<h1>Hello world</h1>
<div id="topic_1001_votes" class="votes">5</div>
<small class="gray"><a href="/member/alice">alice</a> · <span title="2024-01-01 10:00:00 +08:00">3 小时前</span> · 1234 次点击 &nbsp; <a href="/edit/topic/1001" class="op">编辑</a> <a href="/append/topic/1001" class="op">附言</a></small>
</div>
<div class="cell"><div class="topic_content"><p>Body https://example.com/a.png</p></div></div>
<div class="subtle"><span class="fade">第 1 条附言 · 1 小时前</span><div class="sep5"></div><div class="topic_content">more</div></div>
<div class="topic_buttons"><div class="fr topic_stats">56 次点击 &nbsp;∙&nbsp; 7 人收藏 &nbsp;∙&nbsp; 2 人感谢</div>
<a href="/unfavorite/topic/1001?once=12345" class="tb">取消收藏</a>
<a href="#;" onclick="location.href = '/ignore/topic/1001?once=12345';" class="tb">忽略主题</a>
<div id="topic_thank"><span class="topic_thanked">感谢已发送</span></div></div>
</div>
<div class="box">
<div class="cell"><div class="fr"></div><span class="gray">2 条回复 &nbsp;<strong class="snow">•</strong>&nbsp; 2024-01-02 09:00:00 +08:00</span></div>
<div id="r_11" class="cell"><table><tr>
<td width="48" valign="top"><img src="https://cdn.v2ex.com/avatar/c/d/202_normal.png" class="avatar"></td>
<td width="auto" valign="top"><div class="fr"><div class="thank_area thanked">感谢已发送</div> &nbsp; <span class="no">1</span></div>
<strong><a href="/member/bob" class="dark">bob</a></strong> <span class="badge op">OP</span> <span class="ago" title="2024-01-01">2 小时前</span> <span class="small fade"><img src="/static/img/heart_neue_red.png" width="14" alt="❤️"> 3</span>
<div class="sep5"></div><div class="reply_content">@<a href="/member/alice">alice</a> hi</div></td></tr></table></div>
<div id="r_12" class="cell"><table><tr>
<td width="48" valign="top"><img src="https://cdn.v2ex.com/avatar/c4ca/4238/101_normal.png" class="avatar"></td>
<td width="auto" valign="top"><div class="fr"><span class="no">2</span></div>
<strong><a href="/member/alice" class="dark">alice</a></strong> <span class="badge mod">MOD</span> <span class="ago">1 小时前</span>
<div class="sep5"></div><div class="reply_content">plain text</div></td></tr></table></div>
<div id="r_bad" class="cell"><div class="reply_content">no id</div></div>
</div>
</div></body></html>`

func TestParseTopic(t *testing.T) {
	t.Parallel()
	p := New(Config{})
	topic, err := p.ParseTopic(mustDoc(t, topicHTML))
	require.NoError(t, err)

	assert.Equal(t, 1001, topic.ID)
	assert.Equal(t, "Hello world", topic.Title)
	require.NotNil(t, topic.Node)
	assert.Equal(t, "qna", topic.Node.Name)
	require.NotNil(t, topic.Member)
	assert.Equal(t, "alice", topic.Member.Username)
	assert.Equal(t, "3 小时前", topic.Created)
	assert.Equal(t, 1234, topic.Views)
	assert.Equal(t, 5, topic.Votes)
	assert.Equal(t, 7, topic.Likes)
	assert.Equal(t, 2, topic.Thanks)
	assert.Equal(t, 2, topic.ReplyCount)
	assert.True(t, topic.Editable)
	assert.True(t, topic.Appendable)
	assert.True(t, topic.Liked)
	assert.False(t, topic.Ignored)
	assert.True(t, topic.Thanked)
	assert.Equal(t, "12345", topic.Once)
	assert.Equal(t, 1, topic.Page)
	assert.Equal(t, 1, topic.LastPage)

	assert.Equal(t, "<p>Body https://example.com/a.png</p>", topic.Content)
	require.NotNil(t, topic.ParsedContent)
	assert.Contains(t, *topic.ParsedContent, `<img src="https://example.com/a.png" />`)

	require.Len(t, topic.Supplements, 1)
	assert.Equal(t, "more", topic.Supplements[0].Content)
	assert.Equal(t, "第 1 条附言 · 1 小时前", topic.Supplements[0].Created)
	assert.Nil(t, topic.Supplements[0].ParsedContent)

	require.Len(t, topic.Replies, 2)
	bob := topic.Replies[0]
	assert.Equal(t, 11, bob.ID)
	assert.Equal(t, 1, bob.No)
	assert.Equal(t, "bob", bob.Username())
	assert.Equal(t, 3, bob.Thanks)
	assert.True(t, bob.Thanked)
	assert.True(t, bob.OP)
	assert.False(t, bob.Mod)
	assert.True(t, bob.HasRelatedReplies)
	assert.Equal(t, "2 小时前", bob.Created)

	alice := topic.Replies[1]
	assert.Equal(t, 2, alice.No)
	assert.True(t, alice.Mod)
	assert.False(t, alice.HasRelatedReplies)
	assert.Nil(t, alice.ParsedContent)
}

func TestParseRepliesDropsBlockedAuthors(t *testing.T) {
	t.Parallel()
	store := moderation.NewMemoryStore()
	store.Save("", moderation.Set{BlockedMembers: []int{202}})
	p := New(Config{Store: store})
	replies := p.ParseReplies(mustDoc(t, topicHTML))
	require.Len(t, replies, 1)
	assert.Equal(t, "alice", replies[0].Username())
}

func TestReplyFloorWithoutNumberCountsDroppedCells(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<html><head><script>var blocked = [202];</script></head><body>
<div id="Main"><div class="box">
<div class="cell" id="r_1"><span class="no">101</span><strong><a href="/member/alice">alice</a></strong><div class="reply_content">first</div></div>
<div class="cell" id="r_2"><img class="avatar" src="https://cdn.v2ex.com/avatar/a/b/202_normal.png"><strong><a href="/member/bob">bob</a></strong><div class="reply_content">blocked</div></div>
<div class="cell" id="r_bad"><div class="reply_content">broken</div></div>
<div class="cell" id="r_4"><strong><a href="/member/carol">carol</a></strong><div class="reply_content">last</div></div>
</div></div></body></html>`)
	replies := New(Config{}).ParseReplies(doc)
	require.Len(t, replies, 2)
	assert.Equal(t, 101, replies[0].No)
	assert.Equal(t, "carol", replies[1].Username())
	assert.Equal(t, 104, replies[1].No)
}

func TestParseTopicMissingTitle(t *testing.T) {
	t.Parallel()
	p := New(Config{})
	_, err := p.ParseTopic(mustDoc(t, `<div id="Main"><div class="box"><div class="header">no title</div></div></div>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAnchor))

	_, err = p.ParseTopic(mustDoc(t, `<p>login required</p>`))
	assert.ErrorIs(t, err, ErrMissingAnchor)
}

func TestParseReplyCountWithoutBullet(t *testing.T) {
	t.Parallel()
	doc := mustDoc(t, `<div class="box"><div class="cell"><span class="gray">目前尚无回复</span></div></div>`)
	assert.Equal(t, 0, parseReplyCount(findFirst(doc, cellSel).Parent))
}

package telegram

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

const defaultFlushWindow = 2 * time.Second

// GroupPost is one reassembled media group: the shared caption (from
// whichever item carried it), its entity spans, and the ordered album
// descriptor.
type GroupPost struct {
	Text  string
	Spans []rewrite.EntitySpan
	Media *rewrite.MediaDescriptor
}

// GroupCollector reassembles Telegram media groups. Items of an album
// arrive as separate updates sharing a media_group_id; the collector
// buffers them and flushes the completed group once no new item shows up
// within the window.
type GroupCollector struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pendingGroup
	flush   func(GroupPost)
}

type pendingGroup struct {
	post  GroupPost
	timer *time.Timer
}

func NewGroupCollector(window time.Duration, flush func(GroupPost)) *GroupCollector {
	if window <= 0 {
		window = defaultFlushWindow
	}
	return &GroupCollector{
		window:  window,
		pending: make(map[string]*pendingGroup),
		flush:   flush,
	}
}

// Add reports whether the message was consumed as part of a media group.
// Messages without a media_group_id pass through untouched.
func (c *GroupCollector) Add(msg *tgbotapi.Message) bool {
	if msg == nil || msg.MediaGroupID == "" {
		return false
	}
	item := MediaOf(msg)

	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.pending[msg.MediaGroupID]
	if !ok {
		group = &pendingGroup{
			post: GroupPost{
				Media: &rewrite.MediaDescriptor{Type: rewrite.MediaGroup, GroupID: msg.MediaGroupID},
			},
		}
		c.pending[msg.MediaGroupID] = group
	}
	if item != nil {
		group.post.Media.Items = append(group.post.Media.Items, *item)
	}
	if text := TextOf(msg); text != "" && group.post.Text == "" {
		group.post.Text = text
		group.post.Spans = EntitySpans(msg)
	}

	groupID := msg.MediaGroupID
	if group.timer != nil {
		group.timer.Stop()
	}
	group.timer = time.AfterFunc(c.window, func() { c.complete(groupID) })
	return true
}

func (c *GroupCollector) complete(groupID string) {
	c.mu.Lock()
	group, ok := c.pending[groupID]
	if ok {
		delete(c.pending, groupID)
	}
	c.mu.Unlock()
	if !ok || c.flush == nil {
		return
	}
	c.flush(group.post)
}

package telegram

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

func albumMsg(groupID, fileID, caption string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MediaGroupID: groupID,
		Caption:      caption,
		Photo:        []tgbotapi.PhotoSize{{FileID: fileID, Width: 100, Height: 100}},
	}
}

func TestCollectorPassesThroughSingles(t *testing.T) {
	c := NewGroupCollector(10*time.Millisecond, func(GroupPost) {
		t.Errorf("flush called for non-group message")
	})
	if c.Add(&tgbotapi.Message{Text: "plain"}) {
		t.Fatalf("Add consumed a message without media_group_id")
	}
}

func TestCollectorReassemblesAlbum(t *testing.T) {
	var (
		mu    sync.Mutex
		posts []GroupPost
	)
	done := make(chan struct{})
	c := NewGroupCollector(20*time.Millisecond, func(p GroupPost) {
		mu.Lock()
		posts = append(posts, p)
		mu.Unlock()
		close(done)
	})

	if !c.Add(albumMsg("g1", "p1", "album caption")) {
		t.Fatalf("first album item not consumed")
	}
	if !c.Add(albumMsg("g1", "p2", "")) {
		t.Fatalf("second album item not consumed")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("album never flushed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(posts) != 1 {
		t.Fatalf("got %d flushes, want 1", len(posts))
	}
	p := posts[0]
	if p.Text != "album caption" {
		t.Fatalf("Text = %q", p.Text)
	}
	if p.Media == nil || p.Media.Type != rewrite.MediaGroup || p.Media.GroupID != "g1" {
		t.Fatalf("Media = %+v", p.Media)
	}
	if len(p.Media.Items) != 2 || p.Media.Items[0].FileID != "p1" || p.Media.Items[1].FileID != "p2" {
		t.Fatalf("Items = %+v, want p1 then p2", p.Media.Items)
	}
}

func TestCollectorKeepsGroupsSeparate(t *testing.T) {
	var (
		mu    sync.Mutex
		byID  = map[string]int{}
		wg    sync.WaitGroup
		flush = func(p GroupPost) {
			mu.Lock()
			byID[p.Media.GroupID] = len(p.Media.Items)
			mu.Unlock()
			wg.Done()
		}
	)
	wg.Add(2)
	c := NewGroupCollector(20*time.Millisecond, flush)

	c.Add(albumMsg("a", "a1", ""))
	c.Add(albumMsg("b", "b1", ""))
	c.Add(albumMsg("a", "a2", ""))

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("groups never flushed")
	}

	mu.Lock()
	defer mu.Unlock()
	if byID["a"] != 2 || byID["b"] != 1 {
		t.Fatalf("item counts = %v, want a:2 b:1", byID)
	}
}

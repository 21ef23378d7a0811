package publisher

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

type fakeSender struct {
	sent   []tgbotapi.Chattable
	groups []tgbotapi.MediaGroupConfig
	err    error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.groups = append(f.groups, cfg)
	return nil, nil
}

func testPublisher(api sender) *Telegram {
	return NewTelegram(api, slog.New(slog.DiscardHandler))
}

func TestPublishTextOnly(t *testing.T) {
	api := &fakeSender{}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "hello", nil)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	msg, isMsg := api.sent[0].(tgbotapi.MessageConfig)
	if !isMsg || msg.Text != "hello" || msg.ChatID != -100 {
		t.Fatalf("sent = %#v", api.sent[0])
	}
}

func TestPublishSinglePhotoCarriesCaption(t *testing.T) {
	api := &fakeSender{}
	media := &rewrite.MediaDescriptor{Type: rewrite.MediaPhoto, FileID: "ph_1"}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "caption", media)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	photo, isPhoto := api.sent[0].(tgbotapi.PhotoConfig)
	if !isPhoto || photo.Caption != "caption" {
		t.Fatalf("sent = %#v", api.sent[0])
	}
}

func TestPublishStickerThenText(t *testing.T) {
	api := &fakeSender{}
	media := &rewrite.MediaDescriptor{Type: rewrite.MediaSticker, FileID: "st_1"}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "afterword", media)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	if len(api.sent) != 2 {
		t.Fatalf("sent %d messages, want sticker then text", len(api.sent))
	}
	if _, isSticker := api.sent[0].(tgbotapi.StickerConfig); !isSticker {
		t.Fatalf("first send = %#v, want sticker", api.sent[0])
	}
	msg, isMsg := api.sent[1].(tgbotapi.MessageConfig)
	if !isMsg || msg.Text != "afterword" {
		t.Fatalf("second send = %#v, want text", api.sent[1])
	}
}

func TestPublishAlbumPreservesOrderAndTypes(t *testing.T) {
	api := &fakeSender{}
	media := &rewrite.MediaDescriptor{
		Type:    rewrite.MediaGroup,
		GroupID: "g1",
		Items: []rewrite.MediaDescriptor{
			{Type: rewrite.MediaPhoto, FileID: "p1"},
			{Type: rewrite.MediaVideo, FileID: "v1"},
			{Type: rewrite.MediaAnimation, FileID: "a1"},
		},
	}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "album caption", media)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	if len(api.groups) != 1 {
		t.Fatalf("got %d media groups, want 1", len(api.groups))
	}
	items := api.groups[0].Media
	if len(items) != 3 {
		t.Fatalf("album has %d items, want 3", len(items))
	}
	first, isPhoto := items[0].(tgbotapi.InputMediaPhoto)
	if !isPhoto {
		t.Fatalf("items[0] = %#v, want photo", items[0])
	}
	if first.Caption != "album caption" {
		t.Fatalf("caption on first item = %q", first.Caption)
	}
	if _, isVideo := items[1].(tgbotapi.InputMediaVideo); !isVideo {
		t.Fatalf("items[1] = %#v, want video", items[1])
	}
	// Animations travel inside albums as video.
	if _, isVideo := items[2].(tgbotapi.InputMediaVideo); !isVideo {
		t.Fatalf("items[2] = %#v, want video for animation", items[2])
	}
}

func TestPublishAlbumSkipsBrokenItems(t *testing.T) {
	api := &fakeSender{}
	media := &rewrite.MediaDescriptor{
		Type:    rewrite.MediaGroup,
		GroupID: "g2",
		Items: []rewrite.MediaDescriptor{
			{Type: rewrite.MediaPhoto, FileID: "p1"},
			{Type: rewrite.MediaPhoto, FileID: ""},
			{Type: rewrite.MediaSticker, FileID: "st_1"},
			{Type: rewrite.MediaPhoto, FileID: "p2"},
		},
	}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "partial", media)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	if got := len(api.groups[0].Media); got != 2 {
		t.Fatalf("album has %d items, want 2 after filtering", got)
	}
}

func TestPublishAlbumEmptyFallsBackToText(t *testing.T) {
	api := &fakeSender{}
	media := &rewrite.MediaDescriptor{
		Type:    rewrite.MediaGroup,
		GroupID: "g3",
		Items: []rewrite.MediaDescriptor{
			{Type: rewrite.MediaSticker, FileID: "st_1"},
		},
	}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "text alone", media)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	if len(api.groups) != 0 {
		t.Fatalf("got media groups, want none")
	}
	msg, isMsg := api.sent[0].(tgbotapi.MessageConfig)
	if !isMsg || msg.Text != "text alone" {
		t.Fatalf("sent = %#v", api.sent[0])
	}
}

func TestPublishMarkdownV2EscapesText(t *testing.T) {
	api := &fakeSender{}
	p := testPublisher(api)
	p.ParseMode = tgbotapi.ModeMarkdownV2
	ok, err := p.Publish(context.Background(), -100, "Done. Really!", nil)
	if err != nil || !ok {
		t.Fatalf("Publish() = %v, %v", ok, err)
	}
	msg := api.sent[0].(tgbotapi.MessageConfig)
	if msg.Text != `Done\. Really\!` || msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Fatalf("msg = %q parse_mode %q", msg.Text, msg.ParseMode)
	}
}

func TestPublishSendFailure(t *testing.T) {
	api := &fakeSender{err: errors.New("bad request")}
	ok, err := testPublisher(api).Publish(context.Background(), -100, "hello", nil)
	if ok || err == nil {
		t.Fatalf("Publish() = %v, %v, want error", ok, err)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeSender{}
	ok, err := testPublisher(api).Publish(ctx, -100, "hello", nil)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish() = %v, %v, want context.Canceled", ok, err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("sent %d messages after cancel, want 0", len(api.sent))
	}
}

package publisher

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wellcomeai/tgbotsaas/internal/telegram"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

// sender is the slice of the bot API the publisher needs; *tgbotapi.BotAPI
// satisfies it.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

// Telegram republishes rewrite results into a channel. Media groups are
// rebuilt as albums preserving per-item order and type; stickers cannot
// go into albums and are flagged, not silently dropped.
type Telegram struct {
	api    sender
	logger *slog.Logger

	// ParseMode, when set to MarkdownV2, escapes outgoing text and
	// captions for that mode.
	ParseMode string
}

func NewTelegram(api sender, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{api: api, logger: logger}
}

func (t *Telegram) render(text string) string {
	if t.ParseMode == tgbotapi.ModeMarkdownV2 {
		return telegram.EscapeMarkdownV2(text)
	}
	return text
}

func (t *Telegram) Publish(ctx context.Context, chatID int64, text string, media *rewrite.MediaDescriptor) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch {
	case media == nil:
		return t.sendText(chatID, text)
	case media.IsGroup():
		return t.sendAlbum(chatID, text, media)
	default:
		return t.sendSingle(chatID, text, *media)
	}
}

func (t *Telegram) sendText(chatID int64, text string) (bool, error) {
	msg := tgbotapi.NewMessage(chatID, t.render(text))
	msg.ParseMode = t.ParseMode
	if _, err := t.api.Send(msg); err != nil {
		return false, fmt.Errorf("send message: %w", err)
	}
	return true, nil
}

func (t *Telegram) sendSingle(chatID int64, caption string, item rewrite.MediaDescriptor) (bool, error) {
	if item.FileID == "" {
		t.logger.Warn("media_item_missing_file_id", "chat_id", chatID, "type", string(item.Type))
		return t.sendText(chatID, caption)
	}
	file := tgbotapi.FileID(item.FileID)
	rendered := t.render(caption)
	var msg tgbotapi.Chattable
	switch item.Type {
	case rewrite.MediaPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaAnimation:
		m := tgbotapi.NewAnimation(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaAudio:
		m := tgbotapi.NewAudio(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaVoice:
		m := tgbotapi.NewVoice(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaDocument:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = rendered
		m.ParseMode = t.ParseMode
		msg = m
	case rewrite.MediaSticker:
		// Stickers carry no caption; publish the text separately after
		// the sticker itself.
		if _, err := t.api.Send(tgbotapi.NewSticker(chatID, file)); err != nil {
			return false, fmt.Errorf("send sticker: %w", err)
		}
		return t.sendText(chatID, caption)
	default:
		t.logger.Warn("media_type_not_publishable", "chat_id", chatID, "type", string(item.Type))
		return t.sendText(chatID, caption)
	}
	if _, err := t.api.Send(msg); err != nil {
		return false, fmt.Errorf("send %s: %w", item.Type, err)
	}
	return true, nil
}

// sendAlbum rebuilds a multi-item album. Items without a file reference
// are skipped with a warning; stickers are excluded (the transport does
// not allow them in albums) and logged. If nothing sendable remains, the
// text goes out alone.
func (t *Telegram) sendAlbum(chatID int64, caption string, group *rewrite.MediaDescriptor) (bool, error) {
	var items []interface{}
	for i, item := range group.Items {
		if item.FileID == "" {
			t.logger.Warn("album_item_missing_file_id", "chat_id", chatID, "index", i, "type", string(item.Type))
			continue
		}
		if item.Type == rewrite.MediaSticker {
			t.logger.Warn("album_item_sticker_excluded", "chat_id", chatID, "index", i)
			continue
		}
		media := albumInput(item)
		if media == nil {
			t.logger.Warn("album_item_type_unsupported", "chat_id", chatID, "index", i, "type", string(item.Type))
			continue
		}
		items = append(items, media)
	}
	if len(items) == 0 {
		t.logger.Warn("album_empty_after_filtering", "chat_id", chatID, "group_id", group.GroupID)
		return t.sendText(chatID, caption)
	}
	// Caption rides on the first album item.
	rendered := t.render(caption)
	switch first := items[0].(type) {
	case tgbotapi.InputMediaPhoto:
		first.Caption = rendered
		first.ParseMode = t.ParseMode
		items[0] = first
	case tgbotapi.InputMediaVideo:
		first.Caption = rendered
		first.ParseMode = t.ParseMode
		items[0] = first
	case tgbotapi.InputMediaAudio:
		first.Caption = rendered
		first.ParseMode = t.ParseMode
		items[0] = first
	case tgbotapi.InputMediaDocument:
		first.Caption = rendered
		first.ParseMode = t.ParseMode
		items[0] = first
	}
	cfg := tgbotapi.MediaGroupConfig{ChatID: chatID, Media: items}
	if _, err := t.api.SendMediaGroup(cfg); err != nil {
		return false, fmt.Errorf("send media group: %w", err)
	}
	return true, nil
}

func albumInput(item rewrite.MediaDescriptor) interface{} {
	file := tgbotapi.FileID(item.FileID)
	switch item.Type {
	case rewrite.MediaPhoto:
		return tgbotapi.NewInputMediaPhoto(file)
	case rewrite.MediaVideo:
		return tgbotapi.NewInputMediaVideo(file)
	case rewrite.MediaAnimation:
		// Albums have no animation slot; animations travel as video.
		return tgbotapi.NewInputMediaVideo(file)
	case rewrite.MediaAudio:
		return tgbotapi.NewInputMediaAudio(file)
	case rewrite.MediaVoice, rewrite.MediaDocument:
		return tgbotapi.NewInputMediaDocument(file)
	default:
		return nil
	}
}

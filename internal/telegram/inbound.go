package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

// TextOf returns the rewritable text of a message: plain text for text
// messages, the caption for media posts.
func TextOf(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// EntitySpans converts the transport's entities for the message's
// rewritable text. Caption entities are used when the text came from a
// caption.
func EntitySpans(msg *tgbotapi.Message) []rewrite.EntitySpan {
	if msg == nil {
		return nil
	}
	entities := msg.Entities
	if msg.Text == "" {
		entities = msg.CaptionEntities
	}
	if len(entities) == 0 {
		return nil
	}
	spans := make([]rewrite.EntitySpan, 0, len(entities))
	for _, e := range entities {
		spans = append(spans, rewrite.EntitySpan{
			Offset: e.Offset,
			Length: e.Length,
			Kind:   e.Type,
			URL:    e.URL,
		})
	}
	return spans
}

// MediaOf maps a message's attachment to a media descriptor. Returns nil
// for text-only messages and for attachments with an empty file
// reference: a descriptor is dropped rather than stored half-populated.
func MediaOf(msg *tgbotapi.Message) *rewrite.MediaDescriptor {
	if msg == nil {
		return nil
	}
	var d *rewrite.MediaDescriptor
	switch {
	case len(msg.Photo) > 0:
		// Largest size is last.
		p := msg.Photo[len(msg.Photo)-1]
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaPhoto, FileID: p.FileID, Width: p.Width, Height: p.Height, FileSize: int64(p.FileSize)}
	case msg.Video != nil:
		v := msg.Video
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaVideo, FileID: v.FileID, Width: v.Width, Height: v.Height, Duration: v.Duration, MimeType: v.MimeType, FileSize: int64(v.FileSize)}
	case msg.Animation != nil:
		a := msg.Animation
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaAnimation, FileID: a.FileID, Width: a.Width, Height: a.Height, Duration: a.Duration, MimeType: a.MimeType, FileSize: int64(a.FileSize)}
	case msg.Audio != nil:
		a := msg.Audio
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaAudio, FileID: a.FileID, Duration: a.Duration, MimeType: a.MimeType, FileName: a.FileName, FileSize: int64(a.FileSize)}
	case msg.Voice != nil:
		v := msg.Voice
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaVoice, FileID: v.FileID, Duration: v.Duration, MimeType: v.MimeType, FileSize: int64(v.FileSize)}
	case msg.Document != nil:
		doc := msg.Document
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaDocument, FileID: doc.FileID, MimeType: doc.MimeType, FileName: doc.FileName, FileSize: int64(doc.FileSize)}
	case msg.Sticker != nil:
		st := msg.Sticker
		d = &rewrite.MediaDescriptor{Type: rewrite.MediaSticker, FileID: st.FileID, Width: st.Width, Height: st.Height, FileSize: int64(st.FileSize)}
	default:
		return nil
	}
	if d.FileID == "" {
		return nil
	}
	return d
}

// BindingFromForward builds a channel binding from a forwarded channel
// post, the gesture owners use to bind their channel.
func BindingFromForward(botID string, msg *tgbotapi.Message) (rewrite.ChannelBinding, bool) {
	if msg == nil || msg.ForwardFromChat == nil || msg.ForwardFromChat.Type != "channel" {
		return rewrite.ChannelBinding{}, false
	}
	ch := msg.ForwardFromChat
	return rewrite.ChannelBinding{
		BotID:        botID,
		ChatID:       ch.ID,
		ChatTitle:    ch.Title,
		ChatUsername: ch.UserName,
		ChatType:     ch.Type,
		Active:       true,
	}, true
}

// BotIDFromToken derives the tenant key from a bot token (the numeric id
// before the colon).
func BotIDFromToken(token string) string {
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			if _, err := strconv.ParseInt(token[:i], 10, 64); err == nil {
				return token[:i]
			}
			break
		}
	}
	return token
}

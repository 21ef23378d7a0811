package rewrite

import (
	"time"
)

type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaAnimation MediaType = "animation"
	MediaAudio     MediaType = "audio"
	MediaVoice     MediaType = "voice"
	MediaDocument  MediaType = "document"
	MediaSticker   MediaType = "sticker"
	MediaGroup     MediaType = "media_group"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaAnimation, MediaAudio, MediaVoice, MediaDocument, MediaSticker, MediaGroup:
		return true
	default:
		return false
	}
}

// MediaDescriptor describes one attached file, or (for MediaGroup) an
// ordered album of single-media descriptors sharing a group id. A
// descriptor with an empty FileID is dropped by callers rather than
// stored half-populated.
type MediaDescriptor struct {
	Type     MediaType         `json:"type"`
	FileID   string            `json:"file_id,omitempty"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	Duration int               `json:"duration,omitempty"`
	MimeType string            `json:"mime_type,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	FileSize int64             `json:"file_size,omitempty"`
	GroupID  string            `json:"group_id,omitempty"`
	Items    []MediaDescriptor `json:"items,omitempty"`
}

func (d *MediaDescriptor) IsGroup() bool {
	return d != nil && d.Type == MediaGroup
}

type TextLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ExtractedLinks holds the five entity categories sliced out of a
// message. TotalLinks and HasLinks are derived; use Recount after any
// mutation, never set them independently.
type ExtractedLinks struct {
	URLs         []string   `json:"urls,omitempty"`
	TextLinks    []TextLink `json:"text_links,omitempty"`
	Emails       []string   `json:"emails,omitempty"`
	PhoneNumbers []string   `json:"phone_numbers,omitempty"`
	Mentions     []string   `json:"mentions,omitempty"`
	TotalLinks   int        `json:"total_links"`
	HasLinks     bool       `json:"has_links"`
}

func (l *ExtractedLinks) Recount() {
	if l == nil {
		return
	}
	l.TotalLinks = len(l.URLs) + len(l.TextLinks) + len(l.Emails) + len(l.PhoneNumbers) + len(l.Mentions)
	l.HasLinks = l.TotalLinks > 0
}

// Agent is one configured rewriter for a tenant bot. Exactly one agent
// per bot id may be active; the persistence layer enforces that with a
// partial unique index.
type Agent struct {
	BotID        string    `json:"bot_id"`
	Name         string    `json:"agent_name"`
	Instructions string    `json:"instructions"`
	ExternalID   string    `json:"external_agent_id"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChannelBinding ties a tenant bot to the channel it republishes into.
// Bindings are deactivated, never hard-deleted.
type ChannelBinding struct {
	BotID        string    `json:"bot_id"`
	ChatID       int64     `json:"chat_id"`
	ChatTitle    string    `json:"chat_title"`
	ChatUsername string    `json:"chat_username"`
	ChatType     string    `json:"chat_type"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Request is one rewrite invocation. It is constructed per call and not
// retained beyond it. UserID 0 means no quota pre-check.
type Request struct {
	BotID  string
	Text   string
	Media  *MediaDescriptor
	Links  *ExtractedLinks
	UserID int64
}

type Content struct {
	OriginalText  string `json:"original_text"`
	RewrittenText string `json:"rewritten_text"`
	LengthDelta   int    `json:"length_delta"`
}

// TokenReport carries per-call accounting. Estimated marks figures
// derived from the word-count fallback rather than provider-reported
// usage; the two are never blended.
type TokenReport struct {
	Input         int     `json:"input"`
	Output        int     `json:"output"`
	Total         int     `json:"total"`
	EstimatedCost float64 `json:"estimated_cost"`
	Estimated     bool    `json:"estimated,omitempty"`
}

type AgentInfo struct {
	Name         string `json:"name"`
	ID           string `json:"id"`
	Instructions string `json:"instructions"`
}

// Result is the outcome of one successful rewrite. Media and MediaInfo
// are the same payload under a primary and a legacy-alias key; Normalize
// keeps them in sync for backward-compatible consumers.
type Result struct {
	Success        bool             `json:"success"`
	Content        Content          `json:"content"`
	Tokens         TokenReport      `json:"tokens"`
	Agent          AgentInfo        `json:"agent"`
	Media          *MediaDescriptor `json:"media,omitempty"`
	MediaInfo      *MediaDescriptor `json:"media_info,omitempty"`
	Links          *ExtractedLinks  `json:"extracted_links,omitempty"`
	ProcessingTime time.Duration    `json:"processing_time"`
	IsMediaGroup   bool             `json:"is_media_group"`
	Degraded       bool             `json:"degraded,omitempty"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// RewriteAgent is one configured rewriter per tenant bot. At most one
// row per bot_id may have is_active=1; a partial unique index enforces
// that in the database so multiple process instances stay consistent.
type RewriteAgent struct {
	ID           uint   `gorm:"primaryKey"`
	BotID        string `gorm:"index;not null"`
	AgentName    string
	Instructions string
	ExternalID   string
	IsActive     bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`
}

// ChannelBinding ties a tenant bot to its publish channel and carries the
// denormalized last rewrite snapshot for "publish last result" flows.
// Same one-active-per-bot rule as RewriteAgent; rows are deactivated,
// never deleted.
type ChannelBinding struct {
	ID           uint   `gorm:"primaryKey"`
	BotID        string `gorm:"index;not null"`
	ChatID       int64
	ChatTitle    string
	ChatUsername string
	ChatType     string
	IsActive     bool           `gorm:"not null;default:false"`
	LastResult   datatypes.JSON `gorm:"column:last_result"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RewriteStat is an append-only per-request detail row.
type RewriteStat struct {
	ID           uint   `gorm:"primaryKey"`
	RequestID    string `gorm:"index"`
	BotID        string `gorm:"index;not null"`
	UserID       int64  `gorm:"index"`
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Estimated    bool
	DurationMs   int64
	CreatedAt    time.Time
}

// TokenUsage is the append-only ledger of consumed tokens.
type TokenUsage struct {
	ID           uint   `gorm:"primaryKey"`
	BotID        string `gorm:"index;not null"`
	UserID       int64  `gorm:"index"`
	InputTokens  int
	OutputTokens int
	CreatedAt    time.Time
}

// TokenQuota overrides the default per-user token limit.
type TokenQuota struct {
	UserID     int64 `gorm:"primaryKey;autoIncrement:false"`
	TokenLimit int   `gorm:"not null"`
	UpdatedAt  time.Time
}

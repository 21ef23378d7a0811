package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellcomeai/tgbotsaas/db/models"
	"github.com/wellcomeai/tgbotsaas/rewrite"
	"gorm.io/gorm"
)

const defaultTokenLimit = 100_000

// Ledger tracks consumed tokens per user in the platform database. The
// limit comes from a per-user quota row when present, otherwise from the
// configured default.
type Ledger struct {
	gdb          *gorm.DB
	defaultLimit int
}

func New(gdb *gorm.DB, defaultLimit int) *Ledger {
	if defaultLimit <= 0 {
		defaultLimit = defaultTokenLimit
	}
	return &Ledger{gdb: gdb, defaultLimit: defaultLimit}
}

func (l *Ledger) CheckLimit(ctx context.Context, userID int64, estimatedAdd int) (rewrite.LimitStatus, error) {
	limit := l.defaultLimit
	var quota models.TokenQuota
	err := l.gdb.WithContext(ctx).First(&quota, "user_id = ?", userID).Error
	switch {
	case err == nil:
		limit = quota.TokenLimit
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rewrite.LimitStatus{}, fmt.Errorf("load quota for user %d: %w", userID, err)
	}

	var used int64
	err = l.gdb.WithContext(ctx).Model(&models.TokenUsage{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(input_tokens + output_tokens), 0)").
		Scan(&used).Error
	if err != nil {
		return rewrite.LimitStatus{}, fmt.Errorf("sum usage for user %d: %w", userID, err)
	}

	return rewrite.LimitStatus{
		HasCapacity: int(used)+estimatedAdd <= limit,
		Used:        int(used),
		Limit:       limit,
	}, nil
}

func (l *Ledger) CommitUsage(ctx context.Context, botID string, userID int64, inputTokens, outputTokens int) error {
	row := models.TokenUsage{
		BotID:        botID,
		UserID:       userID,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("commit usage for user %d: %w", userID, err)
	}
	return nil
}

// Noop satisfies the ledger interface for deployments without quota
// enforcement.
type Noop struct{}

func (Noop) CheckLimit(context.Context, int64, int) (rewrite.LimitStatus, error) {
	return rewrite.LimitStatus{HasCapacity: true}, nil
}

func (Noop) CommitUsage(context.Context, string, int64, int, int) error { return nil }

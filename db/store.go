package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wellcomeai/tgbotsaas/db/models"
	"github.com/wellcomeai/tgbotsaas/rewrite"
	"gorm.io/gorm"
)

// Store backs the rewrite pipeline's agent, binding and statistics
// interfaces with gorm.
type Store struct {
	gdb *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{gdb: gdb}
}

func (s *Store) ActiveAgent(ctx context.Context, botID string) (rewrite.Agent, bool, error) {
	var row models.RewriteAgent
	err := s.gdb.WithContext(ctx).
		Where("bot_id = ? AND is_active = ? AND deleted_at IS NULL", botID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rewrite.Agent{}, false, nil
	}
	if err != nil {
		return rewrite.Agent{}, false, fmt.Errorf("query active agent: %w", err)
	}
	return rewrite.Agent{
		BotID:        row.BotID,
		Name:         row.AgentName,
		Instructions: row.Instructions,
		ExternalID:   row.ExternalID,
		Active:       row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, true, nil
}

// SaveAgent upserts the bot's active agent in one transaction,
// deactivating any earlier active row first so the partial unique index
// stays satisfied.
func (s *Store) SaveAgent(ctx context.Context, agent rewrite.Agent) error {
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RewriteAgent{}).
			Where("bot_id = ? AND is_active = ?", agent.BotID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		row := models.RewriteAgent{
			BotID:        agent.BotID,
			AgentName:    agent.Name,
			Instructions: agent.Instructions,
			ExternalID:   agent.ExternalID,
			IsActive:     agent.Active,
			CreatedAt:    agent.CreatedAt,
			UpdatedAt:    agent.UpdatedAt,
		}
		return tx.Create(&row).Error
	})
}

func (s *Store) DeleteAgent(ctx context.Context, botID string, hard bool) error {
	q := s.gdb.WithContext(ctx).Where("bot_id = ?", botID)
	if hard {
		return q.Delete(&models.RewriteAgent{}).Error
	}
	now := time.Now().UTC()
	return q.Model(&models.RewriteAgent{}).
		Updates(map[string]any{"is_active": false, "deleted_at": &now}).Error
}

func (s *Store) ActiveBinding(ctx context.Context, botID string) (rewrite.ChannelBinding, bool, error) {
	row, ok, err := s.activeBindingRow(ctx, botID)
	if err != nil || !ok {
		return rewrite.ChannelBinding{}, ok, err
	}
	return rewrite.ChannelBinding{
		BotID:        row.BotID,
		ChatID:       row.ChatID,
		ChatTitle:    row.ChatTitle,
		ChatUsername: row.ChatUsername,
		ChatType:     row.ChatType,
		Active:       row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, true, nil
}

func (s *Store) SaveBinding(ctx context.Context, binding rewrite.ChannelBinding) error {
	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Rebinding to the same chat just refreshes the row.
		var existing models.ChannelBinding
		err := tx.Where("bot_id = ? AND chat_id = ?", binding.BotID, binding.ChatID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Model(&models.ChannelBinding{}).
			Where("bot_id = ? AND is_active = ?", binding.BotID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if existing.ID != 0 {
			return tx.Model(&existing).Updates(map[string]any{
				"chat_title":    binding.ChatTitle,
				"chat_username": binding.ChatUsername,
				"chat_type":     binding.ChatType,
				"is_active":     binding.Active,
				"updated_at":    binding.UpdatedAt,
			}).Error
		}
		row := models.ChannelBinding{
			BotID:        binding.BotID,
			ChatID:       binding.ChatID,
			ChatTitle:    binding.ChatTitle,
			ChatUsername: binding.ChatUsername,
			ChatType:     binding.ChatType,
			IsActive:     binding.Active,
			CreatedAt:    binding.CreatedAt,
			UpdatedAt:    binding.UpdatedAt,
		}
		return tx.Create(&row).Error
	})
}

func (s *Store) SaveSnapshot(ctx context.Context, botID string, snapshot map[string]any) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	res := s.gdb.WithContext(ctx).Model(&models.ChannelBinding{}).
		Where("bot_id = ? AND is_active = ?", botID, true).
		Updates(map[string]any{"last_result": raw, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("save snapshot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no active channel binding for bot %s", botID)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, botID string) (map[string]any, bool, error) {
	row, ok, err := s.activeBindingRow(ctx, botID)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(row.LastResult) == 0 {
		return nil, false, nil
	}
	var snapshot map[string]any
	if err := json.Unmarshal(row.LastResult, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, true, nil
}

func (s *Store) RecordRewrite(ctx context.Context, stat rewrite.Stat) error {
	row := models.RewriteStat{
		RequestID:    stat.RequestID,
		BotID:        stat.BotID,
		UserID:       stat.UserID,
		InputTokens:  stat.InputTokens,
		OutputTokens: stat.OutputTokens,
		TotalTokens:  stat.TotalTokens,
		Estimated:    stat.Estimated,
		DurationMs:   stat.ProcessingTime.Milliseconds(),
		CreatedAt:    stat.CreatedAt,
	}
	return s.gdb.WithContext(ctx).Create(&row).Error
}

// StatTotals aggregates the append-only stat rows for display.
type StatTotals struct {
	Requests      int64
	TotalTokens   int64
	AvgDurationMs float64
}

func (s *Store) Totals(ctx context.Context, botID string) (StatTotals, error) {
	var out StatTotals
	err := s.gdb.WithContext(ctx).Model(&models.RewriteStat{}).
		Where("bot_id = ?", botID).
		Select("COUNT(*) AS requests, COALESCE(SUM(total_tokens),0) AS total_tokens, COALESCE(AVG(duration_ms),0) AS avg_duration_ms").
		Scan(&out).Error
	if err != nil {
		return StatTotals{}, fmt.Errorf("stat totals: %w", err)
	}
	return out, nil
}

func (s *Store) activeBindingRow(ctx context.Context, botID string) (models.ChannelBinding, bool, error) {
	var row models.ChannelBinding
	err := s.gdb.WithContext(ctx).
		Where("bot_id = ? AND is_active = ?", botID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ChannelBinding{}, false, nil
	}
	if err != nil {
		return models.ChannelBinding{}, false, fmt.Errorf("query active binding: %w", err)
	}
	return row, true, nil
}

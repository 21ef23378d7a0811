package db

import (
	"fmt"

	"github.com/wellcomeai/tgbotsaas/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	if err := gdb.AutoMigrate(
		&models.RewriteAgent{},
		&models.ChannelBinding{},
		&models.RewriteStat{},
		&models.TokenUsage{},
		&models.TokenQuota{},
	); err != nil {
		return err
	}
	// One active row per bot, enforced in the database rather than by
	// in-process locking: multiple instances may serve the same tenant.
	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rewrite_agents_one_active ON rewrite_agents(bot_id) WHERE is_active = 1 AND deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_channel_bindings_one_active ON channel_bindings(bot_id) WHERE is_active = 1`,
	} {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}
	return nil
}

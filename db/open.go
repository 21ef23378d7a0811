package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects per Config and runs migrations when AutoMigrate is set.
func Open(cfg Config) (*gorm.DB, error) {
	if !strings.EqualFold(strings.TrimSpace(cfg.Driver), "sqlite") {
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.Driver)
	}
	dsn, err := ResolveSQLiteDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	dsn = withSQLitePragmas(dsn, cfg.SQLite)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(gdb); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return gdb, nil
}

func withSQLitePragmas(dsn string, cfg SQLiteConfig) string {
	var params []string
	if cfg.BusyTimeoutMs > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeoutMs))
	}
	if cfg.WAL {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	if cfg.ForeignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

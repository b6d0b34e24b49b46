package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/medash/medash-go/internal/config"
)

// Open builds the Store selected by cfg.StorageDriver, running migrations for
// the SQL backends.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return NewMemoryStore(), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		db, err := NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := MigrateSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLiteStore(db), nil

	case config.DriverMySQL:
		db, err := NewDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := MigrateMySQL(db); err != nil {
			db.Close()
			return nil, err
		}
		return NewMySQLStore(db), nil

	case config.DriverRedis:
		opts := DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		if cfg.StoragePrefix != "" {
			opts.Prefix = cfg.StoragePrefix
		}
		return NewRedisStore(opts)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

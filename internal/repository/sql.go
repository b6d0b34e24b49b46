package repository

import (
	"context"
	"database/sql"
	"errors"
)

const (
	mysqlUpsertQuery = `
	INSERT INTO local_storage (storage_key, storage_value)
	VALUES (?, ?)
	ON DUPLICATE KEY UPDATE
		storage_value = VALUES(storage_value),
		updated_at    = CURRENT_TIMESTAMP`

	sqliteUpsertQuery = `
	INSERT INTO local_storage (storage_key, storage_value)
	VALUES (?, ?)
	ON CONFLICT(storage_key) DO UPDATE SET
		storage_value = excluded.storage_value,
		updated_at    = CURRENT_TIMESTAMP`
)

// SQLStore keeps values in the local_storage table of a SQL database.
type SQLStore struct {
	db          *sql.DB
	upsertQuery string
}

// NewMySQLStore wraps a migrated MySQL connection pool.
func NewMySQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, upsertQuery: mysqlUpsertQuery}
}

// NewSQLiteStore wraps a migrated SQLite database.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, upsertQuery: sqliteUpsertQuery}
}

// Get retrieves the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT storage_value FROM local_storage WHERE storage_key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	return value, nil
}

// Put inserts or replaces the value stored under key.
func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery, key, value)
	return err
}

// Delete removes key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE storage_key = ?`, key)
	return err
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medash/medash-go/internal/config"
)

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "medash-test.db"))
	require.NoError(t, err)
	require.NoError(t, MigrateSQLite(db))

	s := NewSQLiteStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newTestSQLiteStore(t) },
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, KeyDashboards)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, s.Put(ctx, KeyDashboards, []byte(`[{"id":"d1"}]`)))
			got, err := s.Get(ctx, KeyDashboards)
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"d1"}]`, string(got))

			// last write wins
			require.NoError(t, s.Put(ctx, KeyDashboards, []byte(`[]`)))
			got, err = s.Get(ctx, KeyDashboards)
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, s.Put(ctx, KeyTheme, []byte("dark")))
			require.NoError(t, s.Delete(ctx, KeyTheme))
			_, err = s.Get(ctx, KeyTheme)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			assert.NoError(t, s.Delete(ctx, "missing"), "deleting a missing key is not an error")

			require.NoError(t, s.Put(ctx, KeyOpenInEditMode, nil))
			got, err = s.Get(ctx, KeyOpenInEditMode)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte("light")
	require.NoError(t, s.Put(ctx, KeyTheme, value))
	value[0] = 'n'

	got, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", string(got))

	got[0] = 'x'
	again, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", string(again))
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, KeyTheme)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Put(ctx, KeyTheme, []byte("dark")), ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, KeyTheme), ErrStoreClosed)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	assert.NoError(t, MigrateSQLite(s.db))
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := Open(config.Config{StorageDriver: config.DriverMemory})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
		assert.NoError(t, s.Close())
	})

	t.Run("sqlite creates its directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "medash.db")
		s, err := Open(config.Config{StorageDriver: config.DriverSQLite, SQLitePath: path})
		require.NoError(t, err)
		defer s.Close()

		ctx := context.Background()
		require.NoError(t, s.Put(ctx, KeyTheme, []byte("dark")))
		got, err := s.Get(ctx, KeyTheme)
		require.NoError(t, err)
		assert.Equal(t, "dark", string(got))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(config.Config{StorageDriver: "etcd"})
		assert.Error(t, err)
	})
}

func TestNewDB_InvalidDSN(t *testing.T) {
	_, err := NewDB("not a dsn")
	assert.Error(t, err)
}

func TestNewRedisStore_RequiresURL(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{})
	assert.Error(t, err)
}

func TestRedisStorePrefixKey(t *testing.T) {
	s := &RedisStore{prefix: "medash:"}
	assert.Equal(t, "medash:dashboards", s.prefixKey(KeyDashboards))
}

func TestSentinelErrors(t *testing.T) {
	if ErrKeyNotFound.Error() != "key not found" {
		t.Fatalf("unexpected error message: %s", ErrKeyNotFound.Error())
	}
	if ErrStoreClosed.Error() != "store closed" {
		t.Fatalf("unexpected error message: %s", ErrStoreClosed.Error())
	}
}

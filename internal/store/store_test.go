package store

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/backend/internal/db"
)

func openSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	require.NoError(t, db.RunMigrations(database, filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")))
	return NewSQLite(database)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "sessions", `[{"id":"a"}]`))
	value, ok, err := s.Get(ctx, "sessions")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	require.NoError(t, s.Put(ctx, "sessions", `[]`))
	value, _, err = s.Get(ctx, "sessions")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	assert.ErrorIs(t, s.Put(ctx, "", "x"), ErrEmptyKey)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	exerciseStore(t, openSQLiteStore(t))
}

func TestEncrypted(t *testing.T) {
	inner := NewMemory()
	enc, err := NewEncrypted(inner, "correct horse battery staple")
	require.NoError(t, err)
	exerciseStore(t, enc)

	ctx := context.Background()
	require.NoError(t, enc.Put(ctx, "secret", "heart rate 62"))

	raw, ok, err := inner.Get(ctx, "secret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "heart rate")

	// A value moved under another key must not open.
	require.NoError(t, inner.Put(ctx, "other", raw))
	_, _, err = enc.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrDecrypt)

	wrongKey, err := NewEncrypted(inner, "another secret")
	require.NoError(t, err)
	_, _, err = wrongKey.Get(ctx, "secret")
	assert.ErrorIs(t, err, ErrDecrypt)

	require.NoError(t, inner.Put(ctx, "garbage", "%%%"))
	_, _, err = enc.Get(ctx, "garbage")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestEncryptedOverSQLite(t *testing.T) {
	enc, err := NewEncrypted(openSQLiteStore(t), "s3cret")
	require.NoError(t, err)
	exerciseStore(t, enc)
}

func TestNewEncryptedRequiresSecret(t *testing.T) {
	_, err := NewEncrypted(NewMemory(), "")
	assert.Error(t, err)
}

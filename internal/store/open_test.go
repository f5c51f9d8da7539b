package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteBackend(t *testing.T) {
	sqliteStore := openSQLiteStore(t)

	st, closeFn, err := Open(context.Background(), Options{SQLite: sqliteStore.db})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &SQLite{}, st)
	exerciseStore(t, st)
}

func TestOpenEncryptsWhenSecretSet(t *testing.T) {
	ctx := context.Background()
	sqliteStore := openSQLiteStore(t)

	st, closeFn, err := Open(ctx, Options{Backend: BackendSQLite, SQLite: sqliteStore.db, Secret: "s3cret"})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &Encrypted{}, st)

	require.NoError(t, st.Put(ctx, "k", "plain"))
	raw, ok, err := sqliteStore.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "plain", raw)
}

func TestOpenRejectsBadOptions(t *testing.T) {
	ctx := context.Background()

	_, _, err := Open(ctx, Options{Backend: BackendSQLite})
	assert.Error(t, err)

	_, _, err = Open(ctx, Options{Backend: BackendPostgres})
	assert.Error(t, err)

	_, _, err = Open(ctx, Options{Backend: "redis"})
	assert.Error(t, err)
}

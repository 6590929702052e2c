//go:build sqlite

package fitcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "fitcache.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	want := sampleResult("abc")
	require.NoError(t, store.Write(ctx, "abc", want))

	got, ok, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.X, got.X)
	require.Equal(t, want.Fun, got.Fun)
	require.Equal(t, want.Expression, got.Expression)
	require.Equal(t, want.Method, got.Method)
	require.Equal(t, currentSchemaVersion, got.SchemaVersion)
	require.Equal(t, currentCodecVersion, got.CodecVersion)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	first := sampleResult("h")
	require.NoError(t, store.Write(ctx, "h", first))

	second := sampleResult("h")
	second.Fun = 1.0
	require.NoError(t, store.Write(ctx, "h", second))

	got, ok, err := store.Get(ctx, "h")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1.0, got.Fun)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fitcache.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Write(ctx, "abc", sampleResult("abc")))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", got.Hash)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore("unused.db")
	_, _, err := store.Get(context.Background(), "x")
	require.Error(t, err)
	require.Error(t, store.Write(context.Background(), "x", sampleResult("x")))
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	require.Error(t, store.Init(context.Background()))
}

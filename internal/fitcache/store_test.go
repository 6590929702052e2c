package fitcache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"svjfit/internal/model"
)

func sampleResult(hash string) model.FitResult {
	return model.FitResult{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		X:               []float64{1.5, -2.5},
		Fun:             3.25,
		Success:         true,
		XInit:           []float64{1, 1},
		Expression:      "(pow(@0, @1))",
		Hash:            hash,
		Method:          "BFGS",
		FuncEvals:       42,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	want := sampleResult("abc")
	require.NoError(t, store.Write(ctx, "abc", want))

	got, ok, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

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

func TestCacheNilReceiver(t *testing.T) {
	ctx := context.Background()
	var c *Cache
	_, ok, err := c.Get(ctx, "x")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Write(ctx, "x", sampleResult("x")))
}

func TestCacheWithLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	c := New(store, &sync.Mutex{})

	want := sampleResult("locked")
	require.NoError(t, c.Write(ctx, "locked", want))
	got, ok, err := c.Get(ctx, "locked")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = NewStore("bogus", "")
	require.Error(t, err)
}

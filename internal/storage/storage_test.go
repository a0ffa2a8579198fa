package storage_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlefevre/storefront/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := storage.Open(path, testLogger())
	require.NoError(t, err)

	t.Run("missing key reports not ok", func(t *testing.T) {
		_, ok := store.Get("nope")
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(storage.KeyCart, `[{"product_id":"p1"}]`))

		value, ok := store.Get(storage.KeyCart)
		assert.True(t, ok)
		assert.Equal(t, `[{"product_id":"p1"}]`, value)
	})

	t.Run("set overwrites under the same canonical key", func(t *testing.T) {
		require.NoError(t, store.Set(storage.KeySession, "one"))
		require.NoError(t, store.Set(storage.KeySession, "two"))

		value, ok := store.Get(storage.KeySession)
		assert.True(t, ok)
		assert.Equal(t, "two", value)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		require.NoError(t, store.Set("tmp", "v"))
		require.NoError(t, store.Delete("tmp"))

		_, ok := store.Get("tmp")
		assert.False(t, ok)
	})

	t.Run("deleting a missing key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete("never-existed"))
	})

	t.Run("values survive reopening the file", func(t *testing.T) {
		reopened, err := storage.Open(path, testLogger())
		require.NoError(t, err)

		value, ok := reopened.Get(storage.KeyCart)
		assert.True(t, ok)
		assert.Equal(t, `[{"product_id":"p1"}]`, value)
	})
}

func TestOpenOrFallback(t *testing.T) {
	t.Run("falls back to memory when the path is unusable", func(t *testing.T) {
		store := storage.OpenOrFallback("", testLogger())

		// Degraded mode still works, just without durability.
		assert.NoError(t, store.Set("k", "v"))
		value, ok := store.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", value)
	})

	t.Run("uses sqlite when the path is good", func(t *testing.T) {
		store := storage.OpenOrFallback(filepath.Join(t.TempDir(), "ok.db"), testLogger())

		_, isSQLite := store.(*storage.SQLiteStore)
		assert.True(t, isSQLite)
	})
}

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemory()

	require.NoError(t, store.Set("a", "1"))

	value, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	require.NoError(t, store.Delete("a"))
	_, ok = store.Get("a")
	assert.False(t, ok)
}

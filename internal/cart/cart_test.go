package cart_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlefevre/storefront/internal/cart"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/money"
	"github.com/mlefevre/storefront/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProduct(id string, price float64) models.Product {
	return models.Product{ID: id, Name: "Product " + id, Price: price}
}

func TestAdd(t *testing.T) {
	state := storage.NewMemory()
	store := cart.NewStore(state, testLogger())

	t.Run("captures the displayed price at add time", func(t *testing.T) {
		store.Add(testProduct("p1", 19.99))

		items := store.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "p1", items[0].ProductID)
		assert.InDelta(t, 19.99, items[0].UnitPrice, 1e-9)
	})

	t.Run("no de-duplication, same product twice yields two lines", func(t *testing.T) {
		store.Add(testProduct("p1", 19.99))

		assert.Equal(t, 2, store.Len())
	})

	t.Run("persists after every mutation", func(t *testing.T) {
		raw, ok := state.Get(storage.KeyCart)
		require.True(t, ok)

		var persisted []models.CartLine
		require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
		assert.Len(t, persisted, 2)
	})
}

func TestRemove(t *testing.T) {
	store := cart.NewStore(storage.NewMemory(), testLogger())
	store.Add(testProduct("p1", 10))
	store.Add(testProduct("p2", 20))
	store.Add(testProduct("p3", 30))

	t.Run("removes by index", func(t *testing.T) {
		store.Remove(0)

		items := store.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "p2", items[0].ProductID)
	})

	t.Run("rapid repeated dispatch is safe against stale indexes", func(t *testing.T) {
		// Second removal reuses index 0 after the first shifted the
		// slice; it targets whatever is there now and must not panic.
		store.Remove(0)

		assert.Equal(t, 1, store.Len())
		assert.Equal(t, "p3", store.Items()[0].ProductID)
	})

	t.Run("out-of-bounds index is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() {
			store.Remove(99)
			store.Remove(-1)
		})
		assert.Equal(t, 1, store.Len())
	})
}

func TestClear(t *testing.T) {
	state := storage.NewMemory()
	store := cart.NewStore(state, testLogger())
	store.Add(testProduct("p1", 10))

	store.Clear()

	assert.Zero(t, store.Len())
	assert.InDelta(t, 0, store.Total(), 1e-9)

	_, ok := state.Get(storage.KeyCart)
	assert.False(t, ok, "persisted copy must be erased")
}

func TestTotal(t *testing.T) {
	store := cart.NewStore(storage.NewMemory(), testLogger())

	t.Run("sum of remaining lines after adds and removes", func(t *testing.T) {
		store.Add(testProduct("p1", 19.99))
		store.Add(testProduct("p2", 149.99))
		store.Add(testProduct("p3", 5.50))
		store.Remove(2)

		assert.Equal(t, "169.98", money.Format(store.Total()))
	})

	t.Run("rounding happens at read time only", func(t *testing.T) {
		// The same internal total renders identically across re-reads.
		assert.Equal(t, money.Format(store.Total()), money.Format(store.Total()))
	})
}

func TestRestore(t *testing.T) {
	t.Run("restores persisted lines across store lifetimes", func(t *testing.T) {
		state := storage.NewMemory()

		first := cart.NewStore(state, testLogger())
		first.Add(testProduct("p1", 19.99))
		first.Add(testProduct("p2", 149.99))

		second := cart.NewStore(state, testLogger())
		assert.Equal(t, 2, second.Len())
		assert.Equal(t, "169.98", money.Format(second.Total()))
	})

	t.Run("corrupted persisted record yields an empty cart", func(t *testing.T) {
		state := storage.NewMemory()
		require.NoError(t, state.Set(storage.KeyCart, `{"definitely": "not a cart`))

		var store *cart.Store
		assert.NotPanics(t, func() {
			store = cart.NewStore(state, testLogger())
		})
		assert.Zero(t, store.Len())
	})

	t.Run("absent record yields an empty cart", func(t *testing.T) {
		store := cart.NewStore(storage.NewMemory(), testLogger())
		assert.Zero(t, store.Len())
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlefevre/storefront/internal/cart"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/storage"
	"github.com/mlefevre/storefront/internal/utils/response"
)

func newCartHandler(t *testing.T) (*CartHandler, *cart.Store) {
	t.Helper()

	store := cart.NewStore(storage.NewMemory(), testLogger())

	return NewCartHandler(store), store
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func TestCartHandler_AddItem(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, store := newCartHandler(t)

		body := `{"id":"p1","name":"Mechanical Keyboard","price":149.99}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.AddItem()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Success - same product twice keeps two lines", func(t *testing.T) {
		handler, store := newCartHandler(t)

		for i := 0; i < 2; i++ {
			body := `{"id":"p1","name":"Mechanical Keyboard","price":149.99}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
			rec := httptest.NewRecorder()

			handler.AddItem()(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		assert.Equal(t, 2, store.Len())
	})

	t.Run("Failure - malformed body", func(t *testing.T) {
		handler, store := newCartHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		handler.AddItem()(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, store.Len())
	})
}

func TestCartHandler_GetCart(t *testing.T) {
	t.Run("Success - total formatted with two decimals", func(t *testing.T) {
		handler, store := newCartHandler(t)
		store.Add(models.Product{ID: "p1", Name: "Mechanical Keyboard", Price: 149.99})
		store.Add(models.Product{ID: "p2", Name: "Mouse Pad", Price: 19.99})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		handler.GetCart()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data cartView `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "169.98", resp.Data.Total)
		assert.Len(t, resp.Data.Items, 2)
	})
}

func TestCartHandler_RemoveItem(t *testing.T) {
	mux := func(handler *CartHandler) *http.ServeMux {
		m := http.NewServeMux()
		m.HandleFunc("DELETE /api/v1/cart/items/{index}", handler.RemoveItem())

		return m
	}

	t.Run("Success", func(t *testing.T) {
		handler, store := newCartHandler(t)
		store.Add(models.Product{ID: "p1", Name: "Mechanical Keyboard", Price: 149.99})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/0", nil)
		rec := httptest.NewRecorder()

		mux(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Success - stale index is a no-op", func(t *testing.T) {
		handler, store := newCartHandler(t)
		store.Add(models.Product{ID: "p1", Name: "Mechanical Keyboard", Price: 149.99})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/5", nil)
		rec := httptest.NewRecorder()

		mux(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Failure - index is not a number", func(t *testing.T) {
		handler, _ := newCartHandler(t)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/abc", nil)
		rec := httptest.NewRecorder()

		mux(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCartHandler_ClearCart(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, store := newCartHandler(t)
		store.Add(models.Product{ID: "p1", Name: "Mechanical Keyboard", Price: 149.99})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		handler.ClearCart()(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.Len())
	})
}

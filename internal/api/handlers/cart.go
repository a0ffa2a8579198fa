package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mlefevre/storefront/internal/api/middleware"
	"github.com/mlefevre/storefront/internal/cart"
	apperrors "github.com/mlefevre/storefront/internal/errors"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/money"
	"github.com/mlefevre/storefront/internal/utils"
	"github.com/mlefevre/storefront/internal/utils/response"
)

type CartHandler struct {
	cart      *cart.Store
	validator *validator.Validate
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{
		cart:      store,
		validator: validator.New(),
	}
}

type cartView struct {
	Items []models.CartLine `json:"items"`
	Total string            `json:"total"`
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, cartView{
			Items: h.cart.Items(),
			Total: money.Format(h.cart.Total()),
		})
	}
}

// AddItem appends the product as the user saw it; the displayed price is
// the captured price.
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var product models.Product
		if !utils.ParseAndValidate(r, w, &product, h.validator) {
			return
		}

		h.cart.Add(product)

		logger.Info("Item added to cart", slog.String("product_id", product.ID))
		response.Success(w, http.StatusOK, cartView{
			Items: h.cart.Items(),
			Total: money.Format(h.cart.Total()),
		})
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.PathValue("index"))
		if err != nil {
			response.Error(w, apperrors.BadRequestError("Index must be a number"))

			return
		}

		// A stale index is a no-op inside the store, not an error here.
		h.cart.Remove(index)

		response.Success(w, http.StatusOK, cartView{
			Items: h.cart.Items(),
			Total: money.Format(h.cart.Total()),
		})
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.cart.Clear()

		response.Success(w, http.StatusOK, cartView{
			Items: h.cart.Items(),
			Total: money.Format(0),
		})
	}
}

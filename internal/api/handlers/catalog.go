package handlers

import (
	"net/http"

	"github.com/mlefevre/storefront/internal/utils/response"
	"github.com/mlefevre/storefront/pkg/commerce"
)

type CatalogHandler struct {
	gateway commerce.Client
}

func NewCatalogHandler(gateway commerce.Client) *CatalogHandler {
	return &CatalogHandler{gateway: gateway}
}

func (h *CatalogHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.gateway.ListProducts(r.Context())
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, products)
	}
}

func (h *CatalogHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.gateway.GetProduct(r.Context(), r.PathValue("id"))
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

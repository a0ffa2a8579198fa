package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mlefevre/storefront/internal/errors"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/session"
	"github.com/mlefevre/storefront/internal/utils"
	"github.com/mlefevre/storefront/internal/utils/response"
	"github.com/mlefevre/storefront/pkg/commerce"
)

// AdminHandler is pass-through glue to the admin endpoints of the remote
// API, gated on the session role. No client-side state is involved.
type AdminHandler struct {
	gateway   commerce.Client
	session   *session.Manager
	validator *validator.Validate
}

func NewAdminHandler(gateway commerce.Client, sess *session.Manager) *AdminHandler {
	return &AdminHandler{
		gateway:   gateway,
		session:   sess,
		validator: validator.New(),
	}
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter) bool {
	if h.session.Role() != models.RoleAdmin {
		response.Error(w, apperrors.ForbiddenError("Admin role required"))

		return false
	}

	return true
}

func (h *AdminHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		orders, err := h.gateway.ListOrders(r.Context())
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

func (h *AdminHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if err := h.gateway.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

func (h *AdminHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		var input models.ProductInput
		if !utils.ParseAndValidate(r, w, &input, h.validator) {
			return
		}

		product, err := h.gateway.CreateProduct(r.Context(), input)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, product)
	}
}

func (h *AdminHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		var input models.ProductInput
		if !utils.ParseAndValidate(r, w, &input, h.validator) {
			return
		}

		product, err := h.gateway.UpdateProduct(r.Context(), r.PathValue("id"), input)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *AdminHandler) DeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		if err := h.gateway.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (h *AdminHandler) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		users, err := h.gateway.ListUsers(r.Context())
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, users)
	}
}

func (h *AdminHandler) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w) {
			return
		}

		if err := h.gateway.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

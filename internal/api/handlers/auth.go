package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mlefevre/storefront/internal/api/middleware"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/session"
	"github.com/mlefevre/storefront/internal/utils"
	"github.com/mlefevre/storefront/internal/utils/response"
	"github.com/mlefevre/storefront/pkg/commerce"
)

type AuthHandler struct {
	gateway   commerce.Client
	session   *session.Manager
	validator *validator.Validate
}

func NewAuthHandler(gateway commerce.Client, sess *session.Manager) *AuthHandler {
	return &AuthHandler{
		gateway:   gateway,
		session:   sess,
		validator: validator.New(),
	}
}

func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.gateway.Login(r.Context(), req)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.session.SetToken(resp.Token)
		h.session.SetUser(resp.User)

		logger.Info("User logged in", slog.String("role", string(h.session.Role())))
		response.Success(w, http.StatusOK, map[string]any{
			"role": h.session.Role(),
			"user": resp.User,
		})
	}
}

func (h *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.gateway.Register(r.Context(), req)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.session.SetToken(resp.Token)
		h.session.SetUser(resp.User)

		logger.Info("User registered")
		response.Success(w, http.StatusCreated, map[string]any{
			"role": h.session.Role(),
			"user": resp.User,
		})
	}
}

func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.session.Logout()
		response.Success(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

func (h *AuthHandler) Session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, map[string]any{
			"authenticated": h.session.Authenticated(),
			"role":          h.session.Role(),
			"user":          h.session.User(),
		})
	}
}

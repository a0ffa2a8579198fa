package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mlefevre/storefront/internal/api/middleware"
	"github.com/mlefevre/storefront/internal/cart"
	"github.com/mlefevre/storefront/internal/checkout"
	apperrors "github.com/mlefevre/storefront/internal/errors"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/session"
	"github.com/mlefevre/storefront/internal/utils"
	"github.com/mlefevre/storefront/internal/utils/response"
	"github.com/mlefevre/storefront/pkg/commerce"
)

// CheckoutHandler owns the single in-progress checkout draft of this
// client session. Navigating away (Cancel) discards it entirely; nothing
// of the draft is persisted.
type CheckoutHandler struct {
	mu      sync.Mutex
	machine *checkout.Machine

	cart      *cart.Store
	session   *session.Manager
	gateway   commerce.Client
	validator *validator.Validate
	log       *slog.Logger
}

func NewCheckoutHandler(store *cart.Store, sess *session.Manager, gateway commerce.Client, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		cart:      store,
		session:   sess,
		gateway:   gateway,
		validator: validator.New(),
		log:       log,
	}
}

func (h *CheckoutHandler) current() (*checkout.Machine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.machine == nil {
		return nil, apperrors.NotFoundError("No checkout in progress")
	}

	return h.machine, nil
}

type checkoutView struct {
	Step            models.Step             `json:"step"`
	Address         models.Address          `json:"address"`
	ShippingMethod  models.ShippingMethod   `json:"shipping_method"`
	ShippingMethods []models.ShippingMethod `json:"shipping_methods"`
	OrderTotal      string                  `json:"order_total"`
	FieldErrors     map[string]string       `json:"field_errors,omitempty"`
	Completed       bool                    `json:"completed"`
}

func viewOf(m *checkout.Machine) checkoutView {
	return checkoutView{
		Step:            m.Step(),
		Address:         m.Address(),
		ShippingMethod:  m.ShippingMethod(),
		ShippingMethods: checkout.ShippingMethods(),
		OrderTotal:      m.FormattedTotal(),
		FieldErrors:     m.FieldErrors(),
		Completed:       m.Completed(),
	}
}

func (h *CheckoutHandler) Begin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		machine, err := checkout.Begin(h.cart, h.session, h.gateway, h.log)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.mu.Lock()
		h.machine = machine
		h.mu.Unlock()

		logger.Info("Checkout started")
		response.Success(w, http.StatusCreated, viewOf(machine))
	}
}

func (h *CheckoutHandler) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

// Cancel models navigation away: the draft is discarded, the cart and
// session are untouched.
func (h *CheckoutHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.machine = nil
		h.mu.Unlock()

		response.Success(w, http.StatusOK, map[string]string{"status": "discarded"})
	}
}

func (h *CheckoutHandler) SetAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		var address models.Address
		if err := utils.DecodeJSONBody(r, &address); err != nil {
			response.Error(w, apperrors.BadRequestError("Invalid request body").WithError(err))

			return
		}

		machine.SetAddress(address)
		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

func (h *CheckoutHandler) SetShippingMethod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		var req struct {
			Code string `json:"code" validate:"required"`
		}
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if err := machine.SetShippingMethod(req.Code); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

func (h *CheckoutHandler) SetPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		var payment models.PaymentInput
		if err := utils.DecodeJSONBody(r, &payment); err != nil {
			response.Error(w, apperrors.BadRequestError("Invalid request body").WithError(err))

			return
		}

		machine.SetPaymentInput(payment)
		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

func (h *CheckoutHandler) Next() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		if err := machine.Next(); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

func (h *CheckoutHandler) Back() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		if err := machine.Back(); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, viewOf(machine))
	}
}

func (h *CheckoutHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		machine, err := h.current()
		if err != nil {
			response.Error(w, err)

			return
		}

		receipt, err := machine.Submit(r.Context())
		if err != nil {
			response.Error(w, err)

			return
		}

		// Successful submission exits the flow.
		h.mu.Lock()
		h.machine = nil
		h.mu.Unlock()

		logger.Info("Order placed", slog.String("order_id", receipt.ID))
		response.Success(w, http.StatusCreated, receipt)
	}
}

// Package checkout drives the order assembly flow: Address -> Shipping
// -> Payment, then a single submission to the remote API. Forward
// transitions require the current step to validate; going back is always
// allowed and never discards entered data.
package checkout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mlefevre/storefront/internal/cart"
	apperrors "github.com/mlefevre/storefront/internal/errors"
	"github.com/mlefevre/storefront/internal/metrics"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/money"
	"github.com/mlefevre/storefront/internal/session"
	"github.com/mlefevre/storefront/internal/validation"
)

// OrderSubmitter is the slice of the commerce gateway the machine needs.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order models.Order) (*models.OrderReceipt, error)
}

// The shipping catalog is fixed client-side; the chosen method travels
// inside the order payload. Standard is pre-selected so the Shipping
// step can never block on missing data.
var shippingMethods = []models.ShippingMethod{
	{Code: "standard", Name: "Standard", Price: 0, EstimatedDays: 5},
	{Code: "relay", Name: "Relay Pickup", Price: 4.99, EstimatedDays: 3},
	{Code: "express", Name: "Express", Price: 12.99, EstimatedDays: 1},
}

// ShippingMethods returns a copy of the selectable set.
func ShippingMethods() []models.ShippingMethod {
	methods := make([]models.ShippingMethod, len(shippingMethods))
	copy(methods, shippingMethods)

	return methods
}

// ShippingMethodByCode resolves a method from the fixed set.
func ShippingMethodByCode(code string) (models.ShippingMethod, bool) {
	for _, m := range shippingMethods {
		if m.Code == code {
			return m, true
		}
	}

	return models.ShippingMethod{}, false
}

// Machine is one in-progress checkout. It reads the cart and session but
// owns only its own draft fields; it is discarded on navigation away and
// never partially persisted.
type Machine struct {
	mu         sync.Mutex
	step       models.Step
	address    models.Address
	shipping   models.ShippingMethod
	payment    models.PaymentInput
	fieldErrs  map[string]string
	submitting bool
	completed  bool

	cart      *cart.Store
	session   *session.Manager
	gateway   OrderSubmitter
	validator *validation.Validator
	log       *slog.Logger
}

// Begin starts a checkout. It requires an authenticated session and a
// non-empty cart; callers redirect to login on ErrCodeUnauthorized.
func Begin(c *cart.Store, s *session.Manager, gw OrderSubmitter, log *slog.Logger) (*Machine, error) {
	if !s.Authenticated() {
		return nil, apperrors.UnauthorizedError("Checkout requires a signed-in session")
	}

	if c.Len() == 0 {
		return nil, apperrors.BadRequestError("Cart is empty")
	}

	return &Machine{
		step:      models.StepAddress,
		shipping:  shippingMethods[0],
		cart:      c,
		session:   s,
		gateway:   gw,
		validator: validation.New(),
		log:       log,
	}, nil
}

func (m *Machine) Step() models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.step
}

func (m *Machine) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.completed
}

func (m *Machine) Address() models.Address {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.address
}

func (m *Machine) ShippingMethod() models.ShippingMethod {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.shipping
}

// PaymentInput returns the in-memory payment draft so a failed
// submission can be retried without re-typing.
func (m *Machine) PaymentInput() models.PaymentInput {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.payment
}

// FieldErrors is the validation failure of the most recent rejected
// transition or submission, keyed by field.
func (m *Machine) FieldErrors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.fieldErrs))
	for k, v := range m.fieldErrs {
		out[k] = v
	}

	return out
}

func (m *Machine) SetAddress(a models.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.PostalCode = validation.FilterPostalCode(a.PostalCode)
	m.address = a
}

func (m *Machine) SetShippingMethod(code string) error {
	method, ok := ShippingMethodByCode(code)
	if !ok {
		return apperrors.BadRequestError("Unknown shipping method").WithDetail(code)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.shipping = method

	return nil
}

// SetPaymentInput records the payment draft, applying the same
// formatting the form applies while typing.
func (m *Machine) SetPaymentInput(p models.PaymentInput) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.CardNumber = validation.FormatCardNumber(p.CardNumber)
	p.Expiry = validation.FormatExpiry(p.Expiry)
	p.CVV = validation.FilterCVV(p.CVV)
	m.payment = p
}

// Next advances one step forward once the current step validates. A
// rejected transition leaves the machine where it is, with field errors
// set and nothing committed.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.completed {
		return apperrors.ConflictError("Checkout already completed")
	}

	switch m.step {
	case models.StepAddress:
		if fields := m.validator.Address(&m.address); len(fields) > 0 {
			m.fieldErrs = fields

			return apperrors.ValidationError("Address is incomplete").WithFields(fields)
		}

		m.fieldErrs = nil
		m.step = models.StepShipping

		return nil
	case models.StepShipping:
		// A default method is pre-selected, so this cannot block.
		m.fieldErrs = nil
		m.step = models.StepPayment

		return nil
	default:
		return apperrors.BadRequestError("Payment step is submitted, not advanced")
	}
}

// Back always succeeds from Shipping and Payment and preserves every
// entered value.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.completed {
		return apperrors.ConflictError("Checkout already completed")
	}

	switch m.step {
	case models.StepShipping:
		m.step = models.StepAddress
	case models.StepPayment:
		m.step = models.StepShipping
	default:
		return apperrors.BadRequestError("Already at the first step")
	}

	return nil
}

// OrderTotal is cart total plus shipping, unrounded. Rounding happens at
// the display boundary and on the submitted payload.
func (m *Machine) OrderTotal() float64 {
	m.mu.Lock()
	shipping := m.shipping.Price
	m.mu.Unlock()

	return money.Sum(m.cart.Total(), shipping)
}

// FormattedTotal is the two-decimal display form of OrderTotal.
func (m *Machine) FormattedTotal() string {
	return money.Format(m.OrderTotal())
}

var errSubmitInFlight = apperrors.ConflictError("A submission is already in progress")

// Submit validates the payment step, assembles the order payload from
// the live cart snapshot and performs the remote submission exactly once
// per attempt. While a call is outstanding, further submits are rejected
// without reaching the gateway. On success the cart is cleared and the
// machine becomes terminal; on failure every entered value is kept and
// the machine stays on Payment.
func (m *Machine) Submit(ctx context.Context) (*models.OrderReceipt, error) {
	m.mu.Lock()

	if m.completed {
		m.mu.Unlock()

		return nil, apperrors.ConflictError("Checkout already completed")
	}

	if m.submitting {
		m.mu.Unlock()

		return nil, errSubmitInFlight
	}

	if m.step != models.StepPayment {
		m.mu.Unlock()

		return nil, apperrors.BadRequestError("Submission is only allowed from the payment step")
	}

	if fields := m.validator.Payment(&m.payment); len(fields) > 0 {
		m.fieldErrs = fields
		m.mu.Unlock()

		return nil, apperrors.ValidationError("Payment details are invalid").WithFields(fields)
	}

	m.fieldErrs = nil
	m.submitting = true
	address := m.address
	shipping := m.shipping
	m.mu.Unlock()

	lines := m.cart.Items()
	if len(lines) == 0 {
		m.finishAttempt()

		return nil, apperrors.BadRequestError("Cart is empty")
	}

	order := models.Order{
		Cart:           lines,
		Total:          money.Round(money.Sum(m.cart.Total(), shipping.Price)),
		Address:        address,
		ShippingMethod: shipping,
	}

	attemptID := uuid.NewString()
	m.log.Info("submitting order",
		slog.String("attempt_id", attemptID),
		slog.Int("lines", len(lines)),
		slog.Float64("total", order.Total))

	receipt, err := m.gateway.SubmitOrder(ctx, order)
	if err != nil {
		m.finishAttempt()
		metrics.CountSubmission("failure")
		m.log.Warn("order submission failed",
			slog.String("attempt_id", attemptID),
			slog.String("error", err.Error()))

		return nil, err
	}

	m.mu.Lock()
	m.submitting = false
	m.completed = true
	m.payment = models.PaymentInput{}
	m.mu.Unlock()

	m.cart.Clear()
	metrics.CountSubmission("success")
	m.log.Info("order confirmed",
		slog.String("attempt_id", attemptID),
		slog.String("order_id", receipt.ID))

	return receipt, nil
}

func (m *Machine) finishAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitting = false
}

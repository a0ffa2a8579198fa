// Package commerce is the client for the remote commerce API: catalog,
// authentication and order submission, plus the admin pass-through
// calls. The core consumes the Client interface; the HTTP implementation
// attaches the bearer credential on every request and observes
// unauthorized responses so the session can be force-cleared.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/mlefevre/storefront/internal/errors"
	"github.com/mlefevre/storefront/internal/metrics"
	"github.com/mlefevre/storefront/internal/models"
)

// Client defines the operations the storefront core calls on the remote
// API.
type Client interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	SubmitOrder(ctx context.Context, order models.Order) (*models.OrderReceipt, error)

	// Admin pass-through, no client-side state involved.
	ListOrders(ctx context.Context) ([]models.RemoteOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TokenSource supplies the current bearer token; an empty string means
// no credential is attached.
type TokenSource interface {
	Token() string
}

type Option func(*httpClient)

// WithUnauthorizedHook registers the callback invoked whenever the API
// signals the credential is no longer valid.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *httpClient) {
		c.onUnauthorized = fn
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	sanitizer      *bluemonday.Policy
	log            *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *slog.Logger, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:    tokens,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *httpClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", "list_products", nil, &products); err != nil {
		return nil, err
	}

	for i := range products {
		c.sanitizeProduct(&products[i])
	}

	return products, nil
}

func (c *httpClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "get_product", nil, &product); err != nil {
		return nil, err
	}

	c.sanitizeProduct(&product)

	return &product, nil
}

func (c *httpClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", "login", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *httpClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", "register", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *httpClient) SubmitOrder(ctx context.Context, order models.Order) (*models.OrderReceipt, error) {
	var receipt models.OrderReceipt
	if err := c.do(ctx, http.MethodPost, "/orders", "submit_order", order, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (c *httpClient) ListOrders(ctx context.Context) ([]models.RemoteOrder, error) {
	var orders []models.RemoteOrder
	if err := c.do(ctx, http.MethodGet, "/admin/orders", "list_orders", nil, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (c *httpClient) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	req := models.UpdateOrderStatusRequest{Status: status}

	return c.do(ctx, http.MethodPut, "/admin/orders/"+url.PathEscape(orderID)+"/status", "update_order_status", req, nil)
}

func (c *httpClient) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodPost, "/admin/products", "create_product", input, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

func (c *httpClient) UpdateProduct(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(id), "update_product", input, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

func (c *httpClient) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), "delete_product", nil, nil)
}

func (c *httpClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", "list_users", nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (c *httpClient) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), "delete_user", nil, nil)
}

// do performs one API round trip: encode, attach credential, decode into
// the typed response or map the error body.
func (c *httpClient) do(ctx context.Context, method, path, operation string, body, out any) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperrors.InternalError("Failed to encode request").WithError(err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.InternalError("Failed to build request").WithError(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveGatewayRequest(operation, 0, time.Since(start))

		return apperrors.GatewayError("Commerce API is unreachable").WithError(err)
	}
	defer resp.Body.Close()

	metrics.ObserveGatewayRequest(operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn("unauthorized response from commerce API", slog.String("operation", operation))

		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}

		return apperrors.UnauthorizedError("Session is no longer valid")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.decodeError(resp, operation)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.GatewayError("Commerce API returned an unexpected payload").WithError(err)
	}

	return nil
}

func (c *httpClient) decodeError(resp *http.Response, operation string) error {
	var apiErr models.APIError

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Commerce API request failed (%d)", resp.StatusCode)
	}

	c.log.Warn("commerce API error",
		slog.String("operation", operation),
		slog.Int("status", resp.StatusCode),
		slog.String("message", apiErr.Message))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFoundError(apiErr.Message)
	case http.StatusForbidden:
		return apperrors.ForbiddenError(apiErr.Message)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		appErr := apperrors.ValidationError(apiErr.Message)
		if len(apiErr.Errors) > 0 {
			fields := make(map[string]string, len(apiErr.Errors))
			for field, msgs := range apiErr.Errors {
				if len(msgs) > 0 {
					fields[field] = msgs[0]
				}
			}

			appErr = appErr.WithFields(fields)
		}

		return appErr
	default:
		return apperrors.GatewayError(apiErr.Message)
	}
}

// sanitizeProduct strips any markup from catalog text before it enters
// client state.
func (c *httpClient) sanitizeProduct(p *models.Product) {
	p.Name = c.sanitizer.Sanitize(p.Name)
	p.Description = c.sanitizer.Sanitize(p.Description)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hellofresh/health-go/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mlefevre/storefront/internal/api/handlers"
	"github.com/mlefevre/storefront/internal/api/middleware"
	"github.com/mlefevre/storefront/internal/cart"
	"github.com/mlefevre/storefront/internal/config"
	"github.com/mlefevre/storefront/internal/metrics"
	"github.com/mlefevre/storefront/internal/session"
	"github.com/mlefevre/storefront/internal/storage"
	"github.com/mlefevre/storefront/pkg/commerce"
)

func main() {
	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup (optional, enabled by OTLP_ENDPOINT)
	if cfg.Tracing.Endpoint != "" {
		shutdown, err := setupTracing(cfg.Tracing.Endpoint)
		if err != nil {
			slog.Warn("tracing disabled", slog.String("error", err.Error()))
		} else {
			defer shutdown()
		}
	}

	// Durable client state; falls back to in-memory when unavailable.
	state := storage.OpenOrFallback(cfg.Storage.Path, logger)

	// Session and cart singletons, restored from the persisted state.
	sessionManager := session.NewManager(state, logger)
	cartStore := cart.NewStore(state, logger)

	// Remote commerce API. An unauthorized response force-clears the
	// session exactly once.
	gateway := commerce.NewClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.Timeout,
		sessionManager,
		logger,
		commerce.WithUnauthorizedHook(sessionManager.Invalidate),
	)

	authHandler := handlers.NewAuthHandler(gateway, sessionManager)
	catalogHandler := handlers.NewCatalogHandler(gateway)
	cartHandler := handlers.NewCartHandler(cartStore)
	checkoutHandler := handlers.NewCheckoutHandler(cartStore, sessionManager, gateway, logger)
	adminHandler := handlers.NewAdminHandler(gateway, sessionManager)

	slog.Info("storefront client initialized",
		slog.String("env", cfg.Env),
		slog.String("api", cfg.Gateway.BaseURL),
		slog.Int("restored_cart_lines", cartStore.Len()))

	healthHandler, err := newHealthHandler(cfg, state)
	if err != nil {
		slog.Error("failed to create health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/auth/login", authHandler.Login())
	routerMux.HandleFunc("POST /api/v1/auth/register", authHandler.Register())
	routerMux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout())
	routerMux.HandleFunc("GET /api/v1/auth/session", authHandler.Session())
	routerMux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{index}", cartHandler.RemoveItem())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/v1/checkout", checkoutHandler.Begin())
	routerMux.HandleFunc("GET /api/v1/checkout", checkoutHandler.State())
	routerMux.HandleFunc("DELETE /api/v1/checkout", checkoutHandler.Cancel())
	routerMux.HandleFunc("PUT /api/v1/checkout/address", checkoutHandler.SetAddress())
	routerMux.HandleFunc("PUT /api/v1/checkout/shipping", checkoutHandler.SetShippingMethod())
	routerMux.HandleFunc("PUT /api/v1/checkout/payment", checkoutHandler.SetPayment())
	routerMux.HandleFunc("POST /api/v1/checkout/next", checkoutHandler.Next())
	routerMux.HandleFunc("POST /api/v1/checkout/back", checkoutHandler.Back())
	routerMux.HandleFunc("POST /api/v1/checkout/submit", checkoutHandler.Submit())
	routerMux.HandleFunc("GET /api/v1/admin/orders", adminHandler.ListOrders())
	routerMux.HandleFunc("PUT /api/v1/admin/orders/{id}/status", adminHandler.UpdateOrderStatus())
	routerMux.HandleFunc("POST /api/v1/admin/products", adminHandler.CreateProduct())
	routerMux.HandleFunc("PUT /api/v1/admin/products/{id}", adminHandler.UpdateProduct())
	routerMux.HandleFunc("DELETE /api/v1/admin/products/{id}", adminHandler.DeleteProduct())
	routerMux.HandleFunc("GET /api/v1/admin/users", adminHandler.ListUsers())
	routerMux.HandleFunc("DELETE /api/v1/admin/users/{id}", adminHandler.DeleteUser())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /healthz", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("storefront is starting", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("server shut down gracefully")
	}
}

func newHealthHandler(cfg *config.Config, state storage.Store) (*health.Health, error) {
	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "storefront",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(
			health.Config{
				Name:      "state-store",
				Timeout:   2 * time.Second,
				SkipOnErr: false,
				Check: func(ctx context.Context) error {
					if err := state.Set("healthcheck", time.Now().UTC().Format(time.RFC3339)); err != nil {
						return fmt.Errorf("state store write failed: %w", err)
					}

					return nil
				},
			},
			health.Config{
				Name:      "commerce-api",
				Timeout:   3 * time.Second,
				SkipOnErr: true,
				Check: func(ctx context.Context) error {
					req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Gateway.BaseURL+"/products", nil)
					if err != nil {
						return err
					}

					resp, err := http.DefaultClient.Do(req)
					if err != nil {
						return fmt.Errorf("commerce API unreachable: %w", err)
					}
					defer resp.Body.Close()

					return nil
				},
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func setupTracing(endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(context.Background(), otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}, nil
}

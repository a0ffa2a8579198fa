package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests to the remote commerce API.",
		},
		[]string{"operation", "code"},
	)
	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of remote commerce API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations.",
		},
		[]string{"op"},
	)

	checkoutSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_submissions_total",
			Help: "Total number of order submission attempts.",
		},
		[]string{"outcome"},
	)

	sessionInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_invalidations_total",
			Help: "Forced logouts triggered by unauthorized responses.",
		},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

func ObserveGatewayRequest(operation string, statusCode int, duration time.Duration) {
	gatewayRequestsTotal.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func CountCartMutation(op string) {
	cartMutationsTotal.WithLabelValues(op).Inc()
}

func CountSubmission(outcome string) {
	checkoutSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func CountSessionInvalidation() {
	sessionInvalidationsTotal.Inc()
}

// Handler exposes the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

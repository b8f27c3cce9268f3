package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	ordersPlaced    *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	gatewayFailures prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed, labeled by payment method.",
	}, []string{"payment_method"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout finalization in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
	gatewayFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_gateway_failures_total",
		Help: "Failed payment source creation attempts.",
	})
	reg.MustRegister(ordersPlaced, duration, gatewayFailures)
	return &CheckoutMetrics{
		ordersPlaced:    ordersPlaced,
		duration:        duration,
		gatewayFailures: gatewayFailures,
	}
}

// IncOrderPlaced increments the placed counter for the given payment method.
func (c *CheckoutMetrics) IncOrderPlaced(method string) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(method)).Inc()
}

// ObserveDuration records the duration for the named checkout path.
func (c *CheckoutMetrics) ObserveDuration(path string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(path)).Observe(duration.Seconds())
}

// IncGatewayFailure increments the gateway failure counter.
func (c *CheckoutMetrics) IncGatewayFailure() {
	if c == nil || c.gatewayFailures == nil {
		return
	}
	c.gatewayFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

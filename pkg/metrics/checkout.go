package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of the checkout and payment flow.
type CheckoutMetrics struct {
	duration        *prometheus.HistogramVec
	ordersCreated   prometheus.Counter
	ordersConfirmed prometheus.Counter
	verifyFailures  prometheus.Counter
	gatewayFailures prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_step_duration_seconds",
		Help:    "Duration of checkout steps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created",
		Help: "Gateway orders successfully created.",
	})
	ordersConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_confirmed",
		Help: "Orders persisted after signature verification.",
	})
	verifyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_signature_failures",
		Help: "Payment callbacks rejected for bad signatures.",
	})
	gatewayFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_gateway_failures",
		Help: "Failed calls to the payment gateway.",
	})
	reg.MustRegister(duration, ordersCreated, ordersConfirmed, verifyFailures, gatewayFailures)
	return &CheckoutMetrics{
		duration:        duration,
		ordersCreated:   ordersCreated,
		ordersConfirmed: ordersConfirmed,
		verifyFailures:  verifyFailures,
		gatewayFailures: gatewayFailures,
	}
}

// ObserveStep records the duration for the named checkout step.
func (c *CheckoutMetrics) ObserveStep(step string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(step)).Observe(duration.Seconds())
}

// IncOrdersCreated increments the gateway order counter.
func (c *CheckoutMetrics) IncOrdersCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncOrdersConfirmed increments the confirmed order counter.
func (c *CheckoutMetrics) IncOrdersConfirmed() {
	if c == nil || c.ordersConfirmed == nil {
		return
	}
	c.ordersConfirmed.Inc()
}

// IncVerifyFailures increments the rejected signature counter.
func (c *CheckoutMetrics) IncVerifyFailures() {
	if c == nil || c.verifyFailures == nil {
		return
	}
	c.verifyFailures.Inc()
}

// IncGatewayFailures increments the gateway failure counter.
func (c *CheckoutMetrics) IncGatewayFailures() {
	if c == nil || c.gatewayFailures == nil {
		return
	}
	c.gatewayFailures.Inc()
}

func normalizeLabel(step string) string {
	if step == "" {
		return "unknown"
	}
	return step
}

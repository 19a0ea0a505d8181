package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// StorefrontMetrics records cart mutations and checkout outcomes.
type StorefrontMetrics struct {
	cartOps          *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by kind and outcome.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartOps, checkouts, duration)
	return &StorefrontMetrics{
		cartOps:          cartOps,
		checkouts:        checkouts,
		checkoutDuration: duration,
	}
}

// ObserveCartOp counts one cart operation.
func (m *StorefrontMetrics) ObserveCartOp(op string, err error) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op), ResultFor(err)).Inc()
}

// ObserveCheckout counts a checkout attempt and records its duration.
func (m *StorefrontMetrics) ObserveCheckout(duration time.Duration, err error) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(ResultFor(err)).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// ResultFor labels an outcome: client-side rejections are kept apart from failures.
func ResultFor(err error) string {
	if err == nil {
		return ResultOK
	}
	if isClientError(err) {
		return ResultRejected
	}
	return ResultError
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}

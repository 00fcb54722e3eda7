package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pharmacy"

// Metrics groups every collector the API and notifier export.
type Metrics struct {
	HTTP          *HTTPMetrics
	Checkout      *CheckoutMetrics
	Orders        *OrderMetrics
	Notifications *NotificationMetrics
}

// New registers all collectors on reg. A nil registerer yields no-op collectors.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTP:          NewHTTPMetrics(reg),
		Checkout:      NewCheckoutMetrics(reg),
		Orders:        NewOrderMetrics(reg),
		Notifications: NewNotificationMetrics(reg),
	}
}

// HTTPMetrics records request counts and latency per route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CheckoutMetrics records checkout outcomes.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of the checkout transaction.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(outcomes, duration)
	return &CheckoutMetrics{outcomes: outcomes, duration: duration}
}

// ObserveCheckout records the outcome label (placed, insufficient_stock, ...) and duration.
func (m *CheckoutMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// OrderMetrics counts admin status transitions.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status transitions by source and target status.",
	}, []string{"from", "to"})
	reg.MustRegister(transitions)
	return &OrderMetrics{transitions: transitions}
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// NotificationMetrics counts notification deliveries per template and result.
type NotificationMetrics struct {
	sent *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification attempts by template and result.",
	}, []string{"template", "result"})
	reg.MustRegister(sent)
	return &NotificationMetrics{sent: sent}
}

func (m *NotificationMetrics) IncSent(template string) {
	m.inc(template, "sent")
}

func (m *NotificationMetrics) IncFailed(template string) {
	m.inc(template, "failed")
}

func (m *NotificationMetrics) IncQueued(template string) {
	m.inc(template, "queued")
}

func (m *NotificationMetrics) inc(template, result string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(template), result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

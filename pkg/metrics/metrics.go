package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Business metrics
	OrdersPlaced    prometheus.Counter
	OrdersPaid      prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersShipped   prometheus.Counter
	OutOfStock      *prometheus.CounterVec

	// Reservation contention metrics
	ReservationConflicts   *prometheus.CounterVec
	ReservationExhaustions *prometheus.CounterVec
	ReservationAttempts    *prometheus.HistogramVec

	// Transaction metrics
	TransactionRetries  prometheus.Counter
	TransactionFailures prometheus.Counter
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "flashmart",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being served",
	})

	m.OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "orders_placed_total",
		Help:      "Total orders successfully placed",
	})

	m.OrdersPaid = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "orders_paid_total",
		Help:      "Total orders paid",
	})

	m.OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "orders_cancelled_total",
		Help:      "Total orders cancelled",
	})

	m.OrdersShipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "orders_shipped_total",
		Help:      "Total orders shipped",
	})

	m.OutOfStock = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "out_of_stock_total",
		Help:      "Order creations rejected for lack of stock, by SKU",
	}, []string{"sku"})

	m.ReservationConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "reservation_conflicts_total",
		Help:      "Optimistic version conflicts hit while reserving, by SKU",
	}, []string{"sku"})

	m.ReservationExhaustions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "reservation_retry_exhaustions_total",
		Help:      "Reservations abandoned after the retry budget, by SKU",
	}, []string{"sku"})

	m.ReservationAttempts = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "reservation_attempts",
		Help:      "Attempts needed to reserve one SKU",
		Buckets:   []float64{1, 2, 3},
	}, []string{"sku"})

	m.TransactionRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "transaction_retries_total",
		Help:      "Unit-of-work retries after transient storage faults",
	})

	m.TransactionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "transaction_failures_total",
		Help:      "Units of work that failed after all retries",
	})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.OrdersPlaced,
		m.OrdersPaid,
		m.OrdersCancelled,
		m.OrdersShipped,
		m.OutOfStock,
		m.ReservationConflicts,
		m.ReservationExhaustions,
		m.ReservationAttempts,
		m.TransactionRetries,
		m.TransactionFailures,
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordReservationOutcome records how many optimistic attempts a ledger
// mutation consumed, whatever the outcome. Mutations that fail before their
// first save attempt are not recorded.
func (m *Metrics) RecordReservationOutcome(sku string, attempts int) {
	m.ReservationAttempts.WithLabelValues(sku).Observe(float64(attempts))
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

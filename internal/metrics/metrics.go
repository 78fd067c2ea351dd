package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketplace",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by payment step and outcome.",
		},
		[]string{"step", "outcome"},
	)

	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Sign-in, refresh and sign-out events by outcome.",
		},
		[]string{"event", "outcome"},
	)

	sweeperDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "sweeper",
			Name:      "deleted_rows_total",
			Help:      "Rows removed by the background sweeper.",
		},
		[]string{"table"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		checkouts,
		authEvents,
		sweeperDeleted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordRequest records one finished HTTP request. route is the registered
// pattern, not the raw path.
func RecordRequest(method, route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCheckout counts a checkout step ("cash", "card_initiate",
// "card_verify") by outcome.
func RecordCheckout(step string, err error) {
	checkouts.WithLabelValues(step, outcome(err)).Inc()
}

func RecordAuth(event string, err error) {
	authEvents.WithLabelValues(event, outcome(err)).Inc()
}

func RecordSweep(table string, deleted int64) {
	if deleted > 0 {
		sweeperDeleted.WithLabelValues(table).Add(float64(deleted))
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

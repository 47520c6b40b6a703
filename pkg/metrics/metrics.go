package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Buckets sized for interactive auth calls: a few milliseconds on a LAN up to a hung mobile link
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34}

	// Auth API client metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authflow_api_request_duration_seconds",
			Help:    "Auth API request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	APIRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authflow_api_request_total",
			Help: "Total number of auth API requests",
		},
		[]string{"operation", "status"},
	)

	// Session container metrics
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authflow_session_operations_total",
			Help: "Total number of session operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Navigation metrics
	NavigationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authflow_navigation_transitions_total",
			Help: "Total number of screen transitions",
		},
		[]string{"from", "to"},
	)

	// Dev server HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Dev server business metrics
	OneTimeCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authflow_devserver_codes_issued_total",
			Help: "Total number of one-time codes issued",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authflow_devserver_login_attempts_total",
			Help: "Total number of login and code verification attempts",
		},
		[]string{"step", "status"},
	)
)

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

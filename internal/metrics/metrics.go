package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the `result` label of EmployeeOperations.
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds the various metrics used for monitoring the application.
// It includes a histogram of database query durations, a counter of service
// operations by outcome, and the HTTP request counter and latency histogram.
type Metrics struct {
	DBQueryDuration     *prometheus.HistogramVec
	EmployeeOperations  *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with the provided Registerer.
//
// Parameters:
//   - reg: A prometheus.Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'find_employee_by_id', 'upsert_employee'
		EmployeeOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_operations_total",
			Help: "Total number of employee service operations by outcome.",
		}, []string{"operation", "result"}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_http_requests_total",
			Help: "Total number of handled HTTP requests.",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	return metrics
}

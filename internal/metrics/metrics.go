package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CodeCollisionsTotal counts asset codes found already taken in a location.
	CodeCollisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_code_collisions_total",
			Help: "Total number of asset code collisions by suggestion kind",
		},
		[]string{"kind"},
	)

	// TransfersTotal counts transfer workflow outcomes: committed, rejected,
	// cancelled, and collisions reported to the operator.
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_transfers_total",
			Help: "Total number of asset transfer workflows by outcome",
		},
		[]string{"outcome"},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_validation_failures_total",
			Help: "Total number of asset records rejected by validation by operation",
		},
		[]string{"operation"},
	)

	AuditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_audit_entries_total",
			Help: "Total number of change audit entries written by field",
		},
		[]string{"field"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			RequestTotal,
			CodeCollisionsTotal,
			TransfersTotal,
			ValidationFailuresTotal,
			AuditEntriesTotal,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncCodeCollisions(kind string) {
	CodeCollisionsTotal.WithLabelValues(kind).Inc()
}

func IncTransfers(outcome string) {
	TransfersTotal.WithLabelValues(outcome).Inc()
}

func IncValidationFailures(operation string) {
	ValidationFailuresTotal.WithLabelValues(operation).Inc()
}

// AddAuditEntries counts one entry per field name.
func AddAuditEntries(fields ...string) {
	for _, field := range fields {
		field = auditFieldLabel(field)
		AuditEntriesTotal.WithLabelValues(field).Inc()
	}
}

// auditFieldLabel collapses dynamic field names to keep label cardinality bounded.
func auditFieldLabel(field string) string {
	if len(field) > 7 && field[:7] == "fields." {
		return "fields"
	}
	return field
}

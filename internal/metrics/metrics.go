package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediacms_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediacms_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediacms_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediacms_db_query_duration_seconds",
			Help:    "Duration of SurrealDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_db_query_errors_total",
			Help: "Total number of SurrealDB query errors",
		},
		[]string{"operation", "error_type"},
	)

	// Migration Metrics
	MigrationsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_migrations_total",
			Help: "Total number of schema migrations run by direction and outcome",
		},
		[]string{"direction", "result"},
	)

	TechniqueMediaRemapped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_technique_media_remapped_total",
			Help: "Technique media rows handled by the technique data migration",
		},
		[]string{"outcome"}, // "remapped", "orphaned"
	)

	// Technique taxonomy
	TechniqueMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_technique_mutations_total",
			Help: "Total number of technique tree mutations by kind",
		},
		[]string{"kind"}, // "category_created", "technique_deleted", "media_added", "media_removed"
	)

	TreeChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_technique_tree_checks_total",
			Help: "Total number of nested-set consistency checks by outcome",
		},
		[]string{"result"}, // "healthy", "drifted", "repaired", "error"
	)

	TreeDriftedNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediacms_technique_tree_drifted_nodes",
			Help: "Techniques whose stored nested-set fields differed at the last check",
		},
	)

	// Authorization
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediacms_authz_decisions_total",
			Help: "Total number of authorization decisions by object and result",
		},
		[]string{"object", "result"}, // result: "allowed", "denied", "error"
	)
)

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordRateLimitRejection counts a request refused by the rate limiter
func RecordRateLimitRejection() {
	RateLimitRejections.Inc()
}

// RecordDBQuery records the duration and outcome of a database round trip.
// The operation label is the leading SurrealQL keyword of the query.
func RecordDBQuery(query string, duration time.Duration, err error) {
	op := QueryOperation(query)
	DBQueryDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(op, errorType).Inc()
	}
}

// QueryOperation returns the upper-cased first keyword of a query. Batched
// transactions report as "TRANSACTION".
func QueryOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	op := strings.ToUpper(strings.TrimSuffix(fields[0], ";"))
	if op == "BEGIN" {
		return "TRANSACTION"
	}
	return op
}

// RecordMigration records one migration step
func RecordMigration(direction string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MigrationsApplied.WithLabelValues(direction, result).Inc()
}

// RecordTechniqueRemap records the outcome counts of the technique data migration
func RecordTechniqueRemap(remapped, orphaned int) {
	TechniqueMediaRemapped.WithLabelValues("remapped").Add(float64(remapped))
	TechniqueMediaRemapped.WithLabelValues("orphaned").Add(float64(orphaned))
}

// RecordTechniqueMutation counts a change to the technique tree
func RecordTechniqueMutation(kind string) {
	TechniqueMutations.WithLabelValues(kind).Inc()
}

// RecordTreeCheck records one nested-set consistency check
func RecordTreeCheck(drifted int, repaired bool, err error) {
	result := "healthy"
	switch {
	case err != nil:
		TreeChecks.WithLabelValues("error").Inc()
		return
	case repaired:
		result = "repaired"
	case drifted > 0:
		result = "drifted"
	}
	TreeChecks.WithLabelValues(result).Inc()
	TreeDriftedNodes.Set(float64(drifted))
}

// RecordAuthzDecision counts one policy decision
func RecordAuthzDecision(object string, allowed bool, err error) {
	result := "denied"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(object, result).Inc()
}

// Handler serves the default registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chenil_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MutationsTotal counts accepted directory mutations by entity, operation, and actor kind.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_mutations_total",
		Help: "Total number of directory mutations",
	}, []string{"entity", "operation", "actor_kind"})

	// AdmissionDenials counts rejected edit-token admissions by reason.
	AdmissionDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_admission_denials_total",
		Help: "Total number of denied write admissions by reason",
	}, []string{"reason"})

	// AuditWriteFailures counts audit trail writes that could not be persisted.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chenil_audit_write_failures_total",
		Help: "Total number of audit entries that failed to persist",
	})

	// PushDeliveries counts web push delivery attempts by result.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_push_deliveries_total",
		Help: "Total number of web push deliveries by result",
	}, []string{"result"})

	// PushSubscriptionsPruned counts subscriptions removed after permanent endpoint failures.
	PushSubscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chenil_push_subscriptions_pruned_total",
		Help: "Total number of push subscriptions pruned after permanent delivery failures",
	})

	// BuildTriggers counts static build hook invocations by result.
	BuildTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_build_triggers_total",
		Help: "Total number of build hook invocations by result",
	}, []string{"result"})

	// CacheRequests counts cache lookups by key prefix and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chenil_cache_requests_total",
		Help: "Total number of cache lookups by key prefix and result",
	}, []string{"prefix", "result"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// RecordCacheHit increments the cache hit counter for the key prefix.
func RecordCacheHit(prefix string) {
	CacheRequests.WithLabelValues(prefix, "hit").Inc()
}

// RecordCacheMiss increments the cache miss counter for the key prefix.
func RecordCacheMiss(prefix string) {
	CacheRequests.WithLabelValues(prefix, "miss").Inc()
}

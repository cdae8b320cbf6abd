package observability

import (
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Cache names used as metric labels.
const (
	CacheLedger    = "ledger"
	CacheBillboard = "billboard"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	buildDuration    *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheStores      *prometheus.CounterVec
	recordsProcessed *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		buildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_build_duration_seconds",
				Help:    "Duration of ledger and billboard builds by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_external_errors_total",
				Help: "Total errors from the journal store.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_hits_total",
				Help: "Total report cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_misses_total",
				Help: "Total report cache misses.",
			},
			[]string{"cache"},
		),
		cacheStores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_stores_total",
				Help: "Total reports written to the cache.",
			},
			[]string{"cache"},
		),
		recordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_records_processed_total",
				Help: "Journal and mining rows fed to the engines.",
			},
			[]string{"kind"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "Total HTTP requests by status code.",
			},
			[]string{"status"},
		),
	}
}

// RecordBuildDuration records the duration of a report build.
func (m *Metrics) RecordBuildDuration(operation string, d time.Duration) {
	m.buildDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrCacheStore increments the cache store counter.
func (m *Metrics) IncrCacheStore(cache string) {
	m.cacheStores.WithLabelValues(cache).Inc()
}

// AddRecords counts rows handed to the engines. kind is "journal" or "mining".
func (m *Metrics) AddRecords(kind string, n int) {
	m.recordsProcessed.WithLabelValues(kind).Add(float64(n))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetCacheSnapshot returns the cache counters for GET /v1/metrics/cache.
func (m *Metrics) GetCacheSnapshot() *domain.CacheMetrics {
	ledgerHits := getCounterValue(m.cacheHits, CacheLedger)
	ledgerMisses := getCounterValue(m.cacheMisses, CacheLedger)
	boardHits := getCounterValue(m.cacheHits, CacheBillboard)
	boardMisses := getCounterValue(m.cacheMisses, CacheBillboard)

	hitRate := float64(0)
	if lookups := ledgerHits + ledgerMisses + boardHits + boardMisses; lookups > 0 {
		hitRate = (ledgerHits + boardHits) / lookups
	}

	return &domain.CacheMetrics{
		LedgerHits:       int64(ledgerHits),
		LedgerMisses:     int64(ledgerMisses),
		BillboardHits:    int64(boardHits),
		BillboardMisses:  int64(boardMisses),
		HitRate:          hitRate,
		RecordsProcessed: int64(getCounterValue(m.recordsProcessed, "journal") + getCounterValue(m.recordsProcessed, "mining")),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

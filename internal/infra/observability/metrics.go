package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// Label values shared by callers and the snapshot.
const (
	CacheHistory     = "history"
	ServiceRegexFlow = "regexflow"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// Transaction type labels; undetermined entries are counted as "unknown".
var txTypeLabels = []string{"DEBIT", "CREDIT", "LOAN", "SERVICE", "unknown"}

// Metrics holds all Prometheus metrics for the ledger BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	transactions    *prometheus.CounterVec
	months          prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_bfa_external_errors_total",
				Help: "Total errors from upstream services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_bfa_requests_total",
				Help: "Total ledger requests processed.",
			},
			[]string{"status"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_bfa_transactions_total",
				Help: "Ledger entries built, by classified transaction type.",
			},
			[]string{"type"},
		),
		months: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_bfa_months_total",
				Help: "Monthly buckets built.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
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

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordClassified counts one ledger entry of the given type. An empty
// type is counted as "unknown".
func (m *Metrics) RecordClassified(txType string) {
	if txType == "" {
		txType = "unknown"
	}
	m.transactions.WithLabelValues(txType).Inc()
}

// AddMonths counts built monthly buckets.
func (m *Metrics) AddMonths(n int) {
	if n > 0 {
		m.months.Add(float64(n))
	}
}

// GetLedgerSnapshot returns a snapshot of ledger metrics suitable for the
// GET /v1/metrics/ledger endpoint.
func (m *Metrics) GetLedgerSnapshot() *domain.LedgerMetrics {
	success := getCounterValue(m.requestsTotal, StatusSuccess)
	errorCount := getCounterValue(m.requestsTotal, StatusError)
	totalRequests := success + errorCount
	cacheHits := getCounterValue(m.cacheHits, CacheHistory)
	cacheMisses := getCounterValue(m.cacheMisses, CacheHistory)

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	byType := make(map[string]int64, len(txTypeLabels))
	for _, l := range txTypeLabels {
		byType[l] = int64(getCounterValue(m.transactions, l))
	}

	return &domain.LedgerMetrics{
		TotalRequests:      int64(totalRequests),
		ErrorRate:          errorRate,
		CacheHitRate:       cacheHitRate,
		UpstreamErrors:     int64(getCounterValue(m.externalErrors, ServiceRegexFlow)),
		TransactionsByType: byType,
		MonthsBuilt:        int64(readCounter(m.months)),
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

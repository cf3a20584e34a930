package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual upstream.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	Error       string `json:"error,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// LedgerMetrics is returned by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	TotalRequests      int64            `json:"totalRequests"`
	ErrorRate          float64          `json:"errorRate"`
	CacheHitRate       float64          `json:"cacheHitRate"`
	UpstreamErrors     int64            `json:"upstreamErrors"`
	TransactionsByType map[string]int64 `json:"transactionsByType"`
	MonthsBuilt        int64            `json:"monthsBuilt"`
	Period             string           `json:"period"`
}

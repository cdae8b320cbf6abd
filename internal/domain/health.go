package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// CacheMetrics is returned by GET /v1/metrics/cache.
type CacheMetrics struct {
	LedgerHits       int64   `json:"ledgerHits"`
	LedgerMisses     int64   `json:"ledgerMisses"`
	BillboardHits    int64   `json:"billboardHits"`
	BillboardMisses  int64   `json:"billboardMisses"`
	HitRate          float64 `json:"hitRate"`
	RecordsProcessed int64   `json:"recordsProcessed"`
	Period           string  `json:"period"`
}

// CategoryInfo describes one taxonomy category for GET /v1/ledger/categories.
type CategoryInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	PvE      bool     `json:"pve"`
	RefTypes []string `json:"ref_types"`
}

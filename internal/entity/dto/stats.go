package dto

// VisitStats mirrors the visit counters shown on the dashboard.
type VisitStats struct {
	Today     int64 `json:"today"`
	Yesterday int64 `json:"yesterday"`
	Week      int64 `json:"week"`
	LastWeek  int64 `json:"last_week"`
	Month     int64 `json:"month"`
}

// GenerationStats summarises the template library.
type GenerationStats struct {
	Total          int64               `json:"total"`
	Today          int64               `json:"today"`
	Yesterday      int64               `json:"yesterday"`
	ByRelationship []RelationshipCount `json:"by_relationship"`
	Daily          []DailyCount        `json:"daily"`
}

type RelationshipCount struct {
	Relationship string `json:"relationship"`
	Count        int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ProviderHealth reports today's ledger outcomes for one provider.
type ProviderHealth struct {
	Provider  string `json:"provider"`
	Driver    string `json:"driver"`
	Successes int64  `json:"successes"`
	Failures  int64  `json:"failures"`
	Limit     int    `json:"limit"`
	Exhausted bool   `json:"exhausted"`
}

const (
	AIStatusOperational = "Operational"
	AIStatusIdle        = "Idle"
	AIStatusDegraded    = "Degraded"
)

// DashboardStats is the response of GET /api/admin/stats.
type DashboardStats struct {
	Visits         VisitStats       `json:"visits"`
	Generations    GenerationStats  `json:"generations"`
	Providers      []ProviderHealth `json:"providers"`
	Fallbacks      int64            `json:"fallbacks_today"`
	LoadPercent    float64          `json:"load_percent"`
	AIStatus       string           `json:"ai_status"`
	QueryLatencyMs int64            `json:"query_latency_ms"`
}

package types

import "time"

// MetricsSnapshot is a point-in-time copy of all metrics held by a collector.
// Request counters describe resolve calls (races), not individual provider attempts.
type MetricsSnapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	SuccessRate        float64 `json:"success_rate"`

	Latency LatencyMetrics `json:"latency"`
	Errors  ErrorMetrics   `json:"errors"`

	// ProviderBreakdown holds per-provider and per-coordinator metrics keyed by name.
	ProviderBreakdown map[string]*ProviderMetricsSnapshot `json:"provider_breakdown"`

	LastUpdated      time.Time `json:"last_updated"`
	FirstRequestTime time.Time `json:"first_request_time"`
	Uptime           int64     `json:"uptime_seconds"`
}

// ProviderMetricsSnapshot holds metrics for one provider.
//
// TotalRequests counts attempts launched; attempts cancelled after another provider won
// show up as neither success nor failure (see Cancelled).
type ProviderMetricsSnapshot struct {
	Provider     string       `json:"provider"`
	ProviderType ProviderType `json:"provider_type"`

	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	Cancelled          int64   `json:"cancelled"`
	SuccessRate        float64 `json:"success_rate"`

	// RaceWins counts races this provider won.
	RaceWins int64   `json:"race_wins"`
	WinRate  float64 `json:"win_rate"`

	Latency LatencyMetrics `json:"latency"`
	Errors  ErrorMetrics   `json:"errors"`

	LastRequestTime time.Time `json:"last_request_time"`
	LastUpdated     time.Time `json:"last_updated"`
}

// LatencyMetrics holds latency statistics including percentiles.
type LatencyMetrics struct {
	TotalRequests  int64         `json:"total_requests"`
	TotalLatency   time.Duration `json:"total_latency"`
	AverageLatency time.Duration `json:"average_latency"`
	MinLatency     time.Duration `json:"min_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
	P50Latency     time.Duration `json:"p50_latency"`
	P75Latency     time.Duration `json:"p75_latency"`
	P90Latency     time.Duration `json:"p90_latency"`
	P95Latency     time.Duration `json:"p95_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// ErrorMetrics holds error counts by type.
type ErrorMetrics struct {
	TotalErrors       int64            `json:"total_errors"`
	ErrorRate         float64          `json:"error_rate"`
	ErrorsByType      map[string]int64 `json:"errors_by_type"`
	LastError         string           `json:"last_error,omitempty"`
	LastErrorType     string           `json:"last_error_type,omitempty"`
	LastErrorTime     time.Time        `json:"last_error_time,omitempty"`
	ConsecutiveErrors int64            `json:"consecutive_errors"`
}

package models

import "time"

// SystemMetrics is the JSON snapshot served next to the Prometheus endpoint
// for quick operational checks without a scraper.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GenerationRunsTotal      uint64    `json:"generation_runs_total"`
	GenerationRunsFailed     uint64    `json:"generation_runs_failed"`
	AverageRunDurationMs     float64   `json:"average_run_duration_ms"`
	ConflictsDetectedTotal   uint64    `json:"conflicts_detected_total"`
	PublishesTotal           uint64    `json:"publishes_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

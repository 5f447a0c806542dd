package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend             string           `json:"backend"`
	Connected           bool             `json:"connected"`
	TotalRuns           int              `json:"total_runs"`
	LastRunID           int64            `json:"last_run_id"`
	LastRunTime         time.Time        `json:"last_run_time"`
	OldestRunTime       time.Time        `json:"oldest_run_time"`
	TotalEntitiesRanked int              `json:"total_entities_ranked"`
	TableSizes          map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the foothold_runs table.
type RunRecord struct {
	RunID        int64
	RunKey       string
	StartTime    time.Time
	EndTime      *time.Time
	RunDuration  *int64
	Variant      string
	Source       string
	EntityCount  *int32
	ConfigParams *string
}

// RankingRecord represents a row from the foothold_rankings table.
type RankingRecord struct {
	RunID      int64
	Entity     string
	Tier       string
	TierOrder  int32
	Score      float64
	RecordedAt time.Time
}

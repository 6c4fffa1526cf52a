package schema

import "time"

// StoreStatus represents the status of the snapshot and derived store.
type StoreStatus struct {
	Backend     string           `json:"backend"`
	Target      string           `json:"target"`
	Connected   bool             `json:"connected"`
	Sources     []string         `json:"sources"`
	TotalRuns   int              `json:"total_runs"`
	LastRunID   string           `json:"last_run_id"`
	LastRunTime time.Time        `json:"last_run_time"`
	TableSizes  map[string]int64 `json:"table_sizes"`
}

// Package schema has models and constants shared by all parts of tranche.
package schema

import "time"

// TaskSnapshot is the state of one task on one date for a source.
// Snapshots are append-only and never rewritten once recorded.
type TaskSnapshot struct {
	Source    string    `json:"source"`
	TaskID    string    `json:"task_id"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Category  string    `json:"category"`
	Points    *float64  `json:"points"` // nil when the task was never pointed
	MaintType string    `json:"maint_type"`
}

// PointsOrZero returns the point estimate, treating a missing value as zero.
func (t TaskSnapshot) PointsOrZero() float64 {
	if t.Points == nil {
		return 0
	}
	return *t.Points
}

// IsResolved reports whether the snapshot carries the resolved status.
func (t TaskSnapshot) IsResolved() bool { return t.Status == ResolvedStatus }

// TallBacklogEntry is the per (source, date, category, status) aggregate of snapshots.
type TallBacklogEntry struct {
	Source   string    `json:"source"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	Points   float64   `json:"points"`
	Count    int       `json:"count"`
}

// CategoryMeta maps a category to its display order and zoom flag.
type CategoryMeta struct {
	Source    string `json:"source"`
	Category  string `json:"category"`
	SortOrder int    `json:"sort_order"`
	Zoom      bool   `json:"zoom"`
}

// RecentlyClosed aggregates tasks newly resolved at a weekly sampled date.
type RecentlyClosed struct {
	Source   string    `json:"source"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Points   float64   `json:"points"`
	Count    int       `json:"count"`
}

// RecentlyClosedTask is one task newly resolved at a daily sampled date.
type RecentlyClosedTask struct {
	Source   string    `json:"source"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	TaskID   string    `json:"task_id"`
	Title    string    `json:"title"`
	Points   float64   `json:"points"`
}

// Estimate is one velocity estimate and the forecast projected from it.
// All fields are nil when the estimate or the open amount is undefined.
type Estimate struct {
	Velocity *float64   `json:"velocity"`
	Periods  *int       `json:"periods"`
	Date     *time.Time `json:"date"`
}

// EstimateSet groups the three estimate flavors for one measure.
type EstimateSet struct {
	Pessimistic Estimate `json:"pessimistic"`
	Nominal     Estimate `json:"nominal"`
	Optimistic  Estimate `json:"optimistic"`
}

// VelocityRecord is the velocity and forecast state of a category at a sampled date.
type VelocityRecord struct {
	Source   string    `json:"source"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`

	PointsResolved float64  `json:"points_resolved"`
	CountResolved  int      `json:"count_resolved"`
	PointsOpen     *float64 `json:"points_open"`
	CountOpen      *int     `json:"count_open"`

	// Deltas are nil on the first sampled date of a category.
	DeltaResolvedPoints *float64 `json:"delta_resolved_points"`
	DeltaResolvedCount  *int     `json:"delta_resolved_count"`
	DeltaTotalPoints    *float64 `json:"delta_total_points"`
	DeltaTotalCount     *int     `json:"delta_total_count"`

	Points EstimateSet `json:"points"`
	Count  EstimateSet `json:"count"`
}

// MaintenanceFraction is the maintenance share of work newly resolved at a weekly date.
type MaintenanceFraction struct {
	Source      string    `json:"source"`
	Date        time.Time `json:"date"`
	MaintPoints float64   `json:"maint_points"`
	TotalPoints float64   `json:"total_points"`
	MaintCount  int       `json:"maint_count"`
	TotalCount  int       `json:"total_count"`
}

// PointsFraction returns the maintenance share by points, or zero if nothing was resolved.
func (m MaintenanceFraction) PointsFraction() float64 {
	if m.TotalPoints == 0 {
		return 0
	}
	return m.MaintPoints / m.TotalPoints
}

// CountFraction returns the maintenance share by count, or zero if nothing was resolved.
func (m MaintenanceFraction) CountFraction() float64 {
	if m.TotalCount == 0 {
		return 0
	}
	return float64(m.MaintCount) / float64(m.TotalCount)
}

// DerivedSet is every derived row produced by one pipeline run for one source.
// It is written as a unit, replacing whatever the source had before.
type DerivedSet struct {
	Source               string
	RunID                string
	TallBacklog          []TallBacklogEntry
	RecentlyClosed       []RecentlyClosed
	RecentlyClosedTasks  []RecentlyClosedTask
	Velocity             []VelocityRecord
	MaintenanceFractions []MaintenanceFraction
}

// RowCount returns the total number of derived rows in the set.
func (d *DerivedSet) RowCount() int {
	return len(d.TallBacklog) + len(d.RecentlyClosed) + len(d.RecentlyClosedTasks) +
		len(d.Velocity) + len(d.MaintenanceFractions)
}

// BacklogViewRow is one row of the filtered, ordered backlog view.
type BacklogViewRow struct {
	Source    string    `json:"source"`
	Date      time.Time `json:"date"`
	Category  string    `json:"category"`
	SortOrder int       `json:"sort_order"`
	Points    float64   `json:"points"`
	Count     int       `json:"count"`
}

// QuarterLabels place each forecast date relative to the current quarter.
type QuarterLabels struct {
	Pessimistic string `json:"pessimistic"`
	Nominal     string `json:"nominal"`
	Optimistic  string `json:"optimistic"`
}

// ForecastSummary is the latest velocity record of a category with display metadata.
type ForecastSummary struct {
	VelocityRecord
	SortOrder     int           `json:"sort_order"`
	PointsQuarter QuarterLabels `json:"points_quarter"`
	CountQuarter  QuarterLabels `json:"count_quarter"`
}

// CategoryRule assigns categories to snapshots by matching their raw category.
type CategoryRule struct {
	Title   string   `yaml:"title" json:"title"`
	Kind    RuleKind `yaml:"kind" json:"kind"`
	Match   []string `yaml:"match" json:"match"`
	Display *bool    `yaml:"display" json:"display"` // nil means displayed
}

// Displayed reports whether categories produced by the rule are zoom categories.
func (r CategoryRule) Displayed() bool {
	return r.Display == nil || *r.Display
}

// RulesFile is the on-disk layout of a category rules file.
type RulesFile struct {
	Rules []CategoryRule `yaml:"rules"`
}

// ReportRun is one entry of the run ledger.
type ReportRun struct {
	RunID        string     `json:"run_id"`
	Source       string     `json:"source"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	DurationMs   *int64     `json:"duration_ms"`
	RowsWritten  int        `json:"rows_written"`
	Status       RunStatus  `json:"status"`
	Error        string     `json:"error,omitempty"`
	ConfigParams string     `json:"config_params,omitempty"`
}

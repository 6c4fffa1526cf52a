// Package parquet provides row types and writers for exporting tranche snapshots
// and derived tables to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/tranche/schema"
)

// Snapshot maps to the task_snapshot table.
type Snapshot struct {
	Source    string    `parquet:"source,snappy,dict"`
	TaskID    string    `parquet:"task_id,snappy"`
	Date      time.Time `parquet:"snapshot_date,snappy"`
	Title     string    `parquet:"title,snappy"`
	Status    string    `parquet:"status,snappy,dict"`
	Category  string    `parquet:"category,snappy,dict"`
	Points    *float64  `parquet:"points,optional,snappy"`
	MaintType string    `parquet:"maint_type,snappy,dict"`
}

// Backlog maps to the tall_backlog table.
type Backlog struct {
	Source   string    `parquet:"source,snappy,dict"`
	Date     time.Time `parquet:"snapshot_date,snappy"`
	Category string    `parquet:"category,snappy,dict"`
	Status   string    `parquet:"status,snappy,dict"`
	Points   float64   `parquet:"points,snappy"`
	Count    int32     `parquet:"task_count,snappy"`
}

// Closed maps to the recently_closed table.
type Closed struct {
	Source   string    `parquet:"source,snappy,dict"`
	Date     time.Time `parquet:"closed_date,snappy"`
	Category string    `parquet:"category,snappy,dict"`
	Points   float64   `parquet:"points,snappy"`
	Count    int32     `parquet:"task_count,snappy"`
}

// ClosedTask maps to the recently_closed_task table.
type ClosedTask struct {
	Source   string    `parquet:"source,snappy,dict"`
	Date     time.Time `parquet:"closed_date,snappy"`
	Category string    `parquet:"category,snappy,dict"`
	TaskID   string    `parquet:"task_id,snappy"`
	Title    string    `parquet:"title,snappy"`
	Points   float64   `parquet:"points,snappy"`
}

// Velocity maps to the velocity table with the estimate groups flattened.
type Velocity struct {
	Source         string    `parquet:"source,snappy,dict"`
	Category       string    `parquet:"category,snappy,dict"`
	Date           time.Time `parquet:"snapshot_date,snappy"`
	PointsResolved float64   `parquet:"points_resolved,snappy"`
	CountResolved  int32     `parquet:"count_resolved,snappy"`
	PointsOpen     *float64  `parquet:"points_open,optional,snappy"`
	CountOpen      *int32    `parquet:"count_open,optional,snappy"`

	DeltaResolvedPoints *float64 `parquet:"delta_resolved_points,optional,snappy"`
	DeltaResolvedCount  *int32   `parquet:"delta_resolved_count,optional,snappy"`
	DeltaTotalPoints    *float64 `parquet:"delta_total_points,optional,snappy"`
	DeltaTotalCount     *int32   `parquet:"delta_total_count,optional,snappy"`

	PesPointsVelocity *float64   `parquet:"pes_points_vel,optional,snappy"`
	NomPointsVelocity *float64   `parquet:"nom_points_vel,optional,snappy"`
	OptPointsVelocity *float64   `parquet:"opt_points_vel,optional,snappy"`
	PesPointsDate     *time.Time `parquet:"pes_points_date,optional,snappy"`
	NomPointsDate     *time.Time `parquet:"nom_points_date,optional,snappy"`
	OptPointsDate     *time.Time `parquet:"opt_points_date,optional,snappy"`

	PesCountVelocity *float64   `parquet:"pes_count_vel,optional,snappy"`
	NomCountVelocity *float64   `parquet:"nom_count_vel,optional,snappy"`
	OptCountVelocity *float64   `parquet:"opt_count_vel,optional,snappy"`
	PesCountDate     *time.Time `parquet:"pes_count_date,optional,snappy"`
	NomCountDate     *time.Time `parquet:"nom_count_date,optional,snappy"`
	OptCountDate     *time.Time `parquet:"opt_count_date,optional,snappy"`
}

// Maintenance maps to the maintenance_fraction table.
type Maintenance struct {
	Source      string    `parquet:"source,snappy,dict"`
	Date        time.Time `parquet:"closed_date,snappy"`
	MaintPoints float64   `parquet:"maint_points,snappy"`
	TotalPoints float64   `parquet:"total_points,snappy"`
	MaintCount  int32     `parquet:"maint_count,snappy"`
	TotalCount  int32     `parquet:"total_count,snappy"`
}

// Run maps to the report_run table.
type Run struct {
	RunID        string     `parquet:"run_id,snappy"`
	Source       string     `parquet:"source,snappy,dict"`
	StartedAt    time.Time  `parquet:"started_at,snappy"`
	FinishedAt   *time.Time `parquet:"finished_at,optional,snappy"`
	DurationMs   *int64     `parquet:"duration_ms,optional,snappy"`
	RowsWritten  int32      `parquet:"rows_written,snappy"`
	Status       string     `parquet:"status,snappy,dict"`
	Error        *string    `parquet:"error_text,optional,snappy"`
	ConfigParams *string    `parquet:"config_params,optional,snappy"`
}

// Write writes rows to a new Parquet file at outputPath, inferring the schema from T.
func Write[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

func int32Ptr(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ConvertSnapshots converts task snapshots for Parquet export.
func ConvertSnapshots(records []schema.TaskSnapshot) []Snapshot {
	result := make([]Snapshot, len(records))
	for i, r := range records {
		result[i] = Snapshot{
			Source:    r.Source,
			TaskID:    r.TaskID,
			Date:      r.Date,
			Title:     r.Title,
			Status:    r.Status,
			Category:  r.Category,
			Points:    r.Points,
			MaintType: r.MaintType,
		}
	}
	return result
}

// ConvertBacklog converts tall backlog entries for Parquet export.
func ConvertBacklog(records []schema.TallBacklogEntry) []Backlog {
	result := make([]Backlog, len(records))
	for i, r := range records {
		result[i] = Backlog{
			Source:   r.Source,
			Date:     r.Date,
			Category: r.Category,
			Status:   r.Status,
			Points:   r.Points,
			Count:    int32(r.Count),
		}
	}
	return result
}

// ConvertClosed converts weekly closure aggregates for Parquet export.
func ConvertClosed(records []schema.RecentlyClosed) []Closed {
	result := make([]Closed, len(records))
	for i, r := range records {
		result[i] = Closed{Source: r.Source, Date: r.Date, Category: r.Category, Points: r.Points, Count: int32(r.Count)}
	}
	return result
}

// ConvertClosedTasks converts per-task closures for Parquet export.
func ConvertClosedTasks(records []schema.RecentlyClosedTask) []ClosedTask {
	result := make([]ClosedTask, len(records))
	for i, r := range records {
		result[i] = ClosedTask{
			Source:   r.Source,
			Date:     r.Date,
			Category: r.Category,
			TaskID:   r.TaskID,
			Title:    r.Title,
			Points:   r.Points,
		}
	}
	return result
}

// ConvertVelocity converts velocity records for Parquet export.
func ConvertVelocity(records []schema.VelocityRecord) []Velocity {
	result := make([]Velocity, len(records))
	for i, r := range records {
		result[i] = Velocity{
			Source:              r.Source,
			Category:            r.Category,
			Date:                r.Date,
			PointsResolved:      r.PointsResolved,
			CountResolved:       int32(r.CountResolved),
			PointsOpen:          r.PointsOpen,
			CountOpen:           int32Ptr(r.CountOpen),
			DeltaResolvedPoints: r.DeltaResolvedPoints,
			DeltaResolvedCount:  int32Ptr(r.DeltaResolvedCount),
			DeltaTotalPoints:    r.DeltaTotalPoints,
			DeltaTotalCount:     int32Ptr(r.DeltaTotalCount),
			PesPointsVelocity:   r.Points.Pessimistic.Velocity,
			NomPointsVelocity:   r.Points.Nominal.Velocity,
			OptPointsVelocity:   r.Points.Optimistic.Velocity,
			PesPointsDate:       r.Points.Pessimistic.Date,
			NomPointsDate:       r.Points.Nominal.Date,
			OptPointsDate:       r.Points.Optimistic.Date,
			PesCountVelocity:    r.Count.Pessimistic.Velocity,
			NomCountVelocity:    r.Count.Nominal.Velocity,
			OptCountVelocity:    r.Count.Optimistic.Velocity,
			PesCountDate:        r.Count.Pessimistic.Date,
			NomCountDate:        r.Count.Nominal.Date,
			OptCountDate:        r.Count.Optimistic.Date,
		}
	}
	return result
}

// ConvertMaintenance converts maintenance fractions for Parquet export.
func ConvertMaintenance(records []schema.MaintenanceFraction) []Maintenance {
	result := make([]Maintenance, len(records))
	for i, r := range records {
		result[i] = Maintenance{
			Source:      r.Source,
			Date:        r.Date,
			MaintPoints: r.MaintPoints,
			TotalPoints: r.TotalPoints,
			MaintCount:  int32(r.MaintCount),
			TotalCount:  int32(r.TotalCount),
		}
	}
	return result
}

// ConvertRuns converts run ledger entries for Parquet export.
func ConvertRuns(records []schema.ReportRun) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:        r.RunID,
			Source:       r.Source,
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
			DurationMs:   r.DurationMs,
			RowsWritten:  int32(r.RowsWritten),
			Status:       string(r.Status),
			Error:        stringPtr(r.Error),
			ConfigParams: stringPtr(r.ConfigParams),
		}
	}
	return result
}

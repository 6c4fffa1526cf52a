package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/tranche/schema"
)

var day = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"snapshot", new(Snapshot), []string{"source", "task_id", "snapshot_date", "points", "maint_type"}},
		{"velocity", new(Velocity), []string{"points_open", "delta_total_count", "nom_points_vel", "opt_count_date"}},
		{"run", new(Run), []string{"run_id", "started_at", "finished_at", "error_text", "config_params"}},
		{"maintenance", new(Maintenance), []string{"maint_points", "total_count"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.parquet")
	data := ConvertSnapshots([]schema.TaskSnapshot{
		{Source: "ABC", TaskID: "T1", Date: day, Title: "one", Status: "open", Category: "Infra", Points: schema.Ptr(3.0)},
		{Source: "ABC", TaskID: "T2", Date: day, Title: "two", Status: "resolved", Category: "Docs", MaintType: schema.MaintenanceType},
	})
	require.NoError(t, Write(data, path))

	got := readAll[Snapshot](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TaskID)
	require.NotNil(t, got[0].Points)
	assert.InDelta(t, 3.0, *got[0].Points, 0.001)
	assert.Nil(t, got[1].Points)
	assert.Equal(t, schema.MaintenanceType, got[1].MaintType)
	assert.True(t, day.Equal(got[1].Date))
}

func TestWriteVelocity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "velocity.parquet")
	forecast := day.AddDate(0, 0, 42)
	records := []schema.VelocityRecord{{
		Source:         "ABC",
		Category:       "Infra",
		Date:           day,
		PointsResolved: 10,
		CountResolved:  2,
		PointsOpen:     schema.Ptr(12.0),
		CountOpen:      schema.Ptr(4),
		Points: schema.EstimateSet{
			Nominal: schema.Estimate{Velocity: schema.Ptr(2.0), Periods: schema.Ptr(6), Date: &forecast},
		},
	}}
	require.NoError(t, Write(ConvertVelocity(records), path))

	got := readAll[Velocity](t, path)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].CountOpen)
	assert.Equal(t, int32(4), *got[0].CountOpen)
	require.NotNil(t, got[0].NomPointsDate)
	assert.True(t, forecast.Equal(*got[0].NomPointsDate))
	assert.Nil(t, got[0].PesPointsVelocity)
	assert.Nil(t, got[0].DeltaTotalPoints)
}

func TestConvertRuns(t *testing.T) {
	finished := day.Add(time.Second)
	runs := ConvertRuns([]schema.ReportRun{
		{RunID: "a", Source: "ABC", StartedAt: day, FinishedAt: &finished, DurationMs: schema.Ptr(int64(1000)), RowsWritten: 7, Status: schema.RunSucceeded},
		{RunID: "b", Source: "ABC", StartedAt: day, Status: schema.RunFailed, Error: "boom"},
	})
	require.Len(t, runs, 2)
	assert.Nil(t, runs[0].Error)
	assert.Nil(t, runs[0].ConfigParams)
	require.NotNil(t, runs[1].Error)
	assert.Equal(t, "boom", *runs[1].Error)
	assert.Equal(t, "failed", runs[1].Status)
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, Write([]Backlog{}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "file carries a footer even without rows")
	assert.Empty(t, readAll[Backlog](t, path))
}

func TestWriteBadPath(t *testing.T) {
	err := Write([]Backlog{}, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.Error(t, err)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/tranche/schema"
)

// ErrUnknownRun is returned when ending a run that was never begun.
var ErrUnknownRun = errors.New("unknown run")

var runColumns = []string{
	"run_id", "source", "started_at", "finished_at", "duration_ms", "rows_written", "status", "error_text", "config_params",
}

// BeginRun records a running entry and returns its id.
func (s *SQLStore) BeginRun(ctx context.Context, source string, startTime time.Time, configParams map[string]any) (string, error) {
	var params any
	if len(configParams) > 0 {
		data, err := json.Marshal(configParams)
		if err != nil {
			return "", fmt.Errorf("failed to encode run parameters: %w", err)
		}
		params = string(data)
	}

	runID := uuid.NewString()
	query := insertQuery(runTable, runColumns, s.backend, false)
	_, err := s.db.ExecContext(ctx, query,
		runID, source, timeArg(startTime, s.backend), nil, nil, 0, string(schema.RunRunning), nil, params)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// EndRun marks a run finished with its row count and error, if any.
func (s *SQLStore) EndRun(ctx context.Context, runID string, endTime time.Time, rowsWritten int, runErr error) error {
	table := quoteTableName(runTable, s.backend)

	var started dbTime
	query := rebind(fmt.Sprintf("SELECT started_at FROM %s WHERE run_id = ?", table), s.backend)
	if err := s.db.QueryRowContext(ctx, query, runID).Scan(&started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return fmt.Errorf("failed to read run %s: %w", runID, err)
	}

	status := schema.RunSucceeded
	var errText any
	if runErr != nil {
		status = schema.RunFailed
		errText = runErr.Error()
	}
	duration := max(endTime.Sub(started.Time).Milliseconds(), 0)

	query = rebind(fmt.Sprintf(
		"UPDATE %s SET finished_at = ?, duration_ms = ?, rows_written = ?, status = ?, error_text = ? WHERE run_id = ?",
		table), s.backend)
	if _, err := s.db.ExecContext(ctx, query,
		timeArg(endTime, s.backend), duration, rowsWritten, string(status), errText, runID); err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An empty source lists every
// source and a non-positive limit returns all runs.
func (s *SQLStore) ListRuns(ctx context.Context, source string, limit int) ([]schema.ReportRun, error) {
	query := fmt.Sprintf(
		"SELECT run_id, source, started_at, finished_at, duration_ms, rows_written, status, error_text, config_params FROM %s",
		quoteTableName(runTable, s.backend))
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC, run_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, rebind(query, s.backend), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ReportRun
	for rows.Next() {
		var r schema.ReportRun
		var started, finished dbTime
		var status string
		var errText, params sql.NullString
		if err := rows.Scan(&r.RunID, &r.Source, &started, &finished, &r.DurationMs, &r.RowsWritten,
			&status, &errText, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = started.Time.UTC()
		r.FinishedAt = finished.timePtr()
		r.Status = schema.RunStatus(status)
		r.Error = errText.String
		r.ConfigParams = params.String
		out = append(out, r)
	}
	return out, rows.Err()
}

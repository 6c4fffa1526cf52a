// Package ingest reads task snapshots and category rules from files.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/tranche/schema"
)

// ErrMissingColumn is returned when a snapshot CSV lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Snapshot CSV column names. Only the first four are required.
const (
	colTaskID    = "task_id"
	colDate      = "date"
	colStatus    = "status"
	colCategory  = "category"
	colSource    = "source"
	colTitle     = "title"
	colPoints    = "points"
	colMaintType = "maint_type"
)

var requiredColumns = []string{colTaskID, colDate, colStatus, colCategory}

// ReadSnapshotsFile opens path and reads it with ReadSnapshots.
func ReadSnapshotsFile(path, source string) ([]schema.TaskSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSnapshots(f, source)
}

// ReadSnapshots parses a CSV of task snapshots with a header row. Columns are matched by
// name, case-insensitively. Rows without a source column value take source; every row
// must end up with one. An empty points cell means the task is unpointed.
func ReadSnapshots(r io.Reader, source string) ([]schema.TaskSnapshot, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []schema.TaskSnapshot
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(rec, get, source)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string, get func([]string, string) string, source string) (schema.TaskSnapshot, error) {
	row := schema.TaskSnapshot{
		Source:    get(rec, colSource),
		TaskID:    get(rec, colTaskID),
		Title:     get(rec, colTitle),
		Status:    strings.ToLower(get(rec, colStatus)),
		Category:  get(rec, colCategory),
		MaintType: get(rec, colMaintType),
	}
	if row.Source == "" {
		row.Source = source
	}
	if row.Source == "" {
		return row, errors.New("no source given in the row or on the command line")
	}
	if row.TaskID == "" {
		return row, errors.New("empty task_id")
	}

	date, err := schema.ParseDate(get(rec, colDate))
	if err != nil {
		return row, err
	}
	row.Date = date

	if p := get(rec, colPoints); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return row, fmt.Errorf("invalid points %q: %w", p, err)
		}
		row.Points = schema.Ptr(v)
	}
	return row, nil
}

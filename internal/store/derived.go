package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/tranche/schema"
)

var tallBacklogColumns = []string{"source", "snapshot_date", "category", "status", "points", "task_count"}

var closedColumns = []string{"source", "closed_date", "category", "points", "task_count"}

var closedTaskColumns = []string{"source", "closed_date", "category", "task_id", "title", "points"}

var maintenanceColumns = []string{"source", "closed_date", "maint_points", "total_points", "maint_count", "total_count"}

// estimatePrefixes name the six estimates of a velocity row in column order.
var estimatePrefixes = []string{"pes_points", "nom_points", "opt_points", "pes_count", "nom_count", "opt_count"}

var velocityColumns = func() []string {
	cols := []string{
		"source", "category", "snapshot_date",
		"points_resolved", "count_resolved", "points_open", "count_open",
		"delta_resolved_points", "delta_resolved_count", "delta_total_points", "delta_total_count",
	}
	for _, suffix := range []string{"_vel", "_periods", "_date"} {
		for _, prefix := range estimatePrefixes {
			cols = append(cols, prefix+suffix)
		}
	}
	return cols
}()

// estimates returns the estimates of a record in estimatePrefixes order.
func estimates(r *schema.VelocityRecord) []*schema.Estimate {
	return []*schema.Estimate{
		&r.Points.Pessimistic, &r.Points.Nominal, &r.Points.Optimistic,
		&r.Count.Pessimistic, &r.Count.Nominal, &r.Count.Optimistic,
	}
}

func (s *SQLStore) velocityArgs(r schema.VelocityRecord) []any {
	args := []any{
		r.Source, r.Category, dateArg(r.Date, s.backend),
		r.PointsResolved, r.CountResolved, nullable(r.PointsOpen), nullable(r.CountOpen),
		nullable(r.DeltaResolvedPoints), nullable(r.DeltaResolvedCount),
		nullable(r.DeltaTotalPoints), nullable(r.DeltaTotalCount),
	}
	ests := estimates(&r)
	for _, e := range ests {
		args = append(args, nullable(e.Velocity))
	}
	for _, e := range ests {
		args = append(args, nullable(e.Periods))
	}
	for _, e := range ests {
		args = append(args, optionalDateArg(e.Date, s.backend))
	}
	return args
}

// ReplaceDerived deletes every derived row of set.Source and inserts set in one
// transaction. On error nothing is committed.
func (s *SQLStore) ReplaceDerived(ctx context.Context, set *schema.DerivedSet) error {
	if set == nil || set.Source == "" {
		return errors.New("derived set needs a source")
	}
	source := set.Source
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteSource(ctx, tx, source, derivedTables...); err != nil {
			return err
		}
		if _, err := s.insertRows(ctx, tx, tallBacklogTable, tallBacklogColumns, false, len(set.TallBacklog), func(i int) []any {
			e := set.TallBacklog[i]
			return []any{source, dateArg(e.Date, s.backend), e.Category, e.Status, e.Points, e.Count}
		}); err != nil {
			return err
		}
		if _, err := s.insertRows(ctx, tx, closedTable, closedColumns, false, len(set.RecentlyClosed), func(i int) []any {
			c := set.RecentlyClosed[i]
			return []any{source, dateArg(c.Date, s.backend), c.Category, c.Points, c.Count}
		}); err != nil {
			return err
		}
		if _, err := s.insertRows(ctx, tx, closedTaskTable, closedTaskColumns, false, len(set.RecentlyClosedTasks), func(i int) []any {
			c := set.RecentlyClosedTasks[i]
			return []any{source, dateArg(c.Date, s.backend), c.Category, c.TaskID, c.Title, c.Points}
		}); err != nil {
			return err
		}
		if _, err := s.insertRows(ctx, tx, velocityTable, velocityColumns, false, len(set.Velocity), func(i int) []any {
			r := set.Velocity[i]
			r.Source = source
			return s.velocityArgs(r)
		}); err != nil {
			return err
		}
		_, err := s.insertRows(ctx, tx, maintenanceTable, maintenanceColumns, false, len(set.MaintenanceFractions), func(i int) []any {
			m := set.MaintenanceFractions[i]
			return []any{source, dateArg(m.Date, s.backend), m.MaintPoints, m.TotalPoints, m.MaintCount, m.TotalCount}
		})
		return err
	})
}

// ResetSource deletes every derived row of a source, the recategorized history
// included. Unknown sources succeed.
func (s *SQLStore) ResetSource(ctx context.Context, source string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteSource(ctx, tx, source, slices.Concat(derivedTables, []string{recategorizedTable})...)
	})
}

// ReplaceRecategorized swaps the relabeled history of a source.
func (s *SQLStore) ReplaceRecategorized(ctx context.Context, source string, rows []schema.TaskSnapshot) error {
	if source == "" {
		return errors.New("source is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteSource(ctx, tx, source, recategorizedTable); err != nil {
			return err
		}
		_, err := s.insertRows(ctx, tx, recategorizedTable, snapshotColumns, false, len(rows), func(i int) []any {
			r := rows[i]
			r.Source = source
			return s.snapshotArgs(r)
		})
		return err
	})
}

// LoadRecategorized returns the relabeled history of a source ordered by date then task id.
func (s *SQLStore) LoadRecategorized(ctx context.Context, source string) ([]schema.TaskSnapshot, error) {
	return s.loadSnapshotTable(ctx, recategorizedTable, source)
}

// querySource runs a per-source SELECT over table and hands each row to scan.
func (s *SQLStore) querySource(ctx context.Context, table, columns, orderBy, source string, scan func(rows *sql.Rows) error) error {
	query := rebind(fmt.Sprintf("SELECT %s FROM %s WHERE source = ? ORDER BY %s",
		columns, quoteTableName(table, s.backend), orderBy), s.backend)
	rows, err := s.db.QueryContext(ctx, query, source)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
	}
	return rows.Err()
}

// LoadTallBacklog returns the backlog of a source ordered by date, category and status.
func (s *SQLStore) LoadTallBacklog(ctx context.Context, source string) ([]schema.TallBacklogEntry, error) {
	var out []schema.TallBacklogEntry
	err := s.querySource(ctx, tallBacklogTable, "source, snapshot_date, category, status, points, task_count",
		"snapshot_date, category, status", source, func(rows *sql.Rows) error {
			var e schema.TallBacklogEntry
			var d dbTime
			if err := rows.Scan(&e.Source, &d, &e.Category, &e.Status, &e.Points, &e.Count); err != nil {
				return err
			}
			e.Date = d.day()
			out = append(out, e)
			return nil
		})
	return out, err
}

// LoadRecentlyClosed returns the weekly closures of a source ordered by date and category.
func (s *SQLStore) LoadRecentlyClosed(ctx context.Context, source string) ([]schema.RecentlyClosed, error) {
	var out []schema.RecentlyClosed
	err := s.querySource(ctx, closedTable, "source, closed_date, category, points, task_count",
		"closed_date, category", source, func(rows *sql.Rows) error {
			var c schema.RecentlyClosed
			var d dbTime
			if err := rows.Scan(&c.Source, &d, &c.Category, &c.Points, &c.Count); err != nil {
				return err
			}
			c.Date = d.day()
			out = append(out, c)
			return nil
		})
	return out, err
}

// LoadRecentlyClosedTasks returns the daily closed tasks of a source ordered by date and task id.
func (s *SQLStore) LoadRecentlyClosedTasks(ctx context.Context, source string) ([]schema.RecentlyClosedTask, error) {
	var out []schema.RecentlyClosedTask
	err := s.querySource(ctx, closedTaskTable, "source, closed_date, category, task_id, title, points",
		"closed_date, task_id", source, func(rows *sql.Rows) error {
			var c schema.RecentlyClosedTask
			var d dbTime
			if err := rows.Scan(&c.Source, &d, &c.Category, &c.TaskID, &c.Title, &c.Points); err != nil {
				return err
			}
			c.Date = d.day()
			out = append(out, c)
			return nil
		})
	return out, err
}

// LoadVelocity returns the velocity records of a source ordered by category and date.
func (s *SQLStore) LoadVelocity(ctx context.Context, source string) ([]schema.VelocityRecord, error) {
	var out []schema.VelocityRecord
	err := s.querySource(ctx, velocityTable, strings.Join(velocityColumns, ", "), "category, snapshot_date", source, func(rows *sql.Rows) error {
		var r schema.VelocityRecord
		var d dbTime
		ests := estimates(&r)
		dates := make([]dbTime, len(ests))
		dest := []any{
			&r.Source, &r.Category, &d,
			&r.PointsResolved, &r.CountResolved, &r.PointsOpen, &r.CountOpen,
			&r.DeltaResolvedPoints, &r.DeltaResolvedCount, &r.DeltaTotalPoints, &r.DeltaTotalCount,
		}
		for _, e := range ests {
			dest = append(dest, &e.Velocity)
		}
		for _, e := range ests {
			dest = append(dest, &e.Periods)
		}
		for i := range dates {
			dest = append(dest, &dates[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		r.Date = d.day()
		for i, e := range ests {
			e.Date = dates[i].dayPtr()
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// LoadMaintenanceFractions returns the maintenance fractions of a source ordered by date.
func (s *SQLStore) LoadMaintenanceFractions(ctx context.Context, source string) ([]schema.MaintenanceFraction, error) {
	var out []schema.MaintenanceFraction
	err := s.querySource(ctx, maintenanceTable, "source, closed_date, maint_points, total_points, maint_count, total_count",
		"closed_date", source, func(rows *sql.Rows) error {
			var m schema.MaintenanceFraction
			var d dbTime
			if err := rows.Scan(&m.Source, &d, &m.MaintPoints, &m.TotalPoints, &m.MaintCount, &m.TotalCount); err != nil {
				return err
			}
			m.Date = d.day()
			out = append(out, m)
			return nil
		})
	return out, err
}

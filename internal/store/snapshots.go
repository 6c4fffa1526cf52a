package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huangsam/tranche/schema"
)

var snapshotColumns = []string{
	"source", "task_id", "snapshot_date", "title", "status", "category", "points", "maint_type",
}

var categoryMetaColumns = []string{"source", "category", "sort_order", "zoom"}

func (s *SQLStore) snapshotArgs(r schema.TaskSnapshot) []any {
	return []any{
		r.Source, r.TaskID, dateArg(r.Date, s.backend), r.Title, r.Status, r.Category,
		nullable(r.Points), r.MaintType,
	}
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertRows inserts n rows into table through one prepared statement and
// returns how many were actually written.
func (s *SQLStore) insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, ignore bool, n int, args func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, insertQuery(table, columns, s.backend, ignore))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	var written int64
	for i := range n {
		res, err := stmt.ExecContext(ctx, args(i)...)
		if err != nil {
			return written, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return written, err
		}
		written += affected
	}
	return written, nil
}

// deleteSource removes every row of a source from the given tables.
func (s *SQLStore) deleteSource(ctx context.Context, tx *sql.Tx, source string, tables ...string) error {
	for _, table := range tables {
		query := rebind(fmt.Sprintf("DELETE FROM %s WHERE source = ?", quoteTableName(table, s.backend)), s.backend)
		if _, err := tx.ExecContext(ctx, query, source); err != nil {
			return fmt.Errorf("failed to delete %s rows: %w", table, err)
		}
	}
	return nil
}

// ListSources returns every source with at least one snapshot, sorted.
func (s *SQLStore) ListSources(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT source FROM %s ORDER BY source", quoteTableName(snapshotTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// LoadSnapshots returns all snapshots of a source ordered by date then task id.
func (s *SQLStore) LoadSnapshots(ctx context.Context, source string) ([]schema.TaskSnapshot, error) {
	return s.loadSnapshotTable(ctx, snapshotTable, source)
}

func (s *SQLStore) loadSnapshotTable(ctx context.Context, table, source string) ([]schema.TaskSnapshot, error) {
	query := rebind(fmt.Sprintf(
		"SELECT source, task_id, snapshot_date, title, status, category, points, maint_type FROM %s WHERE source = ? ORDER BY snapshot_date, task_id",
		quoteTableName(table, s.backend)), s.backend)
	rows, err := s.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.TaskSnapshot
	for rows.Next() {
		var r schema.TaskSnapshot
		var d dbTime
		if err := rows.Scan(&r.Source, &r.TaskID, &d, &r.Title, &r.Status, &r.Category, &r.Points, &r.MaintType); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		r.Date = d.day()
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendSnapshots records snapshots; keys that already exist are left untouched.
func (s *SQLStore) AppendSnapshots(ctx context.Context, rows []schema.TaskSnapshot) (int, error) {
	for i, r := range rows {
		if r.Source == "" || r.TaskID == "" || r.Date.IsZero() {
			return 0, fmt.Errorf("snapshot %d: source, task id and date are required", i)
		}
	}
	var inserted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = s.insertRows(ctx, tx, snapshotTable, snapshotColumns, true, len(rows), func(i int) []any {
			return s.snapshotArgs(rows[i])
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// LoadCategoryMeta returns the category metadata of a source ordered by sort order.
func (s *SQLStore) LoadCategoryMeta(ctx context.Context, source string) ([]schema.CategoryMeta, error) {
	query := rebind(fmt.Sprintf(
		"SELECT source, category, sort_order, zoom FROM %s WHERE source = ? ORDER BY sort_order, category",
		quoteTableName(categoryMetaTable, s.backend)), s.backend)
	rows, err := s.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.CategoryMeta
	for rows.Next() {
		var m schema.CategoryMeta
		if err := rows.Scan(&m.Source, &m.Category, &m.SortOrder, &m.Zoom); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReplaceCategoryMeta swaps the whole category metadata of a source.
func (s *SQLStore) ReplaceCategoryMeta(ctx context.Context, source string, metas []schema.CategoryMeta) error {
	if source == "" {
		return errors.New("source is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteSource(ctx, tx, source, categoryMetaTable); err != nil {
			return err
		}
		_, err := s.insertRows(ctx, tx, categoryMetaTable, categoryMetaColumns, false, len(metas), func(i int) []any {
			m := metas[i]
			return []any{source, m.Category, m.SortOrder, m.Zoom}
		})
		return err
	})
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/internal/parquet"
	"github.com/huangsam/tranche/schema"
)

// exported gathers every exportable row of the requested sources.
type exported struct {
	snapshots   []schema.TaskSnapshot
	backlog     []schema.TallBacklogEntry
	closed      []schema.RecentlyClosed
	closedTasks []schema.RecentlyClosedTask
	velocity    []schema.VelocityRecord
	maintenance []schema.MaintenanceFraction
	runs        []schema.ReportRun
}

func collect(ctx context.Context, s contract.Store, sources []string) (*exported, error) {
	out := &exported{}
	for _, source := range sources {
		snaps, err := s.LoadSnapshots(ctx, source)
		if err != nil {
			return nil, err
		}
		backlog, err := s.LoadTallBacklog(ctx, source)
		if err != nil {
			return nil, err
		}
		closed, err := s.LoadRecentlyClosed(ctx, source)
		if err != nil {
			return nil, err
		}
		tasks, err := s.LoadRecentlyClosedTasks(ctx, source)
		if err != nil {
			return nil, err
		}
		velocity, err := s.LoadVelocity(ctx, source)
		if err != nil {
			return nil, err
		}
		maintenance, err := s.LoadMaintenanceFractions(ctx, source)
		if err != nil {
			return nil, err
		}
		runs, err := s.ListRuns(ctx, source, 0)
		if err != nil {
			return nil, err
		}
		out.snapshots = append(out.snapshots, snaps...)
		out.backlog = append(out.backlog, backlog...)
		out.closed = append(out.closed, closed...)
		out.closedTasks = append(out.closedTasks, tasks...)
		out.velocity = append(out.velocity, velocity...)
		out.maintenance = append(out.maintenance, maintenance...)
		out.runs = append(out.runs, runs...)
	}
	return out, nil
}

// ExecuteExport writes the snapshots, derived tables and run ledger of the given
// sources (all sources when empty) to one Parquet file per table, named
// outputFile.<table>.parquet, and reports progress to w.
func ExecuteExport(ctx context.Context, w io.Writer, s contract.Store, outputFile string, sources []string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := s.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if len(sources) == 0 {
		sources = status.Sources
	}
	if len(sources) == 0 {
		return errors.New("no snapshot data found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting %d source(s) from %s backend...\n", len(sources), status.Backend)

	data, err := collect(ctx, s, sources)
	if err != nil {
		return fmt.Errorf("failed to read export data: %w", err)
	}

	writes := []struct {
		table string
		count int
		write func(path string) error
	}{
		{snapshotTable, len(data.snapshots), func(p string) error { return parquet.Write(parquet.ConvertSnapshots(data.snapshots), p) }},
		{tallBacklogTable, len(data.backlog), func(p string) error { return parquet.Write(parquet.ConvertBacklog(data.backlog), p) }},
		{closedTable, len(data.closed), func(p string) error { return parquet.Write(parquet.ConvertClosed(data.closed), p) }},
		{closedTaskTable, len(data.closedTasks), func(p string) error { return parquet.Write(parquet.ConvertClosedTasks(data.closedTasks), p) }},
		{velocityTable, len(data.velocity), func(p string) error { return parquet.Write(parquet.ConvertVelocity(data.velocity), p) }},
		{maintenanceTable, len(data.maintenance), func(p string) error { return parquet.Write(parquet.ConvertMaintenance(data.maintenance), p) }},
		{runTable, len(data.runs), func(p string) error { return parquet.Write(parquet.ConvertRuns(data.runs), p) }},
	}
	for _, x := range writes {
		path := outputFile + "." + x.table + ".parquet"
		if err := x.write(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", x.table, err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d %s rows to: %s\n", x.count, x.table, path)
	}

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with DuckDB, Pandas (via pyarrow), Apache Spark or Apache Arrow.")
	return nil
}

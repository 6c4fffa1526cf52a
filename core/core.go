// Package core has the velocity and forecast engine and the entry points that run it.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/internal/ingest"
	"github.com/huangsam/tranche/internal/outwriter"
	"github.com/huangsam/tranche/schema"
)

// ExecutorFunc defines the function signature for executing the CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

var (
	// ErrNoStore is returned when a command runs before the store is initialized.
	ErrNoStore = errors.New("store is not initialized")

	// ErrNoInput is returned when load is called without files.
	ErrNoInput = errors.New("no snapshot files given")

	// ErrNoSource is returned when an operation needs explicit sources.
	ErrNoSource = errors.New("no source given")
)

func getStore(mgr contract.StoreManager) (contract.Store, error) {
	if mgr == nil {
		return nil, ErrNoStore
	}
	s := mgr.GetStore()
	if s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}

// resolveSources returns the configured sources, or every source in the store.
func resolveSources(ctx context.Context, s contract.Store, cfg *contract.Config) ([]string, error) {
	if len(cfg.Sources) > 0 {
		return cfg.Sources, nil
	}
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// collect concatenates the rows load returns for each source.
func collect[T any](ctx context.Context, sources []string, load func(context.Context, string) ([]T, error)) ([]T, error) {
	var out []T
	for _, source := range sources {
		rows, err := load(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", source, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// ViewDate is the reference date of the views: the configured as-of date or today.
func ViewDate(cfg *contract.Config) time.Time {
	if !cfg.AsOf.IsZero() {
		return cfg.AsOf
	}
	return time.Now()
}

// viewMetas returns the stored category metadata of a source. Before any metadata is
// curated every category of the backlog is shown, in name order.
func viewMetas(ctx context.Context, s contract.Store, source string) ([]schema.CategoryMeta, error) {
	metas, err := s.LoadCategoryMeta(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(metas) > 0 {
		return metas, nil
	}
	backlog, err := s.LoadTallBacklog(ctx, source)
	if err != nil {
		return nil, err
	}
	metas = Categories(backlog, nil)
	for i := range metas {
		metas[i].Zoom = true
	}
	return metas, nil
}

// Forecasts returns the latest forecast of every category of a source.
func Forecasts(ctx context.Context, s contract.Store, source string, asOf time.Time) ([]schema.ForecastSummary, error) {
	records, err := s.LoadVelocity(ctx, source)
	if err != nil {
		return nil, err
	}
	metas, err := viewMetas(ctx, s, source)
	if err != nil {
		return nil, err
	}
	return LatestForecasts(records, metas, asOf), nil
}

// Velocity returns the velocity records of a source, optionally for one category.
func Velocity(ctx context.Context, s contract.Store, source, category string) ([]schema.VelocityRecord, error) {
	records, err := s.LoadVelocity(ctx, source)
	if err != nil || category == "" {
		return records, err
	}
	var out []schema.VelocityRecord
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

// Backlog returns the backlog view of a source for one status.
func Backlog(ctx context.Context, s contract.Store, source, status string, zoom bool) ([]schema.BacklogViewRow, error) {
	backlog, err := s.LoadTallBacklog(ctx, source)
	if err != nil {
		return nil, err
	}
	metas, err := viewMetas(ctx, s, source)
	if err != nil {
		return nil, err
	}
	return BacklogView(backlog, metas, status, zoom), nil
}

// Tasks lists the open tasks of a source as the pipeline sees them, after the
// working-copy preparation. With unpointed set only tasks without points are listed.
func Tasks(ctx context.Context, s contract.Store, opts contract.SourceOptions, source string, unpointed bool) ([]schema.TaskSnapshot, error) {
	snapshots, err := s.LoadSnapshots(ctx, source)
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(opts)
	if err != nil {
		return nil, err
	}
	work, _ := Prepare(snapshots, opts, rules)
	metas, err := viewMetas(ctx, s, source)
	if err != nil {
		return nil, err
	}
	if unpointed {
		return UnpointedTasks(work, metas), nil
	}
	return OpenTasks(work, metas), nil
}

// CategoryList returns the categories present in a source's backlog with their metadata.
func CategoryList(ctx context.Context, s contract.Store, source string) ([]schema.CategoryMeta, error) {
	backlog, err := s.LoadTallBacklog(ctx, source)
	if err != nil {
		return nil, err
	}
	metas, err := s.LoadCategoryMeta(ctx, source)
	if err != nil {
		return nil, err
	}
	return Categories(backlog, metas), nil
}

// ExecuteLoad appends the snapshots of every input file to the store. Rows without a
// source column take the single configured source.
func ExecuteLoad(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	if len(cfg.InputFiles) == 0 {
		return ErrNoInput
	}
	source := ""
	if len(cfg.Sources) == 1 {
		source = cfg.Sources[0]
	}

	for _, path := range cfg.InputFiles {
		rows, err := ingest.ReadSnapshotsFile(path, source)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		inserted, err := s.AppendSnapshots(ctx, rows)
		if err != nil {
			return fmt.Errorf("failed to store snapshots from %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Loaded %d new snapshots from %s (%d already recorded)\n",
			inserted, path, len(rows)-inserted)
	}
	return nil
}

// ExecuteReport runs the pipeline for every configured source and prints what was written.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	p := NewPipeline(s, cfg, contract.NewLogger(os.Stderr, cfg.Verbose))
	sets, err := p.RunAll(ctx, cfg.Sources)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRunSummary(sets, cfg, time.Since(start))
}

// ExecuteReset deletes the derived rows of the configured sources.
func ExecuteReset(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("%w: pass --source to choose what to reset", ErrNoSource)
	}
	p := NewPipeline(s, cfg, contract.NewLogger(os.Stderr, cfg.Verbose))
	for _, source := range cfg.Sources {
		if err := p.Reset(ctx, source); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "Reset derived data for %s\n", source)
	}
	return nil
}

// ExecuteRecategorize materializes the relabeled history of each source.
func ExecuteRecategorize(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	p := NewPipeline(s, cfg, contract.NewLogger(os.Stderr, cfg.Verbose))
	for _, source := range sources {
		changed, err := p.Recategorize(ctx, source)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "Recategorized %s: %d rows changed category\n", source, changed)
	}
	return nil
}

// ExecuteCategoriesSync derives and stores the category metadata of each source.
func ExecuteCategoriesSync(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	p := NewPipeline(s, cfg, contract.NewLogger(os.Stderr, cfg.Verbose))
	var all []schema.CategoryMeta
	for _, source := range sources {
		metas, err := p.SyncCategories(ctx, source)
		if err != nil {
			return err
		}
		all = append(all, metas...)
	}
	return outwriter.NewOutWriter().WriteCategories(all, cfg)
}

// ExecuteCategoriesList prints the categories of each source.
func ExecuteCategoriesList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.CategoryMeta, error) {
		return CategoryList(ctx, s, source)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCategories(rows, cfg)
}

// ExecuteForecast prints the latest forecast of each category.
func ExecuteForecast(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	asOf := ViewDate(cfg)
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.ForecastSummary, error) {
		return Forecasts(ctx, s, source, asOf)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteForecasts(rows, cfg)
}

// ExecuteVelocity prints the velocity records, optionally of one category.
func ExecuteVelocity(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.VelocityRecord, error) {
		return Velocity(ctx, s, source, cfg.Category)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteVelocity(rows, cfg)
}

// ExecuteBacklog prints the backlog view for the configured status and zoom flag.
func ExecuteBacklog(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.BacklogViewRow, error) {
		return Backlog(ctx, s, source, cfg.Status, cfg.Zoom)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteBacklog(rows, cfg.Status, cfg)
}

// ExecuteClosed prints the weekly closure aggregates, or the recently closed tasks
// when the list flag is set.
func ExecuteClosed(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	ow := outwriter.NewOutWriter()
	if cfg.ClosedList {
		rows, err := collect(ctx, sources, s.LoadRecentlyClosedTasks)
		if err != nil {
			return err
		}
		return ow.WriteClosedTasks(rows, cfg)
	}
	rows, err := collect(ctx, sources, s.LoadRecentlyClosed)
	if err != nil {
		return err
	}
	return ow.WriteClosed(rows, cfg)
}

// ExecuteMaintenance prints the maintenance fractions.
func ExecuteMaintenance(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	rows, err := collect(ctx, sources, s.LoadMaintenanceFractions)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteMaintenance(rows, cfg)
}

// ExecuteTasks prints the open tasks, or only the unpointed ones.
func ExecuteTasks(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources, err := resolveSources(ctx, s, cfg)
	if err != nil {
		return err
	}
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.TaskSnapshot, error) {
		return Tasks(ctx, s, cfg.ForSource(source), source, cfg.Unpointed)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTasks(rows, cfg)
}

// ExecuteRuns prints the run ledger, newest first.
func ExecuteRuns(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s, err := getStore(mgr)
	if err != nil {
		return err
	}
	sources := cfg.Sources
	if len(sources) == 0 {
		sources = []string{""}
	}
	rows, err := collect(ctx, sources, func(ctx context.Context, source string) ([]schema.ReportRun, error) {
		return s.ListRuns(ctx, source, cfg.RunLimit)
	})
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRuns(rows, cfg)
}

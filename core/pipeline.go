package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/internal/ingest"
	"github.com/huangsam/tranche/schema"
)

var (
	// ErrNoSnapshots is returned when a source has no recorded snapshots.
	ErrNoSnapshots = errors.New("no snapshots for source")

	// ErrNoRulesFile is returned when an operation needs category rules but none are configured.
	ErrNoRulesFile = errors.New("no rules file configured")
)

// Pipeline runs the velocity and forecast computation for sources against a store.
// Operations on the same source never interleave; different sources run in parallel.
type Pipeline struct {
	store  contract.Store
	cfg    *contract.Config
	logger *slog.Logger
	locks  sync.Map // source -> *sync.Mutex
	now    func() time.Time
}

// NewPipeline creates a pipeline. A nil logger falls back to slog.Default().
func NewPipeline(store contract.Store, cfg *contract.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// lockSource takes the exclusive section of a source and returns its release func.
func (p *Pipeline) lockSource(source string) func() {
	v, _ := p.locks.LoadOrStore(source, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (p *Pipeline) computeOptions() ComputeOptions {
	return ComputeOptions{
		AsOf:          p.cfg.AsOf,
		Grid:          NewGrid(p.cfg.GridAnchor),
		HistoryMonths: p.cfg.HistoryMonths,
		WindowMonths:  p.cfg.WindowMonths,
	}
}

// loadRules reads and validates the rules file of a source. No file means no rules.
func loadRules(opts contract.SourceOptions) ([]schema.CategoryRule, error) {
	if opts.RulesFile == "" {
		return nil, nil
	}
	rules, err := ingest.LoadRulesFile(opts.RulesFile)
	if err != nil {
		return nil, err
	}
	if err := ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.RulesFile, err)
	}
	return rules, nil
}

// runParams is the configuration recorded with each run in the ledger.
func (p *Pipeline) runParams(opts contract.SourceOptions) map[string]any {
	params := map[string]any{
		"history_months":         p.cfg.HistoryMonths,
		"window_months":          p.cfg.WindowMonths,
		"grid_anchor":            schema.FormatDate(NewGrid(p.cfg.GridAnchor).Anchor),
		"retroactive_categories": opts.RetroactiveCategories,
		"retroactive_points":     opts.RetroactivePoints,
	}
	if !p.cfg.AsOf.IsZero() {
		params["as_of"] = schema.FormatDate(p.cfg.AsOf)
	}
	if opts.RulesFile != "" {
		params["rules_file"] = opts.RulesFile
	}
	if opts.DefaultPoints != nil {
		params["default_points"] = *opts.DefaultPoints
	}
	if !opts.ResolvedCutoff.IsZero() {
		params["resolved_cutoff"] = schema.FormatDate(opts.ResolvedCutoff)
	}
	return params
}

// Run recomputes every derived table of one source and replaces the stored ones as a
// unit. The run is recorded in the ledger whether it succeeds or not. On failure the
// previously stored derived rows are left untouched.
func (p *Pipeline) Run(ctx context.Context, source string) (*schema.DerivedSet, error) {
	unlock := p.lockSource(source)
	defer unlock()

	start := p.now()
	opts := p.cfg.ForSource(source)
	runID, err := p.store.BeginRun(ctx, source, start, p.runParams(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to record run start for %s: %w", source, err)
	}
	logger := p.logger.With("source", source, "run_id", runID)
	logger.Debug("run started")

	set, runErr := p.run(ctx, source, runID, opts, logger)

	rows := 0
	if runErr == nil {
		rows = set.RowCount()
	}
	// The ledger entry is closed even when ctx was cancelled mid-run.
	if err := p.store.EndRun(context.WithoutCancel(ctx), runID, p.now(), rows, runErr); err != nil {
		logger.Warn("failed to record run end", "error", err)
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return nil, runErr
	}
	logger.Info("run finished", "rows", rows, "duration", p.now().Sub(start))
	return set, nil
}

func (p *Pipeline) run(ctx context.Context, source, runID string, opts contract.SourceOptions, logger *slog.Logger) (*schema.DerivedSet, error) {
	snapshots, err := p.store.LoadSnapshots(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for %s: %w", source, err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshots, source)
	}

	rules, err := loadRules(opts)
	if err != nil {
		return nil, err
	}
	work, stats := Prepare(snapshots, opts, rules)
	logger.Debug("prepared working copy",
		"input", stats.Input,
		"excluded", stats.ExcludedRows,
		"unmatched", stats.UnmatchedRows,
		"recategorized", stats.Recategorized,
		"output", stats.Output)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := Compute(source, work, p.computeOptions())
	set.RunID = runID

	if err := p.store.ReplaceDerived(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to replace derived data for %s: %w", source, err)
	}
	return set, nil
}

// RunAll runs every given source, or every source in the store when none are given,
// with at most cfg.Workers in flight. The first failure cancels the remaining runs.
// Results are in the same order as the sources; failed or cancelled runs leave nil.
func (p *Pipeline) RunAll(ctx context.Context, sources []string) ([]*schema.DerivedSet, error) {
	if len(sources) == 0 {
		var err error
		if sources, err = p.store.ListSources(ctx); err != nil {
			return nil, fmt.Errorf("failed to list sources: %w", err)
		}
	}

	results := make([]*schema.DerivedSet, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Workers, 1))
	for i, source := range sources {
		g.Go(func() error {
			set, err := p.Run(gctx, source)
			results[i] = set
			return err
		})
	}
	return results, g.Wait()
}

// Reset deletes every derived row of a source. Unknown sources succeed.
func (p *Pipeline) Reset(ctx context.Context, source string) error {
	unlock := p.lockSource(source)
	defer unlock()

	if err := p.store.ResetSource(ctx, source); err != nil {
		return fmt.Errorf("failed to reset %s: %w", source, err)
	}
	p.logger.Info("source reset", "source", source)
	return nil
}

// Recategorize writes a copy of a source's history in which every row of a task takes
// the task's latest category. The canonical snapshots are not modified. It returns the
// number of rows whose category changed.
func (p *Pipeline) Recategorize(ctx context.Context, source string) (int, error) {
	unlock := p.lockSource(source)
	defer unlock()

	snapshots, err := p.store.LoadSnapshots(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to load snapshots for %s: %w", source, err)
	}
	if len(snapshots) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoSnapshots, source)
	}

	relabeled, changed := RecategorizeRetroactive(snapshots)
	if err := p.store.ReplaceRecategorized(ctx, source, relabeled); err != nil {
		return 0, fmt.Errorf("failed to store recategorized history for %s: %w", source, err)
	}
	p.logger.Info("recategorized history", "source", source, "rows", len(relabeled), "changed", changed)
	return changed, nil
}

// SyncCategories derives the category metadata of a source from its rules file and
// the raw categories in its history, then replaces the stored metadata.
func (p *Pipeline) SyncCategories(ctx context.Context, source string) ([]schema.CategoryMeta, error) {
	unlock := p.lockSource(source)
	defer unlock()

	opts := p.cfg.ForSource(source)
	if opts.RulesFile == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoRulesFile, source)
	}
	rules, err := loadRules(opts)
	if err != nil {
		return nil, err
	}

	snapshots, err := p.store.LoadSnapshots(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for %s: %w", source, err)
	}
	raw := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		raw = append(raw, s.Category)
	}
	slices.Sort(raw)
	raw = slices.Compact(raw)

	metas := DeriveCategoryMeta(source, raw, rules)
	if err := p.store.ReplaceCategoryMeta(ctx, source, metas); err != nil {
		return nil, fmt.Errorf("failed to store categories for %s: %w", source, err)
	}
	p.logger.Info("categories synced", "source", source, "categories", len(metas))
	return metas, nil
}

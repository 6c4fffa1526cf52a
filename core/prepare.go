package core

import (
	"slices"
	"time"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// PrepareStats reports what working-copy preparation did to a source's history.
type PrepareStats struct {
	Input         int
	ExcludedRows  int // dropped by the resolved cutoff
	UnmatchedRows int // dropped because no category rule matched
	Recategorized int // rows relabeled with the task's latest category
	Output        int
}

// Prepare builds the working copy of snapshots that a run computes on. The input is
// never modified. Steps run in a fixed order: resolved cutoff, category rules,
// retroactive categories, retroactive points, then default points.
func Prepare(snapshots []schema.TaskSnapshot, opts contract.SourceOptions, rules []schema.CategoryRule) ([]schema.TaskSnapshot, PrepareStats) {
	stats := PrepareStats{Input: len(snapshots)}
	work := slices.Clone(snapshots)

	if !opts.ResolvedCutoff.IsZero() {
		before := len(work)
		work = ExcludeResolvedBefore(work, opts.ResolvedCutoff)
		stats.ExcludedRows = before - len(work)
	}
	if len(rules) > 0 {
		before := len(work)
		work = ApplyRules(work, rules)
		stats.UnmatchedRows = before - len(work)
	}
	if opts.RetroactiveCategories {
		work, stats.Recategorized = RecategorizeRetroactive(work)
	}
	if opts.RetroactivePoints {
		work = ApplyPointsRetroactive(work)
	}
	if opts.DefaultPoints != nil {
		work = ApplyDefaultPoints(work, *opts.DefaultPoints)
	}

	stats.Output = len(work)
	return work, stats
}

// ComputeOptions control the windows used by Compute.
type ComputeOptions struct {
	AsOf          time.Time // zero means the latest snapshot date
	Grid          Grid
	HistoryMonths int
	WindowMonths  int
}

// Compute derives every table of one source from its prepared snapshots. Snapshots
// dated after AsOf are ignored so a report can be reproduced for a past date.
func Compute(source string, snapshots []schema.TaskSnapshot, opts ComputeOptions) *schema.DerivedSet {
	if opts.HistoryMonths <= 0 {
		opts.HistoryMonths = schema.DefaultHistoryMonths
	}
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = schema.DefaultWindowMonths
	}

	asOf := schema.Day(opts.AsOf)
	if opts.AsOf.IsZero() {
		asOf = latestDate(snapshots)
	} else {
		snapshots = slices.DeleteFunc(slices.Clone(snapshots), func(s schema.TaskSnapshot) bool {
			return schema.Day(s.Date).After(asOf)
		})
	}

	backlog := ReduceBacklog(snapshots)
	velocity := AggregateVelocity(backlog, asOf, opts.Grid, opts.HistoryMonths)
	ApplyEstimates(velocity, opts.WindowMonths)
	ProjectForecasts(velocity)

	return &schema.DerivedSet{
		Source:               source,
		TallBacklog:          backlog,
		RecentlyClosed:       DetectWeeklyClosures(snapshots, opts.Grid),
		RecentlyClosedTasks:  DetectRecentlyClosedTasks(snapshots),
		Velocity:             velocity,
		MaintenanceFractions: ComputeMaintenanceFractions(snapshots, opts.Grid),
	}
}

func latestDate(snapshots []schema.TaskSnapshot) time.Time {
	var latest time.Time
	for _, s := range snapshots {
		if d := schema.Day(s.Date); d.After(latest) {
			latest = d
		}
	}
	return latest
}

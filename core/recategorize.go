package core

import (
	"slices"
	"time"

	"github.com/huangsam/tranche/schema"
)

// RecategorizeRetroactive returns a copy of snapshots in which every row of a task
// carries that task's category as of the latest snapshot date of the source. A task
// that is absent on that date takes the category of its own latest snapshot.
// The second result is the number of rows whose category changed.
func RecategorizeRetroactive(snapshots []schema.TaskSnapshot) ([]schema.TaskSnapshot, int) {
	current := latestPerTask(snapshots)

	out := slices.Clone(snapshots)
	changed := 0
	for i := range out {
		if c := current[out[i].TaskID].Category; c != out[i].Category {
			out[i].Category = c
			changed++
		}
	}
	return out, changed
}

// ApplyPointsRetroactive returns a copy of snapshots in which every row of a task
// carries the task's latest point estimate.
func ApplyPointsRetroactive(snapshots []schema.TaskSnapshot) []schema.TaskSnapshot {
	current := latestPerTask(snapshots)

	out := slices.Clone(snapshots)
	for i := range out {
		out[i].Points = current[out[i].TaskID].Points
	}
	return out
}

// ApplyDefaultPoints returns a copy of snapshots where unpointed rows take def.
func ApplyDefaultPoints(snapshots []schema.TaskSnapshot, def float64) []schema.TaskSnapshot {
	out := slices.Clone(snapshots)
	for i := range out {
		if out[i].Points == nil {
			out[i].Points = schema.Ptr(def)
		}
	}
	return out
}

// ExcludeResolvedBefore drops every row of tasks that were already resolved on or
// before cutoff, so work finished before tracking began does not inflate velocity.
func ExcludeResolvedBefore(snapshots []schema.TaskSnapshot, cutoff time.Time) []schema.TaskSnapshot {
	cutoff = schema.Day(cutoff)
	excluded := make(map[string]struct{})
	for _, s := range snapshots {
		if s.IsResolved() && !schema.Day(s.Date).After(cutoff) {
			excluded[s.TaskID] = struct{}{}
		}
	}
	if len(excluded) == 0 {
		return slices.Clone(snapshots)
	}

	out := make([]schema.TaskSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if _, ok := excluded[s.TaskID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// latestPerTask returns the latest snapshot of each task. For a task present on the
// source's latest date this is exactly that date's row.
func latestPerTask(snapshots []schema.TaskSnapshot) map[string]schema.TaskSnapshot {
	current := make(map[string]schema.TaskSnapshot)
	for _, s := range snapshots {
		prev, ok := current[s.TaskID]
		if !ok || schema.Day(s.Date).After(schema.Day(prev.Date)) {
			current[s.TaskID] = s
		}
	}
	return current
}

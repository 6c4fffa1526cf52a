package core

import (
	"sort"
	"time"

	"github.com/huangsam/tranche/schema"
)

// snapshotIndex holds snapshots keyed by day and task id, with days in ascending order.
type snapshotIndex struct {
	byDate map[time.Time]map[string]schema.TaskSnapshot
	dates  []time.Time
}

func indexSnapshots(snapshots []schema.TaskSnapshot) *snapshotIndex {
	idx := &snapshotIndex{byDate: make(map[time.Time]map[string]schema.TaskSnapshot)}
	for _, s := range snapshots {
		d := schema.Day(s.Date)
		tasks, ok := idx.byDate[d]
		if !ok {
			tasks = make(map[string]schema.TaskSnapshot)
			idx.byDate[d] = tasks
			idx.dates = append(idx.dates, d)
		}
		tasks[s.TaskID] = s
	}
	sort.Slice(idx.dates, func(i, j int) bool { return idx.dates[i].Before(idx.dates[j]) })
	return idx
}

// latest returns the most recent sampled day, or the zero time when empty.
func (idx *snapshotIndex) latest() time.Time {
	if len(idx.dates) == 0 {
		return time.Time{}
	}
	return idx.dates[len(idx.dates)-1]
}

// newlyClosed returns the tasks resolved at d that were not resolved at prior,
// ordered by task id. A task missing at prior counts as newly resolved.
func (idx *snapshotIndex) newlyClosed(d, prior time.Time) []schema.TaskSnapshot {
	before := idx.byDate[prior]
	var closed []schema.TaskSnapshot
	for id, s := range idx.byDate[d] {
		if !s.IsResolved() {
			continue
		}
		if p, ok := before[id]; ok && p.IsResolved() {
			continue
		}
		closed = append(closed, s)
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].TaskID < closed[j].TaskID })
	return closed
}

// weeklyClosure is the set of tasks newly resolved at one weekly sampled date.
type weeklyClosure struct {
	date  time.Time
	tasks []schema.TaskSnapshot
}

// weeklyNewlyClosed walks the gridded dates and compares each to the date one week earlier.
func weeklyNewlyClosed(idx *snapshotIndex, grid Grid) []weeklyClosure {
	var result []weeklyClosure
	for _, d := range idx.dates {
		if !grid.OnGrid(d) {
			continue
		}
		tasks := idx.newlyClosed(d, d.AddDate(0, 0, -schema.DaysPerWeek))
		if len(tasks) == 0 {
			continue
		}
		result = append(result, weeklyClosure{date: d, tasks: tasks})
	}
	return result
}

// DetectWeeklyClosures aggregates tasks newly resolved at each weekly sampled date
// by the category they carry on that date.
func DetectWeeklyClosures(snapshots []schema.TaskSnapshot, grid Grid) []schema.RecentlyClosed {
	idx := indexSnapshots(snapshots)

	var result []schema.RecentlyClosed
	for _, wc := range weeklyNewlyClosed(idx, grid) {
		byCategory := make(map[string]*schema.RecentlyClosed)
		var categories []string
		for _, s := range wc.tasks {
			rc, ok := byCategory[s.Category]
			if !ok {
				rc = &schema.RecentlyClosed{Source: s.Source, Date: wc.date, Category: s.Category}
				byCategory[s.Category] = rc
				categories = append(categories, s.Category)
			}
			rc.Points += s.PointsOrZero()
			rc.Count++
		}
		sort.Strings(categories)
		for _, c := range categories {
			result = append(result, *byCategory[c])
		}
	}
	return result
}

// DetectRecentlyClosedTasks lists every task newly resolved on a daily basis
// within the RecentClosedDays ending at the latest snapshot date.
//
// A task counts as newly closed on d when it has no resolved sample on d-1.
// With weekly or other non-daily samples there is never such a sample, so a
// resolved task is listed again on every sampled date inside the window.
func DetectRecentlyClosedTasks(snapshots []schema.TaskSnapshot) []schema.RecentlyClosedTask {
	idx := indexSnapshots(snapshots)
	if len(idx.dates) == 0 {
		return nil
	}
	horizon := idx.latest().AddDate(0, 0, -schema.RecentClosedDays)

	var result []schema.RecentlyClosedTask
	for _, d := range idx.dates {
		if !d.After(horizon) {
			continue
		}
		for _, s := range idx.newlyClosed(d, d.AddDate(0, 0, -1)) {
			result = append(result, schema.RecentlyClosedTask{
				Source:   s.Source,
				Date:     d,
				Category: s.Category,
				TaskID:   s.TaskID,
				Title:    s.Title,
				Points:   s.PointsOrZero(),
			})
		}
	}
	return result
}

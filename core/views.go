package core

import (
	"sort"
	"time"

	"github.com/huangsam/tranche/schema"
)

// BacklogView returns the backlog rows of one status for categories that are either
// zoom categories or whose zoom flag equals the requested one. Categories without
// metadata are excluded. Rows are ordered by date, then sort order.
func BacklogView(backlog []schema.TallBacklogEntry, metas []schema.CategoryMeta, status string, zoom bool) []schema.BacklogViewRow {
	byCategory := make(map[string]schema.CategoryMeta, len(metas))
	for _, m := range metas {
		byCategory[m.Category] = m
	}

	type key struct {
		date     time.Time
		category string
	}
	rows := make(map[key]*schema.BacklogViewRow)
	for _, e := range backlog {
		if e.Status != status {
			continue
		}
		m, ok := byCategory[e.Category]
		if !ok || !(m.Zoom || m.Zoom == zoom) {
			continue
		}
		k := key{date: schema.Day(e.Date), category: e.Category}
		row, ok := rows[k]
		if !ok {
			row = &schema.BacklogViewRow{Source: e.Source, Date: k.date, Category: e.Category, SortOrder: m.SortOrder}
			rows[k] = row
		}
		row.Points += e.Points
		row.Count += e.Count
	}

	result := make([]schema.BacklogViewRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Category < b.Category
	})
	return result
}

// categoryOrder maps categories to their sort order. Unknown categories sort after
// every known one, by name.
type categoryOrder map[string]int

func newCategoryOrder(metas []schema.CategoryMeta) categoryOrder {
	order := make(categoryOrder, len(metas))
	for _, m := range metas {
		order[m.Category] = m.SortOrder
	}
	return order
}

func (o categoryOrder) less(a, b string) bool {
	oa, okA := o[a]
	ob, okB := o[b]
	switch {
	case okA && okB && oa != ob:
		return oa < ob
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// LatestForecasts returns the most recent velocity record of each category, labelled
// with where each forecast date lands relative to the quarter containing now.
func LatestForecasts(records []schema.VelocityRecord, metas []schema.CategoryMeta, now time.Time) []schema.ForecastSummary {
	latest := make(map[string]schema.VelocityRecord)
	for _, r := range records {
		if prev, ok := latest[r.Category]; !ok || r.Date.After(prev.Date) {
			latest[r.Category] = r
		}
	}

	order := newCategoryOrder(metas)
	result := make([]schema.ForecastSummary, 0, len(latest))
	for _, r := range latest {
		result = append(result, schema.ForecastSummary{
			VelocityRecord: r,
			SortOrder:      order[r.Category],
			PointsQuarter:  quarterLabels(r.Points, now),
			CountQuarter:   quarterLabels(r.Count, now),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return order.less(result[i].Category, result[j].Category)
	})
	return result
}

func quarterLabels(set schema.EstimateSet, now time.Time) schema.QuarterLabels {
	return schema.QuarterLabels{
		Pessimistic: QuarterLabel(set.Pessimistic.Date, now),
		Nominal:     QuarterLabel(set.Nominal.Date, now),
		Optimistic:  QuarterLabel(set.Optimistic.Date, now),
	}
}

// OpenTasks lists the tasks open on the latest snapshot date, by category order then id.
func OpenTasks(snapshots []schema.TaskSnapshot, metas []schema.CategoryMeta) []schema.TaskSnapshot {
	idx := indexSnapshots(snapshots)
	if len(idx.dates) == 0 {
		return nil
	}

	var open []schema.TaskSnapshot
	for _, s := range idx.byDate[idx.latest()] {
		if s.Status == schema.OpenStatus {
			open = append(open, s)
		}
	}

	order := newCategoryOrder(metas)
	sort.Slice(open, func(i, j int) bool {
		a, b := open[i], open[j]
		if a.Category != b.Category {
			return order.less(a.Category, b.Category)
		}
		return a.TaskID < b.TaskID
	})
	return open
}

// UnpointedTasks lists the open tasks on the latest snapshot date with no usable estimate.
func UnpointedTasks(snapshots []schema.TaskSnapshot, metas []schema.CategoryMeta) []schema.TaskSnapshot {
	var unpointed []schema.TaskSnapshot
	for _, s := range OpenTasks(snapshots, metas) {
		if s.PointsOrZero() == 0 {
			unpointed = append(unpointed, s)
		}
	}
	return unpointed
}

// Categories returns metadata for every category present in the backlog, ordered for
// display. Categories without curated metadata are appended after the known ones.
func Categories(backlog []schema.TallBacklogEntry, metas []schema.CategoryMeta) []schema.CategoryMeta {
	byCategory := make(map[string]schema.CategoryMeta, len(metas))
	for _, m := range metas {
		byCategory[m.Category] = m
	}

	sources := make(map[string]string)
	var names []string
	for _, e := range backlog {
		if _, ok := sources[e.Category]; !ok {
			sources[e.Category] = e.Source
			names = append(names, e.Category)
		}
	}
	order := newCategoryOrder(metas)
	sort.Slice(names, func(i, j int) bool { return order.less(names[i], names[j]) })

	next := 0
	for _, m := range metas {
		next = max(next, m.SortOrder+1)
	}
	result := make([]schema.CategoryMeta, 0, len(names))
	for _, name := range names {
		m, ok := byCategory[name]
		if !ok {
			m = schema.CategoryMeta{Source: sources[name], Category: name, SortOrder: next}
			next++
		}
		result = append(result, m)
	}
	return result
}

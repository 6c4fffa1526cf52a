package core

import (
	"sort"
	"time"

	"github.com/huangsam/tranche/schema"
)

type velocityKey struct {
	category string
	date     time.Time
}

// AggregateVelocity builds one VelocityRecord per (category, weekly sampled date) in the
// historyMonths ending at asOf, then fills period-over-period deltas per category.
//
// Resolved and open backlog rows are joined by key. A record with no open row keeps a
// nil open amount; a record with no resolved row has resolved totals of zero.
func AggregateVelocity(backlog []schema.TallBacklogEntry, asOf time.Time, grid Grid, historyMonths int) []schema.VelocityRecord {
	asOf = schema.Day(asOf)
	start := subtractMonths(asOf, historyMonths)

	// Pass 1: group resolved and open totals by (category, date).
	records := make(map[velocityKey]*schema.VelocityRecord)
	for _, e := range backlog {
		if e.Status != schema.ResolvedStatus && e.Status != schema.OpenStatus {
			continue
		}
		d := schema.Day(e.Date)
		if d.Before(start) || d.After(asOf) || !grid.OnGrid(d) {
			continue
		}
		key := velocityKey{category: e.Category, date: d}
		r, ok := records[key]
		if !ok {
			r = &schema.VelocityRecord{Source: e.Source, Category: e.Category, Date: d}
			records[key] = r
		}
		switch e.Status {
		case schema.ResolvedStatus:
			r.PointsResolved = e.Points
			r.CountResolved = e.Count
		case schema.OpenStatus:
			r.PointsOpen = schema.Ptr(e.Points)
			r.CountOpen = schema.Ptr(e.Count)
		}
	}

	result := make([]schema.VelocityRecord, 0, len(records))
	for _, r := range records {
		result = append(result, *r)
	}
	sortVelocity(result)

	// Pass 2: windowed scan ordered by date within each category.
	forEachCategory(result, func(group []schema.VelocityRecord) {
		for i := 1; i < len(group); i++ {
			fillDeltas(&group[i], &group[i-1])
		}
	})
	return result
}

// fillDeltas sets cur's deltas against its predecessor prev.
func fillDeltas(cur, prev *schema.VelocityRecord) {
	cur.DeltaResolvedPoints = schema.Ptr(cur.PointsResolved - prev.PointsResolved)
	cur.DeltaResolvedCount = schema.Ptr(cur.CountResolved - prev.CountResolved)
	if cur.PointsOpen != nil && prev.PointsOpen != nil {
		total := cur.PointsResolved + *cur.PointsOpen
		prior := prev.PointsResolved + *prev.PointsOpen
		cur.DeltaTotalPoints = schema.Ptr(total - prior)
	}
	if cur.CountOpen != nil && prev.CountOpen != nil {
		total := cur.CountResolved + *cur.CountOpen
		prior := prev.CountResolved + *prev.CountOpen
		cur.DeltaTotalCount = schema.Ptr(total - prior)
	}
}

// sortVelocity orders records by category, then date.
func sortVelocity(records []schema.VelocityRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Date.Before(b.Date)
	})
}

// forEachCategory calls fn with each contiguous run of records sharing a category.
// Records must already be sorted with sortVelocity; fn may modify the group in place.
func forEachCategory(records []schema.VelocityRecord, fn func([]schema.VelocityRecord)) {
	start := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || records[i].Category != records[start].Category {
			fn(records[start:i])
			start = i
		}
	}
}

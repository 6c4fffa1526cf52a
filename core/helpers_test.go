package core

import (
	"time"

	"github.com/huangsam/tranche/schema"
)

// Fridays on the default weekly grid.
var (
	week1 = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	week2 = week1.AddDate(0, 0, 7)
	week3 = week1.AddDate(0, 0, 14)
	week4 = week1.AddDate(0, 0, 21)
)

func snap(id string, d time.Time, status, category string, points float64) schema.TaskSnapshot {
	return schema.TaskSnapshot{
		Source:   "ABC",
		TaskID:   id,
		Date:     d,
		Title:    "task " + id,
		Status:   status,
		Category: category,
		Points:   schema.Ptr(points),
	}
}

func entry(d time.Time, category, status string, points float64, count int) schema.TallBacklogEntry {
	return schema.TallBacklogEntry{
		Source:   "ABC",
		Date:     d,
		Category: category,
		Status:   status,
		Points:   points,
		Count:    count,
	}
}

func findRecord(records []schema.VelocityRecord, category string, d time.Time) (schema.VelocityRecord, bool) {
	for _, r := range records {
		if r.Category == category && r.Date.Equal(d) {
			return r, true
		}
	}
	return schema.VelocityRecord{}, false
}

package core

import (
	"sort"
	"time"

	"github.com/huangsam/tranche/schema"
)

type backlogKey struct {
	date     time.Time
	category string
	status   string
}

// ReduceBacklog collapses snapshots into one TallBacklogEntry per (date, category, status).
// Count is the number of distinct tasks and points is the sum of their estimates,
// with missing estimates summed as zero.
func ReduceBacklog(snapshots []schema.TaskSnapshot) []schema.TallBacklogEntry {
	if len(snapshots) == 0 {
		return nil
	}

	entries := make(map[backlogKey]*schema.TallBacklogEntry)
	seen := make(map[backlogKey]map[string]struct{})

	for _, s := range snapshots {
		key := backlogKey{date: schema.Day(s.Date), category: s.Category, status: s.Status}
		entry, ok := entries[key]
		if !ok {
			entry = &schema.TallBacklogEntry{
				Source:   s.Source,
				Date:     key.date,
				Category: s.Category,
				Status:   s.Status,
			}
			entries[key] = entry
			seen[key] = make(map[string]struct{})
		}
		if _, dup := seen[key][s.TaskID]; dup {
			continue
		}
		seen[key][s.TaskID] = struct{}{}
		entry.Points += s.PointsOrZero()
		entry.Count++
	}

	result := make([]schema.TallBacklogEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, *e)
	}
	sortBacklog(result)
	return result
}

// sortBacklog orders entries by date, then category, then status.
func sortBacklog(entries []schema.TallBacklogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Status < b.Status
	})
}

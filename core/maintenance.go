package core

import "github.com/huangsam/tranche/schema"

// ComputeMaintenanceFractions splits the work newly resolved at each weekly sampled
// date into maintenance and everything else. Dates without closures are omitted.
func ComputeMaintenanceFractions(snapshots []schema.TaskSnapshot, grid Grid) []schema.MaintenanceFraction {
	idx := indexSnapshots(snapshots)

	var result []schema.MaintenanceFraction
	for _, wc := range weeklyNewlyClosed(idx, grid) {
		mf := schema.MaintenanceFraction{Source: wc.tasks[0].Source, Date: wc.date}
		for _, s := range wc.tasks {
			mf.TotalPoints += s.PointsOrZero()
			mf.TotalCount++
			if s.MaintType == schema.MaintenanceType {
				mf.MaintPoints += s.PointsOrZero()
				mf.MaintCount++
			}
		}
		result = append(result, mf)
	}
	return result
}

package core

import (
	"math"
	"time"

	"github.com/huangsam/tranche/schema"
)

// minVelocity is the floor applied to every estimate before dividing the open backlog.
const minVelocity = 1.0

// ProjectPeriods returns the number of periods needed to burn open at velocity,
// with velocity floored at minVelocity.
func ProjectPeriods(open, velocity float64) int {
	return int(math.Round(open / math.Max(velocity, minVelocity)))
}

// ProjectForecasts fills periods remaining and completion dates for all six estimates
// of every record. Records with a nil open amount, or estimates with a nil velocity,
// get no forecast.
func ProjectForecasts(records []schema.VelocityRecord) {
	for i := range records {
		r := &records[i]
		if r.PointsOpen != nil {
			projectSet(&r.Points, *r.PointsOpen, r.Date)
		}
		if r.CountOpen != nil {
			projectSet(&r.Count, float64(*r.CountOpen), r.Date)
		}
	}
}

func projectSet(set *schema.EstimateSet, open float64, date time.Time) {
	for _, e := range []*schema.Estimate{&set.Pessimistic, &set.Nominal, &set.Optimistic} {
		if e.Velocity == nil {
			continue
		}
		periods := ProjectPeriods(open, *e.Velocity)
		e.Periods = schema.Ptr(periods)
		e.Date = schema.Ptr(addWeeks(date, periods))
	}
}

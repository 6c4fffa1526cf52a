package core

import (
	"math"
	"slices"

	"github.com/huangsam/tranche/schema"
)

// Velocities are the three rounded estimates derived from one window of deltas.
// Each is nil when the window holds no samples.
type Velocities struct {
	Pessimistic *float64
	Nominal     *float64
	Optimistic  *float64
}

// EstimateVelocities derives the pessimistic, nominal and optimistic estimates from deltas.
//
// Optimistic is the mean of the EstimateTopN largest deltas. Pessimistic is the mean of
// the EstimateTopN smallest deltas after negative deltas are clamped to zero. Both divide
// by the number of values actually selected. Nominal is the mean of every delta.
// All three are rounded to the nearest integer.
func EstimateVelocities(deltas []float64) Velocities {
	n := len(deltas)
	if n == 0 {
		return Velocities{}
	}
	k := min(schema.EstimateTopN, n)

	sorted := slices.Clone(deltas)
	slices.Sort(sorted)

	var top float64
	for _, v := range sorted[n-k:] {
		top += v
	}

	clamped := make([]float64, n)
	for i, v := range sorted {
		clamped[i] = max(v, 0)
	}
	var bottom float64
	for _, v := range clamped[:k] {
		bottom += v
	}

	var sum float64
	for _, v := range deltas {
		sum += v
	}

	return Velocities{
		Pessimistic: schema.Ptr(math.Round(bottom / float64(k))),
		Nominal:     schema.Ptr(math.Round(sum / float64(n))),
		Optimistic:  schema.Ptr(math.Round(top / float64(k))),
	}
}

// ApplyEstimates fills the velocity of every estimate on every record from the deltas of
// its own category within [D - windowMonths, D]. Records must be sorted with sortVelocity
// and have their deltas populated for the whole history before this runs.
func ApplyEstimates(records []schema.VelocityRecord, windowMonths int) {
	forEachCategory(records, func(group []schema.VelocityRecord) {
		for i := range group {
			windowStart := subtractMonths(group[i].Date, windowMonths)
			var points, counts []float64
			for j := i; j >= 0 && !group[j].Date.Before(windowStart); j-- {
				if d := group[j].DeltaResolvedPoints; d != nil {
					points = append(points, *d)
				}
				if d := group[j].DeltaResolvedCount; d != nil {
					counts = append(counts, float64(*d))
				}
			}
			setVelocities(&group[i].Points, EstimateVelocities(points))
			setVelocities(&group[i].Count, EstimateVelocities(counts))
		}
	})
}

func setVelocities(set *schema.EstimateSet, v Velocities) {
	set.Pessimistic.Velocity = v.Pessimistic
	set.Nominal.Velocity = v.Nominal
	set.Optimistic.Velocity = v.Optimistic
}

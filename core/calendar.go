package core

import (
	"time"

	"github.com/huangsam/tranche/schema"
)

// DefaultGridAnchor is the epoch boundary offset by one day. Weekly sampled
// dates are the days a whole number of weeks away from it (Fridays).
var DefaultGridAnchor = time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)

// Grid selects the weekly sampled dates out of irregular snapshot dates.
type Grid struct {
	Anchor time.Time
}

// NewGrid returns a weekly grid anchored at the given day, or at DefaultGridAnchor when zero.
func NewGrid(anchor time.Time) Grid {
	if anchor.IsZero() {
		anchor = DefaultGridAnchor
	}
	return Grid{Anchor: schema.Day(anchor)}
}

// OnGrid reports whether d falls exactly on the weekly cadence.
func (g Grid) OnGrid(d time.Time) bool {
	days := daysBetween(g.Anchor, schema.Day(d))
	return days%schema.DaysPerWeek == 0
}

// daysBetween returns the whole number of days from a to b (negative when b is earlier).
func daysBetween(a, b time.Time) int {
	return int(schema.Day(b).Sub(schema.Day(a)).Hours() / 24)
}

// addWeeks moves d forward by n weeks, staying on day granularity.
func addWeeks(d time.Time, n int) time.Time {
	return schema.Day(d).AddDate(0, 0, n*schema.DaysPerWeek)
}

// subtractMonths moves d back n calendar months. A day past the end of the target
// month is clamped to its last day, so 2024-05-31 minus 3 months is 2024-02-29.
func subtractMonths(d time.Time, n int) time.Time {
	d = schema.Day(d)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d.Day(), last), 0, 0, 0, 0, time.UTC)
}

// StartOfQuarter returns the first day of the calendar quarter containing d.
func StartOfQuarter(d time.Time) time.Time {
	month := ((d.Month()-1)/3)*3 + 1
	return time.Date(d.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}

// QuarterLabel places a forecast date relative to the quarter containing now.
func QuarterLabel(forecast *time.Time, now time.Time) string {
	if forecast == nil {
		return schema.UnknownLabel
	}
	next := StartOfQuarter(now).AddDate(0, 3, 0)
	switch {
	case forecast.Before(next):
		return schema.ThisQuarterLabel
	case forecast.Before(next.AddDate(0, 3, 0)):
		return schema.NextQuarterLabel
	default:
		return schema.LaterLabel
	}
}

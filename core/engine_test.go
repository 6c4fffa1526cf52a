package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/tranche/schema"
)

func TestReduceBacklog(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Infra", 3),
		snap("T2", week1, schema.OpenStatus, "Infra", 2),
		snap("T2", week1, schema.OpenStatus, "Infra", 2), // duplicate row counts once
		snap("T3", week1, schema.ResolvedStatus, "Infra", 5),
		{Source: "ABC", TaskID: "T4", Date: week1, Status: schema.OpenStatus, Category: "Docs"},
	}

	got := ReduceBacklog(snaps)
	assert.Equal(t, []schema.TallBacklogEntry{
		entry(week1, "Docs", schema.OpenStatus, 0, 1),
		entry(week1, "Infra", schema.OpenStatus, 5, 2),
		entry(week1, "Infra", schema.ResolvedStatus, 5, 1),
	}, got)

	assert.Empty(t, ReduceBacklog(nil))
}

func TestGrid(t *testing.T) {
	grid := NewGrid(time.Time{})
	assert.Equal(t, DefaultGridAnchor, grid.Anchor)
	assert.True(t, grid.OnGrid(week1))
	assert.True(t, grid.OnGrid(week1.Add(13*time.Hour)))
	assert.False(t, grid.OnGrid(week1.AddDate(0, 0, 1)))
	assert.True(t, grid.OnGrid(DefaultGridAnchor.AddDate(0, 0, -7)))

	monday := NewGrid(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, monday.OnGrid(week1))
	assert.True(t, monday.OnGrid(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))
}

func TestQuarterLabel(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		forecast *time.Time
		expected string
	}{
		{"nil forecast", nil, schema.UnknownLabel},
		{"same quarter", schema.Ptr(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)), schema.ThisQuarterLabel},
		{"in the past", schema.Ptr(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)), schema.ThisQuarterLabel},
		{"next quarter start", schema.Ptr(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)), schema.NextQuarterLabel},
		{"next quarter end", schema.Ptr(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)), schema.NextQuarterLabel},
		{"later", schema.Ptr(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)), schema.LaterLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuarterLabel(tt.forecast, now))
		})
	}
}

func TestAggregateVelocityScenario(t *testing.T) {
	backlog := []schema.TallBacklogEntry{
		entry(week1, "Infra", schema.ResolvedStatus, 10, 2),
		entry(week2, "Infra", schema.ResolvedStatus, 15, 3),
		entry(week3, "Infra", schema.ResolvedStatus, 22, 5),
		entry(week1, "Infra", schema.OpenStatus, 30, 6),
		entry(week2, "Infra", schema.OpenStatus, 28, 5),
		// week3 has no open row
	}

	records := AggregateVelocity(backlog, week3, NewGrid(time.Time{}), schema.DefaultHistoryMonths)
	require.Len(t, records, 3)

	first := records[0]
	assert.Nil(t, first.DeltaResolvedPoints)
	assert.Nil(t, first.DeltaResolvedCount)
	assert.Nil(t, first.DeltaTotalPoints)

	second := records[1]
	assert.Equal(t, 5.0, *second.DeltaResolvedPoints)
	assert.Equal(t, 1, *second.DeltaResolvedCount)
	assert.Equal(t, 3.0, *second.DeltaTotalPoints) // (15+28) - (10+30)
	assert.Equal(t, 0, *second.DeltaTotalCount)

	third := records[2]
	assert.Equal(t, 7.0, *third.DeltaResolvedPoints)
	assert.Nil(t, third.PointsOpen)
	assert.Nil(t, third.DeltaTotalPoints, "missing open data leaves total delta undefined")

	ApplyEstimates(records, schema.DefaultWindowMonths)
	require.NotNil(t, records[2].Points.Nominal.Velocity)
	assert.Equal(t, 6.0, *records[2].Points.Nominal.Velocity)
	assert.Equal(t, 6.0, *records[2].Points.Optimistic.Velocity)
	assert.Equal(t, 6.0, *records[2].Points.Pessimistic.Velocity)
	assert.Nil(t, records[0].Points.Nominal.Velocity, "no deltas yet")
}

func TestAggregateVelocityFilters(t *testing.T) {
	backlog := []schema.TallBacklogEntry{
		entry(week1, "Infra", schema.OpenStatus, 8, 2),                      // open only: resolved is zero
		entry(week1.AddDate(0, 0, 1), "Infra", schema.ResolvedStatus, 1, 1), // off grid
		entry(week1, "Infra", "wontfix", 4, 1),                              // other statuses ignored
		entry(week1.AddDate(-1, 0, 0), "Infra", schema.ResolvedStatus, 1, 1),
		entry(week4, "Infra", schema.ResolvedStatus, 1, 1), // after as-of
	}
	records := AggregateVelocity(backlog, week3, NewGrid(time.Time{}), schema.DefaultHistoryMonths)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].PointsResolved)
	assert.Equal(t, 8.0, *records[0].PointsOpen)
}

func TestDeltaConsistency(t *testing.T) {
	var backlog []schema.TallBacklogEntry
	resolved := []float64{3, 9, 4, 12, 12}
	for i, v := range resolved {
		d := week1.AddDate(0, 0, 7*i)
		backlog = append(backlog, entry(d, "Infra", schema.ResolvedStatus, v, i), entry(d, "Docs", schema.ResolvedStatus, v*2, i))
	}
	records := AggregateVelocity(backlog, week1.AddDate(0, 0, 28), NewGrid(time.Time{}), 6)

	forEachCategory(records, func(group []schema.VelocityRecord) {
		for i := 1; i < len(group); i++ {
			assert.Equal(t, group[i].PointsResolved-group[i-1].PointsResolved, *group[i].DeltaResolvedPoints)
		}
	})
}

func TestEstimateVelocities(t *testing.T) {
	tests := []struct {
		name                           string
		deltas                         []float64
		pessimistic, nominal, optimist float64
	}{
		{"single sample", []float64{5}, 5, 5, 5},
		{"two samples divide by two", []float64{5, 7}, 6, 6, 6},
		{"negatives clamped for pessimistic only", []float64{-4, 2, 10, 6}, 3, 4, 6},
		{"all negative", []float64{-3, -5}, 0, -4, -4},
		{"half rounds away from zero", []float64{1, 2}, 2, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EstimateVelocities(tt.deltas)
			assert.Equal(t, tt.pessimistic, *v.Pessimistic)
			assert.Equal(t, tt.nominal, *v.Nominal)
			assert.Equal(t, tt.optimist, *v.Optimistic)
		})
	}

	empty := EstimateVelocities(nil)
	assert.Nil(t, empty.Pessimistic)
	assert.Nil(t, empty.Nominal)
	assert.Nil(t, empty.Optimistic)
}

func TestPessimisticNeverNegative(t *testing.T) {
	windows := [][]float64{
		{-10, -1, -7},
		{-1, 0, 1},
		{-100, 50, -3, 2, 8},
	}
	for _, w := range windows {
		v := EstimateVelocities(w)
		assert.GreaterOrEqual(t, *v.Pessimistic, 0.0)
	}
}

func TestApplyEstimatesWindow(t *testing.T) {
	var backlog []schema.TallBacklogEntry
	// 20 weeks of resolved totals growing by i each week.
	total := 0.0
	for i := range 20 {
		total += float64(i)
		backlog = append(backlog, entry(week1.AddDate(0, 0, 7*i), "Infra", schema.ResolvedStatus, total, i))
	}
	last := week1.AddDate(0, 0, 7*19)
	records := AggregateVelocity(backlog, last, NewGrid(time.Time{}), 6)
	ApplyEstimates(records, 1)

	r, ok := findRecord(records, "Infra", last)
	require.True(t, ok)
	// A one month window ending at the last date spans that date and the four weeks before it.
	assert.Equal(t, 17.0, *r.Points.Nominal.Velocity) // mean(15..19)
	assert.Equal(t, 18.0, *r.Points.Optimistic.Velocity)
	assert.Equal(t, 16.0, *r.Points.Pessimistic.Velocity)
}

func TestApplyEstimatesWindowMonthEnd(t *testing.T) {
	// Fridays from 2024-02-23 to 2024-05-31 with a jump of 100 on 2024-03-01.
	start := time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	var backlog []schema.TallBacklogEntry
	total := 0.0
	for d, i := start, 0; !d.After(last); d, i = d.AddDate(0, 0, 7), i+1 {
		switch {
		case i == 1:
			total += 100
		case i > 1:
			total++
		}
		backlog = append(backlog, entry(d, "Infra", schema.ResolvedStatus, total, i))
	}

	records := AggregateVelocity(backlog, last, NewGrid(time.Time{}), 6)
	ApplyEstimates(records, 3)

	r, ok := findRecord(records, "Infra", last)
	require.True(t, ok)
	// The window starts at 2024-02-29, so the delta at 2024-03-01 is inside it.
	assert.Equal(t, 34.0, *r.Points.Optimistic.Velocity) // (100+1+1)/3
	assert.Equal(t, 8.0, *r.Points.Nominal.Velocity)     // 113/14
}

func TestSubtractMonths(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2024-05-31", 3, "2024-02-29"},
		{"2023-05-31", 3, "2023-02-28"},
		{"2024-03-31", 1, "2024-02-29"},
		{"2024-08-31", 6, "2024-02-29"},
		{"2024-05-15", 3, "2024-02-15"},
		{"2024-01-31", 2, "2023-11-30"},
		{"2024-07-31", 0, "2024-07-31"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			from, err := schema.ParseDate(tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.FormatDate(subtractMonths(from, tt.months)))
		})
	}
}

func TestProjectPeriods(t *testing.T) {
	assert.Equal(t, 50, ProjectPeriods(50, 0), "zero velocity is floored at one")
	assert.Equal(t, 50, ProjectPeriods(50, -3), "negative velocity is floored at one")
	assert.Equal(t, 10, ProjectPeriods(50, 5))
	assert.Equal(t, 17, ProjectPeriods(50, 3))
	assert.Equal(t, 0, ProjectPeriods(0, 4))
}

func TestProjectForecasts(t *testing.T) {
	records := []schema.VelocityRecord{
		{
			Category:   "Infra",
			Date:       week3,
			PointsOpen: schema.Ptr(50.0),
			CountOpen:  nil,
			Points: schema.EstimateSet{
				Pessimistic: schema.Estimate{Velocity: schema.Ptr(0.0)},
				Nominal:     schema.Estimate{Velocity: schema.Ptr(10.0)},
			},
			Count: schema.EstimateSet{Nominal: schema.Estimate{Velocity: schema.Ptr(2.0)}},
		},
	}
	ProjectForecasts(records)

	r := records[0]
	assert.Equal(t, 50, *r.Points.Pessimistic.Periods)
	assert.Equal(t, week3.AddDate(0, 0, 350), *r.Points.Pessimistic.Date)
	assert.Equal(t, 5, *r.Points.Nominal.Periods)
	assert.Nil(t, r.Points.Optimistic.Periods, "no velocity, no forecast")
	assert.Nil(t, r.Count.Nominal.Periods, "no open count, no forecast")
}

func TestDetectWeeklyClosures(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Infra", 3),
		snap("T2", week1, schema.ResolvedStatus, "Infra", 2),
		snap("T1", week2, schema.ResolvedStatus, "Infra", 3),
		snap("T2", week2, schema.ResolvedStatus, "Infra", 2), // still resolved, not new
		snap("T3", week2, schema.ResolvedStatus, "Docs", 1),  // absent before: new
		snap("T4", week2.AddDate(0, 0, 1), schema.ResolvedStatus, "Docs", 1),
	}
	got := DetectWeeklyClosures(snaps, NewGrid(time.Time{}))

	assert.Equal(t, []schema.RecentlyClosed{
		{Source: "ABC", Date: week1, Category: "Infra", Points: 2, Count: 1},
		{Source: "ABC", Date: week2, Category: "Docs", Points: 1, Count: 1},
		{Source: "ABC", Date: week2, Category: "Infra", Points: 3, Count: 1},
	}, got)
}

func TestClosureNonDuplication(t *testing.T) {
	var snaps []schema.TaskSnapshot
	statuses := []string{schema.OpenStatus, schema.ResolvedStatus, schema.ResolvedStatus, schema.OpenStatus, schema.ResolvedStatus}
	for i, st := range statuses {
		snaps = append(snaps, snap("T1", week1.AddDate(0, 0, 7*i), st, "Infra", 1))
	}
	resolvedAt := make(map[time.Time]bool)
	for _, s := range snaps {
		resolvedAt[s.Date] = s.IsResolved()
	}

	closures := DetectWeeklyClosures(snaps, NewGrid(time.Time{}))
	require.Len(t, closures, 2)
	for _, c := range closures {
		assert.False(t, resolvedAt[c.Date.AddDate(0, 0, -7)], "closed at %s was already resolved a week earlier", c.Date)
	}
}

func TestDetectRecentlyClosedTasks(t *testing.T) {
	latest := week4
	snaps := []schema.TaskSnapshot{
		snap("OLD", latest.AddDate(0, 0, -20), schema.ResolvedStatus, "Infra", 1), // outside 14 days
		snap("T1", latest.AddDate(0, 0, -2), schema.OpenStatus, "Infra", 2),
		snap("T1", latest.AddDate(0, 0, -1), schema.ResolvedStatus, "Infra", 2),
		snap("T1", latest, schema.ResolvedStatus, "Infra", 2),
		snap("T2", latest, schema.ResolvedStatus, "Docs", 0),
	}
	got := DetectRecentlyClosedTasks(snaps)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TaskID)
	assert.Equal(t, latest.AddDate(0, 0, -1), got[0].Date)
	assert.Equal(t, "task T1", got[0].Title)
	assert.Equal(t, "T2", got[1].TaskID)

	assert.Nil(t, DetectRecentlyClosedTasks(nil))
}

func TestDetectRecentlyClosedTasksWeeklySamples(t *testing.T) {
	snaps := []schema.TaskSnapshot{
		snap("T1", week2, schema.OpenStatus, "Infra", 2),
		snap("T1", week3, schema.ResolvedStatus, "Infra", 2),
		snap("T1", week4, schema.ResolvedStatus, "Infra", 2),
	}
	got := DetectRecentlyClosedTasks(snaps)
	require.Len(t, got, 2)
	assert.Equal(t, week3, got[0].Date)
	assert.Equal(t, week4, got[1].Date)
	assert.Equal(t, "T1", got[1].TaskID)
}

func TestComputeMaintenanceFractions(t *testing.T) {
	maint := snap("T1", week2, schema.ResolvedStatus, "Infra", 3)
	maint.MaintType = schema.MaintenanceType
	snaps := []schema.TaskSnapshot{
		snap("T1", week1, schema.OpenStatus, "Infra", 3),
		maint,
		snap("T2", week2, schema.ResolvedStatus, "Infra", 1),
	}
	got := ComputeMaintenanceFractions(snaps, NewGrid(time.Time{}))
	require.Len(t, got, 1)
	assert.Equal(t, week2, got[0].Date)
	assert.Equal(t, 0.75, got[0].PointsFraction())
	assert.Equal(t, 0.5, got[0].CountFraction())
}

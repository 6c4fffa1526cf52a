package outwriter

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// measureKind selects the points or count half of a velocity record.
type measureKind string

const (
	pointsMeasure measureKind = "points"
	countMeasure  measureKind = "count"
)

func selectedMeasures(cfg *contract.Config, sources []string) []measureKind {
	points, count := measures(cfg, sources)
	var out []measureKind
	if points {
		out = append(out, pointsMeasure)
	}
	if count {
		out = append(out, countMeasure)
	}
	return out
}

func (m measureKind) estimates(r *schema.VelocityRecord) schema.EstimateSet {
	if m == countMeasure {
		return r.Count
	}
	return r.Points
}

func (m measureKind) labels(f *schema.ForecastSummary) schema.QuarterLabels {
	if m == countMeasure {
		return f.CountQuarter
	}
	return f.PointsQuarter
}

// open formats the open amount of the measure.
func (m measureKind) open(r *schema.VelocityRecord, fmtFloat func(float64) string) string {
	if m == countMeasure {
		return optionalInt(r.CountOpen)
	}
	return optionalFloat(fmtFloat, r.PointsOpen)
}

func (m measureKind) resolved(r *schema.VelocityRecord, fmtFloat func(float64) string) string {
	if m == countMeasure {
		return strconv.Itoa(r.CountResolved)
	}
	return fmtFloat(r.PointsResolved)
}

func (m measureKind) deltas(r *schema.VelocityRecord, fmtFloat func(float64) string) (resolved, total string) {
	if m == countMeasure {
		return optionalInt(r.DeltaResolvedCount), optionalInt(r.DeltaTotalCount)
	}
	return optionalFloat(fmtFloat, r.DeltaResolvedPoints), optionalFloat(fmtFloat, r.DeltaTotalPoints)
}

func (m measureKind) unit() string {
	if m == countMeasure {
		return "tasks"
	}
	return "pts"
}

func sourcesOfForecasts(rows []schema.ForecastSummary) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	return out
}

// forecastCell renders a forecast date with its quarter label.
func forecastCell(e schema.Estimate, label string, useColors bool) string {
	if useColors {
		label = contract.GetColorLabel(label)
	}
	if e.Date == nil {
		return label
	}
	return fmt.Sprintf("%s %s", schema.FormatDate(*e.Date), label)
}

func forecastView(rows []schema.ForecastSummary, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	kinds := selectedMeasures(cfg, sourcesOfForecasts(rows))

	v := view{
		name: "forecasts",
		data: rows,
		header: []string{
			"source", "category", "sort_order", "date", "measure", "open",
			"pessimistic_velocity", "nominal_velocity", "optimistic_velocity",
			"pessimistic_date", "nominal_date", "optimistic_date",
			"pessimistic_quarter", "nominal_quarter", "optimistic_quarter",
		},
		columns: []string{"Source", "Category", "As Of", "Measure", "Open", "Velocity (P/N/O)", "Pessimistic", "Nominal", "Optimistic"},
		align:   tw.AlignLeft,
	}
	for i := range rows {
		r := &rows[i]
		for _, m := range kinds {
			set := m.estimates(&r.VelocityRecord)
			labels := m.labels(r)
			v.records = append(v.records, []string{
				r.Source, r.Category, strconv.Itoa(r.SortOrder), schema.FormatDate(r.Date), string(m),
				m.open(&r.VelocityRecord, fmtFloat),
				optionalFloat(fmtFloat, set.Pessimistic.Velocity),
				optionalFloat(fmtFloat, set.Nominal.Velocity),
				optionalFloat(fmtFloat, set.Optimistic.Velocity),
				optionalDate(set.Pessimistic.Date), optionalDate(set.Nominal.Date), optionalDate(set.Optimistic.Date),
				labels.Pessimistic, labels.Nominal, labels.Optimistic,
			})
			v.rows = append(v.rows, []string{
				sourceLabel(cfg, r.Source), r.Category, schema.FormatDate(r.Date), string(m),
				m.open(&r.VelocityRecord, fmtFloat),
				fmt.Sprintf("%s / %s / %s",
					optionalFloat(fmtFloat, set.Pessimistic.Velocity),
					optionalFloat(fmtFloat, set.Nominal.Velocity),
					optionalFloat(fmtFloat, set.Optimistic.Velocity)),
				forecastCell(set.Pessimistic, labels.Pessimistic, cfg.UseColors),
				forecastCell(set.Nominal, labels.Nominal, cfg.UseColors),
				forecastCell(set.Optimistic, labels.Optimistic, cfg.UseColors),
			})
		}
	}
	v.footer = fmt.Sprintf("Forecasts for %d categories. Velocities are per week.", len(rows))
	return v
}

func velocityView(rows []schema.VelocityRecord, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	var sources []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	kinds := selectedMeasures(cfg, sources)

	v := view{
		name: "velocity records",
		data: rows,
		header: []string{
			"source", "category", "date",
			"points_resolved", "count_resolved", "points_open", "count_open",
			"delta_resolved_points", "delta_resolved_count", "delta_total_points", "delta_total_count",
			"pessimistic_points_velocity", "nominal_points_velocity", "optimistic_points_velocity",
			"pessimistic_count_velocity", "nominal_count_velocity", "optimistic_count_velocity",
			"pessimistic_points_date", "nominal_points_date", "optimistic_points_date",
			"pessimistic_count_date", "nominal_count_date", "optimistic_count_date",
		},
		columns: []string{"Source", "Category", "Date", "Measure", "Resolved", "Open", "Δ Resolved", "Δ Total", "Velocity (P/N/O)"},
		align:   tw.AlignRight,
	}
	for i := range rows {
		r := &rows[i]
		v.records = append(v.records, []string{
			r.Source, r.Category, schema.FormatDate(r.Date),
			fmtFloat(r.PointsResolved), strconv.Itoa(r.CountResolved),
			optionalFloat(fmtFloat, r.PointsOpen), optionalInt(r.CountOpen),
			optionalFloat(fmtFloat, r.DeltaResolvedPoints), optionalInt(r.DeltaResolvedCount),
			optionalFloat(fmtFloat, r.DeltaTotalPoints), optionalInt(r.DeltaTotalCount),
			optionalFloat(fmtFloat, r.Points.Pessimistic.Velocity),
			optionalFloat(fmtFloat, r.Points.Nominal.Velocity),
			optionalFloat(fmtFloat, r.Points.Optimistic.Velocity),
			optionalFloat(fmtFloat, r.Count.Pessimistic.Velocity),
			optionalFloat(fmtFloat, r.Count.Nominal.Velocity),
			optionalFloat(fmtFloat, r.Count.Optimistic.Velocity),
			optionalDate(r.Points.Pessimistic.Date), optionalDate(r.Points.Nominal.Date), optionalDate(r.Points.Optimistic.Date),
			optionalDate(r.Count.Pessimistic.Date), optionalDate(r.Count.Nominal.Date), optionalDate(r.Count.Optimistic.Date),
		})
		for _, m := range kinds {
			set := m.estimates(r)
			dResolved, dTotal := m.deltas(r, fmtFloat)
			v.rows = append(v.rows, []string{
				sourceLabel(cfg, r.Source), r.Category, schema.FormatDate(r.Date), m.unit(),
				m.resolved(r, fmtFloat), m.open(r, fmtFloat), dResolved, dTotal,
				fmt.Sprintf("%s / %s / %s",
					optionalFloat(fmtFloat, set.Pessimistic.Velocity),
					optionalFloat(fmtFloat, set.Nominal.Velocity),
					optionalFloat(fmtFloat, set.Optimistic.Velocity)),
			})
		}
	}
	return v
}

package outwriter

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

func backlogView(rows []schema.BacklogViewRow, status string, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	v := view{
		name:    "backlog rows",
		data:    rows,
		header:  []string{"source", "date", "category", "sort_order", "points", "count"},
		columns: []string{"Source", "Date", "Category", "Points", "Count"},
		align:   tw.AlignRight,
		title:   fmt.Sprintf("Backlog (%s)", status),
	}
	for _, r := range rows {
		v.records = append(v.records, []string{
			r.Source, schema.FormatDate(r.Date), r.Category, strconv.Itoa(r.SortOrder),
			fmtFloat(r.Points), strconv.Itoa(r.Count),
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), schema.FormatDate(r.Date), r.Category,
			fmtFloat(r.Points), strconv.Itoa(r.Count),
		})
	}
	return v
}

func closedView(rows []schema.RecentlyClosed, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	v := view{
		name:    "closed aggregates",
		data:    rows,
		header:  []string{"source", "date", "category", "points", "count"},
		columns: []string{"Source", "Week Of", "Category", "Points", "Count"},
		align:   tw.AlignRight,
	}
	for _, r := range rows {
		v.records = append(v.records, []string{
			r.Source, schema.FormatDate(r.Date), r.Category, fmtFloat(r.Points), strconv.Itoa(r.Count),
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), schema.FormatDate(r.Date), r.Category, fmtFloat(r.Points), strconv.Itoa(r.Count),
		})
	}
	return v
}

func closedTasksView(rows []schema.RecentlyClosedTask, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	// Source, date, category, id and points take roughly this much room.
	maxTitle := GetMaxTitleWidth(cfg, 60)
	v := view{
		name:    "recently closed tasks",
		data:    rows,
		header:  []string{"source", "date", "category", "task_id", "title", "points"},
		columns: []string{"Source", "Closed By", "Category", "Task", "Title", "Points"},
		align:   tw.AlignLeft,
	}
	var total float64
	for _, r := range rows {
		total += r.Points
		v.records = append(v.records, []string{
			r.Source, schema.FormatDate(r.Date), r.Category, r.TaskID, r.Title, fmtFloat(r.Points),
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), schema.FormatDate(r.Date), r.Category, r.TaskID,
			truncate(r.Title, maxTitle), fmtFloat(r.Points),
		})
	}
	v.footer = fmt.Sprintf("%d tasks closed for %s points.", len(rows), fmtFloat(total))
	return v
}

func maintenanceView(rows []schema.MaintenanceFraction, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	percent := func(f float64) string { return fmtFloat(100*f) + "%" }
	v := view{
		name: "maintenance fractions",
		data: rows,
		header: []string{
			"source", "date", "maint_points", "total_points", "maint_count", "total_count",
			"points_fraction", "count_fraction",
		},
		columns: []string{"Source", "Date", "Maint Points", "Total Points", "Points %", "Maint Count", "Total Count", "Count %"},
		align:   tw.AlignRight,
	}
	for _, r := range rows {
		v.records = append(v.records, []string{
			r.Source, schema.FormatDate(r.Date),
			fmtFloat(r.MaintPoints), fmtFloat(r.TotalPoints),
			strconv.Itoa(r.MaintCount), strconv.Itoa(r.TotalCount),
			strconv.FormatFloat(r.PointsFraction(), 'f', 4, 64),
			strconv.FormatFloat(r.CountFraction(), 'f', 4, 64),
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), schema.FormatDate(r.Date),
			fmtFloat(r.MaintPoints), fmtFloat(r.TotalPoints), percent(r.PointsFraction()),
			strconv.Itoa(r.MaintCount), strconv.Itoa(r.TotalCount), percent(r.CountFraction()),
		})
	}
	return v
}

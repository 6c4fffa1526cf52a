package outwriter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

func tasksView(rows []schema.TaskSnapshot, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	maxTitle := GetMaxTitleWidth(cfg, 70)
	v := view{
		name:    "tasks",
		data:    rows,
		header:  []string{"source", "task_id", "date", "title", "status", "category", "points", "maint_type"},
		columns: []string{"Source", "Task", "Date", "Title", "Status", "Category", "Points"},
		align:   tw.AlignLeft,
	}
	for _, r := range rows {
		v.records = append(v.records, []string{
			r.Source, r.TaskID, schema.FormatDate(r.Date), r.Title, r.Status, r.Category,
			optionalFloat(fmtFloat, r.Points), r.MaintType,
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), r.TaskID, schema.FormatDate(r.Date), truncate(r.Title, maxTitle),
			r.Status, r.Category, optionalFloat(fmtFloat, r.Points),
		})
	}
	v.footer = fmt.Sprintf("%d tasks.", len(rows))
	return v
}

func categoriesView(rows []schema.CategoryMeta, cfg *contract.Config) view {
	v := view{
		name:    "categories",
		data:    rows,
		header:  []string{"source", "category", "sort_order", "zoom"},
		columns: []string{"Source", "Category", "Order", "Zoom"},
		align:   tw.AlignLeft,
	}
	for _, r := range rows {
		v.records = append(v.records, []string{
			r.Source, r.Category, strconv.Itoa(r.SortOrder), strconv.FormatBool(r.Zoom),
		})
		v.rows = append(v.rows, []string{
			sourceLabel(cfg, r.Source), r.Category, strconv.Itoa(r.SortOrder), strconv.FormatBool(r.Zoom),
		})
	}
	return v
}

func formatRunTime(t *time.Time) string {
	if t == nil {
		return noValue
	}
	return t.Local().Format(time.DateTime)
}

func runsView(rows []schema.ReportRun, cfg *contract.Config) view {
	v := view{
		name: "runs",
		data: rows,
		header: []string{
			"run_id", "source", "started_at", "finished_at", "duration_ms", "rows_written", "status", "error",
		},
		columns: []string{"Run ID", "Source", "Started", "Duration", "Rows", "Status", "Error"},
		align:   tw.AlignLeft,
	}
	for _, r := range rows {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		duration, durationMs := noValue, ""
		if r.DurationMs != nil {
			duration = (time.Duration(*r.DurationMs) * time.Millisecond).String()
			durationMs = strconv.FormatInt(*r.DurationMs, 10)
		}
		v.records = append(v.records, []string{
			r.RunID, r.Source, r.StartedAt.UTC().Format(time.RFC3339), finished, durationMs,
			strconv.Itoa(r.RowsWritten), string(r.Status), r.Error,
		})
		status := string(r.Status)
		if cfg.UseColors {
			status = colorRunStatus(r.Status)
		}
		v.rows = append(v.rows, []string{
			r.RunID, sourceLabel(cfg, r.Source), formatRunTime(&r.StartedAt), duration,
			strconv.Itoa(r.RowsWritten), status, truncate(r.Error, 40),
		})
	}
	return v
}

// runSummary is the JSON form of a report run.
type runSummary struct {
	Source              string `json:"source"`
	RunID               string `json:"run_id"`
	TallBacklog         int    `json:"tall_backlog"`
	RecentlyClosed      int    `json:"recently_closed"`
	RecentlyClosedTasks int    `json:"recently_closed_tasks"`
	Velocity            int    `json:"velocity"`
	Maintenance         int    `json:"maintenance_fractions"`
	Total               int    `json:"total"`
}

func runSummaryView(sets []*schema.DerivedSet, cfg *contract.Config, duration time.Duration) view {
	var summaries []runSummary
	for _, set := range sets {
		if set == nil {
			continue
		}
		summaries = append(summaries, runSummary{
			Source:              set.Source,
			RunID:               set.RunID,
			TallBacklog:         len(set.TallBacklog),
			RecentlyClosed:      len(set.RecentlyClosed),
			RecentlyClosedTasks: len(set.RecentlyClosedTasks),
			Velocity:            len(set.Velocity),
			Maintenance:         len(set.MaintenanceFractions),
			Total:               set.RowCount(),
		})
	}

	v := view{
		name: "computed sources",
		data: summaries,
		header: []string{
			"source", "run_id", "tall_backlog", "recently_closed", "recently_closed_tasks",
			"velocity", "maintenance_fractions", "total",
		},
		columns: []string{"Source", "Run ID", "Backlog", "Closed", "Closed Tasks", "Velocity", "Maintenance", "Total"},
		align:   tw.AlignRight,
	}
	for _, s := range summaries {
		counts := []string{
			strconv.Itoa(s.TallBacklog), strconv.Itoa(s.RecentlyClosed), strconv.Itoa(s.RecentlyClosedTasks),
			strconv.Itoa(s.Velocity), strconv.Itoa(s.Maintenance), strconv.Itoa(s.Total),
		}
		v.records = append(v.records, append([]string{s.Source, s.RunID}, counts...))
		v.rows = append(v.rows, append([]string{sourceLabel(cfg, s.Source), s.RunID}, counts...))
	}
	v.footer = fmt.Sprintf("Computed %d source(s) in %v with %d workers. Store backend: %s",
		len(summaries), duration.Round(time.Millisecond), cfg.Workers, cfg.DBBackend)
	return v
}

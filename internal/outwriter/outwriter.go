// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteForecasts prints the latest forecast of each category.
func (ow *OutWriter) WriteForecasts(rows []schema.ForecastSummary, cfg *contract.Config) error {
	return writeView(cfg, forecastView(rows, cfg))
}

// WriteVelocity prints velocity records.
func (ow *OutWriter) WriteVelocity(rows []schema.VelocityRecord, cfg *contract.Config) error {
	return writeView(cfg, velocityView(rows, cfg))
}

// WriteBacklog prints the backlog view of one status.
func (ow *OutWriter) WriteBacklog(rows []schema.BacklogViewRow, status string, cfg *contract.Config) error {
	return writeView(cfg, backlogView(rows, status, cfg))
}

// WriteClosed prints weekly closure aggregates.
func (ow *OutWriter) WriteClosed(rows []schema.RecentlyClosed, cfg *contract.Config) error {
	return writeView(cfg, closedView(rows, cfg))
}

// WriteClosedTasks prints the recently closed tasks.
func (ow *OutWriter) WriteClosedTasks(rows []schema.RecentlyClosedTask, cfg *contract.Config) error {
	return writeView(cfg, closedTasksView(rows, cfg))
}

// WriteMaintenance prints the maintenance fractions.
func (ow *OutWriter) WriteMaintenance(rows []schema.MaintenanceFraction, cfg *contract.Config) error {
	return writeView(cfg, maintenanceView(rows, cfg))
}

// WriteTasks prints task snapshots, e.g. the open or unpointed tasks.
func (ow *OutWriter) WriteTasks(rows []schema.TaskSnapshot, cfg *contract.Config) error {
	return writeView(cfg, tasksView(rows, cfg))
}

// WriteCategories prints category metadata.
func (ow *OutWriter) WriteCategories(rows []schema.CategoryMeta, cfg *contract.Config) error {
	return writeView(cfg, categoriesView(rows, cfg))
}

// WriteRuns prints run ledger entries.
func (ow *OutWriter) WriteRuns(rows []schema.ReportRun, cfg *contract.Config) error {
	return writeView(cfg, runsView(rows, cfg))
}

// WriteRunSummary prints what a report run wrote per source.
func (ow *OutWriter) WriteRunSummary(sets []*schema.DerivedSet, cfg *contract.Config, duration time.Duration) error {
	return writeView(cfg, runSummaryView(sets, cfg, duration))
}

// GetMaxTitleWidth calculates the maximum width for task titles in table output
// based on terminal width and the width already taken by the other columns.
func GetMaxTitleWidth(cfg *contract.Config, otherColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - otherColumns - 10
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

// sourceLabel is the display name of a source in tables.
func sourceLabel(cfg *contract.Config, source string) string {
	return cfg.ForSource(source).Title
}

// measures reports which measures the tables show. Any source asking for one
// turns it on for the whole table; with nothing asked, points are shown.
func measures(cfg *contract.Config, sources []string) (points, count bool) {
	for _, source := range sources {
		opts := cfg.ForSource(source)
		points = points || opts.ShowPoints
		count = count || opts.ShowCount
	}
	if !points && !count {
		points = true
	}
	return points, count
}

func colorRunStatus(status schema.RunStatus) string {
	switch status {
	case schema.RunSucceeded:
		return contract.ThisQuarterColor.Sprint(status)
	case schema.RunRunning:
		return contract.NextQuarterColor.Sprint(status)
	default:
		return contract.LaterColor.Sprint(status)
	}
}

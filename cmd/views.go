package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangsam/tranche/core"
)

// forecastCmd shows the latest forecast per category.
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Show pessimistic, nominal and optimistic completion dates.",
	Long: `Show the forecast of every category as of the view date (--as-of, or the
latest computed date).

Each forecast divides the open work by a weekly velocity:
- Pessimistic uses the slowest recent weeks
- Nominal uses the mean of the trailing window
- Optimistic uses the fastest recent weeks

Dates are labeled This quarter, Next quarter, Later or Unknown.

Examples:
  tranche forecast --source ABC
  tranche forecast --show-count --output csv --output-file forecast.csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteForecast(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot show forecasts: %w", err)
		}
		return nil
	},
}

// velocityCmd shows the weekly velocity records.
var velocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Show weekly velocity records with deltas and estimates.",
	Long: `Show the weekly velocity grid of each source: open and resolved work,
week-over-week deltas, velocity estimates and the resulting forecast dates.

Examples:
  tranche velocity --source ABC --category Infra`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteVelocity(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot show velocity: %w", err)
		}
		return nil
	},
}

// backlogCmd shows the tall backlog for one status.
var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Show backlog points and task counts per date and category.",
	Long: `Show the burndown data of each source for one status.

Examples:
  # Open work over time
  tranche backlog --source ABC

  # Resolved work, only zoomed categories
  tranche backlog --source ABC --status resolved --zoom`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteBacklog(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot show backlog: %w", err)
		}
		return nil
	},
}

// closedCmd shows recently closed work.
var closedCmd = &cobra.Command{
	Use:   "closed",
	Short: "Show work closed per week, or the tasks closed recently.",
	Long: `Show the points and tasks closed per week and category. With --list, show
the individual tasks that were resolved in the last two weeks.

Examples:
  tranche closed --source ABC
  tranche closed --source ABC --list`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteClosed(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot show closed work: %w", err)
		}
		return nil
	},
}

// maintenanceCmd shows the maintenance share of resolved work.
var maintenanceCmd = &cobra.Command{
	Use:     "maintenance",
	Short:   "Show the share of resolved work spent on maintenance.",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteMaintenance(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot show maintenance fractions: %w", err)
		}
		return nil
	},
}

// tasksCmd lists the open tasks of the latest snapshot.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the open tasks of the latest snapshot.",
	Long: `List the open tasks of each source as of the view date, with rule-mapped
categories. Use --unpointed to find tasks that still need an estimate.

Examples:
  tranche tasks --source ABC --unpointed`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteTasks(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot list tasks: %w", err)
		}
		return nil
	},
}

// runsCmd shows the run ledger.
var runsCmd = &cobra.Command{
	Use:     "runs",
	Short:   "Show the most recent pipeline runs.",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteRuns(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot list runs: %w", err)
		}
		return nil
	},
}

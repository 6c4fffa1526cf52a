package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangsam/tranche/core"
)

// loadCmd appends snapshot CSVs to the store.
var loadCmd = &cobra.Command{
	Use:   "load <snapshots.csv>...",
	Short: "Append task snapshots from CSV files to the store.",
	Long: `Read task-tracker snapshot CSVs and append their rows to the snapshot table.

Each file needs a header with at least task_id, date, status and category.
Source, title, points and maint_type are optional; rows without a source take
the single --source value. Rows already recorded for the same source, task and
date are skipped, so loading the same export twice is harmless.

Examples:
  # Load one weekly export
  tranche load exports/2024-01-05.csv --source ABC

  # Load a folder of exports into MySQL
  tranche load exports/*.csv --db-backend mysql --db-connect "$DSN"`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteLoad(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot load snapshots: %w", err)
		}
		return nil
	},
}

// reportCmd recomputes every derived table.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute burndowns, velocities and forecasts from snapshots.",
	Long: `Run the full pipeline for each source: normalize categories, fill the
weekly grid, aggregate velocity, estimate completion and replace every derived
table in one transaction.

Sources are computed concurrently (see --workers). Each run is recorded in the
run ledger whether it succeeds or fails.

Examples:
  # Recompute every source
  tranche report

  # Recompute one source with retroactive points
  tranche report --source ABC --retroactive-points --rules-file rules.yaml`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteReport(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot run report: %w", err)
		}
		return nil
	},
}

// resetCmd drops the derived data of sources.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the derived data of the given sources.",
	Long: `Remove the backlog, closure, velocity, maintenance and recategorized rows of
the given sources. Snapshots and category metadata are kept, so a later report
rebuilds everything.

Requires: --source

Examples:
  tranche reset --source ABC`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteReset(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot reset sources: %w", err)
		}
		return nil
	},
}

// recategorizeCmd writes the rule-mapped snapshots to their own table.
var recategorizeCmd = &cobra.Command{
	Use:   "recategorize",
	Short: "Store a copy of the snapshots with rule-mapped categories.",
	Long: `Apply the category rules to every snapshot of a source and store the result
in the recategorized table. The original snapshots are never modified.

Requires: --rules-file (globally or per source)

Examples:
  tranche recategorize --source ABC --rules-file rules.yaml`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteRecategorize(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot recategorize snapshots: %w", err)
		}
		return nil
	},
}

// categoriesCmd groups category metadata commands.
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage category metadata",
	Long: `Manage the per-source category metadata used to order and filter views.

Subcommands:
  sync - Derive metadata from the current snapshots and rules
  list - Show the stored metadata`,
}

var categoriesSyncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Derive category metadata from snapshots and rules",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteCategoriesSync(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot sync categories: %w", err)
		}
		return nil
	},
}

var categoriesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show the stored category metadata",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteCategoriesList(rootCtx, cfg, storeManager); err != nil {
			return fmt.Errorf("cannot list categories: %w", err)
		}
		return nil
	},
}

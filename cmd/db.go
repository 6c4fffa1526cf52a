package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/tranche/internal/store"
)

// dbCmd focused on store management.
//
// Note: db subcommands use minimal initialization (dbSetup) instead of the full
// sharedSetup. This avoids rule loading and engine validation for simple
// store operations.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the snapshot store",
	Long: `Manage the store holding snapshots, derived tables and the run ledger.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection details
  export  - Export data to Parquet for analytics
  clear   - Remove all stored data
  migrate - Run database schema migrations

Examples:
  tranche db status
  tranche db export --output-file tranche`,
}

// dbStatusCmd shows store status.
var dbStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: dbSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := storeManager.GetStore().GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		store.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

// dbExportCmd exports the store to Parquet files.
var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored data to Parquet for BI tools and analytics",
	Long: `Export snapshots, derived tables and the run ledger to Parquet, one file per
table named <output-file>.<table>.parquet.

Requires: --output-file parameter

Examples:
  tranche db export --output-file tranche
  duckdb -c "SELECT * FROM read_parquet('tranche.velocity.parquet') LIMIT 10"`,
	PreRunE: dbSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := store.ExecuteExport(rootCtx, os.Stdout, storeManager.GetStore(), cfg.OutputFile, cfg.Sources); err != nil {
			return fmt.Errorf("failed to export store data: %w", err)
		}
		return nil
	},
}

// dbClearCmd removes all stored data.
var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored snapshots and derived data",
	Long: `Delete every table of the store. For SQLite the database file is removed.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: dbRawSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := store.ClearStore(cfg.DBBackend, cfg.DBConnect); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		fmt.Println("Store cleared successfully.")
		return nil
	},
}

// dbMigrateCmd runs database migrations.
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  tranche db migrate
  tranche db migrate --target-version 0`,
	PreRunE: dbRawSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := store.MigrateStore(cfg.DBBackend, cfg.DBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}

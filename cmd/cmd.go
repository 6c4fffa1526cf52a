// Package cmd defines the command-line interface for tranche.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(recategorizeCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(velocityCmd)
	rootCmd.AddCommand(backlogCmd)
	rootCmd.AddCommand(closedCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the categories subcommands to the parent categories command
	categoriesCmd.AddCommand(categoriesSyncCmd)
	categoriesCmd.AddCommand(categoriesListCmd)

	// Add the db subcommands to the parent db command
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("source", "s", "", "Comma-separated list of sources (default: every source in the store)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of sources computed concurrently")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline progress to stderr")
	rootCmd.PersistentFlags().String("db-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("as-of", "", "Forecast date in ISO8601 or time ago (default: latest snapshot)")
	rootCmd.PersistentFlags().String("grid-anchor", "", "Any date on the weekly velocity grid (default: the as-of date)")
	rootCmd.PersistentFlags().Int("history-months", schema.DefaultHistoryMonths, "Months of history kept by the velocity aggregator")
	rootCmd.PersistentFlags().Int("window-months", schema.DefaultWindowMonths, "Months of trailing deltas used by the velocity estimator")
	rootCmd.PersistentFlags().String("rules-file", "", "Path to a YAML file of category rules")
	rootCmd.PersistentFlags().String("default-points", "", "Points assigned to unpointed tasks")
	rootCmd.PersistentFlags().String("resolved-cutoff", "", "Drop tasks resolved before this date")
	rootCmd.PersistentFlags().Bool("retroactive-categories", false, "Rewrite past categories to the latest one of each task")
	rootCmd.PersistentFlags().Bool("retroactive-points", false, "Rewrite past points to the latest estimate of each task")
	rootCmd.PersistentFlags().Bool("show-points", false, "Forecast by points")
	rootCmd.PersistentFlags().Bool("show-count", false, "Forecast by task count")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of velocityCmd to Viper
	velocityCmd.Flags().String("category", "", "Only show records of this category")
	if err := viper.BindPFlags(velocityCmd.Flags()); err != nil {
		contract.LogFatal("Error binding velocity flags", err)
	}

	// Bind all flags of backlogCmd to Viper
	backlogCmd.Flags().String("status", schema.OpenStatus, "Task status: open or resolved")
	backlogCmd.Flags().Bool("zoom", false, "Only show categories flagged for the zoomed view")
	if err := viper.BindPFlags(backlogCmd.Flags()); err != nil {
		contract.LogFatal("Error binding backlog flags", err)
	}

	// Bind all flags of closedCmd to Viper
	closedCmd.Flags().Bool("list", false, "List the tasks closed in the last two weeks")
	if err := viper.BindPFlags(closedCmd.Flags()); err != nil {
		contract.LogFatal("Error binding closed flags", err)
	}

	// Bind all flags of tasksCmd to Viper
	tasksCmd.Flags().Bool("unpointed", false, "Only list open tasks without points")
	if err := viper.BindPFlags(tasksCmd.Flags()); err != nil {
		contract.LogFatal("Error binding tasks flags", err)
	}

	// Bind all flags of runsCmd to Viper
	runsCmd.Flags().IntP("limit", "l", 20, "Number of runs to display (0 = all)")
	if err := viper.BindPFlags(runsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs flags", err)
	}

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}
}

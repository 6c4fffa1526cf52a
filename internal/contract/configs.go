package contract

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tranche/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxHistoryMonths = 60
)

// DefaultWorkers is the default number of sources processed concurrently.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// SourceOptions are the reporting options that may differ per source.
type SourceOptions struct {
	Title                 string
	RulesFile             string
	DefaultPoints         *float64  // nil leaves unpointed tasks at zero
	ResolvedCutoff        time.Time // zero disables the cutoff
	RetroactiveCategories bool
	RetroactivePoints     bool
	ShowPoints            bool
	ShowCount             bool
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Sources    []string // Empty means every source in the store
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Verbose    bool

	AsOf          time.Time // Zero means the latest snapshot date of each source
	GridAnchor    time.Time
	HistoryMonths int
	WindowMonths  int

	DBBackend schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	// Defaults apply to every source; PerSource entries override them field by field.
	Defaults  SourceOptions
	PerSource map[string]SourceOptions

	// Command-specific settings
	InputFiles []string // Snapshot CSVs read by load
	Category   string   // Velocity category filter
	Status     string   // Backlog status
	Zoom       bool     // Backlog zoom flag
	Unpointed  bool     // Only list open tasks without points
	ClosedList bool     // List closed tasks instead of weekly aggregates
	RunLimit   int      // Maximum number of ledger entries to show
}

// SourceRawInput holds per-source overrides from the YAML config file.
// Pointer fields distinguish "unset" from explicit zero values.
type SourceRawInput struct {
	Title                 string   `mapstructure:"title"`
	RulesFile             string   `mapstructure:"rules-file"`
	DefaultPoints         *float64 `mapstructure:"default-points"`
	ResolvedCutoff        string   `mapstructure:"resolved-cutoff"`
	RetroactiveCategories *bool    `mapstructure:"retroactive-categories"`
	RetroactivePoints     *bool    `mapstructure:"retroactive-points"`
	ShowPoints            *bool    `mapstructure:"show-points"`
	ShowCount             *bool    `mapstructure:"show-count"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Source     string `mapstructure:"source"`
	Workers    int    `mapstructure:"workers"`
	Precision  int    `mapstructure:"precision"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
	Verbose    bool   `mapstructure:"verbose"`
	DBBackend  string `mapstructure:"db-backend"`
	DBConnect  string `mapstructure:"db-connect"`

	// --- Engine settings ---
	AsOf          string `mapstructure:"as-of"`
	GridAnchor    string `mapstructure:"grid-anchor"`
	HistoryMonths int    `mapstructure:"history-months"`
	WindowMonths  int    `mapstructure:"window-months"`

	// --- Reporting defaults for every source ---
	RulesFile             string `mapstructure:"rules-file"`
	DefaultPoints         string `mapstructure:"default-points"`
	ResolvedCutoff        string `mapstructure:"resolved-cutoff"`
	RetroactiveCategories bool   `mapstructure:"retroactive-categories"`
	RetroactivePoints     bool   `mapstructure:"retroactive-points"`
	ShowPoints            bool   `mapstructure:"show-points"`
	ShowCount             bool   `mapstructure:"show-count"`

	// --- Command flags ---
	Category  string `mapstructure:"category"`
	Status    string `mapstructure:"status"`
	Zoom      bool   `mapstructure:"zoom"`
	Unpointed bool   `mapstructure:"unpointed"`
	List      bool   `mapstructure:"list"`
	Limit     int    `mapstructure:"limit"`

	// --- Per-source overrides from config file ---
	Sources map[string]SourceRawInput `mapstructure:"sources"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Sources = slices.Clone(c.Sources)
	clone.InputFiles = slices.Clone(c.InputFiles)
	if c.Defaults.DefaultPoints != nil {
		clone.Defaults.DefaultPoints = schema.Ptr(*c.Defaults.DefaultPoints)
	}
	if c.PerSource != nil {
		clone.PerSource = make(map[string]SourceOptions, len(c.PerSource))
		maps.Copy(clone.PerSource, c.PerSource)
	}
	return &clone
}

// ForSource returns the effective reporting options of a source.
func (c *Config) ForSource(source string) SourceOptions {
	if opts, ok := c.PerSource[source]; ok {
		return opts
	}
	opts := c.Defaults
	if opts.Title == "" {
		opts.Title = source
	}
	return opts
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processEngineSettings(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processSourceOptions(cfg, input); err != nil {
		return err
	}
	return processCommandSettings(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			return nil
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter or be a postgres:// URL")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("invalid db backend '%s'. must be sqlite, mysql, postgresql", backend)
	}
	return nil
}

// ParseBackend normalizes and validates a backend name. Empty means SQLite.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if s == "" {
		return schema.SQLiteBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(s))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid db backend '%s'. must be sqlite, mysql, postgresql", s)
	}
	return backend, nil
}

// validateBackendConfig validates the store backend and its connection string.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.DBBackend)
	if err != nil {
		return err
	}
	cfg.DBBackend = backend
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.DBBackend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates all output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.Sources = SplitList(input.Source)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > 2 {
		return fmt.Errorf("precision must be between 0 and 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}
	return nil
}

// processEngineSettings parses the as-of date, grid anchor and window lengths.
func processEngineSettings(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if input.AsOf != "" {
		asOf, err := ParseDateOrRelative(input.AsOf, now)
		if err != nil {
			return fmt.Errorf("invalid --as-of value: %w", err)
		}
		cfg.AsOf = asOf
	}

	if input.GridAnchor != "" {
		anchor, err := schema.ParseDate(input.GridAnchor)
		if err != nil {
			return fmt.Errorf("invalid --grid-anchor value: %w", err)
		}
		cfg.GridAnchor = anchor
	}

	if input.HistoryMonths <= 0 || input.HistoryMonths > MaxHistoryMonths {
		return fmt.Errorf("history-months must be between 1 and %d (received %d)", MaxHistoryMonths, input.HistoryMonths)
	}
	cfg.HistoryMonths = input.HistoryMonths

	if input.WindowMonths <= 0 || input.WindowMonths > input.HistoryMonths {
		return fmt.Errorf("window-months must be between 1 and history-months (received %d)", input.WindowMonths)
	}
	cfg.WindowMonths = input.WindowMonths
	return nil
}

// processSourceOptions resolves the global reporting defaults and per-source overrides.
func processSourceOptions(cfg *Config, input *ConfigRawInput) error {
	defaults := SourceOptions{
		RulesFile:             input.RulesFile,
		RetroactiveCategories: input.RetroactiveCategories,
		RetroactivePoints:     input.RetroactivePoints,
		ShowPoints:            input.ShowPoints,
		ShowCount:             input.ShowCount,
	}
	if input.DefaultPoints != "" {
		v, err := strconv.ParseFloat(input.DefaultPoints, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid --default-points value %q: must be a non-negative number", input.DefaultPoints)
		}
		defaults.DefaultPoints = schema.Ptr(v)
	}
	if input.ResolvedCutoff != "" {
		cutoff, err := schema.ParseDate(input.ResolvedCutoff)
		if err != nil {
			return fmt.Errorf("invalid --resolved-cutoff value: %w", err)
		}
		defaults.ResolvedCutoff = cutoff
	}
	cfg.Defaults = defaults

	cfg.PerSource = make(map[string]SourceOptions, len(input.Sources))
	for name, raw := range input.Sources {
		opts := defaults
		opts.Title = name
		if raw.Title != "" {
			opts.Title = raw.Title
		}
		if raw.RulesFile != "" {
			opts.RulesFile = raw.RulesFile
		}
		if raw.DefaultPoints != nil {
			if *raw.DefaultPoints < 0 {
				return fmt.Errorf("source %s: default-points must be non-negative", name)
			}
			opts.DefaultPoints = schema.Ptr(*raw.DefaultPoints)
		}
		if raw.ResolvedCutoff != "" {
			cutoff, err := schema.ParseDate(raw.ResolvedCutoff)
			if err != nil {
				return fmt.Errorf("source %s: invalid resolved-cutoff: %w", name, err)
			}
			opts.ResolvedCutoff = cutoff
		}
		if raw.RetroactiveCategories != nil {
			opts.RetroactiveCategories = *raw.RetroactiveCategories
		}
		if raw.RetroactivePoints != nil {
			opts.RetroactivePoints = *raw.RetroactivePoints
		}
		if raw.ShowPoints != nil {
			opts.ShowPoints = *raw.ShowPoints
		}
		if raw.ShowCount != nil {
			opts.ShowCount = *raw.ShowCount
		}
		cfg.PerSource[name] = opts
	}
	return nil
}

// processCommandSettings copies the flags that only some commands read.
func processCommandSettings(cfg *Config, input *ConfigRawInput) error {
	cfg.Category = strings.TrimSpace(input.Category)
	cfg.Zoom = input.Zoom
	cfg.Unpointed = input.Unpointed
	cfg.ClosedList = input.List

	cfg.Status = strings.ToLower(strings.TrimSpace(input.Status))
	if cfg.Status == "" {
		cfg.Status = schema.OpenStatus
	}

	if input.Limit < 0 {
		return fmt.Errorf("limit must not be negative (received %d)", input.Limit)
	}
	cfg.RunLimit = input.Limit
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}

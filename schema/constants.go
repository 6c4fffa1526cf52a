package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot and derived storage.
	DatabaseBackend string

	// RuleKind represents how a category rule matches raw categories.
	RuleKind string

	// RunStatus represents the outcome of a pipeline run.
	RunStatus string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// Task statuses with engine semantics. Any other raw status is carried through as-is.
const (
	OpenStatus     = "open"
	ResolvedStatus = "resolved"
)

// Maintenance types recognized by the maintenance fraction.
const (
	MaintenanceType      = "Maintenance"
	NewFunctionalityType = "New Functionality"
)

// All category rule kinds supported.
const (
	ExactRule    RuleKind = "exact"
	WildcardRule RuleKind = "wildcard"
	GroupRule    RuleKind = "group"
)

// All run statuses recorded in the run ledger.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Engine windows and periods.
const (
	DefaultHistoryMonths = 6  // Velocity aggregator look-back from the as-of date
	DefaultWindowMonths  = 3  // Velocity estimator trailing window
	RecentClosedDays     = 14 // Horizon of the per-task recently closed view
	EstimateTopN         = 3  // Number of deltas used for optimistic/pessimistic
	DaysPerWeek          = 7
)

// Quarter labels for forecast dates.
const (
	ThisQuarterLabel = "This quarter"
	NextQuarterLabel = "Next quarter"
	LaterLabel       = "Later"
	UnknownLabel     = "Unknown"
)

// DateFormat is the canonical day representation for snapshot dates.
const DateFormat = "2006-01-02"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidRuleKinds lists all valid category rule kinds.
var ValidRuleKinds = map[RuleKind]struct{}{
	ExactRule:    {},
	WildcardRule: {},
	GroupRule:    {},
}

// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/tranche/schema"
)

// SnapshotStore is the append-only task history and the curated category metadata.
// The engine only reads from it during a run.
type SnapshotStore interface {
	// ListSources returns every source with at least one snapshot, sorted.
	ListSources(ctx context.Context) ([]string, error)

	// LoadSnapshots returns all snapshots of a source ordered by date then task id.
	LoadSnapshots(ctx context.Context, source string) ([]schema.TaskSnapshot, error)

	// AppendSnapshots records snapshots; keys that already exist are left untouched.
	// It returns the number of rows actually inserted.
	AppendSnapshots(ctx context.Context, rows []schema.TaskSnapshot) (int, error)

	// LoadCategoryMeta returns the category metadata of a source ordered by sort order.
	LoadCategoryMeta(ctx context.Context, source string) ([]schema.CategoryMeta, error)

	// ReplaceCategoryMeta swaps the whole category metadata of a source.
	ReplaceCategoryMeta(ctx context.Context, source string, rows []schema.CategoryMeta) error
}

// DerivedStore holds everything the engine computes. Each source's derived rows are
// owned by the latest successful run and replaced as a unit.
type DerivedStore interface {
	// ReplaceDerived deletes every derived row of set.Source and inserts set, atomically.
	ReplaceDerived(ctx context.Context, set *schema.DerivedSet) error

	// ResetSource deletes every derived row of a source. It succeeds on unknown sources.
	ResetSource(ctx context.Context, source string) error

	LoadTallBacklog(ctx context.Context, source string) ([]schema.TallBacklogEntry, error)
	LoadVelocity(ctx context.Context, source string) ([]schema.VelocityRecord, error)
	LoadRecentlyClosed(ctx context.Context, source string) ([]schema.RecentlyClosed, error)
	LoadRecentlyClosedTasks(ctx context.Context, source string) ([]schema.RecentlyClosedTask, error)
	LoadMaintenanceFractions(ctx context.Context, source string) ([]schema.MaintenanceFraction, error)

	// ReplaceRecategorized materializes a relabeled copy of a source's history
	// without touching the canonical snapshots.
	ReplaceRecategorized(ctx context.Context, source string, rows []schema.TaskSnapshot) error
	LoadRecategorized(ctx context.Context, source string) ([]schema.TaskSnapshot, error)
}

// RunLedger records pipeline runs for auditing.
type RunLedger interface {
	// BeginRun records a running entry and returns its id.
	BeginRun(ctx context.Context, source string, startTime time.Time, configParams map[string]any) (string, error)

	// EndRun marks a run finished with its row count and error, if any.
	EndRun(ctx context.Context, runID string, endTime time.Time, rowsWritten int, runErr error) error

	// ListRuns returns the most recent runs, newest first, optionally filtered by source.
	ListRuns(ctx context.Context, source string, limit int) ([]schema.ReportRun, error)
}

// Store is the full persistence surface used by the pipeline and the CLI.
type Store interface {
	SnapshotStore
	DerivedStore
	RunLedger
	GetStatus(ctx context.Context) (schema.StoreStatus, error)
	Close() error
}

// StoreManager hands out the active store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetStore() Store
}

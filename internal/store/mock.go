package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetStore implements the StoreManager interface.
func (m *MockStoreManager) GetStore() contract.Store {
	ret := m.Called()
	s, _ := ret.Get(0).(contract.Store)
	return s
}

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// ListSources implements the Store interface.
func (m *MockStore) ListSources(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	sources, _ := args.Get(0).([]string)
	return sources, args.Error(1)
}

// LoadSnapshots implements the Store interface.
func (m *MockStore) LoadSnapshots(ctx context.Context, source string) ([]schema.TaskSnapshot, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.TaskSnapshot)
	return rows, args.Error(1)
}

// AppendSnapshots implements the Store interface.
func (m *MockStore) AppendSnapshots(ctx context.Context, rows []schema.TaskSnapshot) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

// LoadCategoryMeta implements the Store interface.
func (m *MockStore) LoadCategoryMeta(ctx context.Context, source string) ([]schema.CategoryMeta, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.CategoryMeta)
	return rows, args.Error(1)
}

// ReplaceCategoryMeta implements the Store interface.
func (m *MockStore) ReplaceCategoryMeta(ctx context.Context, source string, rows []schema.CategoryMeta) error {
	return m.Called(ctx, source, rows).Error(0)
}

// ReplaceDerived implements the Store interface.
func (m *MockStore) ReplaceDerived(ctx context.Context, set *schema.DerivedSet) error {
	return m.Called(ctx, set).Error(0)
}

// ResetSource implements the Store interface.
func (m *MockStore) ResetSource(ctx context.Context, source string) error {
	return m.Called(ctx, source).Error(0)
}

// LoadTallBacklog implements the Store interface.
func (m *MockStore) LoadTallBacklog(ctx context.Context, source string) ([]schema.TallBacklogEntry, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.TallBacklogEntry)
	return rows, args.Error(1)
}

// LoadVelocity implements the Store interface.
func (m *MockStore) LoadVelocity(ctx context.Context, source string) ([]schema.VelocityRecord, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.VelocityRecord)
	return rows, args.Error(1)
}

// LoadRecentlyClosed implements the Store interface.
func (m *MockStore) LoadRecentlyClosed(ctx context.Context, source string) ([]schema.RecentlyClosed, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.RecentlyClosed)
	return rows, args.Error(1)
}

// LoadRecentlyClosedTasks implements the Store interface.
func (m *MockStore) LoadRecentlyClosedTasks(ctx context.Context, source string) ([]schema.RecentlyClosedTask, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.RecentlyClosedTask)
	return rows, args.Error(1)
}

// LoadMaintenanceFractions implements the Store interface.
func (m *MockStore) LoadMaintenanceFractions(ctx context.Context, source string) ([]schema.MaintenanceFraction, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.MaintenanceFraction)
	return rows, args.Error(1)
}

// ReplaceRecategorized implements the Store interface.
func (m *MockStore) ReplaceRecategorized(ctx context.Context, source string, rows []schema.TaskSnapshot) error {
	return m.Called(ctx, source, rows).Error(0)
}

// LoadRecategorized implements the Store interface.
func (m *MockStore) LoadRecategorized(ctx context.Context, source string) ([]schema.TaskSnapshot, error) {
	args := m.Called(ctx, source)
	rows, _ := args.Get(0).([]schema.TaskSnapshot)
	return rows, args.Error(1)
}

// BeginRun implements the Store interface.
func (m *MockStore) BeginRun(ctx context.Context, source string, startTime time.Time, configParams map[string]any) (string, error) {
	args := m.Called(ctx, source, startTime, configParams)
	return args.String(0), args.Error(1)
}

// EndRun implements the Store interface.
func (m *MockStore) EndRun(ctx context.Context, runID string, endTime time.Time, rowsWritten int, runErr error) error {
	return m.Called(ctx, runID, endTime, rowsWritten, runErr).Error(0)
}

// ListRuns implements the Store interface.
func (m *MockStore) ListRuns(ctx context.Context, source string, limit int) ([]schema.ReportRun, error) {
	args := m.Called(ctx, source, limit)
	rows, _ := args.Get(0).([]schema.ReportRun)
	return rows, args.Error(1)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

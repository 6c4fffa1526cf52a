package store

import (
	"database/sql"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// Manager holds the store shared by the CLI commands and the MCP server.
type Manager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.Store
}

var _ contract.StoreManager = &Manager{} // Compile-time check

// GetStore returns the active store, or nil before InitStores.
func (mgr *Manager) GetStore() contract.Store {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// Global manager instance for main logic.
var (
	Global    = &Manager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores opens the global store exactly once, even with concurrent calls.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		s, err := NewStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize store: %w", err)
			return
		}
		Global.Lock()
		defer Global.Unlock()
		Global.store = s
	})
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Global.Lock()
		defer Global.Unlock()
		if Global.store != nil {
			_ = Global.store.Close()
		}
	})
}

// migrationsTable is where golang-migrate records the applied version.
const migrationsTable = "schema_migrations"

// ClearStore wipes all persisted data of a backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops every table.
func ClearStore(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		if dbPath == ":memory:" {
			return nil
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbPath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		tables := slices.Clone(allTables)
		slices.Reverse(tables)
		return dropTables(db, backend, append(tables, migrationsTable)...)

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropTables drops each table if it exists.
func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables ...string) error {
	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

//go:build basic

package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrancheWithSQLite runs the CLI against a throwaway SQLite file.
func TestTrancheWithSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tranche.db")
	env := []string{"TRANCHE_DB_BACKEND=sqlite", "TRANCHE_DB_CONNECT=" + dbPath}

	exerciseStore(t, env)
	exerciseCaseVariants(t, env)

	t.Run("reset keeps snapshots", func(t *testing.T) {
		_, err := runTranche(t, env, "reset", "--source", "ABC")
		require.NoError(t, err)

		out, err := runTranche(t, env, "forecast", "--source", "ABC", "--output", "csv")
		require.NoError(t, err)
		assert.Len(t, parseCSV(t, out), 1, "only the header is left")

		out, err = runTranche(t, env, "tasks", "--source", "ABC", "--output", "csv")
		require.NoError(t, err)
		records := parseCSV(t, out)
		require.Len(t, records, 2)
		assert.Equal(t, "D", records[1][1])
	})

	t.Run("reset requires a source", func(t *testing.T) {
		_, err := runTranche(t, env, "reset")
		assert.Error(t, err)
	})

	t.Run("version", func(t *testing.T) {
		_, err := runTranche(t, env, "version")
		assert.NoError(t, err)
	})
}

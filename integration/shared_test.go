//go:build basic || database

// Package integration contains end-to-end tests that drive the tranche binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or with database containers: go test -tags database ./integration
package integration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedTranchePath holds the path to a shared tranche binary built once for all tests.
	sharedTranchePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getTrancheBinary returns the path to the tranche binary, building it once if needed.
func getTrancheBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "tranche-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		tranchePath := filepath.Join(tempDir, "tranche")
		buildCmd := exec.Command("go", "build", "-o", tranchePath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build tranche: %v", err))
		}

		sharedTranchePath = tranchePath
	})

	return sharedTranchePath
}

// runTranche runs the binary with env added to the environment and returns stdout.
func runTranche(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getTrancheBinary(), args...)
	cmd.Dir = t.TempDir() // keep any .tranche.yaml of the developer out of the way
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// fixturePath returns the absolute path of a file under testdata.
func fixturePath(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return p
}

// parseCSV parses command output written with --output csv.
func parseCSV(t *testing.T, out string) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	return records
}

// exerciseStore loads the fixture, reports and checks the derived views through
// the CLI against whatever backend env selects.
func exerciseStore(t *testing.T, env []string) {
	t.Helper()
	snapshots := fixturePath(t, "snapshots.csv")

	_, err := runTranche(t, env, "db", "clear")
	require.NoError(t, err)

	out, err := runTranche(t, env, "load", snapshots, "--source", "ABC")
	require.NoError(t, err)
	require.Contains(t, out, "Loaded 16 new snapshots")

	// Loading the same file twice adds nothing
	out, err = runTranche(t, env, "load", snapshots, "--source", "ABC")
	require.NoError(t, err)
	require.Contains(t, out, "Loaded 0 new snapshots")

	_, err = runTranche(t, env, "report", "--source", "ABC")
	require.NoError(t, err)

	out, err = runTranche(t, env, "forecast", "--source", "ABC", "--output", "csv")
	require.NoError(t, err)
	records := parseCSV(t, out)
	require.Len(t, records, 2)
	require.Equal(t, "source", records[0][0])
	require.Equal(t, []string{"ABC", "Infra"}, records[1][:2])
	require.Equal(t, "2024-01-26", records[1][3])

	out, err = runTranche(t, env, "backlog", "--source", "ABC", "--status", "resolved", "--output", "csv")
	require.NoError(t, err)
	records = parseCSV(t, out)
	require.Len(t, records, 4)
	require.Equal(t, "6.0", records[3][4])

	out, err = runTranche(t, env, "runs", "--source", "ABC", "--output", "csv")
	require.NoError(t, err)
	records = parseCSV(t, out)
	require.Len(t, records, 2)
	require.Equal(t, "succeeded", records[1][6])

	out, err = runTranche(t, env, "db", "status")
	require.NoError(t, err)
	require.Contains(t, out, "ABC")
}

// exerciseCaseVariants checks that task ids and categories differing only in
// case are stored and reported as distinct keys.
func exerciseCaseVariants(t *testing.T, env []string) {
	t.Helper()
	snapshots := fixturePath(t, "case_variants.csv")

	out, err := runTranche(t, env, "load", snapshots, "--source", "XYZ")
	require.NoError(t, err)
	require.Contains(t, out, "Loaded 4 new snapshots")

	_, err = runTranche(t, env, "report", "--source", "XYZ")
	require.NoError(t, err)

	out, err = runTranche(t, env, "tasks", "--source", "XYZ", "--output", "csv")
	require.NoError(t, err)
	records := parseCSV(t, out)
	require.Len(t, records, 3)
	ids := []string{records[1][1], records[2][1]}
	categories := []string{records[1][5], records[2][5]}
	require.ElementsMatch(t, []string{"T1", "t1"}, ids)
	require.ElementsMatch(t, []string{"Infra", "infra"}, categories)
}

// Package main is the entry point for the tranche CLI.
package main

import (
	"os"

	"github.com/huangsam/tranche/cmd"
	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/internal/store"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code once stores are
// closed and profiling is stopped.
func run() int {
	cmd.SetStoreManager(store.Global)
	defer store.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		contract.LogError("Error running CLI", err)
		return 1
	}
	return 0
}

// Package cli implements the notamctl CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flightpath-labs/notam-interp/internal/memory"
)

var (
	memoryPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "notamctl",
	Short: "Interpret NOTAMs and manage the corrective memory",
	Long:  "Offline companion to the interpretation service: run the deterministic extractor against a NOTAM, and inspect or seed the learned-memory document it shares with the service.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&memoryPath, "memory", "m", "", "Memory document path (default: $MEMORY_PATH or data/memory.json)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getMemoryPath() string {
	if memoryPath != "" {
		return memoryPath
	}
	if env := os.Getenv("MEMORY_PATH"); env != "" {
		return env
	}
	return "data/memory.json"
}

func openStore() *memory.Store {
	return memory.Open(getMemoryPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

package main

import (
	"os"

	"github.com/flightpath-labs/notam-interp/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

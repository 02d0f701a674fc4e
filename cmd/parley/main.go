// Package main is the entry point for the parley chat client.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/parleychat/parley/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	// Local overrides (PARLEY_* vars) may live in a .env next to the
	// binary; absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

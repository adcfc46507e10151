// Package main provides the duckgorm CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/duckgorm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

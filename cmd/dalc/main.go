// Package main provides the dalc developer tool.
package main

import (
	"os"

	"github.com/leapstack-labs/dalc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

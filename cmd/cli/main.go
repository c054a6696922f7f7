// Package main is the entry point for the discount-engine CLI.
package main

import (
	"os"

	"discount-engine/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

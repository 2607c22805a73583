// Package main is the entry point for the mun CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/munin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

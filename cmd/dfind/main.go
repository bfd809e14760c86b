// Package main is the entry point for the dfind CLI.
package main

import (
	"os"

	"github.com/dfind/dfind/cmd/dfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

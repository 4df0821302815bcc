// Package main provides the entry point for the spor CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/spor/cmd/spor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

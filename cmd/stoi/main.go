// Package main provides the stoi command-line tool.
//
// Usage:
//
//	stoi [flags] <command> [args]
//
// Commands:
//
//	score    - Score one degraded recording against its reference
//	batch    - Score every pair listed in a manifest
//	cache    - Inspect or clear the score cache
//	config   - Configuration management
//	version  - Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.giztoy/stoi/
//	Use 'stoi config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/GnRlLeclerc/STOI/cmd/stoi/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main provides the prism command-line tool.
package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		// Failures are echoed to standard output.
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

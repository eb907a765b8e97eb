// Package main provides the entry point for the acta agent core binary.
package main

import (
	"fmt"
	"os"

	"github.com/acta-run/acta-core/cmd/acta/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

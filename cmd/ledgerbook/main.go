// Command ledgerbook manages recurring rules and runs batches from the shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(openStack).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Package main is the entry point for the analyst CLI
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(defaultServiceFactory).Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

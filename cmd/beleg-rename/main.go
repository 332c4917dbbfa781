// Package main is the entry point for the beleg-rename CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/buchhaltung/cmd/beleg-rename/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

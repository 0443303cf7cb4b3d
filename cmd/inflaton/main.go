// Package main is the entry point for the inflaton CLI.
package main

import (
	"os"

	"github.com/f3rmion/inflaton/cmd/inflaton/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

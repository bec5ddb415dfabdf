// Package main provides the entry point for the ragctl CLI.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/ragqa/cmd/ragctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

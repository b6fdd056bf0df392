// Package main provides the entry point for the field discovery CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "discovery_agent",
	Short: "Field schema discovery over document sets",
	Long:  "Discovery agent extracts a structured field schema from a set of markdown documents via model-assisted extraction, merging, consolidation, and exact location indexing.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "indices",
	Short: "Thematic equity index platform",
	Long: `Thematic equity index platform.

Discovers candidate companies, classifies their space-infrastructure
revenue exposure, calculates factor-weighted index compositions and
serves them over a REST API.

Usage:
  go run ./cmd/indices [command]

Examples:
  go run ./cmd/indices api
  go run ./cmd/indices data classify RKLB
  go run ./cmd/indices index calculate
  go run ./cmd/indices scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

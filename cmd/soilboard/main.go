// Package main is the entry point for the soilboard CLI.
//
// SoilBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	soilboard serve -c config.yaml    # Start the dashboard
//	soilboard validate -c config.yaml # Validate configuration
//	soilboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only shows help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "soilboard",
	Short: "A live soil-moisture dashboard",
	Long: `SoilBoard is a live dashboard for an irrigation sensor backend.

It polls the backend for soil-moisture readings and the last watering
time, charts the readings over a selectable time window and counts down
to the next refresh.

Quick start:
  1. Create a config file (soilboard.yaml)
  2. Run: soilboard serve -c soilboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  backend_url: http://localhost:3000
  poll_interval: 60s
  default_range: 12h`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already prints the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this soilboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "soilboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the config is expanded")
}

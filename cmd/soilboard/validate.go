package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/soilboard/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SoilBoard configuration file without starting the server.

This command loads the env file, parses the YAML, expands environment
variables, and validates all fields. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  soilboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(cmd); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := config.BuildOptions(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	timeout := "none"
	if cfg.RequestTimeout != 0 {
		timeout = cfg.RequestTimeout.Duration().String()
	}
	ranges := "default"
	if len(cfg.RangeOptions) > 0 {
		parts := make([]string, len(cfg.RangeOptions))
		for i, h := range cfg.RangeOptions {
			parts[i] = strconv.FormatFloat(h, 'f', -1, 64) + "h"
		}
		ranges = strings.Join(parts, ", ")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Backend:         %s\n", cfg.BackendURL)
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Default range:   %s\n", cfg.DefaultRange.Duration())
	fmt.Fprintf(out, "  Range options:   %s\n", ranges)
	fmt.Fprintf(out, "  Request timeout: %s\n", timeout)

	return nil
}

package config

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jpalmerr/soilboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is not included; pass one built with [BuildLogger] alongside.
func BuildOptions(cfg *Config) ([]soilboard.Option, error) {
	opts := []soilboard.Option{
		soilboard.WithBackendURL(cfg.BackendURL),
		soilboard.WithPort(cfg.Port),
		soilboard.WithPollingInterval(cfg.PollInterval.Duration()),
		soilboard.WithDefaultRange(cfg.DefaultRange.Duration()),
	}

	if cfg.Title != "" {
		opts = append(opts, soilboard.WithTitle(cfg.Title))
	}
	if len(cfg.RangeOptions) > 0 {
		opts = append(opts, soilboard.WithRangeOptions(cfg.RangeOptions...))
	}
	if cfg.RequestTimeout != 0 {
		opts = append(opts, soilboard.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, soilboard.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		opts = append(opts, soilboard.WithLocation(loc))
	}
	if cfg.Chart.Width > 0 && cfg.Chart.Height > 0 {
		opts = append(opts, soilboard.WithChartSize(cfg.Chart.Width, cfg.Chart.Height))
	}
	if cfg.Chart.MaxPoints > 0 {
		opts = append(opts, soilboard.WithMaxChartPoints(cfg.Chart.MaxPoints))
	}

	return opts, nil
}

// BuildLogger creates a logger writing to w as configured by lc.
func BuildLogger(lc LogConfig, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if strings.EqualFold(lc.Format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

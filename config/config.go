// Package config provides YAML configuration parsing for SoilBoard.
//
// This package enables running SoilBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Greenhouse
//	port: 8080
//	backend_url: ${SOIL_BACKEND_URL:-http://localhost:3000}
//	poll_interval: 60s
//	default_range: 12h
//	range_options: [1, 6, 12, 24, 48, 168]
//	timezone: Europe/London
//	headers:
//	  Authorization: Bearer ${SOIL_TOKEN}
//
//	chart:
//	  width: 800
//	  height: 400
//	  max_points: 500
//
//	log:
//	  level: info
//	  format: json
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minPollInterval is the minimum allowed polling interval.
// This prevents accidental hammering of the backend.
const minPollInterval = 1 * time.Second

const (
	defaultPort         = 8080
	defaultPollInterval = 60 * time.Second
	defaultRange        = 12 * time.Hour
)

// Config is the root configuration structure for SoilBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "SoilBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// BackendURL is the base URL of the sensor backend. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BackendURL string `yaml:"backend_url"`

	// PollInterval is the time between refreshes. Defaults to 60s.
	PollInterval Duration `yaml:"poll_interval"`

	// DefaultRange is the trailing window shown at start. Defaults to 12h.
	DefaultRange Duration `yaml:"default_range"`

	// RangeOptions are the hour values offered by the range selector.
	// Defaults to the SDK's options when empty.
	RangeOptions []float64 `yaml:"range_options"`

	// RequestTimeout bounds each backend request. Zero means no timeout.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Timezone is an IANA zone name used for displayed times.
	// Defaults to the host's local zone.
	Timezone string `yaml:"timezone"`

	// Headers are sent with every backend request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	Chart ChartConfig `yaml:"chart"`

	Log LogConfig `yaml:"log"`
}

// ChartConfig controls chart rendering. Zero values keep the SDK defaults.
type ChartConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	MaxPoints int `yaml:"max_points"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		varName := sub[1]
		hasDefault := sub[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return sub[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in BackendURL and Header values.
// Defaults are applied for Port, PollInterval, DefaultRange and Log.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.DefaultRange == 0 {
		cfg.DefaultRange = Duration(defaultRange)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	expanded, err := expandEnvVars(c.BackendURL)
	if err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	c.BackendURL = expanded

	parsedURL, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("backend_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("backend_url must have a host")
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.DefaultRange.Duration() < time.Second {
		return fmt.Errorf("default_range must be at least 1s, got %s", c.DefaultRange.Duration())
	}
	if c.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %s", c.RequestTimeout.Duration())
	}

	for i, h := range c.RangeOptions {
		if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
			return fmt.Errorf("range_options[%d]: must be a positive number of hours, got %v", i, h)
		}
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}

	if c.Chart.Width < 0 || c.Chart.Height < 0 || c.Chart.MaxPoints < 0 {
		return errors.New("chart width, height and max_points cannot be negative")
	}
	if (c.Chart.Width == 0) != (c.Chart.Height == 0) {
		return errors.New("chart width and height must be set together")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

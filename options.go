package soilboard

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"
)

// dbConfig holds mutable state during Dashboard construction.
type dbConfig struct {
	backendURL      string
	title           string
	pollingInterval time.Duration
	defaultRange    time.Duration
	rangeOptions    []float64
	port            int
	logger          *slog.Logger
	headers         map[string]string
	requestTimeout  time.Duration
	location        *time.Location
	chartWidth      int
	chartHeight     int
	maxChartPoints  int
	updateCallbacks []func(Update)
}

// Option is a function that configures a [Dashboard] instance during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*dbConfig) error

// WithBackendURL sets the base URL of the sensor backend. Readings are
// requested from <url>/reading and the watering status from <url>/water.
//
// Required. Returns an error unless the URL is absolute http or https.
//
// Example:
//
//	db, err := soilboard.New(
//	    soilboard.WithBackendURL("https://garden.example.com/api"),
//	)
func WithBackendURL(rawURL string) Option {
	return func(cfg *dbConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid backend URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backend URL must use http or https, got %q", rawURL)
		}
		if u.Host == "" {
			return fmt.Errorf("backend URL must have a host, got %q", rawURL)
		}
		cfg.backendURL = rawURL
		return nil
	}
}

// WithPollingInterval sets how often the backend is polled.
//
// Defaults to 60 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithDefaultRange sets the trailing window shown when the dashboard starts.
//
// Defaults to 12 hours. Returns an error if the range is shorter than one second.
func WithDefaultRange(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d < time.Second {
			return errors.New("default range must be at least one second")
		}
		cfg.defaultRange = d
		return nil
	}
}

// WithRangeOptions sets the hour values offered by the dashboard's range
// selector, in display order.
//
// Defaults to 1, 6, 12, 24, 48 and 168 hours.
//
// Returns an error if no values are given or any value is not positive.
func WithRangeOptions(hours ...float64) Option {
	return func(cfg *dbConfig) error {
		if len(hours) == 0 {
			return errors.New("at least one range option is required")
		}
		for _, h := range hours {
			if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
				return fmt.Errorf("range option must be a positive number of hours, got %v", h)
			}
		}
		cfg.rangeOptions = append([]float64(nil), hours...)
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *dbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "SoilBoard".
func WithTitle(title string) Option {
	return func(cfg *dbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Dashboard instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every backend request.
// Headers are specified as key-value pairs.
//
// Example:
//
//	db, err := soilboard.New(
//	    soilboard.WithBackendURL(backend),
//	    soilboard.WithHeaders("Authorization", "Bearer "+token),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *dbConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithRequestTimeout bounds each backend request. By default requests have
// no timeout of their own and are only cancelled on shutdown.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithLocation sets the time zone used to render the last-watered time and
// the chart's time axis. Defaults to [time.Local].
//
// Returns an error if loc is nil.
func WithLocation(loc *time.Location) Option {
	return func(cfg *dbConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithChartSize sets the pixel size of the rendered chart.
//
// Returns an error if either dimension is not positive.
func WithChartSize(width, height int) Option {
	return func(cfg *dbConfig) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("chart size must be positive, got %dx%d", width, height)
		}
		cfg.chartWidth = width
		cfg.chartHeight = height
		return nil
	}
}

// WithMaxChartPoints caps the number of points drawn in the chart. Larger
// frames are decimated evenly. Zero disables decimation.
//
// Returns an error if n is negative.
func WithMaxChartPoints(n int) Option {
	return func(cfg *dbConfig) error {
		if n < 0 {
			return errors.New("max chart points cannot be negative")
		}
		cfg.maxChartPoints = n
		return nil
	}
}

// WithUpdateCallback registers a function to be called whenever fresh data
// is applied to the dashboard.
//
// Callbacks only see data that was actually displayed: failed fetches and
// responses superseded by a later cycle never reach them. Multiple callbacks
// execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. They run on the poll loop, so a
// slow callback delays the countdown and subsequent updates. Calling
// [Dashboard.SetRange] from a callback is fine; the new range is applied once
// the callback returns.
//
// Panics within callbacks are recovered and logged. Nil callbacks are
// silently ignored.
//
// Example:
//
//	db, err := soilboard.New(
//	    soilboard.WithBackendURL(backend),
//	    soilboard.WithUpdateCallback(func(u soilboard.Update) {
//	        if r, ok := u.Latest(); ok && r.SoilMoisture < 20 {
//	            log.Printf("soil is dry: %.0f%%", r.SoilMoisture)
//	        }
//	    }),
//	)
func WithUpdateCallback(cb func(Update)) Option {
	return func(cfg *dbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		return nil
	}
}

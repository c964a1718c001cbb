package soilboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jpalmerr/soilboard/dashboard"
	"github.com/jpalmerr/soilboard/internal/chart"
	"github.com/jpalmerr/soilboard/internal/metrics"
	"github.com/jpalmerr/soilboard/internal/poller"
	"github.com/jpalmerr/soilboard/internal/server"
	"github.com/jpalmerr/soilboard/internal/store"
	"github.com/jpalmerr/soilboard/internal/view"
)

const (
	defaultPollingInterval = 60 * time.Second
	defaultRange           = 12 * time.Hour
	defaultPort            = 8080
)

var defaultRangeOptions = []float64{1, 6, 12, 24, 48, 168}

// ErrNotRunning is returned by [Dashboard.SetRange] when the dashboard has
// not been started or has already stopped.
var ErrNotRunning = errors.New("dashboard is not running")

// Dashboard polls a soil-moisture backend and serves a live dashboard.
//
// Dashboard is created using [New] with functional options and started with
// [Dashboard.Start]. The typical lifecycle is:
//
//	db, err := soilboard.New(soilboard.WithBackendURL("http://localhost:3000"))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	db.Start(ctx) // blocks until context cancelled
type Dashboard struct {
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
	chart           chart.Options
	updateCallbacks []func(Update)

	// clock drives the poll loop; replaced in tests
	clock poller.Clock

	mu     sync.Mutex
	ranges *poller.RangeController
}

// New creates a new [Dashboard] instance with the given options.
//
// A backend must be configured via [WithBackendURL]. Other options have
// sensible defaults:
//   - Polling interval: 60 seconds
//   - Default range: 12 hours
//   - Range options: 1, 6, 12, 24, 48 and 168 hours
//   - Port: 8080
//
// Returns an error if no backend is configured or if any option is invalid.
func New(opts ...Option) (*Dashboard, error) {
	cfg := &dbConfig{
		pollingInterval: defaultPollingInterval,
		defaultRange:    defaultRange,
		rangeOptions:    append([]float64(nil), defaultRangeOptions...),
		port:            defaultPort,
		headers:         make(map[string]string),
		chartWidth:      chart.DefaultWidth,
		chartHeight:     chart.DefaultHeight,
		maxChartPoints:  chart.DefaultMaxPoints,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.backendURL == "" {
		return nil, errors.New("backend URL is required")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.location
	if loc == nil {
		loc = time.Local
	}

	return &Dashboard{
		backendURL:      cfg.backendURL,
		title:           cfg.title,
		pollingInterval: cfg.pollingInterval,
		defaultRange:    cfg.defaultRange,
		rangeOptions:    cfg.rangeOptions,
		port:            cfg.port,
		logger:          logger,
		headers:         cfg.headers,
		requestTimeout:  cfg.requestTimeout,
		location:        loc,
		chart: chart.Options{
			Width:     cfg.chartWidth,
			Height:    cfg.chartHeight,
			MaxPoints: cfg.maxChartPoints,
			Location:  loc,
		},
		updateCallbacks: cfg.updateCallbacks,
	}, nil
}

// Start begins polling the backend and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The backend is polled immediately, then at the configured interval
//   - The HTTP server starts on the configured port
//   - The dashboard is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (d *Dashboard) Start(ctx context.Context) error {
	d.logger.Info("soilboard starting", "backend", d.backendURL)
	d.logger.Info("polling configured",
		"interval", d.pollingInterval.String(),
		"range", d.defaultRange.String(),
	)
	d.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", d.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	client, err := poller.NewClient(d.backendURL, d.headers, d.requestTimeout)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	fetcher := poller.NewHTTPFetcher(client)
	defer fetcher.Close()

	viewStore := store.NewMemoryStore()
	var v poller.View = view.NewUpdater(viewStore, d.location, d.logger)
	if len(d.updateCallbacks) > 0 {
		v = &notifyingView{next: v, callbacks: d.updateCallbacks, logger: d.logger, now: time.Now}
	}

	m := metrics.New()
	scheduler, err := poller.NewScheduler(fetcher, v, poller.Config{
		Interval:     d.pollingInterval,
		RangeSeconds: int64(d.defaultRange / time.Second),
		Clock:        d.clock,
		Observer:     m,
		Logger:       d.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	ranges := poller.NewRangeController(scheduler, d.logger)

	httpServer := server.NewServer(viewStore, server.Config{
		Port:         d.port,
		Title:        d.title,
		Assets:       dashboard.Assets,
		RangeOptions: d.rangeOptions,
		Chart:        d.chart,
		Ranges:       ranges,
		Metrics:      m.Handler(),
		Logger:       d.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	scheduler.Start(ctx)
	d.setRanges(ranges)

	<-ctx.Done()

	d.setRanges(nil)
	scheduler.Stop()
	d.logger.Info("soilboard stopped")
	return nil
}

// SetRange changes the requested range of a running dashboard to the given
// number of hours, exactly as if it had been chosen on the page. It triggers
// an immediate refresh.
//
// Returns [ErrNotRunning] if the dashboard is not running, or an error if
// hours is not positive.
func (d *Dashboard) SetRange(hours float64) error {
	d.mu.Lock()
	ranges := d.ranges
	d.mu.Unlock()

	if ranges == nil {
		return ErrNotRunning
	}
	_, err := ranges.Select(strconv.FormatFloat(hours, 'f', -1, 64))
	return err
}

func (d *Dashboard) setRanges(rc *poller.RangeController) {
	d.mu.Lock()
	d.ranges = rc
	d.mu.Unlock()
}

// Port returns the configured HTTP port for the dashboard server.
func (d *Dashboard) Port() int {
	return d.port
}

// PollingInterval returns the configured interval between polling cycles.
func (d *Dashboard) PollingInterval() time.Duration {
	return d.pollingInterval
}

// DefaultRange returns the range requested when the dashboard starts.
func (d *Dashboard) DefaultRange() time.Duration {
	return d.defaultRange
}

// RangeOptions returns a copy of the hour values offered by the range selector.
func (d *Dashboard) RangeOptions() []float64 {
	return append([]float64(nil), d.rangeOptions...)
}

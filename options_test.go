package soilboard

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

const testBackend = "http://localhost:3000"

func TestNew_Valid(t *testing.T) {
	db, err := New(WithBackendURL(testBackend))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_NoBackend(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() without backend URL should return error")
	}
}

func TestNew_Defaults(t *testing.T) {
	db, err := New(WithBackendURL(testBackend))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if db.PollingInterval() != 60*time.Second {
		t.Errorf("PollingInterval() = %v, want 60s", db.PollingInterval())
	}
	if db.DefaultRange() != 12*time.Hour {
		t.Errorf("DefaultRange() = %v, want 12h", db.DefaultRange())
	}
	if db.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", db.Port())
	}
	want := []float64{1, 6, 12, 24, 48, 168}
	got := db.RangeOptions()
	if len(got) != len(want) {
		t.Fatalf("RangeOptions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RangeOptions()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if db.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
	if db.location != time.Local {
		t.Error("location should default to time.Local")
	}
	if db.requestTimeout != 0 {
		t.Errorf("requestTimeout = %v, want none", db.requestTimeout)
	}
}

func TestWithBackendURL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "localhost:3000"},
		{"ftp", "ftp://example.com"},
		{"no host", "http://"},
		{"bad escape", "http://exa mple.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithBackendURL(tt.url)); err == nil {
				t.Errorf("WithBackendURL(%q) should return error", tt.url)
			}
		})
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero interval", WithPollingInterval(0)},
		{"negative interval", WithPollingInterval(-time.Second)},
		{"sub-second range", WithDefaultRange(500 * time.Millisecond)},
		{"no range options", WithRangeOptions()},
		{"zero range option", WithRangeOptions(1, 0)},
		{"negative range option", WithRangeOptions(-6)},
		{"port zero", WithPort(0)},
		{"port too large", WithPort(65536)},
		{"nil logger", WithLogger(nil)},
		{"odd headers", WithHeaders("Authorization")},
		{"zero timeout", WithRequestTimeout(0)},
		{"nil location", WithLocation(nil)},
		{"zero chart width", WithChartSize(0, 400)},
		{"negative chart points", WithMaxChartPoints(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithBackendURL(testBackend), tt.opt); err == nil {
				t.Error("New() should return error")
			}
		})
	}
}

func TestOptions_Applied(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc := time.FixedZone("AEST", 10*60*60)

	db, err := New(
		WithBackendURL(testBackend),
		WithPollingInterval(30*time.Second),
		WithDefaultRange(24*time.Hour),
		WithRangeOptions(0.5, 2),
		WithPort(9090),
		WithTitle("Greenhouse"),
		WithLogger(logger),
		WithHeaders("Authorization", "Bearer token", "X-Site", "north"),
		WithRequestTimeout(5*time.Second),
		WithLocation(loc),
		WithChartSize(640, 320),
		WithMaxChartPoints(100),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if db.PollingInterval() != 30*time.Second {
		t.Errorf("PollingInterval() = %v", db.PollingInterval())
	}
	if db.DefaultRange() != 24*time.Hour {
		t.Errorf("DefaultRange() = %v", db.DefaultRange())
	}
	if got := db.RangeOptions(); len(got) != 2 || got[0] != 0.5 {
		t.Errorf("RangeOptions() = %v", got)
	}
	if db.Port() != 9090 {
		t.Errorf("Port() = %d", db.Port())
	}
	if db.title != "Greenhouse" {
		t.Errorf("title = %q", db.title)
	}
	if db.logger != logger {
		t.Error("logger not applied")
	}
	if db.headers["Authorization"] != "Bearer token" || db.headers["X-Site"] != "north" {
		t.Errorf("headers = %v", db.headers)
	}
	if db.requestTimeout != 5*time.Second {
		t.Errorf("requestTimeout = %v", db.requestTimeout)
	}
	if db.chart.Width != 640 || db.chart.Height != 320 || db.chart.MaxPoints != 100 || db.chart.Location != loc {
		t.Errorf("chart = %+v", db.chart)
	}
}

func TestWithMaxChartPoints_ZeroDisables(t *testing.T) {
	db, err := New(WithBackendURL(testBackend), WithMaxChartPoints(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if db.chart.MaxPoints != 0 {
		t.Errorf("MaxPoints = %d, want 0", db.chart.MaxPoints)
	}
}

func TestRangeOptions_Immutability(t *testing.T) {
	opts := []float64{1, 2}
	db, err := New(WithBackendURL(testBackend), WithRangeOptions(opts...))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	opts[0] = 99
	got := db.RangeOptions()
	got[1] = 99

	if again := db.RangeOptions(); again[0] != 1 || again[1] != 2 {
		t.Errorf("RangeOptions() = %v, want [1 2]", again)
	}
}

func TestWithUpdateCallback_NilIgnored(t *testing.T) {
	db, err := New(WithBackendURL(testBackend), WithUpdateCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(db.updateCallbacks) != 0 {
		t.Errorf("updateCallbacks = %d, want 0", len(db.updateCallbacks))
	}
}

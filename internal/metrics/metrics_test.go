package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jpalmerr/soilboard/internal/poller"
)

var _ poller.Observer = (*Metrics)(nil)

func TestMetrics_Cycles(t *testing.T) {
	m := New()

	m.CycleStarted(1, 43200)
	m.CycleStarted(2, 43200)

	if got := testutil.ToFloat64(m.cycles); got != 2 {
		t.Errorf("cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rangeSeconds); got != 43200 {
		t.Errorf("range_seconds = %v, want 43200", got)
	}
}

func TestMetrics_RangeChanged(t *testing.T) {
	m := New()

	m.RangeChanged(3600)

	if got := testutil.ToFloat64(m.rangeChanges); got != 1 {
		t.Errorf("range_changes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rangeSeconds); got != 3600 {
		t.Errorf("range_seconds = %v, want 3600", got)
	}
}

func TestMetrics_FetchCompleted(t *testing.T) {
	m := New()

	m.FetchCompleted(poller.KindReadings, 20*time.Millisecond, nil)
	m.FetchCompleted(poller.KindReadings, 30*time.Millisecond, errors.New("boom"))
	m.FetchCompleted(poller.KindWater, 10*time.Millisecond, nil)

	tests := []struct {
		kind, outcome string
		want          float64
	}{
		{"readings", "success", 1},
		{"readings", "error", 1},
		{"water", "success", 1},
		{"water", "error", 0},
	}
	for _, tt := range tests {
		c := m.fetches.With(prometheus.Labels{"kind": tt.kind, "outcome": tt.outcome})
		if got := testutil.ToFloat64(c); got != tt.want {
			t.Errorf("fetches{%s,%s} = %v, want %v", tt.kind, tt.outcome, got, tt.want)
		}
	}
}

func TestMetrics_ResponseDiscarded(t *testing.T) {
	m := New()

	m.ResponseDiscarded(poller.KindWater)

	if got := testutil.ToFloat64(m.discarded.With(prometheus.Labels{"kind": "water"})); got != 1 {
		t.Errorf("discarded{water} = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CycleStarted(1, 60)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "soilboard_poll_cycles_total 1") {
		t.Errorf("exposition missing cycle counter:\n%s", body)
	}
}

func TestNew_Independent(t *testing.T) {
	// separate registries must not panic on duplicate registration
	a, b := New(), New()
	a.CycleStarted(1, 60)

	if got := testutil.ToFloat64(b.cycles); got != 0 {
		t.Errorf("second Metrics cycles = %v, want 0", got)
	}
}

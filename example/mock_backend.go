package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// mockSensor simulates a pot drying out between waterings.
type mockSensor struct {
	mu          sync.Mutex
	readings    []mockReading
	lastWatered int64
}

type mockReading struct {
	Time         int64   `json:"time"`
	SoilMoisture float64 `json:"soil_moisture"`
}

// StartMockBackend runs a mock irrigation backend serving /reading and /water.
// A reading is recorded every 10 seconds; moisture drops slowly and jumps back
// up when it falls below 30%, which also records a watering event.
// Call this in a goroutine before starting the dashboard.
func StartMockBackend(addr string) {
	sensor := &mockSensor{}
	sensor.backfill(time.Now(), 24*time.Hour, 10*time.Minute)

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for now := range ticker.C {
			sensor.record(now)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/reading", sensor.handleReading)
	mux.HandleFunc("/water", sensor.handleWater)

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock backend error", "error", err)
	}
}

func (s *mockSensor) backfill(now time.Time, span, step time.Duration) {
	for t := now.Add(-span); t.Before(now); t = t.Add(step) {
		s.record(t)
	}
}

func (s *mockSensor) record(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moisture := 70.0
	if n := len(s.readings); n > 0 {
		moisture = s.readings[n-1].SoilMoisture - rand.Float64()*0.8
	}
	if moisture < 30 {
		moisture = 65 + rand.Float64()*10
		s.lastWatered = at.Unix()
		slog.Info("watered", "moisture", moisture)
	}
	s.readings = append(s.readings, mockReading{Time: at.Unix(), SoilMoisture: moisture})
}

func (s *mockSensor) handleReading(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Unix()
	since := now
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since"})
			return
		}
		since = parsed
	}

	// simulate small latency variance
	time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

	s.mu.Lock()
	out := make([]mockReading, 0, len(s.readings))
	for _, rd := range s.readings {
		if rd.Time >= now-since {
			out = append(out, rd)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *mockSensor) handleWater(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	last := s.lastWatered
	s.mu.Unlock()

	if last == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No water events"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"last_watered": last})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Standalone mock irrigation backend for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockbackend
//
// Then in another terminal:
//
//	go run ./cmd/soilboard serve -c example/config.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

type reading struct {
	Time         int64   `json:"time"`
	SoilMoisture float64 `json:"soil_moisture"`
}

func main() {
	addr := flag.String("addr", ":5500", "listen address")
	noWater := flag.Bool("no-water", false, "report no watering events (GET /water returns 400)")
	flag.Parse()

	fmt.Printf("Mock irrigation backend starting on %s\n", *addr)
	fmt.Println("GET /reading?since=<seconds>  GET /water")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu          sync.Mutex
		readings    []reading
		lastWatered int64
	)

	record := func(at time.Time) {
		mu.Lock()
		defer mu.Unlock()

		moisture := 70.0
		if n := len(readings); n > 0 {
			moisture = readings[n-1].SoilMoisture - rand.Float64()*0.8
		}
		if moisture < 30 {
			moisture = 65 + rand.Float64()*10
			if !*noWater {
				lastWatered = at.Unix()
			}
		}
		readings = append(readings, reading{Time: at.Unix(), SoilMoisture: moisture})
	}

	now := time.Now()
	for t := now.Add(-7 * 24 * time.Hour); t.Before(now); t = t.Add(15 * time.Minute) {
		record(t)
	}
	go func() {
		for t := range time.Tick(10 * time.Second) {
			record(t)
		}
	}()

	http.HandleFunc("/reading", func(w http.ResponseWriter, r *http.Request) {
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

		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		out := make([]reading, 0, len(readings))
		for _, rd := range readings {
			if rd.Time >= now-since {
				out = append(out, rd)
			}
		}
		mu.Unlock()

		slog.Info("served readings", "since", since, "count", len(out))
		writeJSON(w, http.StatusOK, out)
	})

	http.HandleFunc("/water", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last := lastWatered
		mu.Unlock()

		if last == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No water events"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"last_watered": last})
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/soilboard"
)

func main() {
	// start mock backend (see mock_backend.go)
	go StartMockBackend(":5500")
	time.Sleep(100 * time.Millisecond)

	sb, err := soilboard.New(
		soilboard.WithBackendURL("http://localhost:5500"),
		soilboard.WithPollingInterval(15*time.Second),
		soilboard.WithDefaultRange(6*time.Hour),
		soilboard.WithTitle("Basil"),
		soilboard.WithPort(8080),
		soilboard.WithUpdateCallback(func(u soilboard.Update) {
			if u.Kind != soilboard.UpdateReadings {
				return
			}
			if latest, ok := u.Latest(); ok && latest.SoilMoisture < 35 {
				slog.Warn("soil is getting dry", "moisture", latest.SoilMoisture)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create soilboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   SoilBoard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock backend on :5500 (reading every 10s)           ║")
	fmt.Println("  ║   Dashboard polls every 15s, 6h window                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sb.Start(ctx); err != nil {
		slog.Error("soilboard error", "error", err)
		os.Exit(1)
	}
}

package poller

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

const secondsPerHour = 3600

// Reconfigurer is implemented by [Scheduler].
type Reconfigurer interface {
	Reconfigure(rangeSeconds int64) error
}

// RangeController turns range-selector values (hours) into scheduler
// reconfigurations.
type RangeController struct {
	scheduler Reconfigurer
	logger    *slog.Logger
}

// NewRangeController creates a [RangeController] driving scheduler.
func NewRangeController(scheduler Reconfigurer, logger *slog.Logger) *RangeController {
	if logger == nil {
		logger = slog.Default()
	}
	return &RangeController{scheduler: scheduler, logger: logger}
}

// Select handles a change of the range control. value is the raw control
// value in hours. Invalid values are rejected and leave the scheduler
// untouched.
func (rc *RangeController) Select(value string) (int64, error) {
	seconds, err := HoursToSeconds(value)
	if err != nil {
		rc.logger.Warn("ignoring range selection", "value", value, "error", err.Error())
		return 0, err
	}
	if err := rc.scheduler.Reconfigure(seconds); err != nil {
		return 0, fmt.Errorf("reconfigure scheduler: %w", err)
	}
	return seconds, nil
}

// HoursToSeconds parses a positive number of hours and converts it to whole
// seconds, rounding to the nearest second with a floor of one.
func HoursToSeconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("range value is empty")
	}
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("range value %q is not a number", value)
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, fmt.Errorf("range value %q must be a positive number of hours", value)
	}
	seconds := math.Round(hours * secondsPerHour)
	if seconds > math.MaxInt64/2 {
		return 0, fmt.Errorf("range value %q is too large", value)
	}
	if seconds < 1 {
		seconds = 1
	}
	return int64(seconds), nil
}

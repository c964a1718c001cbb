// Package view turns parsed backend data into what the dashboard displays.
//
// The [Updater] is the only writer of the chart frame and the status text
// nodes. It writes through a [Sink], which in production is the store that
// fans updates out to connected dashboards.
package view

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/jpalmerr/soilboard/internal/poller"
)

// TextNode names one of the dashboard's text-bearing elements.
type TextNode string

const (
	SoilMoistureNode TextNode = "soil"
	LastWateredNode  TextNode = "water"
	CountdownNode    TextNode = "countdown"
)

// lastWateredLayout renders e.g. "5 July 14:03".
const lastWateredLayout = "2 January 15:04"

// Schedule is the poll schedule as shown to the user.
type Schedule struct {
	RangeSeconds int64     `json:"range_seconds"`
	IntervalMs   int64     `json:"interval_ms"`
	NextPollAt   time.Time `json:"next_poll_at"`
	Cycle        uint64    `json:"cycle"`
}

// Sink is the display surface the [Updater] writes to.
type Sink interface {
	// ReplaceFrame swaps the chart data wholesale and redraws.
	ReplaceFrame(frame Frame)

	// SetText replaces the content of a text node.
	SetText(node TextNode, text string)

	// SetSchedule publishes the current poll schedule.
	SetSchedule(schedule Schedule)
}

// Updater implements poller.View on top of a [Sink].
type Updater struct {
	sink     Sink
	location *time.Location
	logger   *slog.Logger
}

// NewUpdater creates an [Updater]. Timestamps are rendered in loc, or the
// local zone when loc is nil.
func NewUpdater(sink Sink, loc *time.Location, logger *slog.Logger) *Updater {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{sink: sink, location: loc, logger: logger}
}

// ApplyReadings replaces the chart frame and updates the current soil moisture
// from the most recent reading. An empty slice leaves both the chart and the
// soil moisture text at their previous values.
func (u *Updater) ApplyReadings(readings []poller.Reading) {
	if len(readings) == 0 {
		u.logger.Info("no readings in requested range")
		return
	}

	u.sink.ReplaceFrame(NewFrame(readings))
	last := readings[len(readings)-1]
	u.sink.SetText(SoilMoistureNode, FormatSoilMoisture(last.SoilMoisture))
}

// ApplyWaterStatus updates the last-watered text.
func (u *Updater) ApplyWaterStatus(status poller.WaterStatus) {
	u.sink.SetText(LastWateredNode, FormatLastWatered(status.LastWatered, u.location))
}

// ApplyCountdown updates the countdown text.
func (u *Updater) ApplyCountdown(text string) {
	u.sink.SetText(CountdownNode, text)
}

// ApplySchedule publishes the scheduler state.
func (u *Updater) ApplySchedule(state poller.State) {
	u.sink.SetSchedule(Schedule{
		RangeSeconds: state.RangeSeconds,
		IntervalMs:   state.Interval.Milliseconds(),
		NextPollAt:   state.NextPollAt,
		Cycle:        state.Cycle,
	})
}

// FormatSoilMoisture renders a moisture percentage with the shortest exact
// representation, e.g. "Soil Moisture: 42%" or "Soil Moisture: 41.5%".
func FormatSoilMoisture(v float64) string {
	return "Soil Moisture: " + strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatLastWatered renders an epoch-seconds instant as a calendar date and
// time in loc, e.g. "Last Watered: 5 July 14:03".
func FormatLastWatered(epochSeconds int64, loc *time.Location) string {
	return "Last Watered: " + time.Unix(epochSeconds, 0).In(loc).Format(lastWateredLayout)
}

package soilboard

import (
	"log/slog"
	"time"

	"github.com/jpalmerr/soilboard/internal/poller"
)

// Reading is a single soil-moisture sample.
type Reading struct {
	// Time is when the sample was taken.
	Time time.Time

	// SoilMoisture is the moisture percentage, nominally 0 to 100.
	SoilMoisture float64
}

// UpdateKind says which part of the dashboard an [Update] refreshed.
type UpdateKind string

const (
	// UpdateReadings indicates a new set of readings for the current range.
	UpdateReadings UpdateKind = "readings"

	// UpdateWaterStatus indicates a new last-watered time.
	UpdateWaterStatus UpdateKind = "water"
)

// Update describes data that has just been applied to the dashboard.
//
// Update values are owned by the callback that receives them; the slices
// are not shared with the dashboard.
type Update struct {
	Kind UpdateKind

	// Readings is set for UpdateReadings. It may be empty when the backend
	// has no samples in the requested range.
	Readings []Reading

	// LastWatered is set for UpdateWaterStatus.
	LastWatered time.Time

	// AppliedAt is when the update reached the dashboard.
	AppliedAt time.Time
}

// Latest returns the most recent reading of a readings update.
func (u Update) Latest() (Reading, bool) {
	if len(u.Readings) == 0 {
		return Reading{}, false
	}
	return u.Readings[len(u.Readings)-1], true
}

// notifyingView forwards to the dashboard's view and then reports each
// applied update to the registered callbacks.
type notifyingView struct {
	next      poller.View
	callbacks []func(Update)
	logger    *slog.Logger
	now       func() time.Time
}

func (v *notifyingView) ApplyReadings(readings []poller.Reading) {
	v.next.ApplyReadings(readings)

	public := make([]Reading, len(readings))
	for i, r := range readings {
		public[i] = Reading{Time: time.Unix(r.Time, 0), SoilMoisture: r.SoilMoisture}
	}
	v.notify(Update{Kind: UpdateReadings, Readings: public, AppliedAt: v.now()})
}

func (v *notifyingView) ApplyWaterStatus(status poller.WaterStatus) {
	v.next.ApplyWaterStatus(status)
	v.notify(Update{Kind: UpdateWaterStatus, LastWatered: time.Unix(status.LastWatered, 0), AppliedAt: v.now()})
}

func (v *notifyingView) ApplyCountdown(text string) {
	v.next.ApplyCountdown(text)
}

func (v *notifyingView) ApplySchedule(state poller.State) {
	v.next.ApplySchedule(state)
}

func (v *notifyingView) notify(u Update) {
	readings := u.Readings
	for _, cb := range v.callbacks {
		// each callback gets its own copy
		if readings != nil {
			u.Readings = append(make([]Reading, 0, len(readings)), readings...)
		}
		invokeCallbackSafe(cb, u, v.logger)
	}
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Update), u Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"panic", r,
				"kind", u.Kind,
			)
		}
	}()
	cb(u)
}

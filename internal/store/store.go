package store

import (
	"time"

	"github.com/jpalmerr/soilboard/internal/view"
)

// EventType names the kind of change carried by an [Event].
type EventType string

const (
	EventFrame    EventType = "frame"
	EventText     EventType = "text"
	EventSchedule EventType = "schedule"
	EventSnapshot EventType = "snapshot"
)

// Event is a single change to the dashboard state, as pushed to subscribers.
type Event struct {
	Type EventType `json:"type"`

	// Node is set for text events.
	Node view.TextNode `json:"node,omitempty"`

	// Text is set for text events.
	Text string `json:"text,omitempty"`

	// Frame is set for frame events.
	Frame *view.Frame `json:"frame,omitempty"`

	// Schedule is set for schedule events.
	Schedule *view.Schedule `json:"schedule,omitempty"`

	// State is set for snapshot events.
	State *State `json:"state,omitempty"`
}

// State is the full dashboard state.
type State struct {
	Frame        view.Frame    `json:"frame"`
	SoilMoisture string        `json:"soil_moisture"`
	LastWatered  string        `json:"last_watered"`
	Countdown    string        `json:"countdown"`
	Schedule     view.Schedule `json:"schedule"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Store holds the dashboard state and fans changes out to subscribers.
//
// Store implementations must be safe for concurrent access: the poll loop
// writes while HTTP handlers read and subscribe.
type Store interface {
	view.Sink

	// Snapshot returns the current state.
	Snapshot() State

	// Subscribe returns a channel that receives state changes.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}

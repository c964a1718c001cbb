package store

import (
	"sync"
	"time"

	"github.com/jpalmerr/soilboard/internal/view"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber so a slow dashboard cannot stall the poll loop.
type MemoryStore struct {
	mu          sync.RWMutex
	state       State
	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan Event]struct{}),
		now:         time.Now,
	}
}

// ReplaceFrame swaps the chart frame wholesale and notifies subscribers.
func (m *MemoryStore) ReplaceFrame(frame view.Frame) {
	m.mu.Lock()
	m.state.Frame = frame
	m.state.UpdatedAt = m.now()
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventFrame, Frame: &frame})
}

// SetText replaces one text node and notifies subscribers.
func (m *MemoryStore) SetText(node view.TextNode, text string) {
	m.mu.Lock()
	switch node {
	case view.SoilMoistureNode:
		m.state.SoilMoisture = text
	case view.LastWateredNode:
		m.state.LastWatered = text
	case view.CountdownNode:
		m.state.Countdown = text
	default:
		m.mu.Unlock()
		return
	}
	if node != view.CountdownNode {
		m.state.UpdatedAt = m.now()
	}
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventText, Node: node, Text: text})
}

// SetSchedule records the poll schedule and notifies subscribers.
func (m *MemoryStore) SetSchedule(schedule view.Schedule) {
	m.mu.Lock()
	m.state.Schedule = schedule
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventSchedule, Schedule: &schedule})
}

// Snapshot returns the current state. Frames are immutable once stored, so
// the returned value shares their backing arrays.
func (m *MemoryStore) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the message
		}
	}
}

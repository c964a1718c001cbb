// Package store holds the dashboard state and publishes changes to it.
//
// This package is internal to SoilBoard. [MemoryStore] is the display sink
// the view updater writes to: it keeps the current chart frame and status
// text, and implements a publish-subscribe pattern so connected dashboards
// (Server-Sent Events and WebSocket clients) receive every change.
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers miss updates rather than block the poll loop).
package store

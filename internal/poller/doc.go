// Package poller provides the polling and countdown scheduling core of
// SoilBoard.
//
// This package is internal to SoilBoard. It periodically retrieves soil
// readings and the last watering event from the backend and hands parsed
// results to a [View]. All scheduling state lives on a single loop goroutine
// so that range changes, trigger firing and result application never
// interleave.
//
// The main components are:
//
//   - [Scheduler]: the repeating poll trigger and the loop goroutine
//   - [Countdown]: once-per-second rendering of time until the next poll
//   - [HTTPFetcher]: the two backend requests and their parse step
//   - [Client]: HTTP client wrapper with size limits and optional timeout
//   - [RangeController]: converts range selections into reconfigurations
//
// Users of the soilboard library should not need to interact with this
// package directly.
package poller

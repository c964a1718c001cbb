// Package dashboard provides the embedded web UI for SoilBoard.
//
// The page is a thin client: it reads the initial state from /api/state,
// follows changes over /api/sse, shows the chart served at /chart.svg and
// posts range changes to /api/range. Everything it displays is computed by
// the Go process.
package dashboard

import "embed"

// Assets holds assets/index.html. The server replaces {{.Title}} in it with
// the configured dashboard title.
//
//go:embed assets/*
var Assets embed.FS

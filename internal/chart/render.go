// Package chart draws the soil-moisture frame as an SVG line chart.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jpalmerr/soilboard/internal/view"
)

const (
	DefaultWidth     = 800
	DefaultHeight    = 400
	DefaultMaxPoints = 500
)

var lineColor = drawing.ColorFromHex("3d7a4f")

// Options controls chart rendering.
type Options struct {
	Width  int
	Height int

	// MaxPoints caps the plotted points; larger frames are decimated.
	// Zero disables decimation.
	MaxPoints int

	// Location is used for the time axis labels. Defaults to time.Local.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// RenderSVG writes frame as an SVG document to w.
//
// Frames with fewer than two points cannot span a time axis; for those, and
// whenever the chart library fails, a placeholder of the same size is written
// instead so the dashboard always has an image to show.
func RenderSVG(w io.Writer, frame view.Frame, opts Options) error {
	opts = opts.withDefaults()
	frame = frame.Decimate(opts.MaxPoints)

	if frame.Len() < 2 {
		return writePlaceholder(w, opts, "No readings in range")
	}

	xs := make([]time.Time, frame.Len())
	for i, ms := range frame.Labels {
		xs[i] = time.UnixMilli(ms)
	}
	if !xs[len(xs)-1].After(xs[0]) {
		return writePlaceholder(w, opts, "Not enough readings to plot")
	}

	layout := axisLayout(xs[len(xs)-1].Sub(xs[0]))
	loc := opts.Location

	ch := chart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).In(loc).Format(layout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  "Soil Moisture / %",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Soil Moisture",
				XValues: xs,
				YValues: frame.Values,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return writePlaceholder(w, opts, fmt.Sprintf("Chart unavailable: %v", err))
	}
	_, err := buf.WriteTo(w)
	return err
}

// axisLayout picks a tick label layout for the plotted span.
func axisLayout(span time.Duration) string {
	switch {
	case span <= 24*time.Hour:
		return "15:04"
	case span <= 7*24*time.Hour:
		return "Mon 15:04"
	default:
		return "2 Jan"
	}
}

func writePlaceholder(w io.Writer, opts Options, msg string) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#888888">%s</text>`+
		`</svg>`,
		opts.Width, opts.Height, opts.Width, opts.Height, html.EscapeString(msg))
	return err
}

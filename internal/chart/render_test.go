package chart

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/soilboard/internal/view"
)

func testFrame(n int) view.Frame {
	f := view.Frame{}
	start := int64(1720188180000)
	for i := 0; i < n; i++ {
		f.Labels = append(f.Labels, start+int64(i)*60_000)
		f.Values = append(f.Values, float64(40+i%10))
	}
	return f
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSVG(&buf, testFrame(30), Options{Width: 640, Height: 320, Location: time.UTC})
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Errorf("output is not an SVG document: %.80q", out)
	}
	if strings.Contains(out, "No readings") {
		t.Error("rendered placeholder for a plottable frame")
	}
}

func TestRenderSVG_Placeholder(t *testing.T) {
	tests := []struct {
		name  string
		frame view.Frame
		want  string
	}{
		{"empty", view.Frame{}, "No readings in range"},
		{"single point", testFrame(1), "No readings in range"},
		{"zero span", view.Frame{Labels: []int64{5000, 5000}, Values: []float64{1, 2}}, "Not enough readings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderSVG(&buf, tt.frame, Options{}); err != nil {
				t.Fatalf("RenderSVG() error = %v", err)
			}
			out := buf.String()
			if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, tt.want) {
				t.Errorf("RenderSVG() = %q, want placeholder containing %q", out, tt.want)
			}
			if !strings.Contains(out, `width="800"`) {
				t.Errorf("placeholder should use default width: %q", out)
			}
		})
	}
}

func TestAxisLayout(t *testing.T) {
	tests := []struct {
		span time.Duration
		want string
	}{
		{time.Hour, "15:04"},
		{24 * time.Hour, "15:04"},
		{48 * time.Hour, "Mon 15:04"},
		{30 * 24 * time.Hour, "2 Jan"},
	}

	for _, tt := range tests {
		if got := axisLayout(tt.span); got != tt.want {
			t.Errorf("axisLayout(%s) = %q, want %q", tt.span, got, tt.want)
		}
	}
}

package view

import "github.com/jpalmerr/soilboard/internal/poller"

// Frame is the chart's data: epoch-millisecond labels and soil-moisture
// values, index-aligned with the readings they were built from.
//
// A Frame is built once and never modified afterwards; sinks replace it
// wholesale, so sharing its slices between goroutines is safe.
type Frame struct {
	Labels []int64   `json:"labels"`
	Values []float64 `json:"values"`
}

// NewFrame builds a frame from readings in their given order.
func NewFrame(readings []poller.Reading) Frame {
	f := Frame{
		Labels: make([]int64, len(readings)),
		Values: make([]float64, len(readings)),
	}
	for i, r := range readings {
		f.Labels[i] = r.Time * 1000
		f.Values[i] = r.SoilMoisture
	}
	return f
}

// Len returns the number of points in the frame.
func (f Frame) Len() int {
	return len(f.Labels)
}

// Decimate returns a frame of at most maxPoints points sampled at an even
// stride. The first and last points are always kept. A non-positive
// maxPoints, or a frame already within the limit, returns f unchanged.
func (f Frame) Decimate(maxPoints int) Frame {
	n := f.Len()
	if maxPoints <= 0 || n <= maxPoints {
		return f
	}
	if maxPoints == 1 {
		return Frame{Labels: []int64{f.Labels[n-1]}, Values: []float64{f.Values[n-1]}}
	}

	out := Frame{
		Labels: make([]int64, 0, maxPoints),
		Values: make([]float64, 0, maxPoints),
	}
	step := float64(n-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i)*step + 0.5)
		if idx >= n {
			idx = n - 1
		}
		out.Labels = append(out.Labels, f.Labels[idx])
		out.Values = append(out.Values, f.Values[idx])
	}
	return out
}

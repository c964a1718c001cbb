package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"unicode/utf8"
)

const (
	readingPath = "/reading"
	waterPath   = "/water"
)

// Reading is a single soil-moisture sample as served by the backend.
type Reading struct {
	// Time is the sample instant in epoch seconds.
	Time int64

	// SoilMoisture is the moisture percentage, nominally within [0, 100].
	SoilMoisture float64
}

// WaterStatus is the most recent watering event.
type WaterStatus struct {
	// LastWatered is the event instant in epoch seconds.
	LastWatered int64
}

// Fetcher retrieves dashboard data from the backend.
//
// Both methods are called from their own goroutines once per poll cycle and
// must be safe for concurrent use.
type Fetcher interface {
	FetchReadings(ctx context.Context, rangeSeconds int64) ([]Reading, error)
	FetchWaterStatus(ctx context.Context) (WaterStatus, error)
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Path, e.StatusCode)
}

// ParseError reports a response body that does not have the expected shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("GET %s: malformed response: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// HTTPFetcher implements [Fetcher] against the backend HTTP contract:
//
//	GET /reading?since=<seconds>  -> [{"time": n, "soil_moisture": n}, ...]
//	GET /water                    -> {"last_watered": n}
type HTTPFetcher struct {
	client *Client
}

// NewHTTPFetcher creates an [HTTPFetcher] that issues requests through client.
func NewHTTPFetcher(client *Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// FetchReadings retrieves the readings covering the trailing rangeSeconds.
func (f *HTTPFetcher) FetchReadings(ctx context.Context, rangeSeconds int64) ([]Reading, error) {
	query := url.Values{"since": []string{strconv.FormatInt(rangeSeconds, 10)}}
	body, err := f.get(ctx, readingPath, query)
	if err != nil {
		return nil, err
	}
	readings, err := ParseReadings(body)
	if err != nil {
		return nil, &ParseError{Path: readingPath, Err: err}
	}
	return readings, nil
}

// FetchWaterStatus retrieves the most recent watering event.
func (f *HTTPFetcher) FetchWaterStatus(ctx context.Context) (WaterStatus, error) {
	body, err := f.get(ctx, waterPath, nil)
	if err != nil {
		return WaterStatus{}, err
	}
	status, err := ParseWaterStatus(body)
	if err != nil {
		return WaterStatus{}, &ParseError{Path: waterPath, Err: err}
	}
	return status, nil
}

// Close releases idle backend connections.
func (f *HTTPFetcher) Close() {
	f.client.Close()
}

func (f *HTTPFetcher) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp := f.client.Get(ctx, path, query)
	if resp.Error != nil {
		return nil, fmt.Errorf("GET %s: %w", path, resp.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 256)}
	}
	return resp.Body, nil
}

// wireReading mirrors the backend JSON; pointers detect missing fields.
type wireReading struct {
	Time         *json.Number `json:"time"`
	SoilMoisture *float64     `json:"soil_moisture"`
}

type wireWaterStatus struct {
	LastWatered *json.Number `json:"last_watered"`
}

// ParseReadings decodes a readings array. Every element must carry a numeric
// time and soil_moisture. An empty array is valid and yields an empty slice.
func ParseReadings(body []byte) ([]Reading, error) {
	var wire []wireReading
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	if wire == nil {
		return nil, fmt.Errorf("readings must be a JSON array")
	}

	readings := make([]Reading, 0, len(wire))
	for i, w := range wire {
		if w.Time == nil {
			return nil, fmt.Errorf("reading[%d]: missing time", i)
		}
		if w.SoilMoisture == nil {
			return nil, fmt.Errorf("reading[%d]: missing soil_moisture", i)
		}
		ts, err := epochSeconds(*w.Time)
		if err != nil {
			return nil, fmt.Errorf("reading[%d]: time: %w", i, err)
		}
		readings = append(readings, Reading{Time: ts, SoilMoisture: *w.SoilMoisture})
	}
	return readings, nil
}

// ParseWaterStatus decodes a last-watered object.
func ParseWaterStatus(body []byte) (WaterStatus, error) {
	var wire wireWaterStatus
	if err := json.Unmarshal(body, &wire); err != nil {
		return WaterStatus{}, fmt.Errorf("decode water status: %w", err)
	}
	if wire.LastWatered == nil {
		return WaterStatus{}, fmt.Errorf("missing last_watered")
	}
	ts, err := epochSeconds(*wire.LastWatered)
	if err != nil {
		return WaterStatus{}, fmt.Errorf("last_watered: %w", err)
	}
	return WaterStatus{LastWatered: ts}, nil
}

// epochSeconds accepts integral JSON numbers and truncates fractional ones.
// Values outside the int64 range are rejected.
func epochSeconds(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", n.String())
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("out of range: %s", n.String())
	}
	return int64(f), nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

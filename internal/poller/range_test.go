package poller

import (
	"errors"
	"testing"
)

type recordingReconfigurer struct {
	calls []int64
	err   error
}

func (r *recordingReconfigurer) Reconfigure(rangeSeconds int64) error {
	r.calls = append(r.calls, rangeSeconds)
	return r.err
}

func TestHoursToSeconds(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"12", 43200, false},
		{"1", 3600, false},
		{" 24 ", 86400, false},
		{"0.5", 1800, false},
		{"0.0000001", 1, false},
		{"", 0, true},
		{"0", 0, true},
		{"-6", 0, true},
		{"twelve", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e300", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := HoursToSeconds(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HoursToSeconds(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("HoursToSeconds(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestRangeController_Select(t *testing.T) {
	rec := &recordingReconfigurer{}
	rc := NewRangeController(rec, testLogger())

	seconds, err := rc.Select("6")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if seconds != 21600 {
		t.Errorf("Select() = %d, want 21600", seconds)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 21600 {
		t.Errorf("Reconfigure calls = %v, want [21600]", rec.calls)
	}
}

func TestRangeController_InvalidLeavesSchedulerUntouched(t *testing.T) {
	rec := &recordingReconfigurer{}
	rc := NewRangeController(rec, testLogger())

	for _, v := range []string{"", "abc", "-1", "0"} {
		if _, err := rc.Select(v); err == nil {
			t.Errorf("Select(%q) expected error", v)
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("Reconfigure calls = %v, want none", rec.calls)
	}
}

func TestRangeController_PropagatesReconfigureError(t *testing.T) {
	rec := &recordingReconfigurer{err: ErrInvalidRange}
	rc := NewRangeController(rec, testLogger())

	if _, err := rc.Select("1"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Select() error = %v, want wrapped ErrInvalidRange", err)
	}
}

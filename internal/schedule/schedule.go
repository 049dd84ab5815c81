package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeOfDay is returned when a time-of-day string cannot be parsed.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	// ErrInvalidWindow is returned when a window does not end after it starts.
	ErrInvalidWindow = errors.New("window end must be after start")
	// ErrWindowOrder is returned when the check-out window does not start after
	// the check-in window ends.
	ErrWindowOrder = errors.New("check-out window must start after check-in window ends")
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// Of returns the time of day of t in t's location.
func Of(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}

	limits := []int{23, 59, 59}
	values := []int{0, 0, 0}
	for i, part := range parts {
		if len(part) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
		}
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
		}
		values[i] = v
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String formats t as zero-padded HH:MM:SS.
func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Valid reports whether t falls within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is a same-day interval of wall-clock time.
type Window struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// Contains reports whether Start <= t <= End. Both ends are inclusive.
func (w Window) Contains(t TimeOfDay) bool {
	return w.Start <= t && t <= w.End
}

// Validate checks that the window is well formed.
func (w Window) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return ErrInvalidTimeOfDay
	}
	if w.End <= w.Start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Schedule holds the daily check-in and check-out windows.
type Schedule struct {
	CheckIn  Window `json:"check_in"`
	CheckOut Window `json:"check_out"`
}

// Validate checks both windows and their relative order.
func (s Schedule) Validate() error {
	if err := s.CheckIn.Validate(); err != nil {
		return fmt.Errorf("check_in: %w", err)
	}
	if err := s.CheckOut.Validate(); err != nil {
		return fmt.Errorf("check_out: %w", err)
	}
	if s.CheckOut.Start <= s.CheckIn.End {
		return fmt.Errorf("%w: check-in ends %s, check-out starts %s", ErrWindowOrder, s.CheckIn.End, s.CheckOut.Start)
	}
	return nil
}

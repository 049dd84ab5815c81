package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoattend/internal/attendance"
)

// MaxRangeDays bounds the span of a report query.
const MaxRangeDays = 366

var (
	ErrInvalidDate  = errors.New("report: date must be YYYY-MM-DD")
	ErrInvalidRange = errors.New("report: from must not be after to")
	ErrRangeTooLong = fmt.Errorf("report: range must not exceed %d days", MaxRangeDays)
)

// Range is an inclusive span of work dates.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange parses from and to as YYYY-MM-DD work dates. An empty to
// defaults to from.
func ParseRange(from, to string) (Range, error) {
	f, err := time.Parse(attendance.DateLayout, from)
	if err != nil {
		return Range{}, fmt.Errorf("%w: from=%q", ErrInvalidDate, from)
	}
	if to == "" {
		to = from
	}
	t, err := time.Parse(attendance.DateLayout, to)
	if err != nil {
		return Range{}, fmt.Errorf("%w: to=%q", ErrInvalidDate, to)
	}
	r := Range{From: f, To: t}
	return r, r.Validate()
}

// Validate checks the order and length of r.
func (r Range) Validate() error {
	if r.To.Before(r.From) {
		return ErrInvalidRange
	}
	if r.Days() > MaxRangeDays {
		return ErrRangeTooLong
	}
	return nil
}

// Days returns the number of work dates in r.
func (r Range) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// Summary counts a single work date's records.
type Summary struct {
	WorkDate   string `json:"work_date"`
	Employees  int    `json:"employees"`
	Present    int    `json:"present"`
	Late       int    `json:"late"`
	CheckedOut int    `json:"checked_out"`
	Open       int    `json:"open"`
	Absent     int    `json:"absent"`
}

// Row is an attendance record joined with its user.
type Row struct {
	RecordID     string            `json:"record_id"`
	UserID       string            `json:"user_id"`
	UserName     string            `json:"user_name"`
	UserEmail    string            `json:"user_email"`
	WorkDate     string            `json:"work_date"`
	CheckInTime  time.Time         `json:"check_in_time"`
	Status       attendance.Status `json:"status"`
	CheckOutTime *time.Time        `json:"check_out_time,omitempty"`
}

// Store is the read model used by Service.
type Store interface {
	DailySummary(ctx context.Context, from, to time.Time) ([]Summary, error)
	Records(ctx context.Context, from, to time.Time, userID string) ([]Row, error)
}

// Service serves admin reports.
type Service struct {
	store Store
	loc   *time.Location
}

// NewService constructs a Service. loc is used to format times in exports.
func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc}
}

// DailySummary returns one Summary per work date in r.
func (s *Service) DailySummary(ctx context.Context, r Range) ([]Summary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out, err := s.store.DailySummary(ctx, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("report: daily summary: %w", err)
	}
	for i := range out {
		out[i].Absent = out[i].Employees - out[i].Present - out[i].Late
		if out[i].Absent < 0 {
			out[i].Absent = 0
		}
	}
	return out, nil
}

// Records returns the records in r, optionally for a single user.
func (s *Service) Records(ctx context.Context, r Range, userID string) ([]Row, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.store.Records(ctx, r.From, r.To, userID)
	if err != nil {
		return nil, fmt.Errorf("report: records: %w", err)
	}
	return rows, nil
}

// IsInvalid reports whether err is a bad report request.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrRangeTooLong)
}

package attendance

import (
	"time"

	"geoattend/internal/geo"
)

// Status is the punctuality of a check-in.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

// Record is one user's attendance for one work date.
type Record struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	WorkDate         time.Time       `json:"-"`
	CheckInTime      time.Time       `json:"check_in_time"`
	CheckInLocation  geo.Coordinate  `json:"check_in_location"`
	Status           Status          `json:"status"`
	CheckOutTime     *time.Time      `json:"check_out_time,omitempty"`
	CheckOutLocation *geo.Coordinate `json:"check_out_location,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Open reports whether the record still awaits a check-out.
func (r *Record) Open() bool {
	return r != nil && r.CheckOutTime == nil
}

// clone returns a deep copy so decisions never alias store-owned values.
func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.CheckOutTime != nil {
		t := *r.CheckOutTime
		c.CheckOutTime = &t
	}
	if r.CheckOutLocation != nil {
		l := *r.CheckOutLocation
		c.CheckOutLocation = &l
	}
	return &c
}

// DateOf truncates t to midnight in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateLayout is the wire format of work dates.
const DateLayout = "2006-01-02"

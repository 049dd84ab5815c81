package attendance

import (
	"time"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
)

// EvaluateCheckIn decides whether userID may check in at location and now.
// existingToday is the user's record for now's date, or nil.
//
// A check-in exactly at the window start is present; anything later inside
// the window is late.
func EvaluateCheckIn(userID string, location geo.Coordinate, now time.Time, fence geo.Geofence, sched schedule.Schedule, existingToday *Record) Decision {
	if existingToday != nil {
		return reject(ReasonAlreadyCheckedIn)
	}
	if !fence.Contains(location) {
		return reject(ReasonOutsideOfficeRadius)
	}

	t := schedule.Of(now)
	if !sched.CheckIn.Contains(t) {
		return reject(ReasonOutsideCheckInWindow)
	}

	status := StatusPresent
	if t > sched.CheckIn.Start {
		status = StatusLate
	}

	return accept(&Record{
		UserID:          userID,
		WorkDate:        DateOf(now),
		CheckInTime:     now,
		CheckInLocation: location,
		Status:          status,
	})
}

// EvaluateCheckOut decides whether userID may check out at location and now.
// existingOpen is today's record without a check-out, or nil.
func EvaluateCheckOut(userID string, location geo.Coordinate, now time.Time, fence geo.Geofence, sched schedule.Schedule, existingOpen *Record) Decision {
	if !fence.Contains(location) {
		return reject(ReasonOutsideOfficeRadius)
	}
	if !sched.CheckOut.Contains(schedule.Of(now)) {
		return reject(ReasonOutsideCheckOutWindow)
	}
	if !existingOpen.Open() || existingOpen.UserID != userID {
		return reject(ReasonNoActiveCheckIn)
	}

	rec := existingOpen.clone()
	checkOutAt := now
	checkOutLoc := location
	rec.CheckOutTime = &checkOutAt
	rec.CheckOutLocation = &checkOutLoc
	return accept(rec)
}

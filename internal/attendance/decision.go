package attendance

// Reason is a stable code explaining why an attempt was rejected.
type Reason string

const (
	ReasonAlreadyCheckedIn      Reason = "ALREADY_CHECKED_IN_TODAY"
	ReasonOutsideOfficeRadius   Reason = "OUTSIDE_OFFICE_RADIUS"
	ReasonOutsideCheckInWindow  Reason = "OUTSIDE_CHECK_IN_WINDOW"
	ReasonOutsideCheckOutWindow Reason = "OUTSIDE_CHECK_OUT_WINDOW"
	ReasonNoActiveCheckIn       Reason = "NO_ACTIVE_CHECK_IN"
)

var reasonMessages = map[Reason]string{
	ReasonAlreadyCheckedIn:      "You have already checked in today.",
	ReasonOutsideOfficeRadius:   "You are outside the office area.",
	ReasonOutsideCheckInWindow:  "Check-in is not open at this time.",
	ReasonOutsideCheckOutWindow: "Check-out is not open at this time.",
	ReasonNoActiveCheckIn:       "There is no open check-in for today.",
}

// Message returns the human readable text for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// Decision is the outcome of evaluating a check-in or check-out attempt.
type Decision struct {
	Accepted bool
	Reason   Reason
	Record   *Record
}

func accept(r *Record) Decision {
	return Decision{Accepted: true, Record: r}
}

func reject(reason Reason) Decision {
	return Decision{Reason: reason}
}

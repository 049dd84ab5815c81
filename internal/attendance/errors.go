package attendance

import "errors"

var (
	// ErrDuplicateRecord is returned by the store when the user already has a
	// record for the work date.
	ErrDuplicateRecord = errors.New("attendance record already exists for date")
	// ErrRecordNotOpen is returned when a check-out update matched no open record.
	ErrRecordNotOpen = errors.New("attendance record is not open")
	// ErrInvalidUserID is returned when the user id is empty.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidLocation is returned when the submitted coordinate is out of range.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidPageSize is returned when a history page size is out of range.
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken is returned when a history page token cannot be parsed.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// IsInvalidInput reports whether err was caused by the caller's input rather
// than by configuration or storage.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidLocation) ||
		errors.Is(err, ErrInvalidPageSize) ||
		errors.Is(err, ErrInvalidPageToken)
}

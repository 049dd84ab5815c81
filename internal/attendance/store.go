package attendance

import (
	"context"
	"time"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
)

// Store persists attendance records. Find methods return nil, nil when no
// record matches.
type Store interface {
	FindTodayRecord(ctx context.Context, userID string, date time.Time) (*Record, error)
	FindOpenRecord(ctx context.Context, userID string, date time.Time) (*Record, error)
	// Insert must fail with ErrDuplicateRecord when (UserID, WorkDate) exists.
	Insert(ctx context.Context, rec *Record) (string, error)
	UpdateCheckOut(ctx context.Context, id string, at time.Time, location geo.Coordinate) (int64, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, string, error)
}

// SettingsProvider supplies the current office and schedule configuration.
type SettingsProvider interface {
	OfficeGeofence(ctx context.Context) (geo.Geofence, error)
	AttendanceSchedule(ctx context.Context) (schedule.Schedule, error)
}

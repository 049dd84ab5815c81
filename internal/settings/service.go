package settings

import (
	"context"
	"errors"
	"fmt"
	"log"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
)

// ErrNotConfigured is returned when a settings row has never been written.
var ErrNotConfigured = errors.New("settings: not configured")

// Store is the persistence required by Service.
type Store interface {
	LoadOffice(ctx context.Context) (geo.Geofence, error)
	SaveOffice(ctx context.Context, fence geo.Geofence) error
	LoadSchedule(ctx context.Context) (schedule.Schedule, error)
	SaveSchedule(ctx context.Context, sched schedule.Schedule) error
}

// Service provides the office geofence and schedule to the attendance
// service and validates admin updates before they are stored.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// OfficeGeofence returns the current geofence. A stored row that fails
// validation is reported as an error rather than used.
func (s *Service) OfficeGeofence(ctx context.Context) (geo.Geofence, error) {
	fence, err := s.store.LoadOffice(ctx)
	if err != nil {
		return geo.Geofence{}, fmt.Errorf("settings: load office: %w", err)
	}
	if err := fence.Validate(); err != nil {
		return geo.Geofence{}, fmt.Errorf("settings: stored office: %w", err)
	}
	return fence, nil
}

// AttendanceSchedule returns the current schedule.
func (s *Service) AttendanceSchedule(ctx context.Context) (schedule.Schedule, error) {
	sched, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("settings: load schedule: %w", err)
	}
	if err := sched.Validate(); err != nil {
		return schedule.Schedule{}, fmt.Errorf("settings: stored schedule: %w", err)
	}
	return sched, nil
}

// UpdateOffice validates and stores a new geofence.
func (s *Service) UpdateOffice(ctx context.Context, fence geo.Geofence) (geo.Geofence, error) {
	if err := fence.Validate(); err != nil {
		return geo.Geofence{}, err
	}
	if err := s.store.SaveOffice(ctx, fence); err != nil {
		return geo.Geofence{}, fmt.Errorf("settings: save office: %w", err)
	}
	log.Printf("settings: office updated to %s radius=%.1fm", fence.Center, fence.RadiusMeters)
	return fence, nil
}

// UpdateSchedule validates and stores a new schedule.
func (s *Service) UpdateSchedule(ctx context.Context, sched schedule.Schedule) (schedule.Schedule, error) {
	if err := sched.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	if err := s.store.SaveSchedule(ctx, sched); err != nil {
		return schedule.Schedule{}, fmt.Errorf("settings: save schedule: %w", err)
	}
	log.Printf("settings: schedule updated check_in=%s check_out=%s", sched.CheckIn, sched.CheckOut)
	return sched, nil
}

// IsInvalid reports whether err is a configuration invariant violation.
func IsInvalid(err error) bool {
	return errors.Is(err, geo.ErrInvalidLatitude) ||
		errors.Is(err, geo.ErrInvalidLongitude) ||
		errors.Is(err, geo.ErrInvalidRadius) ||
		errors.Is(err, schedule.ErrInvalidTimeOfDay) ||
		errors.Is(err, schedule.ErrInvalidWindow) ||
		errors.Is(err, schedule.ErrWindowOrder)
}

package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
	"geoattend/internal/store"
)

// Repository reads and writes the singleton settings rows in Postgres.
type Repository struct {
	pool store.Queryer
}

// NewRepository creates a repo.
func NewRepository(pool store.Queryer) *Repository {
	return &Repository{pool: pool}
}

// LoadOffice returns the current office geofence.
func (r *Repository) LoadOffice(ctx context.Context) (geo.Geofence, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	var fence geo.Geofence
	err := exec.QueryRow(ctx, `
        SELECT latitude, longitude, radius_meters
          FROM office_settings
         WHERE id = 1
    `).Scan(&fence.Center.Latitude, &fence.Center.Longitude, &fence.RadiusMeters)
	if errors.Is(err, pgx.ErrNoRows) {
		return geo.Geofence{}, fmt.Errorf("office: %w", ErrNotConfigured)
	}
	if err != nil {
		return geo.Geofence{}, err
	}
	return fence, nil
}

// SaveOffice upserts the office geofence.
func (r *Repository) SaveOffice(ctx context.Context, fence geo.Geofence) error {
	exec := store.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO office_settings (id, latitude, longitude, radius_meters, updated_at)
        VALUES (1, $1, $2, $3, NOW())
        ON CONFLICT (id) DO UPDATE
           SET latitude = EXCLUDED.latitude,
               longitude = EXCLUDED.longitude,
               radius_meters = EXCLUDED.radius_meters,
               updated_at = NOW()
    `, fence.Center.Latitude, fence.Center.Longitude, fence.RadiusMeters)
	return err
}

// LoadSchedule returns the current attendance schedule.
func (r *Repository) LoadSchedule(ctx context.Context) (schedule.Schedule, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	var inStart, inEnd, outStart, outEnd string
	err := exec.QueryRow(ctx, `
        SELECT to_char(check_in_start, 'HH24:MI:SS'),
               to_char(check_in_end, 'HH24:MI:SS'),
               to_char(check_out_start, 'HH24:MI:SS'),
               to_char(check_out_end, 'HH24:MI:SS')
          FROM attendance_schedule
         WHERE id = 1
    `).Scan(&inStart, &inEnd, &outStart, &outEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Schedule{}, fmt.Errorf("schedule: %w", ErrNotConfigured)
	}
	if err != nil {
		return schedule.Schedule{}, err
	}

	var sched schedule.Schedule
	for _, f := range []struct {
		dst *schedule.TimeOfDay
		raw string
	}{
		{&sched.CheckIn.Start, inStart},
		{&sched.CheckIn.End, inEnd},
		{&sched.CheckOut.Start, outStart},
		{&sched.CheckOut.End, outEnd},
	} {
		tod, err := schedule.ParseTimeOfDay(f.raw)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("schedule row: %w", err)
		}
		*f.dst = tod
	}
	return sched, nil
}

// SaveSchedule upserts the attendance schedule.
func (r *Repository) SaveSchedule(ctx context.Context, sched schedule.Schedule) error {
	exec := store.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO attendance_schedule (id, check_in_start, check_in_end, check_out_start, check_out_end, updated_at)
        VALUES (1, $1::time, $2::time, $3::time, $4::time, NOW())
        ON CONFLICT (id) DO UPDATE
           SET check_in_start = EXCLUDED.check_in_start,
               check_in_end = EXCLUDED.check_in_end,
               check_out_start = EXCLUDED.check_out_start,
               check_out_end = EXCLUDED.check_out_end,
               updated_at = NOW()
    `, sched.CheckIn.Start.String(), sched.CheckIn.End.String(), sched.CheckOut.Start.String(), sched.CheckOut.End.String())
	return err
}

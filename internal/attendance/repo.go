package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"geoattend/internal/geo"
	"geoattend/internal/store"
)

// userDateConstraint enforces one record per user per work date.
const userDateConstraint = "attendance_records_user_date_key"

const recordColumns = `id, user_id, work_date, check_in_time, check_in_lat, check_in_lng, status,
               check_out_time, check_out_lat, check_out_lng, created_at`

// Repository persists attendance records in Postgres.
type Repository struct {
	pool store.Queryer
}

// NewRepository creates a repo.
func NewRepository(pool store.Queryer) *Repository {
	return &Repository{pool: pool}
}

// FindTodayRecord returns the user's record for date, or nil.
func (r *Repository) FindTodayRecord(ctx context.Context, userID string, date time.Time) (*Record, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+recordColumns+`
          FROM attendance_records
         WHERE user_id = $1 AND work_date = $2
         LIMIT 1
    `, userID, date)
	return scanOptionalRecord(row)
}

// FindOpenRecord returns the user's record for date that has no check-out yet, or nil.
func (r *Repository) FindOpenRecord(ctx context.Context, userID string, date time.Time) (*Record, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+recordColumns+`
          FROM attendance_records
         WHERE user_id = $1 AND work_date = $2 AND check_out_time IS NULL
         LIMIT 1
    `, userID, date)
	return scanOptionalRecord(row)
}

// Insert writes a new record and returns its id.
func (r *Repository) Insert(ctx context.Context, rec *Record) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	exec := store.QueryerFromContext(ctx, r.pool)
	var created time.Time
	err := exec.QueryRow(ctx, `
        INSERT INTO attendance_records (id, user_id, work_date, check_in_time, check_in_lat, check_in_lng, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at
    `, id, rec.UserID, rec.WorkDate, rec.CheckInTime, rec.CheckInLocation.Latitude, rec.CheckInLocation.Longitude, string(rec.Status)).Scan(&created)
	if err != nil {
		if store.IsUniqueViolation(err, userDateConstraint) {
			return "", ErrDuplicateRecord
		}
		return "", err
	}

	rec.CreatedAt = created
	return id, nil
}

// UpdateCheckOut sets the check-out of an open record and returns the number of rows changed.
func (r *Repository) UpdateCheckOut(ctx context.Context, id string, at time.Time, location geo.Coordinate) (int64, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE attendance_records
           SET check_out_time = $2,
               check_out_lat = $3,
               check_out_lng = $4,
               updated_at = NOW()
         WHERE id = $1 AND check_out_time IS NULL
    `, id, at, location.Latitude, location.Longitude)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns a page of the user's records, newest work date first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, string, error) {
	if limit <= 0 {
		return nil, "", ErrInvalidPageSize
	}
	if offset < 0 {
		return nil, "", ErrInvalidPageToken
	}

	exec := store.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+recordColumns+`
          FROM attendance_records
         WHERE user_id = $1
         ORDER BY work_date DESC
         LIMIT $2
        OFFSET $3
    `, userID, limit+1, offset)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, "", err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(records) > limit {
		next = strconv.Itoa(offset + limit)
		records = records[:limit]
	}
	return records, next, nil
}

func scanOptionalRecord(row pgx.Row) (*Record, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec                    Record
		status                 string
		checkInLat, checkInLng float64
		checkOutTime           sql.NullTime
		checkOutLat            sql.NullFloat64
		checkOutLng            sql.NullFloat64
	)

	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.WorkDate, &rec.CheckInTime, &checkInLat, &checkInLng, &status,
		&checkOutTime, &checkOutLat, &checkOutLng, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.Status = Status(status)
	rec.CheckInLocation = geo.Coordinate{Latitude: checkInLat, Longitude: checkInLng}
	if checkOutTime.Valid {
		t := checkOutTime.Time
		rec.CheckOutTime = &t
	}
	if checkOutLat.Valid && checkOutLng.Valid {
		rec.CheckOutLocation = &geo.Coordinate{Latitude: checkOutLat.Float64, Longitude: checkOutLng.Float64}
	}
	return &rec, nil
}

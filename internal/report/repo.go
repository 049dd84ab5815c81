package report

import (
	"context"
	"database/sql"
	"time"

	"geoattend/internal/attendance"
	"geoattend/internal/store"
)

// Repository aggregates attendance records in Postgres.
type Repository struct {
	pool store.Queryer
}

// NewRepository creates a repo.
func NewRepository(pool store.Queryer) *Repository {
	return &Repository{pool: pool}
}

// DailySummary returns a row for every date in [from, to], including dates
// without records.
func (r *Repository) DailySummary(ctx context.Context, from, to time.Time) ([]Summary, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT to_char(d.day, 'YYYY-MM-DD'),
               (SELECT COUNT(*) FROM users WHERE role = 'employee'),
               COUNT(ar.id) FILTER (WHERE ar.status = 'present'),
               COUNT(ar.id) FILTER (WHERE ar.status = 'late'),
               COUNT(ar.id) FILTER (WHERE ar.check_out_time IS NOT NULL),
               COUNT(ar.id) FILTER (WHERE ar.check_out_time IS NULL)
          FROM generate_series($1::date, $2::date, interval '1 day') AS d(day)
          LEFT JOIN attendance_records ar ON ar.work_date = d.day::date
         GROUP BY d.day
         ORDER BY d.day
    `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.WorkDate, &s.Employees, &s.Present, &s.Late, &s.CheckedOut, &s.Open); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Records returns records in [from, to] joined with their users, optionally
// filtered by userID.
func (r *Repository) Records(ctx context.Context, from, to time.Time, userID string) ([]Row, error) {
	exec := store.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT ar.id, ar.user_id, u.name, u.email, to_char(ar.work_date, 'YYYY-MM-DD'),
               ar.check_in_time, ar.status, ar.check_out_time
          FROM attendance_records ar
          JOIN users u ON u.id = ar.user_id
         WHERE ar.work_date BETWEEN $1 AND $2
           AND ($3 = '' OR ar.user_id::text = $3)
         ORDER BY ar.work_date, u.name
    `, from, to, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row      Row
			status   string
			checkOut sql.NullTime
		)
		if err := rows.Scan(&row.RecordID, &row.UserID, &row.UserName, &row.UserEmail, &row.WorkDate,
			&row.CheckInTime, &status, &checkOut); err != nil {
			return nil, err
		}
		row.Status = attendance.Status(status)
		if checkOut.Valid {
			t := checkOut.Time
			row.CheckOutTime = &t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/geo"
	"geoattend/internal/report"
	"geoattend/internal/schedule"
	"geoattend/internal/settings"
	"geoattend/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var wib = time.FixedZone("WIB", 7*3600)

type fakeAttendance struct {
	decision attendance.Decision
	err      error
	lastIn   attendance.AttemptInput
	history  *attendance.HistoryResult
}

func (f *fakeAttendance) CheckIn(_ context.Context, in attendance.AttemptInput) (attendance.Decision, error) {
	f.lastIn = in
	return f.decision, f.err
}

func (f *fakeAttendance) CheckOut(_ context.Context, in attendance.AttemptInput) (attendance.Decision, error) {
	f.lastIn = in
	return f.decision, f.err
}

func (f *fakeAttendance) Today(context.Context, string) (*attendance.Record, error) {
	return f.decision.Record, f.err
}

func (f *fakeAttendance) History(_ context.Context, in attendance.HistoryInput) (*attendance.HistoryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastIn.UserID = in.UserID
	return f.history, nil
}

type fakeSettings struct {
	fence geo.Geofence
	sched schedule.Schedule
}

func (f *fakeSettings) OfficeGeofence(context.Context) (geo.Geofence, error) { return f.fence, nil }

func (f *fakeSettings) AttendanceSchedule(context.Context) (schedule.Schedule, error) {
	return f.sched, nil
}

func (f *fakeSettings) UpdateOffice(_ context.Context, fence geo.Geofence) (geo.Geofence, error) {
	if err := fence.Validate(); err != nil {
		return geo.Geofence{}, err
	}
	f.fence = fence
	return fence, nil
}

func (f *fakeSettings) UpdateSchedule(_ context.Context, sched schedule.Schedule) (schedule.Schedule, error) {
	if err := sched.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	f.sched = sched
	return sched, nil
}

type fakeUsers struct {
	users map[string]*user.User
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email && password == "password1" {
			return u, nil
		}
	}
	return nil, user.ErrInvalidCredentials
}

func (f *fakeUsers) CreateUser(_ context.Context, in user.CreateInput) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == in.Email {
			return nil, user.ErrEmailAlreadyExists
		}
	}
	if len(in.Password) < 8 {
		return nil, user.ErrWeakPassword
	}
	u := &user.User{ID: "new", Email: in.Email, Name: in.Name, Role: user.RoleEmployee}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListUsers(context.Context, int, string) (user.ListResult, error) {
	var out user.ListResult
	for _, u := range f.users {
		out.Users = append(out.Users, u)
	}
	return out, nil
}

type fakeReports struct{}

func (fakeReports) DailySummary(_ context.Context, r report.Range) ([]report.Summary, error) {
	return []report.Summary{{WorkDate: r.From.Format(attendance.DateLayout), Employees: 3, Present: 2}}, nil
}

func (fakeReports) Records(context.Context, report.Range, string) ([]report.Row, error) {
	return nil, nil
}

func (fakeReports) ExportXLSX(_ context.Context, w io.Writer, _ report.Range) error {
	_, err := w.Write([]byte("PK"))
	return err
}

type fakeTally struct{ lastDate string }

func (f *fakeTally) Get(_ context.Context, date string) (report.Counts, error) {
	f.lastDate = date
	return report.Counts{WorkDate: date, Present: 4}, nil
}

type fixture struct {
	router     *gin.Engine
	attendance *fakeAttendance
	settings   *fakeSettings
	tally      *fakeTally
	employee   string
	admin      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens := auth.NewTokens("geoattend", "test-key", time.Hour, 24*time.Hour)
	employee, err := tokens.Issue("emp-1", string(user.RoleEmployee))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	admin, err := tokens.Issue("adm-1", string(user.RoleAdmin))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	f := &fixture{
		attendance: &fakeAttendance{},
		settings:   &fakeSettings{},
		tally:      &fakeTally{},
		employee:   employee.AccessToken,
		admin:      admin.AccessToken,
	}
	f.router = NewRouter(Deps{
		Tokens:     tokens,
		Attendance: f.attendance,
		Settings:   f.settings,
		Users: &fakeUsers{users: map[string]*user.User{
			"emp-1": {ID: "emp-1", Email: "emp@x.io", Name: "Emp", Role: user.RoleEmployee},
			"adm-1": {ID: "adm-1", Email: "adm@x.io", Name: "Adm", Role: user.RoleAdmin},
		}},
		Reports:  fakeReports{},
		Tally:    f.tally,
		Location: wib,
		Now:      func() time.Time { return time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) },
		Health:   map[string]HealthCheck{"db": func(context.Context) bool { return true }},
	})
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodPost, "/v1/auth/login", "", `{"email":"emp@x.io","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if _, ok := body["refresh_token"].(string); !ok || body["access_token"] == nil {
		t.Fatalf("tokens missing: %v", body)
	}

	w = f.do(http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+body["refresh_token"].(string)+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh expected 200, got %d: %s", w.Code, w.Body)
	}

	w = f.do(http.MethodPost, "/v1/auth/login", "", `{"email":"emp@x.io","password":"nope"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/v1/auth/login", "", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCheckIn_Accepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Date(2025, 3, 10, 7, 5, 0, 0, wib)
	f.attendance.decision = attendance.Decision{Accepted: true, Record: &attendance.Record{
		ID:          "rec-1",
		UserID:      "emp-1",
		WorkDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, wib),
		CheckInTime: now,
		Status:      attendance.StatusLate,
	}}

	w := f.do(http.MethodPost, "/v1/attendance/check-in", f.employee, `{"latitude":-7.446754,"longitude":109.241404}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["status"] != "late" || body["work_date"] != "2025-03-10" || body["id"] != "rec-1" {
		t.Fatalf("unexpected body %v", body)
	}
	if f.attendance.lastIn.UserID != "emp-1" || f.attendance.lastIn.Location.Latitude != -7.446754 {
		t.Fatalf("unexpected input %+v", f.attendance.lastIn)
	}
}

func TestCheckIn_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.attendance.decision = attendance.Decision{Reason: attendance.ReasonAlreadyCheckedIn}

	w := f.do(http.MethodPost, "/v1/attendance/check-in", f.employee, `{"latitude":0,"longitude":0}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := decode(t, w)
	if body["reason"] != "ALREADY_CHECKED_IN_TODAY" || body["message"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCheckOut_Accepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out := time.Date(2025, 3, 10, 16, 30, 0, 0, wib)
	f.attendance.decision = attendance.Decision{Accepted: true, Record: &attendance.Record{
		ID: "rec-1", UserID: "emp-1", WorkDate: time.Date(2025, 3, 10, 0, 0, 0, 0, wib), CheckOutTime: &out,
	}}

	w := f.do(http.MethodPost, "/v1/attendance/check-out", f.employee, `{"latitude":-7.446754,"longitude":109.241404}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
}

func TestAttempt_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		body  string
		token bool
		want  int
	}{
		{"no token", nil, `{"latitude":0,"longitude":0}`, false, http.StatusUnauthorized},
		{"missing longitude", nil, `{"latitude":0}`, true, http.StatusBadRequest},
		{"invalid location", attendance.ErrInvalidLocation, `{"latitude":95,"longitude":0}`, true, http.StatusBadRequest},
		{"storage failure", errors.New("attendance: insert record: connection reset"), `{"latitude":0,"longitude":0}`, true, http.StatusInternalServerError},
		{"duplicate insert", attendance.ErrDuplicateRecord, `{"latitude":0,"longitude":0}`, true, http.StatusInternalServerError},
		{"stored office invalid", geo.ErrInvalidRadius, `{"latitude":0,"longitude":0}`, true, http.StatusInternalServerError},
		{"settings missing", settings.ErrNotConfigured, `{"latitude":0,"longitude":0}`, true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.attendance.err = tt.err
			token := ""
			if tt.token {
				token = f.employee
			}
			w := f.do(http.MethodPost, "/v1/attendance/check-in", token, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
			if tt.want == http.StatusInternalServerError && !strings.Contains(w.Body.String(), "internal error") {
				t.Fatalf("storage details leaked: %s", w.Body)
			}
		})
	}
}

func TestToday_NoRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodGet, "/v1/attendance/today", f.employee, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["record"] != nil {
		t.Fatalf("expected null record, got %v", body["record"])
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.attendance.history = &attendance.HistoryResult{
		Records:       []*attendance.Record{{ID: "r1", WorkDate: time.Date(2025, 3, 9, 0, 0, 0, 0, wib)}},
		NextPageToken: "1",
	}

	w := f.do(http.MethodGet, "/v1/attendance/history?page_size=1", f.employee, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["next_page_token"] != "1" || len(body["records"].([]any)) != 1 {
		t.Fatalf("unexpected body %v", body)
	}

	if w := f.do(http.MethodGet, "/v1/attendance/history?page_size=x", f.employee, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/v1/admin/users/emp-1/history", f.admin, "")
	if w.Code != http.StatusOK || f.attendance.lastIn.UserID != "emp-1" {
		t.Fatalf("admin history: %d user=%q", w.Code, f.attendance.lastIn.UserID)
	}
}

func TestAdmin_RequiresRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if w := f.do(http.MethodGet, "/v1/admin/settings/office", f.employee, ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/v1/admin/settings/office", f.admin, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAdmin_UpdateOffice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodPut, "/v1/admin/settings/office", f.admin,
		`{"center":{"latitude":-7.446754,"longitude":109.241404},"radius_meters":100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if f.settings.fence.RadiusMeters != 100 {
		t.Fatalf("office not saved: %+v", f.settings.fence)
	}

	w = f.do(http.MethodPut, "/v1/admin/settings/office", f.admin,
		`{"center":{"latitude":-7.446754,"longitude":109.241404},"radius_meters":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero radius, got %d", w.Code)
	}
}

func TestAdmin_UpdateSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	valid := `{"check_in":{"start_time":"07:00:00","end_time":"07:30:00"},"check_out":{"start_time":"16:00:00","end_time":"18:00:00"}}`
	w := f.do(http.MethodPut, "/v1/admin/settings/schedule", f.admin, valid)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if f.settings.sched.CheckIn.End != schedule.NewTimeOfDay(7, 30, 0) {
		t.Fatalf("schedule not saved: %+v", f.settings.sched)
	}

	overlap := `{"check_in":{"start_time":"07:00:00","end_time":"07:30:00"},"check_out":{"start_time":"07:15:00","end_time":"18:00:00"}}`
	if w := f.do(http.MethodPut, "/v1/admin/settings/schedule", f.admin, overlap); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overlapping windows, got %d", w.Code)
	}

	malformed := `{"check_in":{"start_time":"7am","end_time":"07:30:00"}}`
	if w := f.do(http.MethodPut, "/v1/admin/settings/schedule", f.admin, malformed); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed time, got %d", w.Code)
	}
}

func TestAdmin_CreateUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if w := f.do(http.MethodPost, "/v1/admin/users", f.admin, `{"email":"new@x.io","name":"New","password":"password1"}`); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	if w := f.do(http.MethodPost, "/v1/admin/users", f.admin, `{"email":"emp@x.io","name":"Dup","password":"password1"}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/v1/admin/users", f.admin, `{"email":"x@x.io","name":"X","password":"short"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdmin_Reports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodGet, "/v1/admin/reports/daily", f.admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// 20:00 UTC on the 10th is the 11th in WIB.
	if !strings.Contains(w.Body.String(), `"work_date":"2025-03-11"`) {
		t.Fatalf("expected default date in office zone, got %s", w.Body)
	}

	if w := f.do(http.MethodGet, "/v1/admin/reports/daily?from=2025-03-10&to=2025-03-01", f.admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/v1/admin/reports/records?from=2025-03-10", f.admin, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"records":[]`) {
		t.Fatalf("unexpected records response %d %s", w.Code, w.Body)
	}

	w = f.do(http.MethodGet, "/v1/admin/reports/export?from=2025-03-01&to=2025-03-31", f.admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="attendance_2025-03-01_2025-03-31.xlsx"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("unexpected body")
	}

	w = f.do(http.MethodGet, "/v1/admin/reports/today", f.admin, "")
	if w.Code != http.StatusOK || f.tally.lastDate != "2025-03-11" {
		t.Fatalf("tally: %d date=%q", w.Code, f.tally.lastDate)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("security headers missing")
	}
}

func TestCORSConfig(t *testing.T) {
	t.Parallel()

	if cfg := corsConfig([]string{"*"}); !cfg.AllowAllOrigins || cfg.AllowCredentials {
		t.Fatalf("wildcard should allow all origins without credentials: %+v", cfg)
	}
	cfg := corsConfig([]string{"https://hr.example.com"})
	if cfg.AllowAllOrigins || !cfg.AllowCredentials || len(cfg.AllowOrigins) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/geo"
	"geoattend/internal/httpmiddleware"
	"geoattend/internal/metrics"
	"geoattend/internal/report"
	"geoattend/internal/schedule"
	"geoattend/internal/user"
)

// AttendanceService is the attendance use case consumed by the handlers.
type AttendanceService interface {
	CheckIn(ctx context.Context, in attendance.AttemptInput) (attendance.Decision, error)
	CheckOut(ctx context.Context, in attendance.AttemptInput) (attendance.Decision, error)
	Today(ctx context.Context, userID string) (*attendance.Record, error)
	History(ctx context.Context, in attendance.HistoryInput) (*attendance.HistoryResult, error)
}

// SettingsService reads and updates the office geofence and schedule.
type SettingsService interface {
	OfficeGeofence(ctx context.Context) (geo.Geofence, error)
	AttendanceSchedule(ctx context.Context) (schedule.Schedule, error)
	UpdateOffice(ctx context.Context, fence geo.Geofence) (geo.Geofence, error)
	UpdateSchedule(ctx context.Context, sched schedule.Schedule) (schedule.Schedule, error)
}

// UserService manages accounts.
type UserService interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	CreateUser(ctx context.Context, in user.CreateInput) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context, pageSize int, pageToken string) (user.ListResult, error)
}

// ReportService serves admin reports.
type ReportService interface {
	DailySummary(ctx context.Context, r report.Range) ([]report.Summary, error)
	Records(ctx context.Context, r report.Range, userID string) ([]report.Row, error)
	ExportXLSX(ctx context.Context, w io.Writer, r report.Range) error
}

// TallyReader returns live counters for a work date.
type TallyReader interface {
	Get(ctx context.Context, workDate string) (report.Counts, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps wires the router. Tally, Metrics, Limiter and Health are optional.
type Deps struct {
	Tokens      *auth.Tokens
	Attendance  AttendanceService
	Settings    SettingsService
	Users       UserService
	Reports     ReportService
	Tally       TallyReader
	Metrics     *metrics.Metrics
	Limiter     httpmiddleware.Limiter
	Health      map[string]HealthCheck
	CORSOrigins []string
	Location    *time.Location
	Now         func() time.Time
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	r.Use(securityHeaders())
	if d.Metrics != nil {
		r.Use(d.Metrics.GinMiddleware())
	}
	if d.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(d.Limiter))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/refresh", h.refresh)

	authed := v1.Group("", auth.Bearer(d.Tokens))
	authed.GET("/me", h.me)
	authed.POST("/attendance/check-in", h.checkIn)
	authed.POST("/attendance/check-out", h.checkOut)
	authed.GET("/attendance/today", h.today)
	authed.GET("/attendance/history", h.history)

	admin := authed.Group("/admin", auth.RequireRole(string(user.RoleAdmin)))
	admin.GET("/settings/office", h.getOffice)
	admin.PUT("/settings/office", h.putOffice)
	admin.GET("/settings/schedule", h.getSchedule)
	admin.PUT("/settings/schedule", h.putSchedule)
	admin.POST("/users", h.createUser)
	admin.GET("/users", h.listUsers)
	admin.GET("/users/:id/history", h.userHistory)
	admin.GET("/reports/daily", h.dailyReport)
	admin.GET("/reports/records", h.recordsReport)
	admin.GET("/reports/export", h.exportReport)
	admin.GET("/reports/today", h.todayTally)

	return r
}

func (h *handler) healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        24 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

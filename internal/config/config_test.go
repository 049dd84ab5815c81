package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("ACCESS_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	if cfg.HTTPPort != "8081" {
		t.Errorf("expected default port 8081, got %s", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("expected default access ttl 15m, got %v", cfg.AccessTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected default CORS origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")
	t.Setenv("DIGEST_RECIPIENTS", "hr@example.com, , boss@example.com")
	t.Setenv("MAIL_HOST", "smtp.example.com")

	cfg := Load()

	if cfg.HTTPPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.HTTPPort)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("expected max conns 25, got %d", cfg.Database.MaxConns)
	}
	if cfg.Database.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("expected lifetime 30m, got %v", cfg.Database.ConnMaxLifetime)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Errorf("expected fallback rate limit 120, got %d", cfg.RateLimitPerMin)
	}
	if len(cfg.Mail.Recipients) != 2 || cfg.Mail.Recipients[1] != "boss@example.com" {
		t.Errorf("unexpected recipients %v", cfg.Mail.Recipients)
	}
	if !cfg.Mail.Enabled() {
		t.Errorf("expected mail to be enabled")
	}
}

func TestApp_Location(t *testing.T) {
	t.Parallel()

	if _, err := (App{Timezone: "UTC"}).Location(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (App{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSeed_Success(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := []byte(`office:
  latitude: -7.446754
  longitude: 109.241404
  radius_meters: 100
schedule:
  check_in_start: "07:00:00"
  check_in_end: "07:30:00"
  check_out_start: "16:00"
  check_out_end: "18:00:00"
admin:
  email: admin@example.com
  name: Admin
  password: change-me-now
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed returned error: %v", err)
	}

	fence := seed.Geofence()
	if fence.RadiusMeters != 100 || fence.Center.Latitude != -7.446754 {
		t.Errorf("unexpected fence %+v", fence)
	}

	sched, err := seed.AttendanceSchedule()
	if err != nil {
		t.Fatalf("AttendanceSchedule returned error: %v", err)
	}
	if sched.CheckOut.Start != schedule.NewTimeOfDay(16, 0, 0) {
		t.Errorf("unexpected check-out start %s", sched.CheckOut.Start)
	}
	if seed.Admin.Email != "admin@example.com" {
		t.Errorf("unexpected admin email %s", seed.Admin.Email)
	}
}

func TestLoadSeed_InvalidRadius(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := []byte(`office:
  latitude: 0
  longitude: 0
  radius_meters: 0
schedule:
  check_in_start: "07:00:00"
  check_in_end: "07:30:00"
  check_out_start: "16:00:00"
  check_out_end: "18:00:00"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	if _, err := LoadSeed(path); !errors.Is(err, geo.ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestLoadSeed_WindowOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := []byte(`office:
  latitude: 0
  longitude: 0
  radius_meters: 50
schedule:
  check_in_start: "07:00:00"
  check_in_end: "09:00:00"
  check_out_start: "08:00:00"
  check_out_end: "18:00:00"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	if _, err := LoadSeed(path); !errors.Is(err, schedule.ErrWindowOrder) {
		t.Fatalf("expected ErrWindowOrder, got %v", err)
	}
}

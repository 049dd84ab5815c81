package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"geoattend/internal/geo"
	"geoattend/internal/schedule"
)

// Seed is the initial office and schedule configuration applied by
// `migrate seed`.
type Seed struct {
	Office struct {
		Latitude     float64 `yaml:"latitude"`
		Longitude    float64 `yaml:"longitude"`
		RadiusMeters float64 `yaml:"radius_meters"`
	} `yaml:"office"`
	Schedule struct {
		CheckInStart  string `yaml:"check_in_start"`
		CheckInEnd    string `yaml:"check_in_end"`
		CheckOutStart string `yaml:"check_out_start"`
		CheckOutEnd   string `yaml:"check_out_end"`
	} `yaml:"schedule"`
	Admin struct {
		Email    string `yaml:"email"`
		Name     string `yaml:"name"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read seed %s: %w", path, err)
	}

	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("config: parse seed yaml: %w", err)
	}

	if err := s.Geofence().Validate(); err != nil {
		return nil, fmt.Errorf("config: seed office: %w", err)
	}
	sched, err := s.AttendanceSchedule()
	if err != nil {
		return nil, err
	}
	if err := sched.Validate(); err != nil {
		return nil, fmt.Errorf("config: seed schedule: %w", err)
	}

	return &s, nil
}

// Geofence returns the seeded office geofence.
func (s *Seed) Geofence() geo.Geofence {
	return geo.Geofence{
		Center:       geo.Coordinate{Latitude: s.Office.Latitude, Longitude: s.Office.Longitude},
		RadiusMeters: s.Office.RadiusMeters,
	}
}

// AttendanceSchedule parses the seeded schedule windows.
func (s *Seed) AttendanceSchedule() (schedule.Schedule, error) {
	type field struct {
		name string
		raw  string
		dst  *schedule.TimeOfDay
	}

	var out schedule.Schedule
	fields := []field{
		{"check_in_start", s.Schedule.CheckInStart, &out.CheckIn.Start},
		{"check_in_end", s.Schedule.CheckInEnd, &out.CheckIn.End},
		{"check_out_start", s.Schedule.CheckOutStart, &out.CheckOut.Start},
		{"check_out_end", s.Schedule.CheckOutEnd, &out.CheckOut.End},
	}

	for _, f := range fields {
		t, err := schedule.ParseTimeOfDay(f.raw)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("config: seed schedule.%s: %w", f.name, err)
		}
		*f.dst = t
	}
	return out, nil
}

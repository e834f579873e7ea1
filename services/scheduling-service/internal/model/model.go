package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Business is the tenant-scoped unit offering services. A tenant may own
// several businesses; every record under a business inherits its tenant.
type Business struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	Phone     string
	Email     string
	Timezone  string // IANA name; the single canonical timezone for the business
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the business timezone, falling back to UTC.
func (b Business) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BusinessHours is the open window for one weekday. At most one record exists
// per (business, weekday); a missing weekday means closed.
type BusinessHours struct {
	BusinessID string
	Weekday    time.Weekday
	OpenTime   string // "HH:MM", 24-hour
	CloseTime  string
	Closed     bool
	UpdatedAt  time.Time
}

type StaffMember struct {
	ID          string
	BusinessID  string
	Name        string
	Role        string
	Specialties []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StaffSchedule is a staff member's working window for one weekday, with the
// same single-record-per-day rule as BusinessHours.
type StaffSchedule struct {
	StaffID   string
	Weekday   time.Weekday
	StartTime string // "HH:MM"
	EndTime   string
	Available bool
	UpdatedAt time.Time
}

type Service struct {
	ID              string
	BusinessID      string
	Name            string
	DurationMinutes int
	Price           float64
	Active          bool
	AddOns          []AddOn
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AddOn struct {
	ID              string
	Name            string
	Price           float64
	DurationMinutes int
}

// AddOn returns the add-on with the given id, if the service offers it.
func (s Service) AddOn(id string) (AddOn, bool) {
	for _, a := range s.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// Duration computes the total appointment length for this service plus the
// selected add-ons. Unknown add-on ids are reported as an error.
func (s Service) Duration(addOnIDs []string) (time.Duration, error) {
	mins := s.DurationMinutes
	for _, id := range addOnIDs {
		a, ok := s.AddOn(id)
		if !ok {
			return 0, fmt.Errorf("service %s has no add-on %s", s.ID, id)
		}
		mins += a.DurationMinutes
	}
	return time.Duration(mins) * time.Minute, nil
}

// StaffService links a staff member to a service they can perform.
// Identity is the (StaffID, ServiceID) pair.
type StaffService struct {
	StaffID   string
	ServiceID string
}

type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Phone     string // natural lookup key within a tenant
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID                 string
	BusinessID         string
	CustomerID         string
	StaffID            string
	ServiceID          string
	AddOnIDs           []string
	StartTime          time.Time
	EndTime            time.Time
	Status             AppointmentStatus
	Notes              string
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Overlaps reports half-open interval overlap with [start, end).
func (a Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && a.StartTime.Before(end)
}

type FAQ struct {
	ID         string
	BusinessID string
	Question   string
	Answer     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseClock parses an "HH:MM" 24-hour time-of-day into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// ClockOn anchors minutes-since-midnight onto the given calendar day.
func ClockOn(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, day.Location())
}

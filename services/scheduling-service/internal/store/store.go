package store

import (
	"context"
	"errors"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

// ErrNotFound is the typed absence signal for every by-id lookup.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when the backing store rejects an appointment
// because its interval overlaps an active appointment for the same staff
// member (e.g. a Postgres exclusion violation).
var ErrConflict = errors.New("conflicting appointment interval")

// AppointmentFilter narrows ListAppointments. Zero values are ignored.
type AppointmentFilter struct {
	BusinessID string
	CustomerID string
	StaffID    string
	Status     model.AppointmentStatus
	From       time.Time // inclusive start bound on StartTime
	To         time.Time // exclusive end bound on StartTime
}

// Store is the authoritative holder of all scheduling entities. It performs
// no business-rule validation; engines own that. Every mutation stamps
// UpdatedAt (and CreatedAt plus a generated ID on create).
type Store interface {
	CreateBusiness(ctx context.Context, b *model.Business) error
	GetBusiness(ctx context.Context, id string) (model.Business, error)
	UpdateBusiness(ctx context.Context, b *model.Business) error

	// UpsertBusinessHours inserts or replaces the single row for the
	// (business, weekday) pair atomically.
	UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error
	BusinessHoursForDay(ctx context.Context, businessID string, day time.Weekday) (model.BusinessHours, error)
	ListBusinessHours(ctx context.Context, businessID string) ([]model.BusinessHours, error)

	CreateStaff(ctx context.Context, s *model.StaffMember) error
	GetStaff(ctx context.Context, id string) (model.StaffMember, error)
	UpdateStaff(ctx context.Context, s *model.StaffMember) error
	// ListStaff returns all staff of a business ordered by ID.
	ListStaff(ctx context.Context, businessID string) ([]model.StaffMember, error)

	UpsertStaffSchedule(ctx context.Context, s model.StaffSchedule) error
	StaffScheduleForDay(ctx context.Context, staffID string, day time.Weekday) (model.StaffSchedule, error)
	ListStaffSchedule(ctx context.Context, staffID string) ([]model.StaffSchedule, error)

	CreateService(ctx context.Context, s *model.Service) error
	GetService(ctx context.Context, id string) (model.Service, error)
	UpdateService(ctx context.Context, s *model.Service) error
	ListServices(ctx context.Context, businessID string) ([]model.Service, error)

	AssignService(ctx context.Context, staffID, serviceID string) error
	UnassignService(ctx context.Context, staffID, serviceID string) error
	StaffCanPerform(ctx context.Context, staffID, serviceID string) (bool, error)
	// ServiceHasAssignments reports whether any staff member is linked to the
	// service; when false every staff member of the business may perform it.
	ServiceHasAssignments(ctx context.Context, serviceID string) (bool, error)

	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	CustomerByPhone(ctx context.Context, tenantID, phone string) (model.Customer, error)

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	// StaffAppointmentsBetween returns non-cancelled appointments for the staff
	// member whose [StartTime, EndTime) intersects [from, to), ordered by start.
	StaffAppointmentsBetween(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)

	CreateFAQ(ctx context.Context, f *model.FAQ) error
	ListFAQs(ctx context.Context, businessID string) ([]model.FAQ, error)
}

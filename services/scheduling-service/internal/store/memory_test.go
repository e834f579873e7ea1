package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetBusiness(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBusiness: expected ErrNotFound, got %v", err)
	}
	if _, err := m.GetAppointment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAppointment: expected ErrNotFound, got %v", err)
	}
	if _, err := m.BusinessHoursForDay(ctx, "missing", time.Monday); !errors.Is(err, ErrNotFound) {
		t.Fatalf("BusinessHoursForDay: expected ErrNotFound, got %v", err)
	}
	if err := m.UpdateBusiness(ctx, &model.Business{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateBusiness: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpsertBusinessHoursReplacesDay(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	b := model.Business{TenantID: "tenant-1", Name: "Shear Genius"}
	if err := m.CreateBusiness(ctx, &b); err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}

	first := model.BusinessHours{BusinessID: b.ID, Weekday: time.Monday, OpenTime: "09:00", CloseTime: "17:00"}
	if err := m.UpsertBusinessHours(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second := model.BusinessHours{BusinessID: b.ID, Weekday: time.Monday, OpenTime: "10:00", CloseTime: "16:00"}
	if err := m.UpsertBusinessHours(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := m.BusinessHoursForDay(ctx, b.ID, time.Monday)
	if err != nil {
		t.Fatalf("BusinessHoursForDay failed: %v", err)
	}
	if got.OpenTime != "10:00" || got.CloseTime != "16:00" {
		t.Fatalf("expected second upsert to win, got %s-%s", got.OpenTime, got.CloseTime)
	}

	all, err := m.ListBusinessHours(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListBusinessHours failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one record for the weekday, got %d", len(all))
	}
}

func TestMemoryCustomerByPhone(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	c := model.Customer{TenantID: "tenant-1", Name: "Dana", Phone: "+15550001111"}
	if err := m.CreateCustomer(ctx, &c); err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	got, err := m.CustomerByPhone(ctx, "tenant-1", "+15550001111")
	if err != nil {
		t.Fatalf("CustomerByPhone failed: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("expected customer %s, got %s", c.ID, got.ID)
	}

	// The phone key is tenant-scoped.
	if _, err := m.CustomerByPhone(ctx, "tenant-2", "+15550001111"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other tenant, got %v", err)
	}
}

func TestMemoryStaffAppointmentsBetween(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mk := func(start, end time.Time, status model.AppointmentStatus) model.Appointment {
		a := model.Appointment{
			BusinessID: "biz-1", CustomerID: "cust-1", StaffID: "staff-1", ServiceID: "svc-1",
			StartTime: start, EndTime: end, Status: status,
		}
		if err := m.CreateAppointment(ctx, &a); err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
		return a
	}

	inRange := mk(base.Add(time.Hour), base.Add(2*time.Hour), model.StatusScheduled)
	mk(base.Add(3*time.Hour), base.Add(4*time.Hour), model.StatusCancelled)  // cancelled: excluded
	mk(base.Add(10*time.Hour), base.Add(11*time.Hour), model.StatusConfirmed) // outside range

	got, err := m.StaffAppointmentsBetween(ctx, "staff-1", base, base.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("StaffAppointmentsBetween failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != inRange.ID {
		t.Fatalf("expected only the active in-range appointment, got %d records", len(got))
	}
}

func TestMemoryListAppointmentsFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	a1 := model.Appointment{
		BusinessID: "biz-1", CustomerID: "cust-1", StaffID: "staff-1", ServiceID: "svc-1",
		StartTime: base, EndTime: base.Add(time.Hour), Status: model.StatusScheduled,
	}
	a2 := model.Appointment{
		BusinessID: "biz-1", CustomerID: "cust-2", StaffID: "staff-2", ServiceID: "svc-1",
		StartTime: base.Add(24 * time.Hour), EndTime: base.Add(25 * time.Hour), Status: model.StatusConfirmed,
	}
	for _, a := range []*model.Appointment{&a1, &a2} {
		if err := m.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
	}

	got, err := m.ListAppointments(ctx, AppointmentFilter{BusinessID: "biz-1"})
	if err != nil {
		t.Fatalf("ListAppointments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(got))
	}
	if !got[0].StartTime.Before(got[1].StartTime) {
		t.Fatal("expected chronological order")
	}

	got, err = m.ListAppointments(ctx, AppointmentFilter{
		BusinessID: "biz-1",
		From:       base.Add(12 * time.Hour),
		To:         base.Add(36 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ListAppointments with window failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a2.ID {
		t.Fatalf("expected only the second appointment in window, got %d", len(got))
	}

	got, err = m.ListAppointments(ctx, AppointmentFilter{StaffID: "staff-1", Status: model.StatusScheduled})
	if err != nil {
		t.Fatalf("ListAppointments by staff failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a1.ID {
		t.Fatalf("expected only the first appointment, got %d", len(got))
	}
}

func TestMemoryServiceAssignments(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	b := model.Business{TenantID: "tenant-1", Name: "Shear Genius"}
	if err := m.CreateBusiness(ctx, &b); err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}
	s := model.StaffMember{BusinessID: b.ID, Name: "Alex", Active: true}
	if err := m.CreateStaff(ctx, &s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	svc := model.Service{BusinessID: b.ID, Name: "Cut", DurationMinutes: 60, Active: true}
	if err := m.CreateService(ctx, &svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	has, err := m.ServiceHasAssignments(ctx, svc.ID)
	if err != nil || has {
		t.Fatalf("expected no assignments yet, got has=%v err=%v", has, err)
	}

	if err := m.AssignService(ctx, s.ID, svc.ID); err != nil {
		t.Fatalf("AssignService failed: %v", err)
	}
	ok, err := m.StaffCanPerform(ctx, s.ID, svc.ID)
	if err != nil || !ok {
		t.Fatalf("expected staff to perform the service, got ok=%v err=%v", ok, err)
	}

	if err := m.UnassignService(ctx, s.ID, svc.ID); err != nil {
		t.Fatalf("UnassignService failed: %v", err)
	}
	ok, err = m.StaffCanPerform(ctx, s.ID, svc.ID)
	if err != nil || ok {
		t.Fatalf("expected assignment to be gone, got ok=%v err=%v", ok, err)
	}

	if err := m.AssignService(ctx, "missing", svc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown staff, got %v", err)
	}
}

func TestMemoryCreateServiceStampsAddOnIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	svc := model.Service{
		BusinessID:      "biz-1",
		Name:            "Cut",
		DurationMinutes: 60,
		Active:          true,
		AddOns:          []model.AddOn{{Name: "Beard trim", DurationMinutes: 15}},
	}
	if err := m.CreateService(ctx, &svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}
	got, err := m.GetService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if len(got.AddOns) != 1 || got.AddOns[0].ID == "" {
		t.Fatalf("expected stored add-on with generated id, got %+v", got.AddOns)
	}
}

package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/availability"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

// monday is a fixed Monday; the engines' clocks are pinned to the Sunday
// before it so everything on the day is in the future.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store    *store.Memory
	engine   *Engine
	business model.Business
	staff    model.StaffMember
	service  model.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()

	b := model.Business{TenantID: "tenant-1", Name: "Shear Genius", Timezone: "UTC"}
	if err := st.CreateBusiness(ctx, &b); err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}
	if err := st.UpsertBusinessHours(ctx, model.BusinessHours{
		BusinessID: b.ID, Weekday: time.Monday, OpenTime: "09:00", CloseTime: "17:00",
	}); err != nil {
		t.Fatalf("UpsertBusinessHours failed: %v", err)
	}

	s := model.StaffMember{ID: "staff-1", BusinessID: b.ID, Name: "Alex", Active: true}
	if err := st.CreateStaff(ctx, &s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	if err := st.UpsertStaffSchedule(ctx, model.StaffSchedule{
		StaffID: s.ID, Weekday: time.Monday, StartTime: "09:00", EndTime: "17:00", Available: true,
	}); err != nil {
		t.Fatalf("UpsertStaffSchedule failed: %v", err)
	}

	svc := model.Service{BusinessID: b.ID, Name: "Cut", DurationMinutes: 60, Active: true,
		AddOns: []model.AddOn{{ID: "addon-trim", Name: "Beard trim", DurationMinutes: 30}}}
	if err := st.CreateService(ctx, &svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	avail := availability.NewEngine(st, availability.Config{})
	engine := NewEngine(st, avail, nil, nil, Config{LockTimeout: 2 * time.Second})
	engine.now = func() time.Time { return monday.Add(-12 * time.Hour) }

	return &fixture{store: st, engine: engine, business: b, staff: s, service: svc}
}

// addStaff registers a second staff member working the fixture's Monday window.
func (f *fixture) addStaff(t *testing.T, id string) model.StaffMember {
	t.Helper()
	ctx := context.Background()
	s := model.StaffMember{ID: id, BusinessID: f.business.ID, Name: id, Active: true}
	if err := f.store.CreateStaff(ctx, &s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	if err := f.store.UpsertStaffSchedule(ctx, model.StaffSchedule{
		StaffID: s.ID, Weekday: time.Monday, StartTime: "09:00", EndTime: "17:00", Available: true,
	}); err != nil {
		t.Fatalf("UpsertStaffSchedule failed: %v", err)
	}
	return s
}

func (f *fixture) bookRequest(start time.Time) BookRequest {
	return BookRequest{
		BusinessID:    f.business.ID,
		CustomerName:  "Dana",
		CustomerPhone: "+15550001111",
		ServiceID:     f.service.ID,
		StaffID:       f.staff.ID,
		StartTime:     start,
	}
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	appt, err := f.engine.Book(context.Background(), f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.ID == "" {
		t.Fatal("expected a generated appointment id")
	}
	if appt.Status != model.StatusScheduled {
		t.Fatalf("expected scheduled status, got %s", appt.Status)
	}
	if !appt.EndTime.Equal(monday.Add(11 * time.Hour)) {
		t.Fatalf("expected end 11:00, got %s", appt.EndTime)
	}
	if appt.CustomerID == "" {
		t.Fatal("expected a customer to be created")
	}
}

func TestBookAddOnsExtendDuration(t *testing.T) {
	f := newFixture(t)

	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.AddOnIDs = []string{"addon-trim"}
	appt, err := f.engine.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if !appt.EndTime.Equal(monday.Add(11*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected end 11:30 with the add-on, got %s", appt.EndTime)
	}
}

func TestBookUnknownAddOn(t *testing.T) {
	f := newFixture(t)

	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.AddOnIDs = []string{"addon-unknown"}
	_, err := f.engine.Book(context.Background(), req)
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookReusesCustomerByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	second, err := f.engine.Book(ctx, f.bookRequest(monday.Add(14*time.Hour)))
	if err != nil {
		t.Fatalf("second Book failed: %v", err)
	}
	if first.CustomerID != second.CustomerID {
		t.Fatalf("expected same customer for same phone, got %s and %s", first.CustomerID, second.CustomerID)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.CustomerPhone = ""
	if _, err := f.engine.Book(ctx, req); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for missing phone, got %v", err)
	}

	req = f.bookRequest(monday.Add(10 * time.Hour))
	req.BusinessID = "missing"
	if _, err := f.engine.Book(ctx, req); KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found for unknown business, got %v", err)
	}

	req = f.bookRequest(monday.Add(10 * time.Hour))
	req.ServiceID = "missing"
	if _, err := f.engine.Book(ctx, req); KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found for unknown service, got %v", err)
	}
}

func TestBookPastStartTime(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Book(context.Background(), f.bookRequest(monday.Add(-7*24*time.Hour).Add(10*time.Hour)))
	if KindOf(err) != KindPastStartTime {
		t.Fatalf("expected past_start_time, got %v", err)
	}
}

func TestBookOutsideBusinessHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Before opening.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(8*time.Hour))); KindOf(err) != KindOutsideHours {
		t.Fatalf("expected outside_business_hours before open, got %v", err)
	}
	// Would run past closing.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(16*time.Hour+30*time.Minute))); KindOf(err) != KindOutsideHours {
		t.Fatalf("expected outside_business_hours past close, got %v", err)
	}
	// Tuesday has no hours record.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.AddDate(0, 0, 1).Add(10*time.Hour))); KindOf(err) != KindOutsideHours {
		t.Fatalf("expected outside_business_hours on a closed day, got %v", err)
	}
}

func TestBookSlotUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour))); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	// Exact duplicate and partial overlap both lose.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour))); KindOf(err) != KindSlotUnavailable {
		t.Fatalf("expected slot_unavailable for duplicate, got %v", err)
	}
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour+30*time.Minute))); KindOf(err) != KindSlotUnavailable {
		t.Fatalf("expected slot_unavailable for overlap, got %v", err)
	}
	// Back-to-back succeeds: intervals are half-open.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(11*time.Hour))); err != nil {
		t.Fatalf("adjacent Book failed: %v", err)
	}
}

func TestBookServiceNotAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.addStaff(t, "staff-2")
	// Once any assignment exists, unassigned staff are rejected.
	if err := f.store.AssignService(ctx, other.ID, f.service.ID); err != nil {
		t.Fatalf("AssignService failed: %v", err)
	}

	_, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if KindOf(err) != KindServiceNotAssigned {
		t.Fatalf("expected service_not_assigned_to_staff, got %v", err)
	}

	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.StaffID = other.ID
	if _, err := f.engine.Book(ctx, req); err != nil {
		t.Fatalf("Book with assignee failed: %v", err)
	}
}

func TestBookAutoSelectsLowestStaffID(t *testing.T) {
	f := newFixture(t)
	f.addStaff(t, "staff-0")

	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.StaffID = ""
	appt, err := f.engine.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.StaffID != "staff-0" {
		t.Fatalf("expected the lowest staff id to win, got %s", appt.StaffID)
	}
}

func TestBookAutoSelectSkipsBusyStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStaff(t, "staff-0")

	// Occupy staff-0 at the requested time.
	req := f.bookRequest(monday.Add(10 * time.Hour))
	req.StaffID = "staff-0"
	if _, err := f.engine.Book(ctx, req); err != nil {
		t.Fatalf("setup Book failed: %v", err)
	}

	req = f.bookRequest(monday.Add(10 * time.Hour))
	req.StaffID = ""
	appt, err := f.engine.Book(ctx, req)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.StaffID != f.staff.ID {
		t.Fatalf("expected fallback to %s, got %s", f.staff.ID, appt.StaffID)
	}

	// With both staff busy nothing is left.
	req = f.bookRequest(monday.Add(10 * time.Hour))
	req.StaffID = ""
	if _, err := f.engine.Book(ctx, req); KindOf(err) != KindSlotUnavailable {
		t.Fatalf("expected slot_unavailable with all staff busy, got %v", err)
	}
}

func TestModify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	newStart := monday.Add(14 * time.Hour)
	moved, err := f.engine.Modify(ctx, appt.ID, ModifyRequest{StartTime: &newStart})
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if !moved.StartTime.Equal(newStart) || !moved.EndTime.Equal(newStart.Add(time.Hour)) {
		t.Fatalf("expected 14:00-15:00, got %s-%s", moved.StartTime, moved.EndTime)
	}
}

func TestModifyExcludesSelfFromConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// Shift by 30 minutes into its own old interval.
	newStart := monday.Add(10*time.Hour + 30*time.Minute)
	if _, err := f.engine.Modify(ctx, appt.ID, ModifyRequest{StartTime: &newStart}); err != nil {
		t.Fatalf("expected self-overlapping move to succeed, got %v", err)
	}
}

func TestModifyConflictsWithOtherAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(14*time.Hour))); err != nil {
		t.Fatalf("second Book failed: %v", err)
	}

	newStart := monday.Add(14*time.Hour + 30*time.Minute)
	if _, err := f.engine.Modify(ctx, appt.ID, ModifyRequest{StartTime: &newStart}); KindOf(err) != KindSlotUnavailable {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
}

func TestModifyTerminalAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := f.engine.Cancel(ctx, appt.ID, "customer request"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	newStart := monday.Add(14 * time.Hour)
	if _, err := f.engine.Modify(ctx, appt.ID, ModifyRequest{StartTime: &newStart}); KindOf(err) != KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	cancelled, err := f.engine.Cancel(ctx, appt.ID, "customer request")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancellationReason != "customer request" {
		t.Fatalf("unexpected cancel state: %+v", cancelled)
	}

	// The interval is free again.
	if _, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour))); err != nil {
		t.Fatalf("re-Book after cancel failed: %v", err)
	}

	// Cancelling twice is an invalid transition.
	if _, err := f.engine.Cancel(ctx, appt.ID, "again"); KindOf(err) != KindInvalidState {
		t.Fatalf("expected invalid_state on double cancel, got %v", err)
	}

	if _, err := f.engine.Cancel(ctx, "missing", ""); KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.engine.Book(ctx, f.bookRequest(monday.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	for _, next := range []model.AppointmentStatus{model.StatusConfirmed, model.StatusInProgress, model.StatusCompleted} {
		appt, err = f.engine.UpdateStatus(ctx, appt.ID, next)
		if err != nil {
			t.Fatalf("UpdateStatus to %s failed: %v", next, err)
		}
		if appt.Status != next {
			t.Fatalf("expected %s, got %s", next, appt.Status)
		}
	}

	// Completed is terminal.
	if _, err := f.engine.UpdateStatus(ctx, appt.ID, model.StatusCancelled); KindOf(err) != KindInvalidState {
		t.Fatalf("expected invalid_state after completion, got %v", err)
	}
	// Unknown statuses are rejected before any lookup.
	if _, err := f.engine.UpdateStatus(ctx, appt.ID, "pending"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	// Skipping a step is rejected.
	appt2, err := f.engine.Book(ctx, f.bookRequest(monday.Add(14*time.Hour)))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := f.engine.UpdateStatus(ctx, appt2.ID, model.StatusCompleted); KindOf(err) != KindInvalidState {
		t.Fatalf("expected invalid_state for scheduled->completed, got %v", err)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Book(context.Background(), f.bookRequest(monday.Add(10*time.Hour)))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case KindOf(err) == KindSlotUnavailable:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != workers-1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d losers", won, lost)
	}
}

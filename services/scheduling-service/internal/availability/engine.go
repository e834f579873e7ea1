package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

// ErrOutsideHours marks an interval falling outside the intersection of the
// business hours and staff schedule for its weekday (or a closed day).
var ErrOutsideHours = errors.New("interval outside business or staff hours")

// ErrOverlap marks an interval colliding with an existing active appointment.
var ErrOverlap = errors.New("interval overlaps an existing appointment")

// nextSlotHorizonDays bounds the forward scan of NextAvailableSlot.
const nextSlotHorizonDays = 30

// Slot is one candidate interval for one staff member. Taken candidates are
// emitted with Available=false rather than omitted, so callers can count and
// render the full grid.
type Slot struct {
	StaffID   string    `json:"staff_id"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"is_available"`
}

// Query selects the day and optional service/staff filters for a slot listing.
type Query struct {
	BusinessID string
	Date       time.Time // any instant on the target day; normalized to the business timezone
	ServiceID  string    // optional; narrows staff and sets slot length
	StaffID    string    // optional; restricts to one staff member
}

type Config struct {
	// DefaultDurationMinutes is the slot length when no service is given.
	DefaultDurationMinutes int
}

// Engine computes bookable slots by intersecting business hours, staff
// schedules, and existing appointments. It only reads from the store.
type Engine struct {
	store store.Store
	cfg   Config
	now   func() time.Time
}

func NewEngine(st store.Store, cfg Config) *Engine {
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 30
	}
	return &Engine{store: st, cfg: cfg, now: time.Now}
}

// AvailableSlots returns the chronologically ordered candidate slots for the
// business on the query's day. Candidate starts step by the slot duration from
// the open boundary of each staff member's effective window; a candidate whose
// end would cross the window never appears.
func (e *Engine) AvailableSlots(ctx context.Context, q Query) ([]Slot, error) {
	business, err := e.store.GetBusiness(ctx, q.BusinessID)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(e.cfg.DefaultDurationMinutes) * time.Minute
	var service model.Service
	if q.ServiceID != "" {
		service, err = e.store.GetService(ctx, q.ServiceID)
		if err != nil {
			return nil, err
		}
		if service.BusinessID != business.ID || !service.Active {
			return nil, store.ErrNotFound
		}
		// General availability uses the base duration; add-ons only extend a
		// concrete booking.
		duration = time.Duration(service.DurationMinutes) * time.Minute
	}

	// The query names a calendar date; materialize it in the business's
	// canonical timezone.
	day := calendarDay(q.Date, business.Location())
	hours, err := e.store.BusinessHoursForDay(ctx, business.ID, day.Weekday())
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil // no record means closed
	}
	if err != nil {
		return nil, err
	}
	if hours.Closed {
		return nil, nil
	}
	bizWindow, err := windowOn(day, hours.OpenTime, hours.CloseTime)
	if err != nil {
		return nil, err
	}

	candidates, err := e.candidateStaff(ctx, business.ID, q.ServiceID, q.StaffID)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, member := range candidates {
		window, ok, err := e.effectiveWindow(ctx, member.ID, day, bizWindow)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		booked, err := e.store.StaffAppointmentsBetween(ctx, member.ID, window.start, window.end)
		if err != nil {
			return nil, err
		}

		for start := window.start; !start.Add(duration).After(window.end); start = start.Add(duration) {
			end := start.Add(duration)
			slots = append(slots, Slot{
				StaffID:   member.ID,
				Start:     start,
				End:       end,
				Available: !overlapsAny(start, end, booked, ""),
			})
		}
	}

	sortSlots(slots)
	return slots, nil
}

// NextAvailableSlot scans forward day by day from today and returns the first
// open slot, or ok=false when nothing is free within the horizon.
func (e *Engine) NextAvailableSlot(ctx context.Context, businessID, serviceID, staffID string) (Slot, bool, error) {
	now := e.now()
	for i := 0; i < nextSlotHorizonDays; i++ {
		slots, err := e.AvailableSlots(ctx, Query{
			BusinessID: businessID,
			Date:       now.AddDate(0, 0, i),
			ServiceID:  serviceID,
			StaffID:    staffID,
		})
		if err != nil {
			return Slot{}, false, err
		}
		for _, s := range slots {
			if s.Available && s.Start.After(now) {
				return s, true, nil
			}
		}
	}
	return Slot{}, false, nil
}

// CheckInterval verifies that [start, end) fits inside the staff member's
// effective window on that day and collides with no active appointment.
// excludeApptID is ignored in the conflict set (used when moving an
// appointment so it doesn't conflict with itself).
func (e *Engine) CheckInterval(ctx context.Context, businessID, staffID string, start, end time.Time, excludeApptID string) error {
	business, err := e.store.GetBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	day := dayIn(start, business.Location())
	if !dayIn(end.Add(-time.Nanosecond), business.Location()).Equal(day) {
		// Appointments never span midnight; the windows are per-weekday.
		return ErrOutsideHours
	}

	hours, err := e.store.BusinessHoursForDay(ctx, businessID, day.Weekday())
	if errors.Is(err, store.ErrNotFound) {
		return ErrOutsideHours
	}
	if err != nil {
		return err
	}
	if hours.Closed {
		return ErrOutsideHours
	}
	bizWindow, err := windowOn(day, hours.OpenTime, hours.CloseTime)
	if err != nil {
		return err
	}
	window, ok, err := e.effectiveWindow(ctx, staffID, day, bizWindow)
	if err != nil {
		return err
	}
	if !ok || start.Before(window.start) || end.After(window.end) {
		return ErrOutsideHours
	}

	booked, err := e.store.StaffAppointmentsBetween(ctx, staffID, start, end)
	if err != nil {
		return err
	}
	if overlapsAny(start, end, booked, excludeApptID) {
		return ErrOverlap
	}
	return nil
}

// candidateStaff resolves the staff set for a query: one explicit member, or
// every active member of the business, narrowed to service assignees when the
// service has assignment rows.
func (e *Engine) candidateStaff(ctx context.Context, businessID, serviceID, staffID string) ([]model.StaffMember, error) {
	restrict := false
	if serviceID != "" {
		var err error
		restrict, err = e.store.ServiceHasAssignments(ctx, serviceID)
		if err != nil {
			return nil, err
		}
	}

	if staffID != "" {
		member, err := e.store.GetStaff(ctx, staffID)
		if err != nil {
			return nil, err
		}
		if member.BusinessID != businessID || !member.Active {
			return nil, store.ErrNotFound
		}
		if restrict {
			ok, err := e.store.StaffCanPerform(ctx, member.ID, serviceID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
		}
		return []model.StaffMember{member}, nil
	}

	all, err := e.store.ListStaff(ctx, businessID)
	if err != nil {
		return nil, err
	}
	var out []model.StaffMember
	for _, member := range all {
		if !member.Active {
			continue
		}
		if restrict {
			ok, err := e.store.StaffCanPerform(ctx, member.ID, serviceID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, member)
	}
	return out, nil
}

type window struct {
	start time.Time
	end   time.Time
}

// effectiveWindow intersects the business window with the staff schedule for
// the day. ok=false means the staff member has no bookable time that day.
func (e *Engine) effectiveWindow(ctx context.Context, staffID string, day time.Time, biz window) (window, bool, error) {
	sched, err := e.store.StaffScheduleForDay(ctx, staffID, day.Weekday())
	if errors.Is(err, store.ErrNotFound) {
		return window{}, false, nil
	}
	if err != nil {
		return window{}, false, err
	}
	if !sched.Available {
		return window{}, false, nil
	}
	staffWindow, err := windowOn(day, sched.StartTime, sched.EndTime)
	if err != nil {
		return window{}, false, err
	}

	w := window{start: later(biz.start, staffWindow.start), end: earlier(biz.end, staffWindow.end)}
	if !w.end.After(w.start) {
		return window{}, false, nil
	}
	return w, true, nil
}

func windowOn(day time.Time, open, close string) (window, error) {
	openMins, err := model.ParseClock(open)
	if err != nil {
		return window{}, err
	}
	closeMins, err := model.ParseClock(close)
	if err != nil {
		return window{}, err
	}
	if closeMins <= openMins {
		return window{}, fmt.Errorf("close time %s not after open time %s", close, open)
	}
	return window{
		start: model.ClockOn(day, openMins),
		end:   model.ClockOn(day, closeMins),
	}, nil
}

func overlapsAny(start, end time.Time, booked []model.Appointment, excludeID string) bool {
	for _, a := range booked {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		// Half-open intervals: [start,end) overlaps [a.Start,a.End) iff
		// start < a.End && a.Start < end.
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// dayIn returns midnight of the calendar day containing the instant t, as
// observed in loc.
func dayIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// calendarDay rebuilds t's calendar date (as written) at midnight in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func sortSlots(slots []Slot) {
	// Chronological, then by staff for identical starts.
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].StaffID < slots[j].StaffID
	})
}

package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/availability"
	"github.com/slotline/slotline/services/scheduling-service/internal/events"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

// Engine owns the appointment lifecycle. It is the only writer of appointment
// records; every mutation goes through the conflict rules of the availability
// engine, and the check-then-create sequence holds a per-staff lock so two
// concurrent requests for one staff member cannot both win an interval.
type Engine struct {
	store       store.Store
	avail       *availability.Engine
	events      events.Publisher
	logger      *slog.Logger
	locks       *staffLocks
	lockTimeout time.Duration
	now         func() time.Time
}

type Config struct {
	// LockTimeout bounds per-staff lock acquisition; contention past the
	// timeout surfaces as a retryable slot_unavailable error.
	LockTimeout time.Duration
}

func NewEngine(st store.Store, avail *availability.Engine, pub events.Publisher, logger *slog.Logger, cfg Config) *Engine {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       st,
		avail:       avail,
		events:      pub,
		logger:      logger,
		locks:       newStaffLocks(),
		lockTimeout: cfg.LockTimeout,
		now:         time.Now,
	}
}

type BookRequest struct {
	BusinessID    string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ServiceID     string
	StaffID       string // optional; empty selects the first free capable staff member
	AddOnIDs      []string
	StartTime     time.Time
	Notes         string
}

// Book validates and commits a new appointment in scheduled status.
func (e *Engine) Book(ctx context.Context, req BookRequest) (model.Appointment, error) {
	if req.BusinessID == "" || req.CustomerName == "" || req.CustomerPhone == "" ||
		req.ServiceID == "" || req.StartTime.IsZero() {
		return model.Appointment{}, newError(KindValidation,
			"business_id, customer_name, customer_phone, service_id and start_time are required")
	}

	business, err := e.store.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		return model.Appointment{}, storeErr(err, "business")
	}

	service, err := e.store.GetService(ctx, req.ServiceID)
	if err != nil {
		return model.Appointment{}, storeErr(err, "service")
	}
	if service.BusinessID != business.ID || !service.Active {
		return model.Appointment{}, newError(KindNotFound, "service %s not found", req.ServiceID)
	}

	duration, err := service.Duration(req.AddOnIDs)
	if err != nil {
		return model.Appointment{}, newError(KindValidation, "%v", err)
	}
	if !req.StartTime.After(e.now()) {
		return model.Appointment{}, newError(KindPastStartTime, "start time must be in the future")
	}
	end := req.StartTime.Add(duration)

	customer, err := e.resolveCustomer(ctx, business.TenantID, req)
	if err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		BusinessID: business.ID,
		CustomerID: customer.ID,
		ServiceID:  service.ID,
		AddOnIDs:   req.AddOnIDs,
		StartTime:  req.StartTime,
		EndTime:    end,
		Status:     model.StatusScheduled,
		Notes:      req.Notes,
	}

	if req.StaffID != "" {
		if err := e.validateStaff(ctx, business.ID, req.StaffID, service.ID); err != nil {
			return model.Appointment{}, err
		}
		appt.StaffID = req.StaffID
		if err := e.reserve(ctx, &appt, ""); err != nil {
			return model.Appointment{}, err
		}
	} else {
		if err := e.autoSelect(ctx, business.ID, service.ID, &appt); err != nil {
			return model.Appointment{}, err
		}
	}

	e.logger.Info("appointment booked",
		"appointment_id", appt.ID, "staff_id", appt.StaffID,
		"start_time", appt.StartTime.UTC().Format(time.RFC3339))
	e.events.Publish(ctx, events.TypeBooked, appt)
	return appt, nil
}

type ModifyRequest struct {
	StartTime *time.Time
	StaffID   *string
	ServiceID *string
	Notes     *string
}

// Modify applies the provided fields to an existing appointment, re-running
// the full conflict check against the prospective staff/service/time with the
// appointment excluded from its own conflict set.
func (e *Engine) Modify(ctx context.Context, id string, req ModifyRequest) (model.Appointment, error) {
	appt, err := e.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}
	if appt.Status.Terminal() {
		return model.Appointment{}, newError(KindInvalidState,
			"appointment %s is %s and cannot be modified", id, appt.Status)
	}

	next := appt
	if req.StartTime != nil {
		next.StartTime = *req.StartTime
	}
	if req.StaffID != nil {
		next.StaffID = *req.StaffID
	}
	if req.ServiceID != nil {
		next.ServiceID = *req.ServiceID
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}

	service, err := e.store.GetService(ctx, next.ServiceID)
	if err != nil {
		return model.Appointment{}, storeErr(err, "service")
	}
	if service.BusinessID != appt.BusinessID || !service.Active {
		return model.Appointment{}, newError(KindNotFound, "service %s not found", next.ServiceID)
	}
	if req.ServiceID != nil && *req.ServiceID != appt.ServiceID {
		// A service change drops add-ons the new service does not offer.
		var kept []string
		for _, addOnID := range next.AddOnIDs {
			if _, ok := service.AddOn(addOnID); ok {
				kept = append(kept, addOnID)
			}
		}
		next.AddOnIDs = kept
	}
	duration, err := service.Duration(next.AddOnIDs)
	if err != nil {
		return model.Appointment{}, newError(KindValidation, "%v", err)
	}
	next.EndTime = next.StartTime.Add(duration)

	if req.StartTime != nil && !next.StartTime.After(e.now()) {
		return model.Appointment{}, newError(KindPastStartTime, "new start time must be in the future")
	}
	if err := e.validateStaff(ctx, appt.BusinessID, next.StaffID, service.ID); err != nil {
		return model.Appointment{}, err
	}

	release, err := e.locks.acquire(ctx, next.StaffID, e.lockTimeout)
	if err != nil {
		return model.Appointment{}, err
	}
	defer release()

	if err := e.checkInterval(ctx, next.BusinessID, next.StaffID, next.StartTime, next.EndTime, appt.ID); err != nil {
		return model.Appointment{}, err
	}
	if err := e.store.UpdateAppointment(ctx, &next); err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}

	e.events.Publish(ctx, events.TypeModified, next)
	return next, nil
}

// Cancel marks an appointment cancelled. The record is kept; cancellation
// frees its interval for new bookings.
func (e *Engine) Cancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	appt, err := e.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}
	if !appt.Status.CanTransitionTo(model.StatusCancelled) {
		return model.Appointment{}, newError(KindInvalidState,
			"appointment %s is %s and cannot be cancelled", id, appt.Status)
	}

	appt.Status = model.StatusCancelled
	appt.CancellationReason = reason
	if err := e.store.UpdateAppointment(ctx, &appt); err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}

	e.logger.Info("appointment cancelled", "appointment_id", appt.ID, "reason", reason)
	e.events.Publish(ctx, events.TypeCancelled, appt)
	return appt, nil
}

// UpdateStatus advances the lifecycle (confirm, start, complete, no-show).
func (e *Engine) UpdateStatus(ctx context.Context, id string, next model.AppointmentStatus) (model.Appointment, error) {
	if !next.Valid() {
		return model.Appointment{}, newError(KindValidation, "unknown status %q", next)
	}
	appt, err := e.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}
	if !appt.Status.CanTransitionTo(next) {
		return model.Appointment{}, newError(KindInvalidState,
			"cannot transition appointment %s from %s to %s", id, appt.Status, next)
	}

	appt.Status = next
	if err := e.store.UpdateAppointment(ctx, &appt); err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}

	eventType := events.TypeModified
	if next == model.StatusCancelled {
		eventType = events.TypeCancelled
	}
	e.events.Publish(ctx, eventType, appt)
	return appt, nil
}

func (e *Engine) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := e.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storeErr(err, "appointment")
	}
	return appt, nil
}

func (e *Engine) List(ctx context.Context, f store.AppointmentFilter) ([]model.Appointment, error) {
	appts, err := e.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, storeErr(err, "appointments")
	}
	return appts, nil
}

// reserve holds the staff lock across the conflict check and the insert.
func (e *Engine) reserve(ctx context.Context, appt *model.Appointment, excludeID string) error {
	release, err := e.locks.acquire(ctx, appt.StaffID, e.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	if err := e.checkInterval(ctx, appt.BusinessID, appt.StaffID, appt.StartTime, appt.EndTime, excludeID); err != nil {
		return err
	}
	if err := e.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return newError(KindSlotUnavailable, "slot was taken by a concurrent booking")
		}
		return storeErr(err, "appointment")
	}
	return nil
}

// autoSelect books the first capable staff member (lowest ID) whose window is
// open and whose interval is free.
func (e *Engine) autoSelect(ctx context.Context, businessID, serviceID string, appt *model.Appointment) error {
	restrict, err := e.store.ServiceHasAssignments(ctx, serviceID)
	if err != nil {
		return storeErr(err, "service assignments")
	}
	staff, err := e.store.ListStaff(ctx, businessID)
	if err != nil {
		return storeErr(err, "staff")
	}

	tried := false
	for _, member := range staff {
		if !member.Active {
			continue
		}
		if restrict {
			ok, err := e.store.StaffCanPerform(ctx, member.ID, serviceID)
			if err != nil {
				return storeErr(err, "staff assignments")
			}
			if !ok {
				continue
			}
		}
		tried = true
		appt.StaffID = member.ID
		err := e.reserve(ctx, appt, "")
		if err == nil {
			return nil
		}
		switch KindOf(err) {
		case KindSlotUnavailable, KindOutsideHours:
			continue
		default:
			return err
		}
	}
	if !tried {
		return newError(KindSlotUnavailable, "no staff member can perform this service")
	}
	return newError(KindSlotUnavailable, "no staff member is free at the requested time")
}

func (e *Engine) validateStaff(ctx context.Context, businessID, staffID, serviceID string) error {
	member, err := e.store.GetStaff(ctx, staffID)
	if err != nil {
		return storeErr(err, "staff member")
	}
	if member.BusinessID != businessID || !member.Active {
		return newError(KindNotFound, "staff member %s not found", staffID)
	}
	restrict, err := e.store.ServiceHasAssignments(ctx, serviceID)
	if err != nil {
		return storeErr(err, "service assignments")
	}
	if restrict {
		ok, err := e.store.StaffCanPerform(ctx, staffID, serviceID)
		if err != nil {
			return storeErr(err, "staff assignments")
		}
		if !ok {
			return newError(KindServiceNotAssigned,
				"staff member %s is not assigned to service %s", staffID, serviceID)
		}
	}
	return nil
}

func (e *Engine) resolveCustomer(ctx context.Context, tenantID string, req BookRequest) (model.Customer, error) {
	customer, err := e.store.CustomerByPhone(ctx, tenantID, req.CustomerPhone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Customer{}, storeErr(err, "customer")
	}

	customer = model.Customer{
		TenantID: tenantID,
		Name:     req.CustomerName,
		Phone:    req.CustomerPhone,
		Email:    req.CustomerEmail,
	}
	if err := e.store.CreateCustomer(ctx, &customer); err != nil {
		return model.Customer{}, storeErr(err, "customer")
	}
	return customer, nil
}

func (e *Engine) checkInterval(ctx context.Context, businessID, staffID string, start, end time.Time, excludeID string) error {
	err := e.avail.CheckInterval(ctx, businessID, staffID, start, end, excludeID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, availability.ErrOutsideHours):
		return newError(KindOutsideHours, "interval %s to %s is outside business or staff hours",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	case errors.Is(err, availability.ErrOverlap):
		return newError(KindSlotUnavailable, "interval overlaps an existing appointment")
	default:
		return storeErr(err, "availability")
	}
}

// storeErr maps store sentinels to engine error kinds; anything else is the
// backing store misbehaving.
func storeErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "%s not found", what)
	}
	return newError(KindStoreUnavailable, "%s lookup failed: %v", what, err)
}

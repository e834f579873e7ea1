package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/slotline/slotline/libs/db"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

// Postgres backs the Store with pgx. The appointments table carries an
// exclusion constraint on overlapping active intervals per staff member, so
// even concurrent writers racing past the engine's lock cannot double-book;
// that violation surfaces as ErrConflict.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

func (p *Postgres) CreateBusiness(ctx context.Context, b *model.Business) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO businesses (id, tenant_id, name, address, phone, email, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, b.ID, b.TenantID, b.Name, b.Address, b.Phone, b.Email, b.Timezone).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapErr(err)
}

func (p *Postgres) GetBusiness(ctx context.Context, id string) (model.Business, error) {
	var b model.Business
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, address, phone, email, timezone, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`, id).Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.Phone, &b.Email, &b.Timezone, &b.CreatedAt, &b.UpdatedAt)
	return b, mapErr(err)
}

func (p *Postgres) UpdateBusiness(ctx context.Context, b *model.Business) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE businesses
		SET name = $2, address = $3, phone = $4, email = $5, timezone = $6, updated_at = now()
		WHERE id = $1
	`, b.ID, b.Name, b.Address, b.Phone, b.Email, b.Timezone)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO business_hours (business_id, weekday, open_time, close_time, is_closed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (business_id, weekday) DO UPDATE
		SET open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			is_closed = EXCLUDED.is_closed,
			updated_at = now()
	`, h.BusinessID, int(h.Weekday), h.OpenTime, h.CloseTime, h.Closed)
	return mapErr(err)
}

func (p *Postgres) BusinessHoursForDay(ctx context.Context, businessID string, day time.Weekday) (model.BusinessHours, error) {
	var h model.BusinessHours
	var weekday int
	err := p.pool.QueryRow(ctx, `
		SELECT business_id::text, weekday, open_time, close_time, is_closed, updated_at
		FROM business_hours
		WHERE business_id = $1 AND weekday = $2
	`, businessID, int(day)).Scan(&h.BusinessID, &weekday, &h.OpenTime, &h.CloseTime, &h.Closed, &h.UpdatedAt)
	h.Weekday = time.Weekday(weekday)
	return h, mapErr(err)
}

func (p *Postgres) ListBusinessHours(ctx context.Context, businessID string) ([]model.BusinessHours, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT business_id::text, weekday, open_time, close_time, is_closed, updated_at
		FROM business_hours
		WHERE business_id = $1
		ORDER BY weekday ASC
	`, businessID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.BusinessHours
	for rows.Next() {
		var h model.BusinessHours
		var weekday int
		if err := rows.Scan(&h.BusinessID, &weekday, &h.OpenTime, &h.CloseTime, &h.Closed, &h.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		h.Weekday = time.Weekday(weekday)
		out = append(out, h)
	}
	return out, mapErr(rows.Err())
}

func (p *Postgres) CreateStaff(ctx context.Context, s *model.StaffMember) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO staff_members (id, business_id, name, role, specialties, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.BusinessID, s.Name, s.Role, s.Specialties, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapErr(err)
}

func (p *Postgres) GetStaff(ctx context.Context, id string) (model.StaffMember, error) {
	var s model.StaffMember
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, role, specialties, is_active, created_at, updated_at
		FROM staff_members
		WHERE id = $1
	`, id).Scan(&s.ID, &s.BusinessID, &s.Name, &s.Role, &s.Specialties, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, mapErr(err)
}

func (p *Postgres) UpdateStaff(ctx context.Context, s *model.StaffMember) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE staff_members
		SET name = $2, role = $3, specialties = $4, is_active = $5, updated_at = now()
		WHERE id = $1
	`, s.ID, s.Name, s.Role, s.Specialties, s.Active)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListStaff(ctx context.Context, businessID string) ([]model.StaffMember, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, business_id::text, name, role, specialties, is_active, created_at, updated_at
		FROM staff_members
		WHERE business_id = $1
		ORDER BY id ASC
	`, businessID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.StaffMember
	for rows.Next() {
		var s model.StaffMember
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.Role, &s.Specialties, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (p *Postgres) UpsertStaffSchedule(ctx context.Context, s model.StaffSchedule) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO staff_schedules (staff_id, weekday, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (staff_id, weekday) DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_available = EXCLUDED.is_available,
			updated_at = now()
	`, s.StaffID, int(s.Weekday), s.StartTime, s.EndTime, s.Available)
	return mapErr(err)
}

func (p *Postgres) StaffScheduleForDay(ctx context.Context, staffID string, day time.Weekday) (model.StaffSchedule, error) {
	var s model.StaffSchedule
	var weekday int
	err := p.pool.QueryRow(ctx, `
		SELECT staff_id::text, weekday, start_time, end_time, is_available, updated_at
		FROM staff_schedules
		WHERE staff_id = $1 AND weekday = $2
	`, staffID, int(day)).Scan(&s.StaffID, &weekday, &s.StartTime, &s.EndTime, &s.Available, &s.UpdatedAt)
	s.Weekday = time.Weekday(weekday)
	return s, mapErr(err)
}

func (p *Postgres) ListStaffSchedule(ctx context.Context, staffID string) ([]model.StaffSchedule, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT staff_id::text, weekday, start_time, end_time, is_available, updated_at
		FROM staff_schedules
		WHERE staff_id = $1
		ORDER BY weekday ASC
	`, staffID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.StaffSchedule
	for rows.Next() {
		var s model.StaffSchedule
		var weekday int
		if err := rows.Scan(&s.StaffID, &weekday, &s.StartTime, &s.EndTime, &s.Available, &s.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		s.Weekday = time.Weekday(weekday)
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (p *Postgres) CreateService(ctx context.Context, s *model.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO services (id, business_id, name, duration_minutes, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.BusinessID, s.Name, s.DurationMinutes, s.Price, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	for i := range s.AddOns {
		if s.AddOns[i].ID == "" {
			s.AddOns[i].ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO service_add_ons (id, service_id, name, price, duration_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, s.AddOns[i].ID, s.ID, s.AddOns[i].Name, s.AddOns[i].Price, s.AddOns[i].DurationMinutes); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit(ctx))
}

func (p *Postgres) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &s.Price, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Service{}, mapErr(err)
	}
	s.AddOns, err = p.serviceAddOns(ctx, id)
	return s, err
}

func (p *Postgres) serviceAddOns(ctx context.Context, serviceID string) ([]model.AddOn, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, name, price, duration_minutes
		FROM service_add_ons
		WHERE service_id = $1
		ORDER BY id ASC
	`, serviceID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.AddOn
	for rows.Next() {
		var a model.AddOn
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.DurationMinutes); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func (p *Postgres) UpdateService(ctx context.Context, s *model.Service) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE services
		SET name = $2, duration_minutes = $3, price = $4, is_active = $5, updated_at = now()
		WHERE id = $1
	`, s.ID, s.Name, s.DurationMinutes, s.Price, s.Active)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	// Add-ons are replaced wholesale; existing appointments keep their
	// add_on_ids and are unaffected.
	if _, err := tx.Exec(ctx, `DELETE FROM service_add_ons WHERE service_id = $1`, s.ID); err != nil {
		return mapErr(err)
	}
	for i := range s.AddOns {
		if s.AddOns[i].ID == "" {
			s.AddOns[i].ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO service_add_ons (id, service_id, name, price, duration_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, s.AddOns[i].ID, s.ID, s.AddOns[i].Name, s.AddOns[i].Price, s.AddOns[i].DurationMinutes); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit(ctx))
}

func (p *Postgres) ListServices(ctx context.Context, businessID string) ([]model.Service, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		WHERE business_id = $1
		ORDER BY id ASC
	`, businessID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &s.Price, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	for i := range out {
		addOns, err := p.serviceAddOns(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].AddOns = addOns
	}
	return out, nil
}

func (p *Postgres) AssignService(ctx context.Context, staffID, serviceID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO staff_services (staff_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT (staff_id, service_id) DO NOTHING
	`, staffID, serviceID)
	return mapErr(err)
}

func (p *Postgres) UnassignService(ctx context.Context, staffID, serviceID string) error {
	_, err := p.pool.Exec(ctx, `
		DELETE FROM staff_services
		WHERE staff_id = $1 AND service_id = $2
	`, staffID, serviceID)
	return mapErr(err)
}

func (p *Postgres) StaffCanPerform(ctx context.Context, staffID, serviceID string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_services WHERE staff_id = $1 AND service_id = $2
		)
	`, staffID, serviceID).Scan(&ok)
	return ok, mapErr(err)
}

func (p *Postgres) ServiceHasAssignments(ctx context.Context, serviceID string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_services WHERE service_id = $1
		)
	`, serviceID).Scan(&ok)
	return ok, mapErr(err)
}

func (p *Postgres) CreateCustomer(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO customers (id, tenant_id, name, phone, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, c.ID, c.TenantID, c.Name, c.Phone, c.Email).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (p *Postgres) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, phone, email, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, mapErr(err)
}

func (p *Postgres) CustomerByPhone(ctx context.Context, tenantID, phone string) (model.Customer, error) {
	var c model.Customer
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, phone, email, created_at, updated_at
		FROM customers
		WHERE tenant_id = $1 AND phone = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, tenantID, phone).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, mapErr(err)
}

const appointmentColumns = `
	id::text, business_id::text, customer_id::text, staff_id::text, service_id::text,
	add_on_ids, start_time, end_time, status, notes, COALESCE(cancellation_reason, ''),
	created_at, updated_at`

func (p *Postgres) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, business_id, customer_id, staff_id, service_id, add_on_ids, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, a.ID, a.BusinessID, a.CustomerID, a.StaffID, a.ServiceID, a.AddOnIDs,
		a.StartTime, a.EndTime, string(a.Status), a.Notes).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

func (p *Postgres) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (p *Postgres) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE appointments
		SET staff_id = $2,
			service_id = $3,
			add_on_ids = $4,
			start_time = $5,
			end_time = $6,
			status = $7,
			notes = $8,
			cancellation_reason = $9,
			updated_at = now()
		WHERE id = $1
	`, a.ID, a.StaffID, a.ServiceID, a.AddOnIDs, a.StartTime, a.EndTime,
		string(a.Status), a.Notes, a.CancellationReason)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) StaffAppointmentsBetween(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, staffID, from, to)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (p *Postgres) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1 = '' OR business_id::text = $1)
			AND ($2 = '' OR customer_id::text = $2)
			AND ($3 = '' OR staff_id::text = $3)
			AND ($4 = '' OR status = $4)
			AND ($5::timestamptz IS NULL OR start_time >= $5)
			AND ($6::timestamptz IS NULL OR start_time < $6)
		ORDER BY start_time ASC
	`, f.BusinessID, f.CustomerID, f.StaffID, string(f.Status), nullableTime(f.From), nullableTime(f.To))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (p *Postgres) CreateFAQ(ctx context.Context, f *model.FAQ) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO faqs (id, business_id, question, answer)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, f.ID, f.BusinessID, f.Question, f.Answer).Scan(&f.CreatedAt, &f.UpdatedAt)
	return mapErr(err)
}

func (p *Postgres) ListFAQs(ctx context.Context, businessID string) ([]model.FAQ, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, business_id::text, question, answer, created_at, updated_at
		FROM faqs
		WHERE business_id = $1
		ORDER BY created_at ASC
	`, businessID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.FAQ
	for rows.Next() {
		var f model.FAQ
		if err := rows.Scan(&f.ID, &f.BusinessID, &f.Question, &f.Answer, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, f)
	}
	return out, mapErr(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	var status string
	err := row.Scan(
		&a.ID,
		&a.BusinessID,
		&a.CustomerID,
		&a.StaffID,
		&a.ServiceID,
		&a.AddOnIDs,
		&a.StartTime,
		&a.EndTime,
		&status,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, mapErr(err)
	}
	a.Status = model.AppointmentStatus(status)
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// mapErr normalizes driver errors into the store's sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return ErrConflict
	}
	return err
}

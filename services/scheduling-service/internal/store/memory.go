package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

// Memory is a map-backed Store guarded by a single RWMutex, with per-foreign-key
// indexes so the engines never scan unrelated tenants. Suitable for tests and
// single-node deployments; scans are linear within one business/staff, which
// does not scale past small datasets. Use the Postgres store beyond that.
type Memory struct {
	mu sync.RWMutex

	businesses map[string]model.Business
	// weekday-keyed maps make the one-row-per-day rule structural
	businessHours map[string]map[time.Weekday]model.BusinessHours
	staff         map[string]model.StaffMember
	staffByBiz    map[string][]string
	schedules     map[string]map[time.Weekday]model.StaffSchedule
	services      map[string]model.Service
	servicesByBiz map[string][]string
	staffServices map[string]map[string]bool // staffID -> serviceID set
	serviceStaff  map[string]map[string]bool // serviceID -> staffID set
	customers     map[string]model.Customer
	customerPhone map[phoneKey]string
	appointments  map[string]model.Appointment
	apptsByStaff  map[string][]string
	faqs          map[string]model.FAQ
	faqsByBiz     map[string][]string
}

type phoneKey struct {
	tenantID string
	phone    string
}

func NewMemory() *Memory {
	return &Memory{
		businesses:    map[string]model.Business{},
		businessHours: map[string]map[time.Weekday]model.BusinessHours{},
		staff:         map[string]model.StaffMember{},
		staffByBiz:    map[string][]string{},
		schedules:     map[string]map[time.Weekday]model.StaffSchedule{},
		services:      map[string]model.Service{},
		servicesByBiz: map[string][]string{},
		staffServices: map[string]map[string]bool{},
		serviceStaff:  map[string]map[string]bool{},
		customers:     map[string]model.Customer{},
		customerPhone: map[phoneKey]string{},
		appointments:  map[string]model.Appointment{},
		apptsByStaff:  map[string][]string{},
		faqs:          map[string]model.FAQ{},
		faqsByBiz:     map[string][]string{},
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) CreateBusiness(_ context.Context, b *model.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	m.businesses[b.ID] = *b
	return nil
}

func (m *Memory) GetBusiness(_ context.Context, id string) (model.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.businesses[id]
	if !ok {
		return model.Business{}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) UpdateBusiness(_ context.Context, b *model.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	m.businesses[b.ID] = *b
	return nil
}

func (m *Memory) UpsertBusinessHours(_ context.Context, h model.BusinessHours) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.businessHours[h.BusinessID]
	if !ok {
		days = map[time.Weekday]model.BusinessHours{}
		m.businessHours[h.BusinessID] = days
	}
	h.UpdatedAt = time.Now().UTC()
	days[h.Weekday] = h
	return nil
}

func (m *Memory) BusinessHoursForDay(_ context.Context, businessID string, day time.Weekday) (model.BusinessHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.businessHours[businessID][day]
	if !ok {
		return model.BusinessHours{}, ErrNotFound
	}
	return h, nil
}

func (m *Memory) ListBusinessHours(_ context.Context, businessID string) ([]model.BusinessHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.BusinessHours
	for day := time.Sunday; day <= time.Saturday; day++ {
		if h, ok := m.businessHours[businessID][day]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Memory) CreateStaff(_ context.Context, s *model.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	m.staff[s.ID] = *s
	m.staffByBiz[s.BusinessID] = append(m.staffByBiz[s.BusinessID], s.ID)
	return nil
}

func (m *Memory) GetStaff(_ context.Context, id string) (model.StaffMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[id]
	if !ok {
		return model.StaffMember{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) UpdateStaff(_ context.Context, s *model.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[s.ID]; !ok {
		return ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.staff[s.ID] = *s
	return nil
}

func (m *Memory) ListStaff(_ context.Context, businessID string) ([]model.StaffMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := append([]string(nil), m.staffByBiz[businessID]...)
	sort.Strings(ids)
	out := make([]model.StaffMember, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.staff[id])
	}
	return out, nil
}

func (m *Memory) UpsertStaffSchedule(_ context.Context, s model.StaffSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.schedules[s.StaffID]
	if !ok {
		days = map[time.Weekday]model.StaffSchedule{}
		m.schedules[s.StaffID] = days
	}
	s.UpdatedAt = time.Now().UTC()
	days[s.Weekday] = s
	return nil
}

func (m *Memory) StaffScheduleForDay(_ context.Context, staffID string, day time.Weekday) (model.StaffSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[staffID][day]
	if !ok {
		return model.StaffSchedule{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) ListStaffSchedule(_ context.Context, staffID string) ([]model.StaffSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.StaffSchedule
	for day := time.Sunday; day <= time.Saturday; day++ {
		if s, ok := m.schedules[staffID][day]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) CreateService(_ context.Context, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	stampAddOns(s.AddOns)
	m.services[s.ID] = *s
	m.servicesByBiz[s.BusinessID] = append(m.servicesByBiz[s.BusinessID], s.ID)
	return nil
}

func (m *Memory) GetService(_ context.Context, id string) (model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	if !ok {
		return model.Service{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) UpdateService(_ context.Context, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[s.ID]; !ok {
		return ErrNotFound
	}
	stampAddOns(s.AddOns)
	s.UpdatedAt = time.Now().UTC()
	m.services[s.ID] = *s
	return nil
}

func (m *Memory) ListServices(_ context.Context, businessID string) ([]model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := append([]string(nil), m.servicesByBiz[businessID]...)
	sort.Strings(ids)
	out := make([]model.Service, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.services[id])
	}
	return out, nil
}

func (m *Memory) AssignService(_ context.Context, staffID, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staffID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.services[serviceID]; !ok {
		return ErrNotFound
	}
	if m.staffServices[staffID] == nil {
		m.staffServices[staffID] = map[string]bool{}
	}
	if m.serviceStaff[serviceID] == nil {
		m.serviceStaff[serviceID] = map[string]bool{}
	}
	m.staffServices[staffID][serviceID] = true
	m.serviceStaff[serviceID][staffID] = true
	return nil
}

func (m *Memory) UnassignService(_ context.Context, staffID, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.staffServices[staffID], serviceID)
	delete(m.serviceStaff[serviceID], staffID)
	return nil
}

func (m *Memory) StaffCanPerform(_ context.Context, staffID, serviceID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.staffServices[staffID][serviceID], nil
}

func (m *Memory) ServiceHasAssignments(_ context.Context, serviceID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.serviceStaff[serviceID]) > 0, nil
}

func (m *Memory) CreateCustomer(_ context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	m.customers[c.ID] = *c
	if c.Phone != "" {
		m.customerPhone[phoneKey{c.TenantID, c.Phone}] = c.ID
	}
	return nil
}

func (m *Memory) GetCustomer(_ context.Context, id string) (model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return model.Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) CustomerByPhone(_ context.Context, tenantID, phone string) (model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.customerPhone[phoneKey{tenantID, phone}]
	if !ok {
		return model.Customer{}, ErrNotFound
	}
	return m.customers[id], nil
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	m.appointments[a.ID] = *a
	m.apptsByStaff[a.StaffID] = append(m.apptsByStaff[a.StaffID], a.ID)
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	if prev.StaffID != a.StaffID {
		m.apptsByStaff[prev.StaffID] = removeString(m.apptsByStaff[prev.StaffID], a.ID)
		m.apptsByStaff[a.StaffID] = append(m.apptsByStaff[a.StaffID], a.ID)
	}
	a.UpdatedAt = time.Now().UTC()
	m.appointments[a.ID] = *a
	return nil
}

func (m *Memory) StaffAppointmentsBetween(_ context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, id := range m.apptsByStaff[staffID] {
		a := m.appointments[id]
		if !a.Status.Blocks() {
			continue
		}
		if a.StartTime.Before(to) && from.Before(a.EndTime) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) ListAppointments(_ context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.BusinessID != "" && a.BusinessID != f.BusinessID {
			continue
		}
		if f.CustomerID != "" && a.CustomerID != f.CustomerID {
			continue
		}
		if f.StaffID != "" && a.StaffID != f.StaffID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && a.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !a.StartTime.Before(f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) CreateFAQ(_ context.Context, f *model.FAQ) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampNew(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	m.faqs[f.ID] = *f
	m.faqsByBiz[f.BusinessID] = append(m.faqsByBiz[f.BusinessID], f.ID)
	return nil
}

func (m *Memory) ListFAQs(_ context.Context, businessID string) ([]model.FAQ, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.FAQ, 0, len(m.faqsByBiz[businessID]))
	for _, id := range m.faqsByBiz[businessID] {
		out = append(out, m.faqs[id])
	}
	return out, nil
}

func stampNew(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now
}

func stampAddOns(addOns []model.AddOn) {
	for i := range addOns {
		if addOns[i].ID == "" {
			addOns[i].ID = uuid.NewString()
		}
	}
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

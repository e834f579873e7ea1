package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

// AdminHandler exposes the catalog CRUD that feeds the availability and
// booking engines: businesses, hours, staff, schedules, services and FAQs.
type AdminHandler struct {
	store  store.Store
	logger *slog.Logger
}

func NewAdminHandler(st store.Store, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, logger: logger}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "store unavailable")
}

type businessRequest struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

type businessItem struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBusinessItem(b model.Business) businessItem {
	return businessItem{
		ID:        b.ID,
		TenantID:  b.TenantID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Email:     b.Email,
		Timezone:  b.Timezone,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *AdminHandler) Business(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			writeError(w, http.StatusBadRequest, "id required")
			return
		}
		b, err := h.store.GetBusiness(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBusinessItem(b))

	case http.MethodPost:
		var req businessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		name := strings.TrimSpace(req.Name)
		tenantID := strings.TrimSpace(req.TenantID)
		if name == "" || tenantID == "" {
			writeError(w, http.StatusBadRequest, "tenant_id and name required")
			return
		}
		tz := strings.TrimSpace(req.Timezone)
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				writeError(w, http.StatusBadRequest, "unknown timezone")
				return
			}
		}
		b := model.Business{
			TenantID: tenantID,
			Name:     name,
			Address:  strings.TrimSpace(req.Address),
			Phone:    strings.TrimSpace(req.Phone),
			Email:    strings.TrimSpace(req.Email),
			Timezone: tz,
		}
		if id := strings.TrimSpace(req.ID); id != "" {
			// Update path when the caller names an existing business.
			existing, err := h.store.GetBusiness(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			b.ID = existing.ID
			b.CreatedAt = existing.CreatedAt
			if err := h.store.UpdateBusiness(r.Context(), &b); err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toBusinessItem(b))
			return
		}
		if err := h.store.CreateBusiness(r.Context(), &b); err != nil {
			writeStoreError(w, err)
			return
		}
		h.logger.Info("business created", "business_id", b.ID, "tenant_id", b.TenantID)
		writeJSON(w, http.StatusCreated, toBusinessItem(b))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type hoursRequest struct {
	BusinessID string `json:"business_id"`
	Weekday    int    `json:"weekday"` // 0=Sunday..6=Saturday
	OpenTime   string `json:"open_time"`
	CloseTime  string `json:"close_time"`
	Closed     bool   `json:"closed"`
}

type hoursItem struct {
	BusinessID string `json:"business_id"`
	Weekday    int    `json:"weekday"`
	OpenTime   string `json:"open_time"`
	CloseTime  string `json:"close_time"`
	Closed     bool   `json:"closed"`
}

func (h *AdminHandler) BusinessHours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "business_id required")
			return
		}
		hours, err := h.store.ListBusinessHours(r.Context(), businessID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		items := make([]hoursItem, 0, len(hours))
		for _, bh := range hours {
			items = append(items, hoursItem{
				BusinessID: bh.BusinessID,
				Weekday:    int(bh.Weekday),
				OpenTime:   bh.OpenTime,
				CloseTime:  bh.CloseTime,
				Closed:     bh.Closed,
			})
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req hoursRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.BusinessID = strings.TrimSpace(req.BusinessID)
		if req.BusinessID == "" {
			writeError(w, http.StatusBadRequest, "business_id required")
			return
		}
		if req.Weekday < 0 || req.Weekday > 6 {
			writeError(w, http.StatusBadRequest, "weekday must be 0 (Sunday) through 6 (Saturday)")
			return
		}
		bh := model.BusinessHours{
			BusinessID: req.BusinessID,
			Weekday:    time.Weekday(req.Weekday),
			Closed:     req.Closed,
		}
		if !req.Closed {
			open, err := model.ParseClock(req.OpenTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid open_time (want HH:MM)")
				return
			}
			closeMins, err := model.ParseClock(req.CloseTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid close_time (want HH:MM)")
				return
			}
			if closeMins <= open {
				writeError(w, http.StatusBadRequest, "close_time must be after open_time")
				return
			}
			bh.OpenTime = strings.TrimSpace(req.OpenTime)
			bh.CloseTime = strings.TrimSpace(req.CloseTime)
		}
		if _, err := h.store.GetBusiness(r.Context(), req.BusinessID); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := h.store.UpsertBusinessHours(r.Context(), bh); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hoursItem{
			BusinessID: bh.BusinessID,
			Weekday:    int(bh.Weekday),
			OpenTime:   bh.OpenTime,
			CloseTime:  bh.CloseTime,
			Closed:     bh.Closed,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type staffRequest struct {
	ID          string   `json:"id"`
	BusinessID  string   `json:"business_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties"`
	Active      *bool    `json:"active"`
}

type staffItem struct {
	ID          string   `json:"id"`
	BusinessID  string   `json:"business_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties"`
	Active      bool     `json:"active"`
}

func toStaffItem(s model.StaffMember) staffItem {
	return staffItem{
		ID:          s.ID,
		BusinessID:  s.BusinessID,
		Name:        s.Name,
		Role:        s.Role,
		Specialties: s.Specialties,
		Active:      s.Active,
	}
}

func (h *AdminHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			s, err := h.store.GetStaff(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toStaffItem(s))
			return
		}
		businessID := strings.TrimSpace(q.Get("business_id"))
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "id or business_id required")
			return
		}
		staff, err := h.store.ListStaff(r.Context(), businessID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		items := make([]staffItem, 0, len(staff))
		for _, s := range staff {
			items = append(items, toStaffItem(s))
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req staffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.BusinessID = strings.TrimSpace(req.BusinessID)
		if id := strings.TrimSpace(req.ID); id != "" {
			s, err := h.store.GetStaff(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if req.Name != "" {
				s.Name = req.Name
			}
			if role := strings.TrimSpace(req.Role); role != "" {
				s.Role = role
			}
			if req.Specialties != nil {
				s.Specialties = req.Specialties
			}
			if req.Active != nil {
				s.Active = *req.Active
			}
			if err := h.store.UpdateStaff(r.Context(), &s); err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toStaffItem(s))
			return
		}
		if req.BusinessID == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "business_id and name required")
			return
		}
		if _, err := h.store.GetBusiness(r.Context(), req.BusinessID); err != nil {
			writeStoreError(w, err)
			return
		}
		s := model.StaffMember{
			BusinessID:  req.BusinessID,
			Name:        req.Name,
			Role:        strings.TrimSpace(req.Role),
			Specialties: req.Specialties,
			Active:      true,
		}
		if req.Active != nil {
			s.Active = *req.Active
		}
		if err := h.store.CreateStaff(r.Context(), &s); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toStaffItem(s))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type scheduleRequest struct {
	StaffID   string `json:"staff_id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type scheduleItem struct {
	StaffID   string `json:"staff_id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

func (h *AdminHandler) StaffSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
		if staffID == "" {
			writeError(w, http.StatusBadRequest, "staff_id required")
			return
		}
		sched, err := h.store.ListStaffSchedule(r.Context(), staffID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		items := make([]scheduleItem, 0, len(sched))
		for _, s := range sched {
			items = append(items, scheduleItem{
				StaffID:   s.StaffID,
				Weekday:   int(s.Weekday),
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Available: s.Available,
			})
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.StaffID = strings.TrimSpace(req.StaffID)
		if req.StaffID == "" {
			writeError(w, http.StatusBadRequest, "staff_id required")
			return
		}
		if req.Weekday < 0 || req.Weekday > 6 {
			writeError(w, http.StatusBadRequest, "weekday must be 0 (Sunday) through 6 (Saturday)")
			return
		}
		ss := model.StaffSchedule{
			StaffID:   req.StaffID,
			Weekday:   time.Weekday(req.Weekday),
			Available: req.Available,
		}
		if req.Available {
			start, err := model.ParseClock(req.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid start_time (want HH:MM)")
				return
			}
			end, err := model.ParseClock(req.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid end_time (want HH:MM)")
				return
			}
			if end <= start {
				writeError(w, http.StatusBadRequest, "end_time must be after start_time")
				return
			}
			ss.StartTime = strings.TrimSpace(req.StartTime)
			ss.EndTime = strings.TrimSpace(req.EndTime)
		}
		if _, err := h.store.GetStaff(r.Context(), req.StaffID); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := h.store.UpsertStaffSchedule(r.Context(), ss); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scheduleItem{
			StaffID:   ss.StaffID,
			Weekday:   int(ss.Weekday),
			StartTime: ss.StartTime,
			EndTime:   ss.EndTime,
			Available: ss.Available,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type addOnRequest struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type serviceRequest struct {
	ID              string         `json:"id"`
	BusinessID      string         `json:"business_id"`
	Name            string         `json:"name"`
	DurationMinutes int            `json:"duration_minutes"`
	Price           float64        `json:"price"`
	Active          *bool          `json:"active"`
	AddOns          []addOnRequest `json:"add_ons"`
}

type addOnItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type serviceItem struct {
	ID              string      `json:"id"`
	BusinessID      string      `json:"business_id"`
	Name            string      `json:"name"`
	DurationMinutes int         `json:"duration_minutes"`
	Price           float64     `json:"price"`
	Active          bool        `json:"active"`
	AddOns          []addOnItem `json:"add_ons"`
}

func toServiceItem(s model.Service) serviceItem {
	addOns := make([]addOnItem, 0, len(s.AddOns))
	for _, a := range s.AddOns {
		addOns = append(addOns, addOnItem{
			ID:              a.ID,
			Name:            a.Name,
			Price:           a.Price,
			DurationMinutes: a.DurationMinutes,
		})
	}
	return serviceItem{
		ID:              s.ID,
		BusinessID:      s.BusinessID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		Active:          s.Active,
		AddOns:          addOns,
	}
}

func (h *AdminHandler) Service(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			s, err := h.store.GetService(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toServiceItem(s))
			return
		}
		businessID := strings.TrimSpace(q.Get("business_id"))
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "id or business_id required")
			return
		}
		services, err := h.store.ListServices(r.Context(), businessID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		items := make([]serviceItem, 0, len(services))
		for _, s := range services {
			items = append(items, toServiceItem(s))
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req serviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.BusinessID = strings.TrimSpace(req.BusinessID)
		if id := strings.TrimSpace(req.ID); id != "" {
			s, err := h.store.GetService(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if req.Name != "" {
				s.Name = req.Name
			}
			if req.DurationMinutes > 0 {
				s.DurationMinutes = req.DurationMinutes
			}
			if req.Price > 0 {
				s.Price = req.Price
			}
			if req.Active != nil {
				s.Active = *req.Active
			}
			if req.AddOns != nil {
				s.AddOns = buildAddOns(req.AddOns)
			}
			if err := h.store.UpdateService(r.Context(), &s); err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toServiceItem(s))
			return
		}
		if req.BusinessID == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "business_id and name required")
			return
		}
		if req.DurationMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "duration_minutes must be positive")
			return
		}
		if _, err := h.store.GetBusiness(r.Context(), req.BusinessID); err != nil {
			writeStoreError(w, err)
			return
		}
		s := model.Service{
			BusinessID:      req.BusinessID,
			Name:            req.Name,
			DurationMinutes: req.DurationMinutes,
			Price:           req.Price,
			Active:          true,
			AddOns:          buildAddOns(req.AddOns),
		}
		if req.Active != nil {
			s.Active = *req.Active
		}
		if err := h.store.CreateService(r.Context(), &s); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceItem(s))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func buildAddOns(reqs []addOnRequest) []model.AddOn {
	addOns := make([]model.AddOn, 0, len(reqs))
	for _, a := range reqs {
		addOns = append(addOns, model.AddOn{
			Name:            strings.TrimSpace(a.Name),
			Price:           a.Price,
			DurationMinutes: a.DurationMinutes,
		})
	}
	return addOns
}

type assignRequest struct {
	StaffID   string `json:"staff_id"`
	ServiceID string `json:"service_id"`
}

func (h *AdminHandler) AssignService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.StaffID == "" || req.ServiceID == "" {
		writeError(w, http.StatusBadRequest, "staff_id and service_id required")
		return
	}

	staff, err := h.store.GetStaff(r.Context(), req.StaffID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	svc, err := h.store.GetService(r.Context(), req.ServiceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if staff.BusinessID != svc.BusinessID {
		writeError(w, http.StatusBadRequest, "staff and service belong to different businesses")
		return
	}

	if err := h.store.AssignService(r.Context(), req.StaffID, req.ServiceID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"staff_id": req.StaffID, "service_id": req.ServiceID})
}

func (h *AdminHandler) UnassignService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.StaffID == "" || req.ServiceID == "" {
		writeError(w, http.StatusBadRequest, "staff_id and service_id required")
		return
	}
	if err := h.store.UnassignService(r.Context(), req.StaffID, req.ServiceID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type customerRequest struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

type customerItem struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func toCustomerItem(c model.Customer) customerItem {
	return customerItem{ID: c.ID, TenantID: c.TenantID, Name: c.Name, Phone: c.Phone, Email: c.Email}
}

func (h *AdminHandler) Customer(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			c, err := h.store.GetCustomer(r.Context(), id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toCustomerItem(c))
			return
		}
		tenantID := strings.TrimSpace(q.Get("tenant_id"))
		phone := strings.TrimSpace(q.Get("phone"))
		if tenantID == "" || phone == "" {
			writeError(w, http.StatusBadRequest, "id, or tenant_id and phone, required")
			return
		}
		c, err := h.store.CustomerByPhone(r.Context(), tenantID, phone)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerItem(c))

	case http.MethodPost:
		var req customerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		c := model.Customer{
			TenantID: strings.TrimSpace(req.TenantID),
			Name:     strings.TrimSpace(req.Name),
			Phone:    strings.TrimSpace(req.Phone),
			Email:    strings.TrimSpace(req.Email),
		}
		if c.TenantID == "" || c.Name == "" || c.Phone == "" {
			writeError(w, http.StatusBadRequest, "tenant_id, name and phone required")
			return
		}
		if err := h.store.CreateCustomer(r.Context(), &c); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCustomerItem(c))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type faqRequest struct {
	BusinessID string `json:"business_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type faqItem struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

func (h *AdminHandler) FAQ(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "business_id required")
			return
		}
		faqs, err := h.store.ListFAQs(r.Context(), businessID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		items := make([]faqItem, 0, len(faqs))
		for _, f := range faqs {
			items = append(items, faqItem{ID: f.ID, BusinessID: f.BusinessID, Question: f.Question, Answer: f.Answer})
		}
		writeJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req faqRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		f := model.FAQ{
			BusinessID: strings.TrimSpace(req.BusinessID),
			Question:   strings.TrimSpace(req.Question),
			Answer:     strings.TrimSpace(req.Answer),
		}
		if f.BusinessID == "" || f.Question == "" || f.Answer == "" {
			writeError(w, http.StatusBadRequest, "business_id, question and answer required")
			return
		}
		if _, err := h.store.GetBusiness(r.Context(), f.BusinessID); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := h.store.CreateFAQ(r.Context(), &f); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, faqItem{ID: f.ID, BusinessID: f.BusinessID, Question: f.Question, Answer: f.Answer})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/booking"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

type AppointmentHandler struct {
	engine *booking.Engine
	logger *slog.Logger
}

func NewAppointmentHandler(engine *booking.Engine, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{engine: engine, logger: logger}
}

type bookRequest struct {
	BusinessID    string   `json:"business_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail string   `json:"customer_email"`
	ServiceID     string   `json:"service_id"`
	StaffID       string   `json:"staff_id"`
	AddOnIDs      []string `json:"add_on_ids"`
	StartTime     string   `json:"start_time"`
	Notes         string   `json:"notes"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid booking payload", "err", err)
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time (want RFC3339)")
		return
	}

	appt, err := h.engine.Book(r.Context(), booking.BookRequest{
		BusinessID:    strings.TrimSpace(req.BusinessID),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		StaffID:       strings.TrimSpace(req.StaffID),
		AddOnIDs:      req.AddOnIDs,
		StartTime:     startTime,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentItem(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	appt, err := h.engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	filter := store.AppointmentFilter{
		BusinessID: strings.TrimSpace(q.Get("business_id")),
		CustomerID: strings.TrimSpace(q.Get("customer_id")),
		StaffID:    strings.TrimSpace(q.Get("staff_id")),
		Status:     model.AppointmentStatus(strings.TrimSpace(q.Get("status"))),
	}
	if filter.BusinessID == "" && filter.CustomerID == "" && filter.StaffID == "" {
		writeError(w, http.StatusBadRequest, "business_id, customer_id or staff_id required")
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if dateStr := strings.TrimSpace(q.Get("date")); dateStr != "" {
		day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
			return
		}
		filter.From = day
		filter.To = day.AddDate(0, 0, 1)
	}

	appts, err := h.engine.List(r.Context(), filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

type modifyRequest struct {
	AppointmentID string  `json:"appointment_id"`
	StartTime     *string `json:"start_time"`
	StaffID       *string `json:"staff_id"`
	ServiceID     *string `json:"service_id"`
	Notes         *string `json:"notes"`
}

func (h *AppointmentHandler) Modify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	var mod booking.ModifyRequest
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.StartTime))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_time (want RFC3339)")
			return
		}
		mod.StartTime = &t
	}
	mod.StaffID = req.StaffID
	mod.ServiceID = req.ServiceID
	mod.Notes = req.Notes

	appt, err := h.engine.Modify(r.Context(), req.AppointmentID, mod)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	appt, err := h.engine.Cancel(r.Context(), req.AppointmentID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" || strings.TrimSpace(req.Status) == "" {
		writeError(w, http.StatusBadRequest, "appointment_id and status required")
		return
	}

	appt, err := h.engine.UpdateStatus(r.Context(), req.AppointmentID,
		model.AppointmentStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

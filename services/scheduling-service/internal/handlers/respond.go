package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/booking"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps booking error kinds onto status codes: absence is
// 404, every rejected booking/validation outcome is 400, and a misbehaving
// backing store is 503.
func writeEngineError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindValidation, booking.KindSlotUnavailable, booking.KindOutsideHours,
		booking.KindPastStartTime, booking.KindInvalidState, booking.KindServiceNotAssigned:
		status = http.StatusBadRequest
	case booking.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

type appointmentItem struct {
	ID                 string   `json:"id"`
	BusinessID         string   `json:"business_id"`
	CustomerID         string   `json:"customer_id"`
	StaffID            string   `json:"staff_id"`
	ServiceID          string   `json:"service_id"`
	AddOnIDs           []string `json:"add_on_ids,omitempty"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	Status             string   `json:"status"`
	Notes              string   `json:"notes,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func toAppointmentItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		ID:                 a.ID,
		BusinessID:         a.BusinessID,
		CustomerID:         a.CustomerID,
		StaffID:            a.StaffID,
		ServiceID:          a.ServiceID,
		AddOnIDs:           a.AddOnIDs,
		StartTime:          a.StartTime.UTC().Format(time.RFC3339),
		EndTime:            a.EndTime.UTC().Format(time.RFC3339),
		Status:             string(a.Status),
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

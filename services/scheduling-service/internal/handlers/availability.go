package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/availability"
	"github.com/slotline/slotline/services/scheduling-service/internal/booking"
)

type AvailabilityHandler struct {
	engine *availability.Engine
	logger *slog.Logger
}

func NewAvailabilityHandler(engine *availability.Engine, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine, logger: logger}
}

type slotItem struct {
	StaffID   string `json:"staff_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"is_available"`
}

func toSlotItem(s availability.Slot) slotItem {
	return slotItem{
		StaffID:   s.StaffID,
		StartTime: s.Start.UTC().Format(time.RFC3339),
		EndTime:   s.End.UTC().Format(time.RFC3339),
		Available: s.Available,
	}
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if businessID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "business_id and date are required")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
		return
	}

	slots, err := h.engine.AvailableSlots(r.Context(), availability.Query{
		BusinessID: businessID,
		Date:       day,
		ServiceID:  strings.TrimSpace(q.Get("service_id")),
		StaffID:    strings.TrimSpace(q.Get("staff_id")),
	})
	if err != nil {
		if booking.KindOf(err) == "" {
			h.logger.Error("slot listing failed", "err", err)
		}
		writeEngineError(w, wrapStoreErr(err))
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, toSlotItem(s))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AvailabilityHandler) NextSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	if businessID == "" || serviceID == "" {
		writeError(w, http.StatusBadRequest, "business_id and service_id are required")
		return
	}

	slot, ok, err := h.engine.NextAvailableSlot(r.Context(), businessID, serviceID,
		strings.TrimSpace(q.Get("staff_id")))
	if err != nil {
		writeEngineError(w, wrapStoreErr(err))
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "slot": toSlotItem(slot)})
}

// wrapStoreErr gives raw store errors from the availability engine the same
// kind mapping booked operations get.
func wrapStoreErr(err error) error {
	if booking.KindOf(err) != "" {
		return err
	}
	return booking.WrapStore(err)
}

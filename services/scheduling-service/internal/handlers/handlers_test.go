package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slotline/slotline/services/scheduling-service/internal/availability"
	"github.com/slotline/slotline/services/scheduling-service/internal/booking"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type testServer struct {
	store    *store.Memory
	business model.Business
	staff    model.StaffMember
	service  model.Service

	availability *AvailabilityHandler
	appointments *AppointmentHandler
	admin        *AdminHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	logger := slog.New(slog.DiscardHandler)

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
	svc := model.Service{BusinessID: b.ID, Name: "Cut", DurationMinutes: 60, Active: true}
	if err := st.CreateService(ctx, &svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	availEngine := availability.NewEngine(st, availability.Config{})
	bookingEngine := booking.NewEngine(st, availEngine, nil, logger, booking.Config{})

	return &testServer{
		store:        st,
		business:     b,
		staff:        s,
		service:      svc,
		availability: NewAvailabilityHandler(availEngine, logger),
		appointments: NewAppointmentHandler(bookingEngine, logger),
		admin:        NewAdminHandler(st, logger),
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func (ts *testServer) futureStart() string {
	// First Monday at least a week out, so the start time is always future.
	day := monday
	for !day.After(time.Now().Add(7 * 24 * time.Hour)) {
		day = day.AddDate(0, 0, 7)
	}
	return day.Add(10 * time.Hour).Format(time.RFC3339)
}

func TestBookEndpointStatusCodes(t *testing.T) {
	ts := newTestServer(t)
	start := ts.futureStart()

	body := `{"business_id":"` + ts.business.ID + `","customer_name":"Dana","customer_phone":"+15550001111","service_id":"` + ts.service.ID + `","staff_id":"staff-1","start_time":"` + start + `"}`
	rec := doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created["status"] != "scheduled" {
		t.Fatalf("expected scheduled status in response, got %v", created["status"])
	}

	// A second booking of the same slot is a 400 with the conflict kind.
	rec = doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken slot, got %d", rec.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if errBody["kind"] != "slot_unavailable" {
		t.Fatalf("expected slot_unavailable kind, got %q", errBody["kind"])
	}

	// Unknown business maps to 404.
	missing := strings.Replace(body, ts.business.ID, "00000000-0000-0000-0000-000000000000", 1)
	rec = doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book", missing)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown business, got %d", rec.Code)
	}

	// Malformed JSON and bad timestamps are 400s.
	rec = doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book", "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
	rec = doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book",
		strings.Replace(body, start, "tomorrow", 1))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start_time, got %d", rec.Code)
	}

	// Wrong method.
	rec = doJSON(t, ts.appointments.Create, http.MethodGet, "/api/v1/public/book", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestGetAppointmentNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := doJSON(t, ts.appointments.Get, http.MethodGet, "/api/v1/appointments/get?id=missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, ts.appointments.Get, http.MethodGet, "/api/v1/appointments/get", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	ts := newTestServer(t)
	start := ts.futureStart()

	body := `{"business_id":"` + ts.business.ID + `","customer_name":"Dana","customer_phone":"+15550001111","service_id":"` + ts.service.ID + `","staff_id":"staff-1","start_time":"` + start + `"}`
	rec := doJSON(t, ts.appointments.Create, http.MethodPost, "/api/v1/public/book", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup booking failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	rec = doJSON(t, ts.appointments.Cancel, http.MethodPost, "/api/v1/appointments/cancel",
		`{"appointment_id":"`+created.ID+`","reason":"customer request"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Double cancel is an invalid transition: 400.
	rec = doJSON(t, ts.appointments.Cancel, http.MethodPost, "/api/v1/appointments/cancel",
		`{"appointment_id":"`+created.ID+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on double cancel, got %d", rec.Code)
	}
}

func TestSlotsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := doJSON(t, ts.availability.Slots, http.MethodGet,
		"/api/v1/public/slots?business_id="+ts.business.ID+"&service_id="+ts.service.ID+"&date=2026-03-02", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var slots []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	if slots[0]["is_available"] != true {
		t.Fatalf("expected first slot available, got %v", slots[0]["is_available"])
	}

	// Unknown business is a 404 even on the read path.
	rec = doJSON(t, ts.availability.Slots, http.MethodGet,
		"/api/v1/public/slots?business_id=missing&date=2026-03-02", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, ts.availability.Slots, http.MethodGet,
		"/api/v1/public/slots?business_id="+ts.business.ID+"&date=March+2nd", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestAdminBusinessEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := doJSON(t, ts.admin.Business, http.MethodPost, "/api/v1/businesses",
		`{"tenant_id":"tenant-2","name":"New Biz","timezone":"America/New_York"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, ts.admin.Business, http.MethodPost, "/api/v1/businesses",
		`{"tenant_id":"tenant-2","name":"Bad TZ","timezone":"Mars/Olympus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown timezone, got %d", rec.Code)
	}

	rec = doJSON(t, ts.admin.Business, http.MethodGet, "/api/v1/businesses?id="+ts.business.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, ts.admin.Business, http.MethodGet, "/api/v1/businesses?id=missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminHoursEndpointValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := doJSON(t, ts.admin.BusinessHours, http.MethodPost, "/api/v1/businesses/hours",
		`{"business_id":"`+ts.business.ID+`","weekday":2,"open_time":"10:00","close_time":"18:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, ts.admin.BusinessHours, http.MethodPost, "/api/v1/businesses/hours",
		`{"business_id":"`+ts.business.ID+`","weekday":9,"open_time":"10:00","close_time":"18:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad weekday, got %d", rec.Code)
	}

	rec = doJSON(t, ts.admin.BusinessHours, http.MethodPost, "/api/v1/businesses/hours",
		`{"business_id":"`+ts.business.ID+`","weekday":2,"open_time":"18:00","close_time":"10:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted window, got %d", rec.Code)
	}
}

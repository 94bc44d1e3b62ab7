package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinio/clinic-api/internal/platform/validation"
)

func newTestHandler(t *testing.T) (*Handler, *fixture, *echo.Echo) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()
	e.Validator = validation.New()
	return h, f, e
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_BookAppointment(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "17:00")

	body := `{"patient_id":"` + f.patientID.String() + `","doctor_id":"` + f.doctorID.String() +
		`","start_time":"2025-06-06T10:00:00Z","duration":"30 minutes"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.BookAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Duration  string    `json:"duration"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Duration != "00:30:00" {
		t.Errorf("duration = %q, want 00:30:00", resp.Duration)
	}
	// Timestamps are assigned by the store on insert and must reach the
	// response, not be serialized as zero values.
	if resp.CreatedAt.IsZero() || resp.UpdatedAt.IsZero() {
		t.Errorf("timestamps not populated: created_at=%v updated_at=%v", resp.CreatedAt, resp.UpdatedAt)
	}
}

func TestHandler_BookAppointment_BadDuration(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "17:00")

	body := `{"patient_id":"` + f.patientID.String() + `","doctor_id":"` + f.doctorID.String() +
		`","start_time":"2025-06-06T10:00:00Z","duration":"whenever"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.BookAppointment(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400 for unparseable duration, got %d", code)
	}
	if len(f.appts.appts) != 0 {
		t.Error("appointment persisted despite bad duration")
	}
}

func TestHandler_BookAppointment_Conflict(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "17:00")
	if _, err := f.book(t, "10:00", 30*time.Minute); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	body := `{"patient_id":"` + f.patientID.String() + `","doctor_id":"` + f.doctorID.String() +
		`","start_time":"2025-06-06T10:15:00Z","duration":"30 minutes"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.BookAppointment(c)
	if code := httpStatus(t, err); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_BookAppointment_OutsideWindow(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "12:00")

	body := `{"patient_id":"` + f.patientID.String() + `","doctor_id":"` + f.doctorID.String() +
		`","start_time":"2025-06-06T14:00:00Z","duration":"30 minutes"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.BookAppointment(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_BookAppointment_MissingFields(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.BookAppointment(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_GetAppointment_NotFound(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetAppointment(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_CancelAppointment(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "17:00")
	a, err := f.book(t, "10:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.CancelAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_CreateAvailability(t *testing.T) {
	h, f, e := newTestHandler(t)

	body := `{"day_of_week":"friday","start_time":"09:00","end_time":"17:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	if err := h.CreateAvailability(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		StartTime string    `json:"start_time"`
		EndTime   string    `json:"end_time"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StartTime != "09:00:00" || resp.EndTime != "17:00:00" {
		t.Errorf("times = %q..%q", resp.StartTime, resp.EndTime)
	}
	if resp.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestHandler_CreateAvailability_InvalidRange(t *testing.T) {
	h, f, e := newTestHandler(t)

	body := `{"day_of_week":"friday","start_time":"17:00","end_time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	err := h.CreateAvailability(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_CreateAvailability_Overlap(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "12:00")

	body := `{"day_of_week":"friday","start_time":"11:00","end_time":"14:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	err := h.CreateAvailability(c)
	if code := httpStatus(t, err); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_GetDaySchedule(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.addWindow(t, "09:00", "10:00")

	req := httptest.NewRequest(http.MethodGet, "/?date=2025-06-06", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	if err := h.GetDaySchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp DaySchedule
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.TimeSlots) != 2 {
		t.Errorf("expected 2 slots for a one-hour window, got %d", len(resp.TimeSlots))
	}
}

func TestHandler_GetDaySchedule_MissingDate(t *testing.T) {
	h, f, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	err := h.GetDaySchedule(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

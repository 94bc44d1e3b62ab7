package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinio/clinic-api/internal/platform/auth"
	"github.com/clinio/clinic-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – any authenticated role
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "patient"))
	readGroup.GET("/appointments", h.ListAppointments)
	readGroup.GET("/appointments/:id", h.GetAppointment)
	readGroup.GET("/appointments/doctor/:id", h.ListAppointmentsByDoctor)
	readGroup.GET("/appointments/patient/:id", h.ListAppointmentsByPatient)
	readGroup.GET("/doctors/:id/availabilities", h.ListAvailabilities)
	readGroup.GET("/doctors/:id/availabilities/:availability_id", h.GetAvailability)
	readGroup.GET("/doctors/:id/slots", h.GetDaySchedule)

	// Booking endpoints – patients book for themselves, admins for anyone
	bookGroup := api.Group("", auth.RequireRole("admin", "doctor", "patient"))
	bookGroup.POST("/appointments", h.BookAppointment)
	bookGroup.PUT("/appointments/:id", h.RescheduleAppointment)
	bookGroup.DELETE("/appointments/:id", h.CancelAppointment)

	// Availability management – doctors and admins only
	availGroup := api.Group("", auth.RequireRole("admin", "doctor"))
	availGroup.POST("/doctors/:id/availabilities", h.CreateAvailability)
	availGroup.PUT("/doctors/:id/availabilities/:availability_id", h.UpdateAvailability)
	availGroup.DELETE("/doctors/:id/availabilities/:availability_id", h.DeleteAvailability)
}

// httpError maps domain sentinels onto transport status codes. Unrecognized
// errors surface as 500 without leaking repository detail.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict), errors.Is(err, ErrOverlap):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotAvailable), errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// -- Appointment Handlers --

type appointmentRequest struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	Duration  string    `json:"duration" validate:"required"`
}

func (r *appointmentRequest) toAppointment() (*Appointment, error) {
	d, err := ParseSpan(r.Duration)
	if err != nil {
		return nil, err
	}
	return &Appointment{
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		StartTime: r.StartTime,
		Duration:  d,
	}, nil
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := req.toAppointment()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.BookAppointment(c.Request().Context(), appt); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointments(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAppointmentsByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointmentsByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAppointmentsByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointmentsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := req.toAppointment()
	if err != nil {
		return httpError(err)
	}
	appt.ID = id
	if err := h.svc.RescheduleAppointment(c.Request().Context(), appt); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CancelAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Availability Handlers --

type availabilityRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (r *availabilityRequest) toAvailability(doctorID uuid.UUID) (*Availability, error) {
	start, err := ParseTimeOfDay(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(r.EndTime)
	if err != nil {
		return nil, err
	}
	return &Availability{
		DoctorID:  doctorID,
		DayOfWeek: r.DayOfWeek,
		StartTime: start,
		EndTime:   end,
	}, nil
}

func (h *Handler) CreateAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	avail, err := req.toAvailability(doctorID)
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.CreateAvailability(c.Request().Context(), avail); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, avail)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	id, err := uuid.Parse(c.Param("availability_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid availability id")
	}
	avail, err := h.svc.GetAvailability(c.Request().Context(), doctorID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *Handler) ListAvailabilities(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	items, err := h.svc.ListAvailabilities(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	id, err := uuid.Parse(c.Param("availability_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid availability id")
	}
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	avail, err := req.toAvailability(doctorID)
	if err != nil {
		return httpError(err)
	}
	avail.ID = id
	if err := h.svc.UpdateAvailability(c.Request().Context(), avail); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *Handler) DeleteAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	id, err := uuid.Parse(c.Param("availability_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid availability id")
	}
	if err := h.svc.DeleteAvailability(c.Request().Context(), doctorID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Day Schedule --

func (h *Handler) GetDaySchedule(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	sched, err := h.svc.DaySchedule(c.Request().Context(), doctorID, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sched)
}

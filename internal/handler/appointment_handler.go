package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/middleware"
	"spadoc/internal/service/appointment"
	"spadoc/internal/service/calendar"
	"spadoc/pkg/errors"
)

const (
	defaultUpcomingDays = 14
	maxUpcomingDays     = 90
)

// AppointmentHandler handles public booking and the admin appointment list
type AppointmentHandler struct {
	container *container.Container
	now       func() time.Time
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(container *container.Container) *AppointmentHandler {
	return &AppointmentHandler{
		container: container,
		now:       time.Now,
	}
}

// SlotsResponse lists one day's service windows
type SlotsResponse struct {
	Success bool              `json:"success"`
	Date    string            `json:"date"`
	Slots   []domain.TimeSlot `json:"slots"`
}

// BookingResponse is returned after a successful booking
type BookingResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Appointment domain.Appointment `json:"appointment"`
	SMS         *domain.SMSResult  `json:"sms,omitempty"`
}

// AppointmentsResponse lists upcoming appointments
type AppointmentsResponse struct {
	Success      bool                 `json:"success"`
	Appointments []domain.Appointment `json:"appointments"`
}

// SMSResponse reports the text sent for a cancellation or reminder
type SMSResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	SMS     domain.SMSResult `json:"sms"`
}

// Slots handles GET /api/appointments/slots?date=YYYY-MM-DD&period=
func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	svc := h.container.Services.Appointments

	q := r.URL.Query()
	day, err := time.ParseInLocation("2006-01-02", q.Get("date"), svc.Location())
	if err != nil {
		writeError(w, errors.NewValidationError("date must be YYYY-MM-DD", nil), logger)
		return
	}
	period := q.Get("period")
	if !calendar.ValidPeriod(period) {
		writeError(w, errors.NewValidationError("period must be morning or afternoon", nil), logger)
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		Success: true,
		Date:    day.Format("2006-01-02"),
		Slots:   svc.Slots(r.Context(), day, period),
	}, logger)
}

// Book handles POST /api/appointments
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req domain.AppointmentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}

	booking, err := h.container.Services.Appointments.Book(r.Context(), req)
	if err != nil {
		writeError(w, appointmentError(err), logger)
		return
	}

	logger.WithFields(map[string]interface{}{
		"event_id": booking.Appointment.EventID,
		"start":    booking.Appointment.Start,
		"offline":  booking.Appointment.Offline,
		"ip":       middleware.ClientIP(r),
	}).Info("Appointment booked")

	writeJSON(w, http.StatusOK, BookingResponse{
		Success:     true,
		Message:     "Appointment booked successfully",
		Appointment: booking.Appointment,
		SMS:         booking.SMS,
	}, logger)
}

// Upcoming handles GET /admin/appointments?days=
func (h *AppointmentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := defaultUpcomingDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, errors.NewValidationError("days must be a positive number", nil), h.container.GetLogger())
			return
		}
		days = min(n, maxUpcomingDays)
	}

	writeJSON(w, http.StatusOK, AppointmentsResponse{
		Success:      true,
		Appointments: h.container.Services.Appointments.Upcoming(r.Context(), h.now(), days),
	}, h.container.GetLogger())
}

type phoneRequest struct {
	EventID string `json:"eventId"`
	Phone   string `json:"phone"`
}

// Cancel handles POST /admin/appointments/{eventId}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req phoneRequest
	if r.ContentLength > 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err, logger)
			return
		}
	}

	eventID := chi.URLParam(r, "eventId")
	res, err := h.container.Services.Appointments.Cancel(r.Context(), eventID, req.Phone)
	if err != nil {
		writeError(w, appointmentError(err), logger)
		return
	}
	logger.WithField("event_id", eventID).Info("Appointment cancelled")
	writeJSON(w, http.StatusOK, SMSResponse{Success: true, Message: "Appointment cancelled", SMS: res}, logger)
}

type rescheduleRequest struct {
	Start time.Time `json:"start"`
}

// Reschedule handles POST /admin/appointments/{eventId}/reschedule
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req rescheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}
	if req.Start.IsZero() {
		writeError(w, errors.NewValidationError("start is required", nil), logger)
		return
	}

	eventID := chi.URLParam(r, "eventId")
	booking, err := h.container.Services.Appointments.Reschedule(r.Context(), eventID, req.Start)
	if err != nil {
		writeError(w, appointmentError(err), logger)
		return
	}
	logger.WithFields(map[string]interface{}{
		"event_id": eventID,
		"start":    booking.Appointment.Start,
	}).Info("Appointment rescheduled")

	writeJSON(w, http.StatusOK, BookingResponse{
		Success:     true,
		Message:     "Appointment rescheduled",
		Appointment: booking.Appointment,
		SMS:         booking.SMS,
	}, logger)
}

// Remind handles POST /admin/appointments/reminder
func (h *AppointmentHandler) Remind(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req phoneRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}
	if req.EventID == "" {
		writeError(w, errors.NewValidationError("eventId is required", nil), logger)
		return
	}

	res, err := h.container.Services.Appointments.Remind(r.Context(), req.EventID, req.Phone)
	if err != nil {
		writeError(w, appointmentError(err), logger)
		return
	}
	writeJSON(w, http.StatusOK, SMSResponse{Success: res.Success, Message: "Reminder processed", SMS: res}, logger)
}

func appointmentError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, appointment.ErrNameRequired):
		return errors.NewValidationError("Name is required", nil)
	case stderrors.Is(err, appointment.ErrPhoneRequired):
		return errors.NewValidationError("A valid phone number is required", nil)
	case stderrors.Is(err, appointment.ErrNoPhone):
		return errors.NewValidationError("No phone number on record for this appointment", nil)
	case stderrors.Is(err, calendar.ErrSlotUnavailable):
		return errors.NewConflictError("That time slot is no longer available")
	case stderrors.Is(err, calendar.ErrEventNotFound):
		return errors.NewNotFoundError("Appointment not found")
	default:
		return errors.NewExternalError("Calendar request failed", err)
	}
}

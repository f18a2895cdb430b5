// Package appointment ties calendar bookings to customer text messages.
package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"spadoc/internal/domain"
	"spadoc/internal/service/calendar"
	"spadoc/pkg/logger"
	"spadoc/pkg/utils"
)

// Validation errors
var (
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("a valid phone number is required")
	ErrNoPhone       = errors.New("appointment has no phone number")
)

// Calendar is the booking backend
type Calendar interface {
	Slots(ctx context.Context, day time.Time, period string) []domain.TimeSlot
	Book(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, error)
	Event(ctx context.Context, eventID string) (domain.Appointment, error)
	Events(ctx context.Context, from, to time.Time) []domain.Appointment
	Reschedule(ctx context.Context, eventID string, start time.Time) (domain.Appointment, error)
	DeleteEvent(ctx context.Context, eventID string) error
	Location() *time.Location
}

// Texter sends customer texts
type Texter interface {
	SendConfirmation(ctx context.Context, phone string, appt domain.Appointment) domain.SMSResult
	SendReminder(ctx context.Context, notice domain.AppointmentNotice) domain.SMSResult
	SendCancellation(ctx context.Context, notice domain.AppointmentNotice) domain.SMSResult
}

// Booking is the outcome of a successful booking
type Booking struct {
	Appointment domain.Appointment `json:"appointment"`
	SMS         *domain.SMSResult  `json:"sms,omitempty"`
}

// Service books, cancels and reminds
type Service struct {
	calendar Calendar
	texter   Texter
	log      *logger.Logger
}

// NewService wires a calendar and a texter
func NewService(cal Calendar, texter Texter, log *logger.Logger) *Service {
	return &Service{calendar: cal, texter: texter, log: log.Component("appointment")}
}

// Slots lists one day's windows
func (s *Service) Slots(ctx context.Context, day time.Time, period string) []domain.TimeSlot {
	return s.calendar.Slots(ctx, day, period)
}

// Location returns the business time zone
func (s *Service) Location() *time.Location {
	return s.calendar.Location()
}

// Upcoming lists appointments from now over the next days
func (s *Service) Upcoming(ctx context.Context, now time.Time, days int) []domain.Appointment {
	return s.calendar.Events(ctx, now, now.AddDate(0, 0, days))
}

// Book validates the request, books the slot and texts a confirmation
// when the customer opted in. A failed text does not undo the booking.
func (s *Service) Book(ctx context.Context, req domain.AppointmentRequest) (Booking, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Booking{}, ErrNameRequired
	}
	if !utils.ValidatePhoneNumber(req.Phone) {
		return Booking{}, ErrPhoneRequired
	}

	appt, err := s.calendar.Book(ctx, req)
	if err != nil {
		return Booking{}, err
	}
	booking := Booking{Appointment: appt}
	if req.SMSOptIn {
		res := s.texter.SendConfirmation(ctx, req.Phone, appt)
		booking.SMS = &res
	}
	return booking, nil
}

// Reschedule moves an event to another free slot and texts a fresh
// confirmation when the customer opted in
func (s *Service) Reschedule(ctx context.Context, eventID string, start time.Time) (Booking, error) {
	appt, err := s.calendar.Reschedule(ctx, eventID, start)
	if err != nil {
		return Booking{}, err
	}
	booking := Booking{Appointment: appt}
	if appt.SMSOptIn && appt.Phone != "" {
		res := s.texter.SendConfirmation(ctx, appt.Phone, appt)
		booking.SMS = &res
	}
	return booking, nil
}

// Cancel deletes the event and texts the customer. phone overrides the
// number stored on the event.
func (s *Service) Cancel(ctx context.Context, eventID, phone string) (domain.SMSResult, error) {
	appt, err := s.calendar.Event(ctx, eventID)
	if err != nil {
		return domain.SMSResult{}, err
	}
	if err := s.calendar.DeleteEvent(ctx, eventID); err != nil {
		return domain.SMSResult{}, err
	}

	notice := noticeFor(appt, phone)
	if notice.Phone == "" {
		s.log.WithField("event_id", eventID).Info("Appointment cancelled without text, no phone on record")
		return domain.SMSResult{}, nil
	}
	return s.texter.SendCancellation(ctx, notice), nil
}

// Remind texts a reminder for an event
func (s *Service) Remind(ctx context.Context, eventID, phone string) (domain.SMSResult, error) {
	appt, err := s.calendar.Event(ctx, eventID)
	if err != nil {
		return domain.SMSResult{}, err
	}
	notice := noticeFor(appt, phone)
	if notice.Phone == "" {
		return domain.SMSResult{}, ErrNoPhone
	}
	return s.texter.SendReminder(ctx, notice), nil
}

func noticeFor(appt domain.Appointment, phone string) domain.AppointmentNotice {
	n := appt.Notice()
	if p := strings.TrimSpace(phone); p != "" {
		n.Phone = p
	}
	return n
}

var _ Calendar = (*calendar.Service)(nil)

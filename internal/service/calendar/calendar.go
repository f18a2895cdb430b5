// Package calendar books service appointments on the business Google
// Calendar. Without service-account credentials it runs in fallback mode:
// every slot is offered and bookings get a local placeholder id.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spadoc/internal/domain"
	"spadoc/pkg/logger"
)

var (
	// ErrSlotUnavailable is returned when booking a slot that is taken or
	// not one of the offered windows
	ErrSlotUnavailable = errors.New("calendar: slot unavailable")
	// ErrEventNotFound is returned for unknown event ids and in fallback mode
	ErrEventNotFound = errors.New("calendar: event not found")
)

const offlinePrefix = "offline-"

// Config holds the service account and target calendar
type Config struct {
	ClientEmail  string
	PrivateKey   string
	PrivateKeyID string
	CalendarID   string
}

// Configured reports whether service-account credentials are present
func (c Config) Configured() bool {
	return c.ClientEmail != "" && c.PrivateKey != ""
}

// EventPatch moves an existing event to another slot
type EventPatch struct {
	Title string
	Start time.Time
	End   time.Time
}

// backend is the calendar API surface the service needs
type backend interface {
	busy(ctx context.Context, from, to time.Time) ([]period, error)
	insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	get(ctx context.Context, eventID string) (domain.Appointment, error)
	list(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)
	patch(ctx context.Context, eventID string, p EventPatch) (domain.Appointment, error)
	remove(ctx context.Context, eventID string) error
}

type period struct {
	start, end time.Time
}

// Service offers slots and manages appointments
type Service struct {
	backend backend
	loc     *time.Location
	log     *logger.Logger
	now     func() time.Time
}

// New connects to Google Calendar, or returns a fallback service when
// credentials are missing
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Service, error) {
	log = log.Component("calendar")
	loc := BusinessLocation()
	if !cfg.Configured() {
		log.Warn("Google Calendar credentials not configured, using fallback mode")
		return newService(nil, loc, log), nil
	}

	b, err := newGoogleBackend(ctx, cfg, loc)
	if err != nil {
		return nil, fmt.Errorf("google calendar: %w", err)
	}
	log.WithField("calendar_id", b.calendarID).Info("Google Calendar connected")
	return newService(b, loc, log), nil
}

func newService(b backend, loc *time.Location, log *logger.Logger) *Service {
	return &Service{backend: b, loc: loc, log: log, now: time.Now}
}

// Fallback reports whether the service runs without Google Calendar
func (s *Service) Fallback() bool {
	return s.backend == nil
}

// Location returns the business time zone
func (s *Service) Location() *time.Location {
	return s.loc
}

// Slots lists the day's windows with availability. Lookup errors leave
// every slot available.
func (s *Service) Slots(ctx context.Context, day time.Time, period string) []domain.TimeSlot {
	slots := SlotsForDay(day, period, s.loc)
	if s.backend == nil || len(slots) == 0 {
		return slots
	}

	busy, err := s.backend.busy(ctx, slots[0].Start, slots[len(slots)-1].End)
	if err != nil {
		s.log.WithError(err).Warn("Availability check failed, offering all slots")
		return slots
	}
	for i := range slots {
		for _, b := range busy {
			if overlaps(slots[i].Start, slots[i].End, b.start, b.end) {
				slots[i].Available = false
				break
			}
		}
	}
	return slots
}

// freeSlot returns the future, unbooked slot starting exactly at start
func (s *Service) freeSlot(ctx context.Context, start time.Time) (domain.TimeSlot, error) {
	slot, ok := SlotAt(start, s.loc)
	if !ok || !slot.Start.After(s.now()) {
		return domain.TimeSlot{}, ErrSlotUnavailable
	}
	for _, candidate := range s.Slots(ctx, slot.Start, slot.Period) {
		if candidate.Start.Equal(slot.Start) && !candidate.Available {
			return domain.TimeSlot{}, ErrSlotUnavailable
		}
	}
	return slot, nil
}

// Book creates an appointment for the slot starting at req.Start
func (s *Service) Book(ctx context.Context, req domain.AppointmentRequest) (domain.Appointment, error) {
	slot, err := s.freeSlot(ctx, req.Start)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		Title:       slot.Title,
		Description: describe(req),
		Location:    strings.TrimSpace(req.Location),
		Start:       slot.Start,
		End:         slot.End,
		Phone:       strings.TrimSpace(req.Phone),
		SMSOptIn:    req.SMSOptIn,
	}
	return s.create(ctx, appt)
}

func (s *Service) create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if s.backend == nil {
		appt.EventID = offlinePrefix + uuid.NewString()
		appt.Offline = true
		s.log.WithField("event_id", appt.EventID).Info("Appointment recorded in fallback mode")
		return appt, nil
	}

	created, err := s.backend.insert(ctx, appt)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("create event: %w", err)
	}
	s.log.WithField("event_id", created.EventID).Info("Appointment created")
	return created, nil
}

// Event returns one event
func (s *Service) Event(ctx context.Context, eventID string) (domain.Appointment, error) {
	if s.backend == nil || strings.HasPrefix(eventID, offlinePrefix) {
		return domain.Appointment{}, ErrEventNotFound
	}
	return s.backend.get(ctx, eventID)
}

// Events lists events between from and to. Empty in fallback mode or on error.
func (s *Service) Events(ctx context.Context, from, to time.Time) []domain.Appointment {
	if s.backend == nil {
		return []domain.Appointment{}
	}
	events, err := s.backend.list(ctx, from, to)
	if err != nil {
		s.log.WithError(err).Error("Failed to list events")
		return []domain.Appointment{}
	}
	return events
}

// Reschedule moves an event to the free slot starting at start
func (s *Service) Reschedule(ctx context.Context, eventID string, start time.Time) (domain.Appointment, error) {
	if s.backend == nil || strings.HasPrefix(eventID, offlinePrefix) {
		return domain.Appointment{}, ErrEventNotFound
	}
	slot, err := s.freeSlot(ctx, start)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt, err := s.backend.patch(ctx, eventID, EventPatch{Title: slot.Title, Start: slot.Start, End: slot.End})
	if err != nil {
		return domain.Appointment{}, err
	}
	s.log.WithField("event_id", eventID).Info("Appointment rescheduled")
	return appt, nil
}

// DeleteEvent removes an event
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if s.backend == nil {
		return ErrEventNotFound
	}
	return s.backend.remove(ctx, eventID)
}

func describe(req domain.AppointmentRequest) string {
	var b strings.Builder
	service := strings.TrimSpace(req.Service)
	if service == "" {
		service = "Hot tub service"
	}
	fmt.Fprintf(&b, "Service: %s\n", service)
	fmt.Fprintf(&b, "Customer: %s\n", strings.TrimSpace(req.Name))
	if req.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", strings.TrimSpace(req.Phone))
	}
	if req.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", strings.TrimSpace(req.Email))
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		fmt.Fprintf(&b, "\n%s", d)
	}
	return strings.TrimRight(b.String(), "\n")
}

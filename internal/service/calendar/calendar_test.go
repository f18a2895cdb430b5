package calendar

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"spadoc/internal/domain"
	"spadoc/pkg/logger"
)

func day(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2030, 7, 16, 0, 0, 0, 0, BusinessLocation())
}

func TestSlotsForDay(t *testing.T) {
	loc := BusinessLocation()
	slots := SlotsForDay(day(t), "", loc)
	require.Len(t, slots, 4)
	assert.Equal(t, "Early Morning Appointment", slots[0].Title)
	assert.Equal(t, "7:00 AM - 10:00 AM", slots[0].DisplayName)
	assert.Equal(t, 7, slots[0].Start.Hour())
	assert.Equal(t, 19, slots[3].End.Hour())

	morning := SlotsForDay(day(t), domain.PeriodMorning, loc)
	require.Len(t, morning, 2)
	for _, s := range morning {
		assert.Equal(t, domain.PeriodMorning, s.Period)
	}
	assert.Len(t, SlotsForDay(day(t), domain.PeriodAfternoon, loc), 2)

	assert.True(t, ValidPeriod(""))
	assert.False(t, ValidPeriod("evening"))
}

func TestFallbackMode(t *testing.T) {
	s, err := New(context.Background(), Config{ClientEmail: "svc@example.iam.gserviceaccount.com"}, logger.NewNop())
	require.NoError(t, err)
	assert.True(t, s.Fallback())
	s.now = func() time.Time { return day(t).Add(-24 * time.Hour) }

	for _, slot := range s.Slots(context.Background(), day(t), "") {
		assert.True(t, slot.Available)
	}

	appt, err := s.Book(context.Background(), domain.AppointmentRequest{
		Name:  "Jane",
		Phone: "3035551212",
		Start: day(t).Add(14 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, appt.Offline)
	assert.True(t, strings.HasPrefix(appt.EventID, offlinePrefix))
	assert.Equal(t, "Early Afternoon Appointment", appt.Title)
	assert.Equal(t, 17, appt.End.Hour())

	assert.Empty(t, s.Events(context.Background(), day(t), day(t).Add(24*time.Hour)))
	_, err = s.Event(context.Background(), appt.EventID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = s.Reschedule(context.Background(), appt.EventID, day(t).Add(7*time.Hour))
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.ErrorIs(t, s.DeleteEvent(context.Background(), "abc"), ErrEventNotFound)
}

func TestBookRejectsInvalidSlots(t *testing.T) {
	s := newService(nil, BusinessLocation(), logger.NewNop())
	s.now = func() time.Time { return day(t).Add(-24 * time.Hour) }

	_, err := s.Book(context.Background(), domain.AppointmentRequest{Start: day(t).Add(8 * time.Hour)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	s.now = func() time.Time { return day(t).Add(12 * time.Hour) }
	_, err = s.Book(context.Background(), domain.AppointmentRequest{Start: day(t).Add(7 * time.Hour)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

// fakeCalendarAPI serves the handful of Calendar v3 endpoints the backend uses
type fakeCalendarAPI struct {
	busy     []map[string]string
	inserted map[string]interface{}
	patched  map[string]interface{}
	failBusy bool
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/freeBusy"):
		if f.failBusy {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"code":500,"message":"backend error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"calendars": map[string]interface{}{
				"primary": map[string]interface{}{"busy": f.busy},
			},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.inserted)
		f.inserted["id"] = "evt123"
		f.inserted["htmlLink"] = "https://calendar.google.com/event?eid=evt123"
		_ = json.NewEncoder(w).Encode(f.inserted)
	case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/events/evt123"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.patched)
		f.patched["id"] = "evt123"
		_ = json.NewEncoder(w).Encode(f.patched)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newGoogleService(t *testing.T, api *fakeCalendarAPI) *Service {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	loc := BusinessLocation()
	b, err := newGoogleBackend(context.Background(), Config{}, loc,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	s := newService(b, loc, logger.NewNop())
	s.now = func() time.Time { return day(t).Add(-24 * time.Hour) }
	return s
}

func TestGoogleSlotsMarkBusy(t *testing.T) {
	d := day(t)
	api := &fakeCalendarAPI{busy: []map[string]string{{
		"start": d.Add(9 * time.Hour).Format(time.RFC3339),
		"end":   d.Add(11 * time.Hour).Format(time.RFC3339),
	}}}
	s := newGoogleService(t, api)

	slots := s.Slots(context.Background(), d, "")
	require.Len(t, slots, 4)
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
	assert.True(t, slots[3].Available)

	_, err := s.Book(context.Background(), domain.AppointmentRequest{Start: d.Add(7 * time.Hour)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestGoogleAvailabilityErrorOffersAllSlots(t *testing.T) {
	s := newGoogleService(t, &fakeCalendarAPI{failBusy: true})
	for _, slot := range s.Slots(context.Background(), day(t), domain.PeriodAfternoon) {
		assert.True(t, slot.Available)
	}
}

func TestGoogleBook(t *testing.T) {
	api := &fakeCalendarAPI{}
	s := newGoogleService(t, api)

	appt, err := s.Book(context.Background(), domain.AppointmentRequest{
		Name:        "Jane",
		Phone:       "3035551212",
		Service:     "Heater repair",
		Description: "No heat since Sunday",
		Start:       day(t).Add(16 * time.Hour),
		SMSOptIn:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt123", appt.EventID)
	assert.Equal(t, "Late Afternoon Appointment", appt.Title)
	assert.Equal(t, "3035551212", appt.Phone)
	assert.True(t, appt.SMSOptIn)
	assert.False(t, appt.Offline)
	assert.Contains(t, appt.Description, "Service: Heater repair")
	assert.Equal(t, 16, appt.Start.Hour())

	reminders := api.inserted["reminders"].(map[string]interface{})
	assert.Equal(t, false, reminders["useDefault"])
	assert.Len(t, reminders["overrides"], 2)

	assert.ErrorIs(t, s.DeleteEvent(context.Background(), "missing"), ErrEventNotFound)
}

func TestGoogleReschedule(t *testing.T) {
	d := day(t)
	api := &fakeCalendarAPI{busy: []map[string]string{{
		"start": d.Add(7 * time.Hour).Format(time.RFC3339),
		"end":   d.Add(10 * time.Hour).Format(time.RFC3339),
	}}}
	s := newGoogleService(t, api)

	_, err := s.Reschedule(context.Background(), "evt123", d.Add(7*time.Hour))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, err = s.Reschedule(context.Background(), "evt123", d.Add(9*time.Hour))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	appt, err := s.Reschedule(context.Background(), "evt123", d.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "evt123", appt.EventID)
	assert.Equal(t, "Late Morning Appointment", appt.Title)
	assert.Equal(t, 10, appt.Start.Hour())
	assert.Equal(t, 13, appt.End.Hour())
	assert.Equal(t, "Late Morning Appointment", api.patched["summary"])
}

package calendar

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"spadoc/internal/domain"
)

const (
	defaultCalendarID = "primary"
	maxListResults    = 100

	propPhone    = "customerPhone"
	propSMSOptIn = "smsOptIn"
)

type googleBackend struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

func newGoogleBackend(ctx context.Context, cfg Config, loc *time.Location, opts ...option.ClientOption) (*googleBackend, error) {
	if len(opts) == 0 {
		jwtCfg := &jwt.Config{
			Email:        cfg.ClientEmail,
			PrivateKey:   []byte(cfg.PrivateKey),
			PrivateKeyID: cfg.PrivateKeyID,
			Scopes:       []string{gcal.CalendarScope},
			TokenURL:     google.JWTTokenURL,
		}
		opts = []option.ClientOption{option.WithHTTPClient(jwtCfg.Client(ctx))}
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	id := cfg.CalendarID
	if id == "" {
		id = defaultCalendarID
	}
	return &googleBackend{svc: svc, calendarID: id, loc: loc}, nil
}

func (g *googleBackend) busy(ctx context.Context, from, to time.Time) ([]period, error) {
	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: g.loc.String(),
		Items:    []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return nil, nil
	}
	out := make([]period, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err1 := time.Parse(time.RFC3339, b.Start)
		end, err2 := time.Parse(time.RFC3339, b.End)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, period{start: start, end: end})
	}
	return out, nil
}

func (g *googleBackend) insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	ev := &gcal.Event{
		Summary:     appt.Title,
		Description: appt.Description,
		Location:    appt.Location,
		Start:       g.eventTime(appt.Start),
		End:         g.eventTime(appt.End),
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if appt.Phone != "" {
		ev.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{
				propPhone:    appt.Phone,
				propSMSOptIn: strconv.FormatBool(appt.SMSOptIn),
			},
		}
	}

	created, err := g.svc.Events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return domain.Appointment{}, err
	}
	return g.toAppointment(created), nil
}

func (g *googleBackend) get(ctx context.Context, eventID string) (domain.Appointment, error) {
	ev, err := g.svc.Events.Get(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return domain.Appointment{}, mapNotFound(err)
	}
	return g.toAppointment(ev), nil
}

func (g *googleBackend) list(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	resp, err := g.svc.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(maxListResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Appointment, 0, len(resp.Items))
	for _, ev := range resp.Items {
		out = append(out, g.toAppointment(ev))
	}
	return out, nil
}

func (g *googleBackend) patch(ctx context.Context, eventID string, p EventPatch) (domain.Appointment, error) {
	ev := &gcal.Event{
		Summary: p.Title,
		Start:   g.eventTime(p.Start),
		End:     g.eventTime(p.End),
	}

	updated, err := g.svc.Events.Patch(g.calendarID, eventID, ev).Context(ctx).Do()
	if err != nil {
		return domain.Appointment{}, mapNotFound(err)
	}
	return g.toAppointment(updated), nil
}

func (g *googleBackend) remove(ctx context.Context, eventID string) error {
	return mapNotFound(g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do())
}

func (g *googleBackend) eventTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.In(g.loc).Format(time.RFC3339),
		TimeZone: g.loc.String(),
	}
}

func (g *googleBackend) toAppointment(ev *gcal.Event) domain.Appointment {
	appt := domain.Appointment{
		EventID:      ev.Id,
		Title:        ev.Summary,
		Description:  ev.Description,
		Location:     ev.Location,
		CalendarLink: ev.HtmlLink,
		Start:        parseEventTime(ev.Start, g.loc),
		End:          parseEventTime(ev.End, g.loc),
	}
	if ev.ExtendedProperties != nil {
		appt.Phone = ev.ExtendedProperties.Private[propPhone]
		appt.SMSOptIn = ev.ExtendedProperties.Private[propSMSOptIn] == "true"
	}
	return appt
}

func parseEventTime(dt *gcal.EventDateTime, loc *time.Location) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return t.In(loc)
	}
	// all-day events carry only a date
	if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
		return t
	}
	return time.Time{}
}

func mapNotFound(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return ErrEventNotFound
	}
	return err
}

// Package sms texts appointment confirmations, reminders and cancellations
// to customers through Twilio.
package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"spadoc/internal/domain"
	"spadoc/internal/metrics"
	"spadoc/pkg/logger"
	"spadoc/pkg/utils"
)

// Message kinds
const (
	KindConfirmation = "confirmation"
	KindReminder     = "reminder"
	KindCancellation = "cancellation"
)

// StatusNotConfigured is reported when Twilio credentials are missing
const StatusNotConfigured = "not_configured"

const businessPhone = "(856) 266-7293"

// Transport delivers one text message
type Transport interface {
	Send(ctx context.Context, to, body string) (sid, status string, err error)
}

// Config holds Twilio credentials
type Config struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// Configured reports whether every credential is present
func (c Config) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.PhoneNumber != ""
}

// Service formats and sends appointment texts. Times are shown in the
// business time zone.
type Service struct {
	transport Transport
	loc       *time.Location
	metrics   metrics.Recorder
	log       *logger.Logger
}

// New returns a Twilio backed service, or one that only logs when
// credentials are missing
func New(cfg Config, loc *time.Location, rec metrics.Recorder, log *logger.Logger) *Service {
	log = log.Component("sms")
	var transport Transport
	if cfg.Configured() {
		transport = newTwilioTransport(cfg)
	} else {
		log.Warn("Twilio credentials not configured, SMS disabled")
	}
	return NewWithTransport(transport, loc, rec, log)
}

// NewWithTransport builds a service on an explicit transport. A nil
// transport disables sending.
func NewWithTransport(transport Transport, loc *time.Location, rec metrics.Recorder, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{transport: transport, loc: loc, metrics: rec, log: log}
}

// Enabled reports whether texts are actually sent
func (s *Service) Enabled() bool {
	return s.transport != nil
}

// SendConfirmation texts the booking details to the customer
func (s *Service) SendConfirmation(ctx context.Context, phone string, appt domain.Appointment) domain.SMSResult {
	var b strings.Builder
	b.WriteString("Hi! Your appointment has been confirmed with Spa Doctors:\n\n")
	fmt.Fprintf(&b, "%s\n", appt.Title)
	fmt.Fprintf(&b, "%s\n", appt.Start.In(s.loc).Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "%s - %s\n", s.clock(appt.Start), s.clock(appt.End))
	fmt.Fprintf(&b, "%s\n", locationOrTBD(appt.Location))
	if appt.Description != "" {
		fmt.Fprintf(&b, "\nDetails: %s\n", appt.Description)
	}
	if appt.CalendarLink != "" {
		fmt.Fprintf(&b, "\nAdd to your calendar: %s\n", appt.CalendarLink)
	}
	fmt.Fprintf(&b, "\nQuestions? Call us at %s or reply to this message.\n\n- Spa Doctors Team", businessPhone)

	return s.send(ctx, KindConfirmation, phone, b.String())
}

// SendReminder texts a day-before reminder
func (s *Service) SendReminder(ctx context.Context, notice domain.AppointmentNotice) domain.SMSResult {
	body := fmt.Sprintf(`Reminder: Your Spa Doctors appointment is tomorrow!

%s
%s
%s
%s

We look forward to helping you with your hot tub service needs!

Need to reschedule? Call %s

- Spa Doctors Team`,
		notice.Title,
		notice.Start.In(s.loc).Format("January 2"),
		s.clock(notice.Start),
		locationOrTBD(notice.Location),
		businessPhone,
	)
	return s.send(ctx, KindReminder, notice.Phone, body)
}

// SendCancellation texts a cancellation notice
func (s *Service) SendCancellation(ctx context.Context, notice domain.AppointmentNotice) domain.SMSResult {
	body := fmt.Sprintf(`Your Spa Doctors appointment has been cancelled:

%s
%s
%s

Need to reschedule? Visit spadoc.tech/schedule or call %s

Thank you for choosing Spa Doctors!

- Spa Doctors Team`,
		notice.Title,
		notice.Start.In(s.loc).Format("Monday, January 2"),
		s.clock(notice.Start),
		businessPhone,
	)
	return s.send(ctx, KindCancellation, notice.Phone, body)
}

func (s *Service) clock(t time.Time) string {
	return t.In(s.loc).Format("3:04 PM")
}

func locationOrTBD(loc string) string {
	if strings.TrimSpace(loc) == "" {
		return "Location TBD"
	}
	return loc
}

func (s *Service) send(ctx context.Context, kind, phone, body string) domain.SMSResult {
	log := s.log.WithField("kind", kind)
	if s.transport == nil {
		s.metrics.RecordSMS(kind, metrics.OutcomeSkipped)
		log.Info("SMS disabled, message not sent")
		return domain.SMSResult{Status: StatusNotConfigured, Error: "SMS service not configured"}
	}

	sid, status, err := s.transport.Send(ctx, utils.FormatPhoneForSMS(phone), body)
	if err != nil {
		s.metrics.RecordSMS(kind, metrics.OutcomeFailed)
		log.WithError(err).Error("Failed to send SMS")
		return domain.SMSResult{Error: err.Error()}
	}

	s.metrics.RecordSMS(kind, metrics.OutcomeSent)
	log.WithField("sid", sid).Info("SMS sent")
	return domain.SMSResult{Success: true, MessageSID: sid, Status: status}
}

type twilioTransport struct {
	client *twilio.RestClient
	from   string
}

func newTwilioTransport(cfg Config) *twilioTransport {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &twilioTransport{client: client, from: cfg.PhoneNumber}
}

func (t *twilioTransport) Send(ctx context.Context, to, body string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", "", fmt.Errorf("twilio create message: %w", err)
	}

	var sid, status string
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	if resp.Status != nil {
		status = *resp.Status
	}
	return sid, status, nil
}

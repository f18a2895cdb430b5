package domain

import "time"

// Slot periods
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

// TimeSlot is a bookable service window
type TimeSlot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Title       string    `json:"title"`
	Period      string    `json:"period"`
	DisplayName string    `json:"displayName"`
	Available   bool      `json:"available"`
}

// AppointmentRequest is the public booking form
type AppointmentRequest struct {
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	Service     string    `json:"service"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	SMSOptIn    bool      `json:"smsOptIn"`
}

// Appointment is a booked slot
type Appointment struct {
	EventID      string    `json:"eventId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Start        time.Time `json:"startDateTime"`
	End          time.Time `json:"endDateTime"`
	CalendarLink string    `json:"calendarLink,omitempty"`
	Phone        string    `json:"customerPhone,omitempty"`
	SMSOptIn     bool      `json:"smsOptIn"`
	Offline      bool      `json:"offline"`
}

// Notice returns the fields a reminder or cancellation text needs
func (a Appointment) Notice() AppointmentNotice {
	return AppointmentNotice{Phone: a.Phone, Title: a.Title, Location: a.Location, Start: a.Start}
}

// AppointmentNotice identifies an appointment for a reminder or cancellation text
type AppointmentNotice struct {
	Phone    string    `json:"phone"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Start    time.Time `json:"startDateTime"`
}

// SMSResult reports the outcome of one text message
type SMSResult struct {
	Success    bool   `json:"success"`
	MessageSID string `json:"messageSid,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

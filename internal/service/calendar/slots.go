package calendar

import (
	"time"
	_ "time/tzdata"

	"spadoc/internal/domain"
)

// BusinessTimeZone is where appointments take place
const BusinessTimeZone = "America/Denver"

type slotTemplate struct {
	title       string
	period      string
	displayName string
	startHour   int
	endHour     int
}

// Service windows offered each day
var dailySlots = []slotTemplate{
	{"Early Morning Appointment", domain.PeriodMorning, "7:00 AM - 10:00 AM", 7, 10},
	{"Late Morning Appointment", domain.PeriodMorning, "10:00 AM - 1:00 PM", 10, 13},
	{"Early Afternoon Appointment", domain.PeriodAfternoon, "2:00 PM - 5:00 PM", 14, 17},
	{"Late Afternoon Appointment", domain.PeriodAfternoon, "4:00 PM - 7:00 PM", 16, 19},
}

// BusinessLocation returns the business time zone, or UTC if it cannot load
func BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(BusinessTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidPeriod reports whether p is empty (all day) or a known period
func ValidPeriod(p string) bool {
	return p == "" || p == domain.PeriodMorning || p == domain.PeriodAfternoon
}

// SlotsForDay returns the day's slots in loc, filtered by period when set.
// Every slot starts out available.
func SlotsForDay(day time.Time, period string, loc *time.Location) []domain.TimeSlot {
	y, m, d := day.In(loc).Date()
	slots := make([]domain.TimeSlot, 0, len(dailySlots))
	for _, t := range dailySlots {
		if period != "" && t.period != period {
			continue
		}
		slots = append(slots, domain.TimeSlot{
			Start:       time.Date(y, m, d, t.startHour, 0, 0, 0, loc),
			End:         time.Date(y, m, d, t.endHour, 0, 0, 0, loc),
			Title:       t.title,
			Period:      t.period,
			DisplayName: t.displayName,
			Available:   true,
		})
	}
	return slots
}

// SlotAt returns the slot starting exactly at start
func SlotAt(start time.Time, loc *time.Location) (domain.TimeSlot, bool) {
	for _, s := range SlotsForDay(start, "", loc) {
		if s.Start.Equal(start) {
			return s, true
		}
	}
	return domain.TimeSlot{}, false
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

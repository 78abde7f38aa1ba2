// Package calendar decides which dates are working days for a shift,
// using the Italian public holiday calendar.
package calendar

import (
	"time"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

type monthDay struct {
	month time.Month
	day   int
}

var fixedHolidays = map[monthDay]string{
	{time.January, 1}:   "Capodanno",
	{time.January, 6}:   "Epifania",
	{time.April, 25}:    "Festa della Liberazione",
	{time.May, 1}:       "Festa dei Lavoratori",
	{time.June, 2}:      "Festa della Repubblica",
	{time.August, 15}:   "Ferragosto",
	{time.November, 1}:  "Ognissanti",
	{time.December, 8}:  "Immacolata Concezione",
	{time.December, 25}: "Natale",
	{time.December, 26}: "Santo Stefano",
}

// Easter returns Gregorian Easter Sunday for year (Meeus/Jones/Butcher).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// HolidayName returns the holiday falling on date, or "" on ordinary days.
func HolidayName(date time.Time) string {
	if name, ok := fixedHolidays[monthDay{date.Month(), date.Day()}]; ok {
		return name
	}
	easter := Easter(date.Year())
	if sameDay(date, easter) {
		return "Pasqua"
	}
	if sameDay(date, easter.AddDate(0, 0, 1)) {
		return "Lunedì dell'Angelo"
	}
	return ""
}

func IsHoliday(date time.Time) bool {
	return HolidayName(date) != ""
}

// IsWorkingDay reports whether date is a required day for shift.
// A nil shift requires every day.
func IsWorkingDay(date time.Time, shift *domain.ShiftType) bool {
	if shift == nil {
		return true
	}
	if !shift.IncludeWeekends && IsWeekend(date) {
		return false
	}
	if !shift.IncludeHolidays && IsHoliday(date) {
		return false
	}
	return true
}

// IsPreHoliday is true on Fridays and on the eve of a holiday.
func IsPreHoliday(date time.Time) bool {
	if date.Weekday() == time.Friday {
		return true
	}
	return IsHoliday(date.AddDate(0, 0, 1))
}

// ISOWeekday maps Monday..Sunday to 1..7.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GridBounds returns the first and last dates of the Monday-first, seven
// column grid that displays the month. The range may start in the previous
// month and end in the next one.
func GridBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -(ISOWeekday(first) - 1))
	end := last.AddDate(0, 0, 7-ISOWeekday(last))
	return start, end
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

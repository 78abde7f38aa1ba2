// Package timeofday converts between HH:MM strings and minutes of the day.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	// MinutesPerDay bounds every time of day: valid values are 0..MinutesPerDay-1.
	MinutesPerDay = 24 * 60
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ToMinutes parses HH:MM into minutes after midnight.
func ToMinutes(t string) (int, error) {
	m := clockPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, domain.InvalidFormat("time", t, "HH:MM")
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}

// FromMinutes formats minutes after midnight as HH:MM.
func FromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Duration returns end-start in minutes, or 0 when the range is empty,
// inverted or unparsable.
func Duration(start, end string) int {
	s, err := ToMinutes(start)
	if err != nil {
		return 0
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0
	}
	if e <= s {
		return 0
	}
	return e - s
}

// ValidateStep checks format and that minutes fall on a quarter hour.
func ValidateStep(t string) error {
	m, err := ToMinutes(t)
	if err != nil {
		return err
	}
	switch m % 60 {
	case 0, 15, 30, 45:
		return nil
	}
	return domain.InvalidStep(t)
}

// ValidateDate accepts YYYY-MM-DD strings naming a real calendar date.
func ValidateDate(d string) error {
	_, err := ParseDate(d)
	return err
}

// ParseDate parses YYYY-MM-DD at midnight UTC.
func ParseDate(d string) (time.Time, error) {
	if !datePattern.MatchString(d) {
		return time.Time{}, domain.InvalidFormat("date", d, "YYYY-MM-DD")
	}
	t, err := time.Parse(DateLayout, d)
	if err != nil || t.Format(DateLayout) != d {
		return time.Time{}, domain.InvalidFormat("date", d, "YYYY-MM-DD")
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Add moves t forward by minutes. The result must stay within the same day.
func Add(t string, minutes int) (string, error) {
	m, err := ToMinutes(t)
	if err != nil {
		return "", err
	}
	end := m + minutes
	if minutes <= 0 {
		return "", domain.InvalidRange("duration must be positive")
	}
	if end >= MinutesPerDay {
		return "", domain.InvalidRange(fmt.Sprintf("activity starting at %s would end after 23:59", t))
	}
	return FromMinutes(end), nil
}

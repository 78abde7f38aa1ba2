package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/calendar"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/summary"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/timeofday"
)

// ShiftForUser resolves the shift that decides which of the user's days are
// required. A nil shift makes every day required.
func (e Engine) ShiftForUser(ctx context.Context, userKey string) (*domain.ShiftType, error) {
	cfg, err := e.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return e.userShift(ctx, cfg, userKey)
}

// GetMonthCalendar builds the day-by-day view of a month for one user.
func (e Engine) GetMonthCalendar(ctx context.Context, userKey string, year, month int, shift *domain.ShiftType) (domain.MonthCalendar, error) {
	if err := checkMonth(year, month); err != nil {
		return domain.MonthCalendar{}, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.MonthCalendar{}, err
	}
	m := time.Month(month)
	first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, m, calendar.DaysInMonth(year, m), 0, 0, 0, 0, time.UTC)
	list, err := e.Repo.ListActivitiesInRange(ctx, userKey, timeofday.FormatDate(first), timeofday.FormatDate(last))
	if err != nil {
		return domain.MonthCalendar{}, err
	}
	byDate := groupByDate(summary.Annotate(list))
	today := e.today(cfg)
	limit := cfg.Calendar.PreviewLimit

	cal := domain.MonthCalendar{
		Year:            year,
		Month:           month,
		RequiredMinutes: cfg.Activities.RequiredMinutes,
		ShiftType:       shift,
		Days:            make([]domain.CalendarDay, 0, last.Day()),
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := buildDay(d, byDate[timeofday.FormatDate(d)], cfg, shift, today)
		if limit > 0 && len(day.Activities) > limit {
			day.Activities = day.Activities[:limit]
		}
		cal.Days = append(cal.Days, day)
	}
	return cal, nil
}

// GetIrregularDaysOutsideMonth scans the days of the adjacent months that
// share a week with the requested month and returns those not OK.
func (e Engine) GetIrregularDaysOutsideMonth(ctx context.Context, userKey string, year, month int, shift *domain.ShiftType) ([]domain.Irregularity, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return nil, err
	}
	m := time.Month(month)
	first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, m, calendar.DaysInMonth(year, m), 0, 0, 0, 0, time.UTC)
	gridStart, gridEnd := calendar.GridBounds(year, m)
	out := []domain.Irregularity{}
	if gridStart.Equal(first) && gridEnd.Equal(last) {
		return out, nil
	}
	list, err := e.Repo.ListActivitiesInRange(ctx, userKey, timeofday.FormatDate(gridStart), timeofday.FormatDate(gridEnd))
	if err != nil {
		return nil, err
	}
	byDate := groupByDate(summary.Annotate(list))
	today := e.today(cfg)
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		if !d.Before(first) && !d.After(last) {
			continue
		}
		day := buildDay(d, byDate[timeofday.FormatDate(d)], cfg, shift, today)
		if day.Status != domain.StatusOK {
			out = append(out, domain.Irregularity{Date: day.Date, Status: day.Status, StatusCode: day.StatusCode})
		}
	}
	return out, nil
}

// MonitorDay reports, for every known user and anyone who logged time that
// day, whether the date was required and how complete it is.
func (e Engine) MonitorDay(ctx context.Context, date string) ([]domain.MonitorEntry, error) {
	day, err := timeofday.ParseDate(date)
	if err != nil {
		return nil, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return nil, err
	}
	users, err := e.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	list, err := e.Repo.ListActivitiesOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	byUser := map[string][]domain.Activity{}
	for _, a := range list {
		byUser[a.UserKey] = append(byUser[a.UserKey], a)
	}
	known := map[string]domain.User{}
	for _, u := range users {
		known[u.Key] = u
	}
	for key := range byUser {
		if _, ok := known[key]; !ok {
			known[key] = domain.User{Key: key}
		}
	}
	isFuture := date > e.today(cfg)
	out := make([]domain.MonitorEntry, 0, len(known))
	for _, key := range sortedKeys(known) {
		u := known[key]
		shift := cfg.ShiftFor(u.ShiftTypeID)
		required := calendar.IsWorkingDay(day, shift)
		s := summary.Daily(summary.Annotate(byUser[key]), cfg.Activities.RequiredMinutes)
		status := summary.Status(s, required, isFuture)
		entry := domain.MonitorEntry{
			UserKey:     key,
			DisplayName: u.DisplayName,
			IsRequired:  required,
			Summary:     s,
			Status:      status,
			StatusCode:  status.Code(),
		}
		if shift != nil {
			entry.ShiftTypeID = shift.ID
		}
		out = append(out, entry)
	}
	return out, nil
}

func buildDay(d time.Time, activities []domain.Activity, cfg *config.Config, shift *domain.ShiftType, today string) domain.CalendarDay {
	date := timeofday.FormatDate(d)
	if activities == nil {
		activities = []domain.Activity{}
	}
	required := calendar.IsWorkingDay(d, shift)
	future := date > today
	s := summary.Daily(activities, cfg.Activities.RequiredMinutes)
	status := summary.Status(s, required, future)
	holiday := calendar.HolidayName(d)
	return domain.CalendarDay{
		Date:          date,
		Weekday:       calendar.ISOWeekday(d),
		IsRequired:    required,
		IsFuture:      future,
		IsHoliday:     holiday != "",
		HolidayName:   holiday,
		IsPreHoliday:  calendar.IsPreHoliday(d),
		Activities:    activities,
		ActivityCount: len(activities),
		Summary:       s,
		Status:        status,
		StatusCode:    status.Code(),
	}
}

func checkMonth(year, month int) error {
	if month < 1 || month > 12 {
		return &domain.Error{Kind: domain.KindInvalidInput, Message: fmt.Sprintf("month %d out of range", month), Fields: map[string]string{"month": "min=1,max=12"}}
	}
	if year < 1 || year > 9999 {
		return &domain.Error{Kind: domain.KindInvalidInput, Message: fmt.Sprintf("year %d out of range", year), Fields: map[string]string{"year": "min=1,max=9999"}}
	}
	return nil
}

func groupByDate(activities []domain.Activity) map[string][]domain.Activity {
	out := map[string][]domain.Activity{}
	for _, a := range activities {
		out[a.Date] = append(out[a.Date], a)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

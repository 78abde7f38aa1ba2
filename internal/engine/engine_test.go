package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/db"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/events"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/migrate"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

// newTestEnv opens a fresh workspace whose clock reads 2025-01-15 10:00 in Rome.
func newTestEnv(t *testing.T, mutate ...func(*config.Config)) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	cfg := config.Default()
	for _, fn := range mutate {
		fn(cfg)
	}
	eng := engine.New(conn, cfg)
	eng.Logger = nil
	eng.Now = func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func strict(cfg *config.Config) { cfg.Activities.StrictContinuity = true }

func (env testEnv) create(t *testing.T, date, start, end, typ string) domain.Activity {
	t.Helper()
	a, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: date, StartTime: start, EndTime: end, ActivityType: typ,
	})
	require.NoError(t, err)
	return a
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, kind, de.Kind, "got %v", err)
	return de
}

func TestCreateOnEmptyDay(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	require.Equal(t, 240, a.DurationMinutes)
	require.NotEmpty(t, a.ID)
	require.Equal(t, "mario", a.UserKey)

	day, err := env.Engine.GetDayActivities(env.Ctx, "mario", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, day.Activities, 1)
	require.Equal(t, 240, day.Summary.TotalMinutes)
	require.Equal(t, domain.StatusIncomplete, day.Status)
	require.Equal(t, "INCOMPLETO", day.StatusCode)
}

func TestCreateRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")

	_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "12:00", EndTime: "14:00", ActivityType: "lavoro",
	})
	de := requireKind(t, err, domain.KindTimeOverlap)
	require.NotNil(t, de.Conflicting)
	require.Equal(t, a.ID, de.Conflicting.ID)

	// touching endpoints are fine
	env.create(t, "2025-01-10", "13:00", "14:00", "lavoro")
	// other users are independent
	_, err = env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "luigi", Date: "2025-01-10", StartTime: "12:00", EndTime: "14:00", ActivityType: "lavoro",
	})
	require.NoError(t, err)
}

func TestStrictContinuity(t *testing.T) {
	env := newTestEnv(t, strict)
	env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	env.create(t, "2025-01-10", "13:00", "17:00", "lavoro")

	env.create(t, "2025-01-13", "09:00", "13:00", "lavoro")
	_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-13", StartTime: "13:30", EndTime: "17:00", ActivityType: "lavoro",
	})
	de := requireKind(t, err, domain.KindNonContiguous)
	require.Equal(t, "13:00", de.ExpectedStartTime)
	require.Equal(t, "13:30", de.ProvidedStartTime)

	// first activity of a day may start anywhere
	env.create(t, "2025-01-14", "14:45", "15:00", "lavoro")
}

func TestRelaxedContinuityAllowsGaps(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-10", "09:00", "10:00", "lavoro")
	env.create(t, "2025-01-10", "11:00", "12:00", "lavoro")
	env.create(t, "2025-01-10", "07:00", "08:00", "lavoro")
}

func TestFullDayIsComplete(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	env.create(t, "2025-01-10", "13:00", "17:00", "lavoro")

	day, err := env.Engine.GetDayActivities(env.Ctx, "mario", "2025-01-10")
	require.NoError(t, err)
	require.True(t, day.Summary.IsComplete)
	require.Equal(t, 100, day.Summary.CompletionPercentage)
	require.False(t, day.Summary.IsOvertime)
	require.Equal(t, domain.StatusOK, day.Status)
	require.Equal(t, "09:00", day.Activities[0].StartTime)
}

func TestCustomTypeRules(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "09:00", EndTime: "10:00", ActivityType: "altro", CustomType: "  ",
	})
	requireKind(t, err, domain.KindMissingCustomType)

	a, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "09:00", EndTime: "10:00", ActivityType: "altro", CustomType: "Corso interno",
	})
	require.NoError(t, err)
	require.Equal(t, "Corso interno", a.CustomType)

	b, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "10:00", EndTime: "11:00", ActivityType: "lavoro", CustomType: "ignored",
	})
	require.NoError(t, err)
	require.Empty(t, b.CustomType)

	_, err = env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "11:00", EndTime: "12:00", ActivityType: "pausa",
	})
	de := requireKind(t, err, domain.KindInvalidActivityType)
	require.Contains(t, de.AllowedTypes, "altro")
}

func TestCreateValidatesTimes(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		date, start, end string
		kind             domain.ErrorKind
	}{
		{"2025-02-30", "09:00", "10:00", domain.KindInvalidFormat},
		{"2025-01-10", "9:00", "10:00", domain.KindInvalidFormat},
		{"2025-01-10", "09:10", "10:00", domain.KindInvalidStep},
		{"2025-01-10", "10:00", "10:00", domain.KindInvalidRange},
		{"2025-01-10", "11:00", "10:00", domain.KindInvalidRange},
	}
	for _, tc := range cases {
		_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
			UserKey: "mario", Date: tc.date, StartTime: tc.start, EndTime: tc.end, ActivityType: "lavoro",
		})
		requireKind(t, err, tc.kind)
	}

	_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{Date: "2025-01-10", StartTime: "09:00", EndTime: "10:00", ActivityType: "lavoro"})
	de := requireKind(t, err, domain.KindInvalidInput)
	require.Equal(t, "required", de.Fields["userKey"])
}

func TestCreateFromDuration(t *testing.T) {
	env := newTestEnv(t, strict)
	a, err := env.Engine.CreateActivityFromDuration(env.Ctx, engine.DurationInput{
		UserKey: "mario", Date: "2025-01-10", DurationHours: 4, ActivityType: "lavoro",
	})
	require.NoError(t, err)
	require.Equal(t, "09:00", a.StartTime)
	require.Equal(t, "13:00", a.EndTime)

	b, err := env.Engine.CreateActivityFromDuration(env.Ctx, engine.DurationInput{
		UserKey: "mario", Date: "2025-01-10", DurationHours: 2, DurationMinutes: 30, ActivityType: "formazione",
	})
	require.NoError(t, err)
	require.Equal(t, "13:00", b.StartTime)
	require.Equal(t, "15:30", b.EndTime)
	require.Equal(t, 150, b.DurationMinutes)

	_, err = env.Engine.CreateActivityFromDuration(env.Ctx, engine.DurationInput{
		UserKey: "mario", Date: "2025-01-10", DurationMinutes: 20, ActivityType: "lavoro",
	})
	requireKind(t, err, domain.KindInvalidInput)

	_, err = env.Engine.CreateActivityFromDuration(env.Ctx, engine.DurationInput{
		UserKey: "mario", Date: "2025-01-10", ActivityType: "lavoro",
	})
	requireKind(t, err, domain.KindInvalidRange)

	_, err = env.Engine.CreateActivityFromDuration(env.Ctx, engine.DurationInput{
		UserKey: "mario", Date: "2025-01-10", DurationHours: 9, ActivityType: "lavoro",
	})
	requireKind(t, err, domain.KindInvalidRange)
}

func TestUpdateActivity(t *testing.T) {
	env := newTestEnv(t, strict)
	a := env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	b := env.create(t, "2025-01-10", "13:00", "17:00", "lavoro")

	start := "12:00"
	_, err := env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: b.ID, StartTime: &start})
	de := requireKind(t, err, domain.KindTimeOverlap)
	require.Equal(t, a.ID, de.Conflicting.ID)

	// continuity is not re-checked on update
	start = "14:00"
	updated, err := env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: b.ID, StartTime: &start})
	require.NoError(t, err)
	require.Equal(t, "14:00", updated.StartTime)
	require.Equal(t, "17:00", updated.EndTime)
	require.Equal(t, 180, updated.DurationMinutes)

	// updating in place without moving never conflicts with itself
	hours, minutes := 1, 45
	updated, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: a.ID, DurationHours: &hours, DurationMinutes: &minutes})
	require.NoError(t, err)
	require.Equal(t, "09:00", updated.StartTime)
	require.Equal(t, "10:45", updated.EndTime)

	other := "altro"
	_, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: a.ID, ActivityType: &other})
	requireKind(t, err, domain.KindMissingCustomType)

	label := "Riunione"
	notes := "trimestrale"
	updated, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: a.ID, ActivityType: &other, CustomType: &label, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, "altro", updated.ActivityType)
	require.Equal(t, "Riunione", updated.CustomType)
	require.Equal(t, "trimestrale", updated.Notes)

	work := "lavoro"
	updated, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: a.ID, ActivityType: &work})
	require.NoError(t, err)
	require.Empty(t, updated.CustomType)

	_, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-11", ID: a.ID, Notes: &notes})
	requireKind(t, err, domain.KindNotFound)
	_, err = env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "luigi", Date: "2025-01-10", ID: a.ID, Notes: &notes})
	requireKind(t, err, domain.KindNotFound)
}

func TestDeleteActivity(t *testing.T) {
	env := newTestEnv(t, strict)
	a := env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	env.create(t, "2025-01-10", "13:00", "17:00", "lavoro")

	found, err := env.Engine.DeleteActivity(env.Ctx, "mario", a.ID, "2025-01-10", "mario")
	require.NoError(t, err)
	require.True(t, found)

	found, err = env.Engine.DeleteActivity(env.Ctx, "mario", a.ID, "2025-01-10", "mario")
	require.NoError(t, err)
	require.False(t, found)

	day, err := env.Engine.GetDayActivities(env.Ctx, "mario", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, day.Activities, 1)
	require.Equal(t, "13:00", day.Activities[0].StartTime)
}

func TestActivitiesRange(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-31", "13:00", "17:00", "lavoro")
	env.create(t, "2025-01-31", "09:00", "13:00", "lavoro")
	env.create(t, "2025-02-01", "09:00", "10:00", "lavoro")
	env.create(t, "2025-02-02", "09:00", "10:00", "lavoro")

	view, err := env.Engine.GetActivitiesRange(env.Ctx, "mario", "2025-01-31", "2025-02-01")
	require.NoError(t, err)
	require.Len(t, view.Activities, 3)
	require.Equal(t, "09:00", view.Activities[0].StartTime)
	require.Len(t, view.DailySummaries, 2)
	require.Equal(t, 480, view.DailySummaries["2025-01-31"].TotalMinutes)
	require.Equal(t, 13, view.DailySummaries["2025-02-01"].CompletionPercentage)

	_, err = env.Engine.GetActivitiesRange(env.Ctx, "mario", "2025-02-02", "2025-02-01")
	requireKind(t, err, domain.KindInvalidRange)
}

func TestMonthCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-10", "09:00", "13:00", "lavoro")
	env.create(t, "2025-01-10", "13:00", "17:00", "lavoro")
	env.create(t, "2025-01-13", "09:00", "10:00", "lavoro")
	env.create(t, "2025-01-13", "10:00", "11:00", "lavoro")
	env.create(t, "2025-01-13", "11:00", "12:00", "lavoro")
	env.create(t, "2025-01-13", "12:00", "13:00", "lavoro")

	shift, err := env.Engine.ShiftForUser(env.Ctx, "mario")
	require.NoError(t, err)
	require.Equal(t, "standard", shift.ID)

	cal, err := env.Engine.GetMonthCalendar(env.Ctx, "mario", 2025, 1, shift)
	require.NoError(t, err)
	require.Len(t, cal.Days, 31)
	require.Equal(t, 480, cal.RequiredMinutes)

	byDate := map[string]domain.CalendarDay{}
	for _, d := range cal.Days {
		byDate[d.Date] = d
	}
	sat := byDate["2025-01-11"]
	require.False(t, sat.IsRequired)
	require.Equal(t, 0, sat.Summary.TotalMinutes)
	require.Equal(t, domain.StatusOK, sat.Status)
	require.Equal(t, 6, sat.Weekday)

	epiphany := byDate["2025-01-06"]
	require.True(t, epiphany.IsHoliday)
	require.False(t, epiphany.IsRequired)

	require.Equal(t, domain.StatusOK, byDate["2025-01-10"].Status)
	require.True(t, byDate["2025-01-10"].IsPreHoliday)
	require.Equal(t, domain.StatusMissing, byDate["2025-01-14"].Status)

	preview := byDate["2025-01-13"]
	require.Equal(t, 4, preview.ActivityCount)
	require.Len(t, preview.Activities, 3)
	require.Equal(t, 240, preview.Summary.TotalMinutes)

	future := byDate["2025-01-20"]
	require.True(t, future.IsFuture)
	require.True(t, future.IsRequired)
	require.Equal(t, domain.StatusOK, future.Status)
}

func TestDayAndCalendarStatusAgree(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-08", "09:00", "12:00", "lavoro")
	env.create(t, "2025-01-09", "09:00", "17:00", "lavoro")
	env.create(t, "2025-01-12", "09:00", "10:00", "lavoro")

	shift, err := env.Engine.ShiftForUser(env.Ctx, "mario")
	require.NoError(t, err)
	cal, err := env.Engine.GetMonthCalendar(env.Ctx, "mario", 2025, 1, shift)
	require.NoError(t, err)
	for _, d := range cal.Days {
		day, err := env.Engine.GetDayActivities(env.Ctx, "mario", d.Date)
		require.NoError(t, err)
		require.Equal(t, d.Status, day.Status, d.Date)
		require.Equal(t, d.Summary, day.Summary, d.Date)
	}
}

func TestIrregularDaysOutsideMonth(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2024-12-30", "09:00", "17:00", "lavoro")

	shift, err := env.Engine.ShiftForUser(env.Ctx, "mario")
	require.NoError(t, err)
	got, err := env.Engine.GetIrregularDaysOutsideMonth(env.Ctx, "mario", 2025, 1, shift)
	require.NoError(t, err)
	require.Equal(t, []domain.Irregularity{
		{Date: "2024-12-31", Status: domain.StatusMissing, StatusCode: "ASSENTE"},
	}, got)

	// every day required: the February weekend is still in the future
	all, err := env.Engine.GetIrregularDaysOutsideMonth(env.Ctx, "mario", 2025, 1, nil)
	require.NoError(t, err)
	var dates []string
	for _, irr := range all {
		dates = append(dates, irr.Date)
	}
	require.Equal(t, []string{"2024-12-31"}, dates)

	_, err = env.Engine.GetMonthCalendar(env.Ctx, "mario", 2025, 13, shift)
	requireKind(t, err, domain.KindInvalidInput)
}

func TestMonitorDay(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateUser(env.Ctx, engine.CreateUserInput{Key: "mario", DisplayName: "Mario Rossi"})
	require.NoError(t, err)
	_, err = env.Engine.CreateUser(env.Ctx, engine.CreateUserInput{Key: "luigi", ShiftTypeID: "continuo"})
	require.NoError(t, err)
	_, err = env.Engine.CreateUser(env.Ctx, engine.CreateUserInput{Key: "peach", ShiftTypeID: "nope"})
	requireKind(t, err, domain.KindInvalidInput)
	_, err = env.Engine.CreateUser(env.Ctx, engine.CreateUserInput{Key: "mario"})
	requireKind(t, err, domain.KindInvalidInput)

	_, err = env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "toad", Date: "2025-01-11", StartTime: "09:00", EndTime: "11:00", ActivityType: "lavoro",
	})
	require.NoError(t, err)

	entries, err := env.Engine.MonitorDay(env.Ctx, "2025-01-11")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "luigi", entries[0].UserKey)
	require.True(t, entries[0].IsRequired)
	require.Equal(t, "ASSENTE", entries[0].StatusCode)
	require.Equal(t, "mario", entries[1].UserKey)
	require.Equal(t, "Mario Rossi", entries[1].DisplayName)
	require.False(t, entries[1].IsRequired)
	require.Equal(t, domain.StatusOK, entries[1].Status)
	require.Equal(t, "toad", entries[2].UserKey)
	require.Equal(t, 120, entries[2].Summary.TotalMinutes)
}

func TestSettingsSnapshotApplies(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "2025-01-10", "09:00", "10:00", "lavoro")
	env.create(t, "2025-01-10", "11:00", "12:00", "lavoro")

	cfg := config.Default()
	cfg.Activities.StrictContinuity = true
	cfg.Activities.RequiredMinutes = 120
	cfg.Activities.Types = []string{"lavoro", "smart"}
	_, err := env.Engine.UpdateSettings(env.Ctx, cfg, "boss")
	require.NoError(t, err)

	_, err = env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "13:00", EndTime: "14:00", ActivityType: "smart",
	})
	requireKind(t, err, domain.KindNonContiguous)

	day, err := env.Engine.GetDayActivities(env.Ctx, "mario", "2025-01-10")
	require.NoError(t, err)
	require.True(t, day.Summary.IsComplete)

	bad := config.Default()
	bad.Activities.RequiredMinutes = 0
	_, err = env.Engine.UpdateSettings(env.Ctx, bad, "boss")
	requireKind(t, err, domain.KindInvalidInput)
}

func TestWritesAppendEvents(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, "2025-01-10", "09:00", "10:00", "lavoro")
	notes := "x"
	_, err := env.Engine.UpdateActivity(env.Ctx, engine.UpdateActivityInput{UserKey: "mario", Date: "2025-01-10", ID: a.ID, Notes: &notes})
	require.NoError(t, err)
	_, err = env.Engine.DeleteActivity(env.Ctx, "mario", a.ID, "2025-01-10", "boss")
	require.NoError(t, err)

	evts, err := env.Engine.ListEvents(env.Ctx, repo.EventFilter{EntityID: a.ID})
	require.NoError(t, err)
	require.Len(t, evts, 3)
	require.Equal(t, events.ActivityDeleted, evts[0].Type)
	require.Equal(t, "boss", evts[0].ActorID)
	require.Equal(t, events.ActivityCreated, evts[2].Type)
	require.Equal(t, "mario", evts[2].ActorID)
}

func TestConcurrentCreatesKeepDayConsistent(t *testing.T) {
	env := newTestEnv(t)
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
				UserKey: "mario", Date: "2025-01-10", StartTime: "09:00", EndTime: "10:00", ActivityType: "lavoro",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.Equal(t, domain.KindTimeOverlap, domain.KindOf(err))
	}
	require.Equal(t, 1, ok)
}

func TestConcurrentCreatesForDifferentUsers(t *testing.T) {
	env := newTestEnv(t)
	const users = 16
	windows := [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}, {"12:00", "13:00"}}
	var wg sync.WaitGroup
	errs := make(chan error, users*len(windows))
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userKey string) {
			defer wg.Done()
			for _, w := range windows {
				_, err := env.Engine.CreateActivity(env.Ctx, engine.CreateActivityInput{
					UserKey: userKey, Date: "2025-01-10", StartTime: w[0], EndTime: w[1], ActivityType: "lavoro",
				})
				errs <- err
			}
		}(fmt.Sprintf("user%02d", i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for i := 0; i < users; i++ {
		day, err := env.Engine.GetDayActivities(env.Ctx, fmt.Sprintf("user%02d", i), "2025-01-10")
		require.NoError(t, err)
		require.Len(t, day.Activities, len(windows))
		require.Equal(t, 240, day.Summary.TotalMinutes)
	}
}

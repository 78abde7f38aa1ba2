package engine

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/calendar"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine/auth"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/events"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/observability"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/rules"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/summary"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/timeofday"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	// Config seeds Settings until an admin stores a settings document.
	Config *config.Config
	Now    func() time.Time
	Logger *log.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	r := repo.New(db)
	return Engine{
		DB:     db,
		Repo:   r,
		Events: events.Writer{DB: db},
		Auth:   auth.Service{Repo: r},
		Config: cfg,
		Now:    time.Now,
		Logger: log.Default(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// Settings returns the snapshot every operation works against: the stored
// document when present, else the seed config.
func (e Engine) Settings(ctx context.Context) (*config.Config, error) {
	cfg, err := e.Repo.GetSettings(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if e.Config != nil {
		return e.Config, nil
	}
	return config.Default(), nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return &domain.Error{Kind: domain.KindInvalidInput, Message: "invalid input", Fields: fields}
}

// observe feeds the outcome of a write into the metrics.
func (e Engine) observe(op string, err error) {
	switch kind := domain.KindOf(err); {
	case err == nil:
		observability.RecordWrite(op, e.now())
	case kind != 0:
		observability.RecordRejection(op, kind.Code())
	default:
		observability.RecordFailure(op)
		e.logf("activity %s failed: %v", op, err)
	}
}

// CreateActivityInput carries an explicit time window.
type CreateActivityInput struct {
	UserKey      string `json:"userKey" validate:"required"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
	ActivityType string `json:"activityType" validate:"required"`
	CustomType   string `json:"customType" validate:"max=100"`
	Notes        string `json:"notes" validate:"max=500"`
	ActorID      string `json:"-"`
}

// DurationInput describes an activity by its length. The start is the end of
// the day's latest activity, or the configured day start.
type DurationInput struct {
	UserKey         string `json:"userKey" validate:"required"`
	Date            string `json:"date" validate:"required"`
	DurationHours   int    `json:"durationHours" validate:"min=0,max=24"`
	DurationMinutes int    `json:"durationMinutes" validate:"oneof=0 15 30 45"`
	ActivityType    string `json:"activityType" validate:"required"`
	CustomType      string `json:"customType" validate:"max=100"`
	Notes           string `json:"notes" validate:"max=500"`
	ActorID         string `json:"-"`
}

// UpdateActivityInput is a partial update; nil fields keep their value.
type UpdateActivityInput struct {
	UserKey         string  `json:"userKey" validate:"required"`
	Date            string  `json:"date" validate:"required"`
	ID              string  `json:"id" validate:"required"`
	StartTime       *string `json:"startTime"`
	EndTime         *string `json:"endTime"`
	DurationHours   *int    `json:"durationHours" validate:"omitempty,min=0,max=24"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,oneof=0 15 30 45"`
	ActivityType    *string `json:"activityType" validate:"omitempty,min=1"`
	CustomType      *string `json:"customType" validate:"omitempty,max=100"`
	Notes           *string `json:"notes" validate:"omitempty,max=500"`
	ActorID         string  `json:"-"`
}

func (e Engine) CreateActivity(ctx context.Context, in CreateActivityInput) (domain.Activity, error) {
	a, err := e.createActivity(ctx, in)
	e.observe("create", err)
	return a, err
}

func (e Engine) createActivity(ctx context.Context, in CreateActivityInput) (domain.Activity, error) {
	if err := validateInput(in); err != nil {
		return domain.Activity{}, err
	}
	if err := timeofday.ValidateDate(in.Date); err != nil {
		return domain.Activity{}, err
	}
	if err := timeofday.ValidateStep(in.StartTime); err != nil {
		return domain.Activity{}, err
	}
	if err := timeofday.ValidateStep(in.EndTime); err != nil {
		return domain.Activity{}, err
	}
	if timeofday.Duration(in.StartTime, in.EndTime) <= 0 {
		return domain.Activity{}, domain.InvalidRange("end time must be after start time")
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := rules.CheckType(in.ActivityType, in.CustomType, cfg.Activities.Types); err != nil {
		return domain.Activity{}, err
	}

	unlock := e.Repo.LockUserMonth(in.UserKey, in.Date)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	existing, err := e.Repo.ListDayActivities(ctx, tx, in.UserKey, in.Date)
	if err != nil {
		return domain.Activity{}, err
	}
	a := e.newActivity(in.UserKey, in.Date, in.ActivityType, in.CustomType, in.Notes)
	a.StartTime, a.EndTime = in.StartTime, in.EndTime
	if err := e.insertChecked(ctx, tx, cfg, a, existing, in.ActorID); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	a.DurationMinutes = timeofday.Duration(a.StartTime, a.EndTime)
	return a, nil
}

// CreateActivityFromDuration places a duration-based activity at the day's
// running cursor and then applies the same checks as CreateActivity.
func (e Engine) CreateActivityFromDuration(ctx context.Context, in DurationInput) (domain.Activity, error) {
	a, err := e.createFromDuration(ctx, in)
	e.observe("create", err)
	return a, err
}

func (e Engine) createFromDuration(ctx context.Context, in DurationInput) (domain.Activity, error) {
	if err := validateInput(in); err != nil {
		return domain.Activity{}, err
	}
	if err := timeofday.ValidateDate(in.Date); err != nil {
		return domain.Activity{}, err
	}
	if in.DurationHours*60+in.DurationMinutes <= 0 {
		return domain.Activity{}, domain.InvalidRange("duration must be positive")
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := rules.CheckType(in.ActivityType, in.CustomType, cfg.Activities.Types); err != nil {
		return domain.Activity{}, err
	}

	unlock := e.Repo.LockUserMonth(in.UserKey, in.Date)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	existing, err := e.Repo.ListDayActivities(ctx, tx, in.UserKey, in.Date)
	if err != nil {
		return domain.Activity{}, err
	}
	w, err := rules.WindowFromDuration(rules.NextStart(existing, cfg.Activities.DayStart), in.DurationHours, in.DurationMinutes)
	if err != nil {
		return domain.Activity{}, err
	}
	a := e.newActivity(in.UserKey, in.Date, in.ActivityType, in.CustomType, in.Notes)
	a.StartTime, a.EndTime = w.Start, w.End
	if err := e.insertChecked(ctx, tx, cfg, a, existing, in.ActorID); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	a.DurationMinutes = timeofday.Duration(a.StartTime, a.EndTime)
	return a, nil
}

func (e Engine) newActivity(userKey, date, activityType, customType, notes string) domain.Activity {
	now := e.now().UTC().Format(time.RFC3339)
	return domain.Activity{
		ID:           uuid.NewString(),
		UserKey:      userKey,
		Date:         date,
		ActivityType: activityType,
		CustomType:   rules.NormalizeCustomType(activityType, customType),
		Notes:        strings.TrimSpace(notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (e Engine) insertChecked(ctx context.Context, tx *sql.Tx, cfg *config.Config, a domain.Activity, existing []domain.Activity, actorID string) error {
	if err := rules.CheckOverlap(rules.Window{Start: a.StartTime, End: a.EndTime}, existing, ""); err != nil {
		return err
	}
	if err := rules.CheckContinuity(a.StartTime, existing, "", cfg.Activities.StrictContinuity); err != nil {
		return err
	}
	if err := e.Repo.InsertActivity(ctx, tx, a); err != nil {
		return err
	}
	return e.Events.Append(ctx, tx, events.ActivityCreated, a.UserKey, "activity", a.ID, actorID, activityPayload(a))
}

func (e Engine) UpdateActivity(ctx context.Context, in UpdateActivityInput) (domain.Activity, error) {
	a, err := e.updateActivity(ctx, in)
	e.observe("update", err)
	return a, err
}

func (e Engine) updateActivity(ctx context.Context, in UpdateActivityInput) (domain.Activity, error) {
	if err := validateInput(in); err != nil {
		return domain.Activity{}, err
	}
	if err := timeofday.ValidateDate(in.Date); err != nil {
		return domain.Activity{}, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.Activity{}, err
	}

	unlock := e.Repo.LockUserMonth(in.UserKey, in.Date)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	cur, err := e.Repo.GetActivity(ctx, tx, in.UserKey, in.Date, in.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Activity{}, domain.NotFound("activity", in.ID)
	}
	if err != nil {
		return domain.Activity{}, err
	}

	merged := cur
	timeChanged := false
	if in.StartTime != nil {
		merged.StartTime = *in.StartTime
		timeChanged = true
	}
	if in.EndTime != nil {
		merged.EndTime = *in.EndTime
		timeChanged = true
	}
	if in.EndTime == nil && (in.DurationHours != nil || in.DurationMinutes != nil) {
		if err := timeofday.ValidateStep(merged.StartTime); err != nil {
			return domain.Activity{}, err
		}
		old := timeofday.Duration(cur.StartTime, cur.EndTime)
		hours, minutes := old/60, old%60
		if in.DurationHours != nil {
			hours = *in.DurationHours
		}
		if in.DurationMinutes != nil {
			minutes = *in.DurationMinutes
		}
		w, err := rules.WindowFromDuration(merged.StartTime, hours, minutes)
		if err != nil {
			return domain.Activity{}, err
		}
		merged.EndTime = w.End
		timeChanged = true
	}
	if in.ActivityType != nil || in.CustomType != nil {
		if in.ActivityType != nil {
			merged.ActivityType = *in.ActivityType
		}
		if in.CustomType != nil {
			merged.CustomType = *in.CustomType
		}
		if err := rules.CheckType(merged.ActivityType, merged.CustomType, cfg.Activities.Types); err != nil {
			return domain.Activity{}, err
		}
		merged.CustomType = rules.NormalizeCustomType(merged.ActivityType, merged.CustomType)
	}
	if in.Notes != nil {
		merged.Notes = strings.TrimSpace(*in.Notes)
	}

	if timeChanged {
		if err := timeofday.ValidateStep(merged.StartTime); err != nil {
			return domain.Activity{}, err
		}
		if err := timeofday.ValidateStep(merged.EndTime); err != nil {
			return domain.Activity{}, err
		}
		if timeofday.Duration(merged.StartTime, merged.EndTime) <= 0 {
			return domain.Activity{}, domain.InvalidRange("end time must be after start time")
		}
		existing, err := e.Repo.ListDayActivities(ctx, tx, in.UserKey, in.Date)
		if err != nil {
			return domain.Activity{}, err
		}
		if err := rules.CheckOverlap(rules.Window{Start: merged.StartTime, End: merged.EndTime}, existing, merged.ID); err != nil {
			return domain.Activity{}, err
		}
	}

	merged.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateActivity(ctx, tx, merged); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Activity{}, domain.NotFound("activity", in.ID)
		}
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, tx, events.ActivityUpdated, merged.UserKey, "activity", merged.ID, in.ActorID, activityPayload(merged)); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	merged.DurationMinutes = timeofday.Duration(merged.StartTime, merged.EndTime)
	return merged, nil
}

// DeleteActivity removes one activity. Neighbours are left untouched even
// when the removal breaks a continuous chain.
func (e Engine) DeleteActivity(ctx context.Context, userKey, id, date, actorID string) (bool, error) {
	found, err := e.deleteActivity(ctx, userKey, id, date, actorID)
	e.observe("delete", err)
	return found, err
}

func (e Engine) deleteActivity(ctx context.Context, userKey, id, date, actorID string) (bool, error) {
	if err := timeofday.ValidateDate(date); err != nil {
		return false, err
	}
	unlock := e.Repo.LockUserMonth(userKey, date)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	found, err := e.Repo.DeleteActivity(ctx, tx, userKey, date, id)
	if err != nil || !found {
		return false, err
	}
	if err := e.Events.Append(ctx, tx, events.ActivityDeleted, userKey, "activity", id, actorID, events.EventPayload{"date": date}); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// GetDayActivities returns one user-day sorted by start with its summary and
// status.
func (e Engine) GetDayActivities(ctx context.Context, userKey, date string) (domain.DayView, error) {
	day, err := timeofday.ParseDate(date)
	if err != nil {
		return domain.DayView{}, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.DayView{}, err
	}
	shift, err := e.userShift(ctx, cfg, userKey)
	if err != nil {
		return domain.DayView{}, err
	}
	list, err := e.Repo.ListDayActivities(ctx, nil, userKey, date)
	if err != nil {
		return domain.DayView{}, err
	}
	activities := summary.Annotate(list)
	s := summary.Daily(activities, cfg.Activities.RequiredMinutes)
	status := summary.Status(s, calendar.IsWorkingDay(day, shift), date > e.today(cfg))
	return domain.DayView{
		Date:       date,
		Activities: activities,
		Summary:    s,
		Status:     status,
		StatusCode: status.Code(),
	}, nil
}

// GetActivitiesRange returns activities dated within [from, to] and one
// summary per date that has any.
func (e Engine) GetActivitiesRange(ctx context.Context, userKey, from, to string) (domain.RangeView, error) {
	if err := timeofday.ValidateDate(from); err != nil {
		return domain.RangeView{}, err
	}
	if err := timeofday.ValidateDate(to); err != nil {
		return domain.RangeView{}, err
	}
	if from > to {
		return domain.RangeView{}, domain.InvalidRange("from must not be after to")
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.RangeView{}, err
	}
	list, err := e.Repo.ListActivitiesInRange(ctx, userKey, from, to)
	if err != nil {
		return domain.RangeView{}, err
	}
	byDate := groupByDate(summary.Annotate(list))
	view := domain.RangeView{
		From:           from,
		To:             to,
		Activities:     make([]domain.Activity, 0, len(list)),
		DailySummaries: make(map[string]domain.DailySummary, len(byDate)),
	}
	for _, date := range sortedKeys(byDate) {
		view.Activities = append(view.Activities, byDate[date]...)
		view.DailySummaries[date] = summary.Daily(byDate[date], cfg.Activities.RequiredMinutes)
	}
	return view, nil
}

func (e Engine) today(cfg *config.Config) string {
	return timeofday.FormatDate(e.now().In(cfg.Location()))
}

// userShift resolves the shift of a user. Unknown users fall back to the
// default shift.
func (e Engine) userShift(ctx context.Context, cfg *config.Config, userKey string) (*domain.ShiftType, error) {
	u, err := e.Repo.GetUser(ctx, userKey)
	if errors.Is(err, repo.ErrNotFound) {
		return cfg.ShiftFor(""), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg.ShiftFor(u.ShiftTypeID), nil
}

func activityPayload(a domain.Activity) events.EventPayload {
	p := events.EventPayload{
		"date":         a.Date,
		"startTime":    a.StartTime,
		"endTime":      a.EndTime,
		"activityType": a.ActivityType,
	}
	if a.CustomType != "" {
		p["customType"] = a.CustomType
	}
	return p
}

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
)

func registerActivities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "day-activities",
		Method:      http.MethodGet,
		Path:        "/activities/day/{date}",
		Summary:     "Activities of one day with summary and status",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Date string `path:"date" example:"2025-01-10"`
		User string `query:"user" doc:"Target user (admins only)"`
	}) (*struct {
		Body domain.DayView `json:"body"`
	}, error) {
		_, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		view, err := e.GetDayActivities(ctx, userKey, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DayView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "range-activities",
		Method:      http.MethodGet,
		Path:        "/activities",
		Summary:     "Activities between two dates, inclusive",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		From string `query:"from" required:"true" example:"2025-01-01"`
		To   string `query:"to" required:"true" example:"2025-01-31"`
		User string `query:"user" doc:"Target user (admins only)"`
	}) (*struct {
		Body domain.RangeView `json:"body"`
	}, error) {
		_, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		view, err := e.GetActivitiesRange(ctx, userKey, input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RangeView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/activities",
		Summary:       "Log an activity by window or by duration",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		User string                `query:"user" doc:"Target user (admins only)"`
		Body CreateActivityRequest `json:"body"`
	}) (*struct {
		Body domain.Activity `json:"body"`
	}, error) {
		p, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		a, err := createActivity(ctx, e, userKey, p.UserKey, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Activity `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPut,
		Path:        "/activities/{date}/{id}",
		Summary:     "Update an activity",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Date string                `path:"date"`
		ID   string                `path:"id"`
		User string                `query:"user" doc:"Target user (admins only)"`
		Body UpdateActivityRequest `json:"body"`
	}) (*struct {
		Body domain.Activity `json:"body"`
	}, error) {
		p, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		a, err := e.UpdateActivity(ctx, engine.UpdateActivityInput{
			UserKey:         userKey,
			Date:            input.Date,
			ID:              input.ID,
			StartTime:       input.Body.StartTime,
			EndTime:         input.Body.EndTime,
			DurationHours:   input.Body.DurationHours,
			DurationMinutes: input.Body.DurationMinutes,
			ActivityType:    input.Body.ActivityType,
			CustomType:      input.Body.CustomType,
			Notes:           input.Body.Notes,
			ActorID:         p.UserKey,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Activity `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{date}/{id}",
		Summary:       "Delete an activity",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Date string `path:"date"`
		ID   string `path:"id"`
		User string `query:"user" doc:"Target user (admins only)"`
	}) (*struct{}, error) {
		p, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		found, err := e.DeleteActivity(ctx, userKey, input.ID, input.Date, p.UserKey)
		if err != nil {
			return nil, handleError(err)
		}
		if !found {
			return nil, handleError(domain.NotFound("activity", input.ID))
		}
		return &struct{}{}, nil
	})
}

func createActivity(ctx context.Context, e engine.Engine, userKey, actorID string, body CreateActivityRequest) (domain.Activity, error) {
	hasWindow := body.StartTime != nil || body.EndTime != nil
	hasDuration := body.DurationHours != nil || body.DurationMinutes != nil
	switch {
	case hasWindow:
		if body.StartTime == nil || body.EndTime == nil {
			return domain.Activity{}, &domain.Error{
				Kind:    domain.KindInvalidInput,
				Message: "startTime and endTime must be given together",
				Fields:  map[string]string{"startTime": "required_with=endTime", "endTime": "required_with=startTime"},
			}
		}
		return e.CreateActivity(ctx, engine.CreateActivityInput{
			UserKey:      userKey,
			Date:         body.Date,
			StartTime:    *body.StartTime,
			EndTime:      *body.EndTime,
			ActivityType: body.ActivityType,
			CustomType:   body.CustomType,
			Notes:        body.Notes,
			ActorID:      actorID,
		})
	case hasDuration:
		in := engine.DurationInput{
			UserKey:      userKey,
			Date:         body.Date,
			ActivityType: body.ActivityType,
			CustomType:   body.CustomType,
			Notes:        body.Notes,
			ActorID:      actorID,
		}
		if body.DurationHours != nil {
			in.DurationHours = *body.DurationHours
		}
		if body.DurationMinutes != nil {
			in.DurationMinutes = *body.DurationMinutes
		}
		return e.CreateActivityFromDuration(ctx, in)
	default:
		return domain.Activity{}, &domain.Error{
			Kind:    domain.KindInvalidInput,
			Message: "either startTime/endTime or a duration is required",
			Fields:  map[string]string{"startTime": "required_without=durationHours"},
		}
	}
}

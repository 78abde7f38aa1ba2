package server

import (
	"encoding/json"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

// Request payloads

type LoginRequest struct {
	UserKey  string `json:"userKey" minLength:"1"`
	Password string `json:"password" minLength:"1"`
}

// CreateActivityRequest accepts either an explicit window (startTime and
// endTime) or a duration appended after the day's latest activity.
type CreateActivityRequest struct {
	Date            string  `json:"date" example:"2025-01-10"`
	StartTime       *string `json:"startTime,omitempty" example:"09:00"`
	EndTime         *string `json:"endTime,omitempty" example:"13:00"`
	DurationHours   *int    `json:"durationHours,omitempty" minimum:"0" maximum:"24" doc:"Whole hours, 0 to 24. 0 is allowed when durationMinutes is set; the total must be positive."`
	DurationMinutes *int    `json:"durationMinutes,omitempty" enum:"0,15,30,45" doc:"Extra minutes, one of 0, 15, 30 or 45. 0 is allowed when durationHours is set; the total must be positive."`
	ActivityType    string  `json:"activityType" example:"lavoro"`
	CustomType      string  `json:"customType,omitempty" maxLength:"100"`
	Notes           string  `json:"notes,omitempty" maxLength:"500"`
}

type UpdateActivityRequest struct {
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	DurationHours   *int    `json:"durationHours,omitempty" minimum:"0" maximum:"24" doc:"Whole hours, 0 to 24. 0 is allowed when durationMinutes is set; the total must be positive."`
	DurationMinutes *int    `json:"durationMinutes,omitempty" enum:"0,15,30,45" doc:"Extra minutes, one of 0, 15, 30 or 45. 0 is allowed when durationHours is set; the total must be positive."`
	ActivityType    *string `json:"activityType,omitempty"`
	CustomType      *string `json:"customType,omitempty" maxLength:"100"`
	Notes           *string `json:"notes,omitempty" maxLength:"500"`
}

type CreateUserRequest struct {
	Key         string `json:"key" minLength:"1" maxLength:"64"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty" enum:"user,admin"`
	ShiftTypeID string `json:"shiftTypeId,omitempty"`
	Password    string `json:"password,omitempty"`
}

type CreateAPIKeyRequest struct {
	UserKey string `json:"userKey" minLength:"1"`
	Name    string `json:"name,omitempty"`
}

type SettingsRequest struct {
	YAML string `json:"yaml" minLength:"1" doc:"Full settings document in YAML"`
}

// Response payloads

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt" format:"date-time"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role" enum:"user,admin"`
	ShiftTypeID string `json:"shiftTypeId,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty" format:"date-time"`
}

type WhoAmIResponse struct {
	UserKey   string            `json:"userKey"`
	Role      string            `json:"role" enum:"user,admin"`
	Source    string            `json:"source" enum:"jwt,api_key,legacy_header"`
	ShiftType *domain.ShiftType `json:"shiftType,omitempty"`
}

type CalendarResponse struct {
	Year            int                   `json:"year"`
	Month           int                   `json:"month"`
	RequiredMinutes int                   `json:"requiredMinutes"`
	ShiftType       *domain.ShiftType     `json:"shiftType,omitempty"`
	Days            []domain.CalendarDay  `json:"days"`
	Irregularities  []domain.Irregularity `json:"irregularities"`
}

type MonitorResponse struct {
	Date    string                `json:"date" format:"date"`
	Entries []domain.MonitorEntry `json:"entries"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	UserKey   string `json:"userKey"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty" doc:"Plaintext key, returned only on creation"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	UserKey    string         `json:"userKey,omitempty"`
	EntityKind string         `json:"entityKind"`
	EntityID   string         `json:"entityId,omitempty"`
	ActorID    string         `json:"actorId"`
	Payload    map[string]any `json:"payload"`
}

type SettingsResponse struct {
	Timezone     string             `json:"timezone"`
	Activities   activitiesSection  `json:"activities"`
	Shifts       []domain.ShiftType `json:"shifts"`
	DefaultShift string             `json:"defaultShift,omitempty"`
	PreviewLimit int                `json:"previewLimit"`
	Webhooks     []webhookSection   `json:"webhooks"`
	YAML         string             `json:"yaml"`
}

type activitiesSection struct {
	RequiredMinutes  int      `json:"requiredMinutes"`
	StrictContinuity bool     `json:"strictContinuity"`
	DayStart         string   `json:"dayStart"`
	Types            []string `json:"types"`
}

type webhookSection struct {
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

type eventList struct {
	Items []EventResponse `json:"items"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		Key:         u.Key,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		ShiftTypeID: u.ShiftTypeID,
		CreatedAt:   u.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		UserKey:    e.UserKey,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func settingsResponse(cfg *config.Config) SettingsResponse {
	raw, _ := cfg.ToYAML()
	resp := SettingsResponse{
		Timezone: cfg.Timezone,
		Activities: activitiesSection{
			RequiredMinutes:  cfg.Activities.RequiredMinutes,
			StrictContinuity: cfg.Activities.StrictContinuity,
			DayStart:         cfg.Activities.DayStart,
			Types:            nonNilSlice(cfg.Activities.Types),
		},
		Shifts:       nonNilSlice(cfg.Shifts),
		DefaultShift: cfg.DefaultShift,
		PreviewLimit: cfg.Calendar.PreviewLimit,
		Webhooks:     []webhookSection{},
		YAML:         string(raw),
	}
	for _, hook := range cfg.Webhooks {
		resp.Webhooks = append(resp.Webhooks, webhookSection{
			URL:     hook.URL,
			Events:  nonNilSlice(hook.Events),
			Enabled: hook.Enabled == nil || *hook.Enabled,
		})
	}
	return resp
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]any{"raw": raw}
	}
	return out
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

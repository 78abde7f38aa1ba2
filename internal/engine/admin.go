package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine/auth"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/events"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

// CreateUserInput registers a login. Password may be empty for users that
// only authenticate with API keys.
type CreateUserInput struct {
	Key         string `json:"key" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"max=200"`
	Role        string `json:"role" validate:"omitempty,oneof=user admin"`
	ShiftTypeID string `json:"shiftTypeId"`
	Password    string `json:"-"`
	ActorID     string `json:"-"`
}

func (e Engine) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Key = strings.TrimSpace(in.Key)
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}
	cfg, err := e.Settings(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if in.ShiftTypeID != "" && cfg.Shift(in.ShiftTypeID) == nil {
		return domain.User{}, &domain.Error{
			Kind:    domain.KindInvalidInput,
			Message: "unknown shift type " + in.ShiftTypeID,
			Fields:  map[string]string{"shiftTypeId": in.ShiftTypeID},
		}
	}
	u := domain.User{
		Key:         in.Key,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        in.Role,
		ShiftTypeID: in.ShiftTypeID,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if in.Password != "" {
		if u.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
			return domain.User{}, err
		}
	}
	if _, err := e.Repo.GetUser(ctx, u.Key); err == nil {
		return domain.User{}, &domain.Error{
			Kind:    domain.KindInvalidInput,
			Message: "user " + u.Key + " already exists",
			Fields:  map[string]string{"key": "unique"},
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertUser(ctx, tx, u); err != nil {
		return domain.User{}, err
	}
	if err := e.Events.Append(ctx, tx, events.UserCreated, u.Key, "user", u.Key, in.ActorID, events.EventPayload{"role": u.Role, "shiftTypeId": u.ShiftTypeID}); err != nil {
		return domain.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (e Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	return e.Repo.ListUsers(ctx)
}

// CreateAPIKey issues a key for userKey and returns the plaintext once.
func (e Engine) CreateAPIKey(ctx context.Context, userKey, name, actorID string) (domain.APIKey, string, error) {
	if _, err := e.Repo.GetUser(ctx, userKey); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.APIKey{}, "", domain.NotFound("user", userKey)
		}
		return domain.APIKey{}, "", err
	}
	plain, err := auth.GenerateAPIKey()
	if err != nil {
		return domain.APIKey{}, "", err
	}
	key := domain.APIKey{
		ID:        uuid.NewString(),
		UserKey:   userKey,
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(plain),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.Events.Append(ctx, tx, events.APIKeyCreated, userKey, "api_key", key.ID, actorID, events.EventPayload{"name": key.Name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plain, nil
}

// UpdateSettings validates and stores a new settings document. It applies to
// every operation that starts after the commit.
func (e Engine) UpdateSettings(ctx context.Context, cfg *config.Config, actorID string) (*config.Config, error) {
	if cfg == nil {
		return nil, &domain.Error{Kind: domain.KindInvalidInput, Message: "settings required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &domain.Error{Kind: domain.KindInvalidInput, Message: err.Error()}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertSettings(ctx, tx, cfg); err != nil {
		return nil, err
	}
	payload := events.EventPayload{
		"requiredMinutes":  cfg.Activities.RequiredMinutes,
		"strictContinuity": cfg.Activities.StrictContinuity,
		"types":            cfg.Activities.Types,
	}
	if err := e.Events.Append(ctx, tx, events.SettingsUpdated, "", "settings", "1", actorID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	e.logf("settings updated by %s", actorID)
	return cfg, nil
}

func (e Engine) ListEvents(ctx context.Context, f repo.EventFilter) ([]domain.Event, error) {
	return e.Repo.ListEvents(ctx, f)
}

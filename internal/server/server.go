package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine/auth"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	// RequestLog enables chi's access log.
	RequestLog bool
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"TIME_OVERLAP"`
	Message string         `json:"message" example:"activity overlaps 09:00-13:00"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// APIError documents the envelope in the OpenAPI document.
type APIError struct {
	Error apiErrorBody `json:"error"`
}

// New returns an HTTP handler exposing the activity API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the requested envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		code := ""
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400
			status = http.StatusBadRequest
			code = "VALIDATION_ERROR"
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, code, msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.RequestLog {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	router.Handle("/metrics", promhttp.Handler())

	hcfg := huma.DefaultConfig("OnlyUserActivity API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	api.OpenAPI().Components.Schemas.Schema(reflect.TypeOf(APIError{}), true, "APIError")
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerLogin(group, cfg.Engine, cfg.Auth)
	registerMe(group, cfg.Engine)
	registerActivities(group, cfg.Engine)
	registerCalendar(group, cfg.Engine)
	registerAdmin(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return domainError(de)
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"permission": fe.Permission})
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return newAPIError(http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func domainError(de *domain.Error) huma.StatusError {
	code := de.Kind.Code()
	switch de.Kind {
	case domain.KindTimeOverlap:
		details := map[string]any{}
		if de.Conflicting != nil {
			details["conflictingActivity"] = de.Conflicting
		}
		return newAPIError(http.StatusConflict, code, de.Error(), details)
	case domain.KindNonContiguous:
		return newAPIError(http.StatusConflict, code, de.Error(), map[string]any{
			"expectedStartTime": de.ExpectedStartTime,
			"providedStartTime": de.ProvidedStartTime,
		})
	case domain.KindInvalidActivityType, domain.KindMissingCustomType:
		return newAPIError(http.StatusBadRequest, code, de.Error(), map[string]any{"allowedTypes": de.AllowedTypes})
	case domain.KindInvalidFormat, domain.KindInvalidInput:
		var details map[string]any
		if len(de.Fields) > 0 {
			details = map[string]any{"fields": de.Fields}
		}
		return newAPIError(http.StatusBadRequest, code, de.Error(), details)
	case domain.KindInvalidStep, domain.KindInvalidRange:
		return newAPIError(http.StatusBadRequest, code, de.Error(), nil)
	case domain.KindNotFound:
		return newAPIError(http.StatusNotFound, code, de.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", de.Error(), nil)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// targetUser picks whose activities a request works on: the caller, or the
// user named by ?user= when the caller is an admin.
func targetUser(ctx context.Context, override string) (Principal, string, error) {
	principal, authErr := principalFromRequest(ctx)
	if authErr != nil {
		return Principal{}, "", authErr
	}
	override = strings.TrimSpace(override)
	if override == "" || override == principal.UserKey {
		return principal, principal.UserKey, nil
	}
	if !principal.IsAdmin() {
		return Principal{}, "", auth.ForbiddenError{Permission: auth.PermissionAdmin}
	}
	return principal, override, nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		spec []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/APIError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		path.Join("/", basePath, "health"):     true,
		path.Join("/", basePath, "auth/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>OnlyUserActivity API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerLogin(api huma.API, e engine.Engine, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange a local password for a JWT",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		u, err := e.Auth.Authenticate(ctx, input.Body.UserKey, input.Body.Password)
		if err != nil {
			return nil, handleError(err)
		}
		token, expires, err := signToken(authCfg.JWTSecret, u, e.Now(), authCfg.ttl())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{
			Token:     token,
			ExpiresAt: expires.UTC().Format("2006-01-02T15:04:05Z07:00"),
			User:      userResponse(u),
		}}, nil
	})
}

func registerMe(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoAmIResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		shift, err := e.ShiftForUser(ctx, principal.UserKey)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WhoAmIResponse `json:"body"`
		}{Body: WhoAmIResponse{
			UserKey:   principal.UserKey,
			Role:      principal.Role,
			Source:    principal.Source,
			ShiftType: shift,
		}}, nil
	})
}

func registerCalendar(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "month-calendar",
		Method:      http.MethodGet,
		Path:        "/calendar/{year}/{month}",
		Summary:     "Month calendar with irregular days of adjacent months",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Year  int    `path:"year" minimum:"1" maximum:"9999"`
		Month int    `path:"month" minimum:"1" maximum:"12"`
		User  string `query:"user" doc:"Target user (admins only)"`
	}) (*struct {
		Body CalendarResponse `json:"body"`
	}, error) {
		_, userKey, err := targetUser(ctx, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		shift, err := e.ShiftForUser(ctx, userKey)
		if err != nil {
			return nil, handleError(err)
		}
		cal, err := e.GetMonthCalendar(ctx, userKey, input.Year, input.Month, shift)
		if err != nil {
			return nil, handleError(err)
		}
		irregular, err := e.GetIrregularDaysOutsideMonth(ctx, userKey, input.Year, input.Month, shift)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CalendarResponse `json:"body"`
		}{Body: CalendarResponse{
			Year:            cal.Year,
			Month:           cal.Month,
			RequiredMinutes: cal.RequiredMinutes,
			ShiftType:       cal.ShiftType,
			Days:            cal.Days,
			Irregularities:  irregular,
		}}, nil
	})
}

func registerAdmin(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "monitor-day",
		Method:      http.MethodGet,
		Path:        "/admin/monitor",
		Summary:     "Completion of every user on a date",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Date string `query:"date" required:"true" format:"date"`
	}) (*struct {
		Body MonitorResponse `json:"body"`
	}, error) {
		if _, err := requireAdmin(ctx); err != nil {
			return nil, handleError(err)
		}
		entries, err := e.MonitorDay(ctx, input.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MonitorResponse `json:"body"`
		}{Body: MonitorResponse{Date: input.Date, Entries: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/admin/settings",
		Summary:     "Current settings snapshot",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SettingsResponse `json:"body"`
	}, error) {
		if _, err := requireAdmin(ctx); err != nil {
			return nil, handleError(err)
		}
		cfg, err := e.Settings(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SettingsResponse `json:"body"`
		}{Body: settingsResponse(cfg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-settings",
		Method:      http.MethodPut,
		Path:        "/admin/settings",
		Summary:     "Replace the settings document",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body SettingsRequest `json:"body"`
	}) (*struct {
		Body SettingsResponse `json:"body"`
	}, error) {
		p, err := requireAdmin(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		cfg, err := config.FromYAML([]byte(input.Body.YAML))
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		}
		cfg, err = e.UpdateSettings(ctx, cfg, p.UserKey)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SettingsResponse `json:"body"`
		}{Body: settingsResponse(cfg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		Summary:     "List users",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []UserResponse `json:"body"`
	}, error) {
		if _, err := requireAdmin(ctx); err != nil {
			return nil, handleError(err)
		}
		users, err := e.ListUsers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, userResponse(u))
		}
		return &struct {
			Body []UserResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/admin/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		p, err := requireAdmin(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		u, err := e.CreateUser(ctx, engine.CreateUserInput{
			Key:         input.Body.Key,
			DisplayName: input.Body.DisplayName,
			Role:        input.Body.Role,
			ShiftTypeID: input.Body.ShiftTypeID,
			Password:    input.Body.Password,
			ActorID:     p.UserKey,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/admin/api-keys",
		Summary:       "Issue an API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		p, err := requireAdmin(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		key, plain, err := e.CreateAPIKey(ctx, input.Body.UserKey, input.Body.Name, p.UserKey)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: APIKeyResponse{ID: key.ID, UserKey: key.UserKey, Name: key.Name, Key: plain, CreatedAt: key.CreatedAt}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/admin/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		UserKey    string `query:"userKey"`
		EntityKind string `query:"entityKind" enum:"activity,user,settings,api_key"`
		EntityID   string `query:"entityId"`
		Limit      int    `query:"limit" default:"50"`
	}) (*struct {
		Body eventList `json:"body"`
	}, error) {
		if _, err := requireAdmin(ctx); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListEvents(ctx, repo.EventFilter{
			Type:       input.Type,
			UserKey:    input.UserKey,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Limit:      normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := eventList{Items: make([]EventResponse, 0, len(items))}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body eventList `json:"body"`
		}{Body: resp}, nil
	})
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

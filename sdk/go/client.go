package ouasdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal OnlyUserActivity HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/api",
		Timeout:  10 * time.Second,
	}
}

// Activity represents one logged time window.
type Activity struct {
	ID              string `json:"id"`
	UserKey         string `json:"userKey,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	ActivityType    string `json:"activityType"`
	CustomType      string `json:"customType,omitempty"`
	Notes           string `json:"notes,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type DailySummary struct {
	TotalMinutes         int  `json:"totalMinutes"`
	RequiredMinutes      int  `json:"requiredMinutes"`
	CompletionPercentage int  `json:"completionPercentage"`
	IsComplete           bool `json:"isComplete"`
	IsOvertime           bool `json:"isOvertime"`
	OvertimeMinutes      int  `json:"overtimeMinutes"`
}

// Day is the per-date view returned by DayActivities.
type Day struct {
	Date       string       `json:"date"`
	Activities []Activity   `json:"activities"`
	Summary    DailySummary `json:"summary"`
	Status     string       `json:"status"`
	StatusCode string       `json:"statusCode"`
}

type Range struct {
	From           string                  `json:"from"`
	To             string                  `json:"to"`
	Activities     []Activity              `json:"activities"`
	DailySummaries map[string]DailySummary `json:"dailySummaries"`
}

type CalendarDay struct {
	Date          string       `json:"date"`
	Weekday       int          `json:"weekday"`
	IsRequired    bool         `json:"isRequired"`
	IsFuture      bool         `json:"isFuture"`
	IsHoliday     bool         `json:"isHoliday"`
	HolidayName   string       `json:"holidayName,omitempty"`
	IsPreHoliday  bool         `json:"isPreHoliday"`
	Activities    []Activity   `json:"activities"`
	ActivityCount int          `json:"activityCount"`
	Summary       DailySummary `json:"summary"`
	Status        string       `json:"status"`
	StatusCode    string       `json:"statusCode"`
}

type Irregularity struct {
	Date       string `json:"date"`
	Status     string `json:"status"`
	StatusCode string `json:"statusCode"`
}

// Calendar is a month grid plus the irregular days of the adjacent weeks.
type Calendar struct {
	Year            int            `json:"year"`
	Month           int            `json:"month"`
	RequiredMinutes int            `json:"requiredMinutes"`
	Days            []CalendarDay  `json:"days"`
	Irregularities  []Irregularity `json:"irregularities"`
}

// NewActivity is the create payload. Set StartTime and EndTime, or a
// duration to append after the latest activity of the day.
type NewActivity struct {
	Date            string  `json:"date"`
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	DurationHours   *int    `json:"durationHours,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
	ActivityType    string  `json:"activityType"`
	CustomType      string  `json:"customType,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// ActivityPatch carries the fields to change; nil fields are kept.
type ActivityPatch struct {
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	DurationHours   *int    `json:"durationHours,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
	ActivityType    *string `json:"activityType,omitempty"`
	CustomType      *string `json:"customType,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Window is a helper for NewActivity with explicit times.
func Window(date, start, end, activityType string) NewActivity {
	return NewActivity{Date: date, StartTime: &start, EndTime: &end, ActivityType: activityType}
}

// Login exchanges a password for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, userKey, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"userKey": userKey, "password": password}
	if err := c.do(ctx, http.MethodPost, "auth/login", body, &resp); err != nil {
		return "", err
	}
	c.BearerToken = resp.Token
	return resp.Token, nil
}

// CreateActivity logs an activity for the authenticated user.
func (c *Client) CreateActivity(ctx context.Context, in NewActivity) (Activity, error) {
	var resp Activity
	err := c.do(ctx, http.MethodPost, "activities", in, &resp)
	return resp, err
}

func (c *Client) UpdateActivity(ctx context.Context, date, id string, patch ActivityPatch) (Activity, error) {
	var resp Activity
	err := c.do(ctx, http.MethodPut, activityPath(date, id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteActivity(ctx context.Context, date, id string) error {
	return c.do(ctx, http.MethodDelete, activityPath(date, id), nil, nil)
}

// DayActivities returns one day with its summary and status.
func (c *Client) DayActivities(ctx context.Context, date string) (Day, error) {
	var resp Day
	err := c.do(ctx, http.MethodGet, "activities/day/"+url.PathEscape(date), nil, &resp)
	return resp, err
}

func (c *Client) ActivitiesRange(ctx context.Context, from, to string) (Range, error) {
	var resp Range
	q := url.Values{"from": {from}, "to": {to}}
	err := c.do(ctx, http.MethodGet, "activities?"+q.Encode(), nil, &resp)
	return resp, err
}

// MonthCalendar returns the calendar grid of a month.
func (c *Client) MonthCalendar(ctx context.Context, year, month int) (Calendar, error) {
	var resp Calendar
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("calendar/%d/%d", year, month), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, b)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

func activityPath(date, id string) string {
	return fmt.Sprintf("activities/%s/%s", url.PathEscape(date), url.PathEscape(id))
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}

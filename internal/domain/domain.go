package domain

// Activity is one time-boxed unit of work logged by a user on a date.
// DurationMinutes is derived on read and never stored.
type Activity struct {
	ID              string `json:"id"`
	UserKey         string `json:"userKey,omitempty"`
	Date            string `json:"date" format:"date"`
	StartTime       string `json:"startTime" example:"09:00"`
	EndTime         string `json:"endTime" example:"13:00"`
	ActivityType    string `json:"activityType" example:"lavoro"`
	CustomType      string `json:"customType,omitempty"`
	Notes           string `json:"notes,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	CreatedAt       string `json:"createdAt" format:"date-time"`
	UpdatedAt       string `json:"updatedAt" format:"date-time"`
}

type DailySummary struct {
	TotalMinutes         int  `json:"totalMinutes"`
	RequiredMinutes      int  `json:"requiredMinutes"`
	CompletionPercentage int  `json:"completionPercentage" minimum:"0" maximum:"100"`
	IsComplete           bool `json:"isComplete"`
	IsOvertime           bool `json:"isOvertime"`
	OvertimeMinutes      int  `json:"overtimeMinutes"`
}

// DayStatus is the tri-state completion label shown to users.
type DayStatus string

const (
	StatusMissing    DayStatus = "Non inserito"
	StatusIncomplete DayStatus = "Incompleto"
	StatusOK         DayStatus = "OK"
)

// Code returns the upper-case label used by exports and monitoring screens.
func (s DayStatus) Code() string {
	switch s {
	case StatusMissing:
		return "ASSENTE"
	case StatusIncomplete:
		return "INCOMPLETO"
	default:
		return "OK"
	}
}

type ShiftType struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	IncludeWeekends bool   `json:"includeWeekends" yaml:"include_weekends"`
	IncludeHolidays bool   `json:"includeHolidays" yaml:"include_holidays"`
}

type DayView struct {
	Date       string       `json:"date" format:"date"`
	Activities []Activity   `json:"activities"`
	Summary    DailySummary `json:"summary"`
	Status     DayStatus    `json:"status" enum:"Non inserito,Incompleto,OK"`
	StatusCode string       `json:"statusCode" enum:"ASSENTE,INCOMPLETO,OK"`
}

type RangeView struct {
	From           string                  `json:"from" format:"date"`
	To             string                  `json:"to" format:"date"`
	Activities     []Activity              `json:"activities"`
	DailySummaries map[string]DailySummary `json:"dailySummaries"`
}

type CalendarDay struct {
	Date          string       `json:"date" format:"date"`
	Weekday       int          `json:"weekday" minimum:"1" maximum:"7"`
	IsRequired    bool         `json:"isRequired"`
	IsFuture      bool         `json:"isFuture"`
	IsHoliday     bool         `json:"isHoliday"`
	HolidayName   string       `json:"holidayName,omitempty"`
	IsPreHoliday  bool         `json:"isPreHoliday"`
	Activities    []Activity   `json:"activities"`
	ActivityCount int          `json:"activityCount"`
	Summary       DailySummary `json:"summary"`
	Status        DayStatus    `json:"status" enum:"Non inserito,Incompleto,OK"`
	StatusCode    string       `json:"statusCode" enum:"ASSENTE,INCOMPLETO,OK"`
}

type MonthCalendar struct {
	Year            int           `json:"year"`
	Month           int           `json:"month" minimum:"1" maximum:"12"`
	RequiredMinutes int           `json:"requiredMinutes"`
	ShiftType       *ShiftType    `json:"shiftType,omitempty"`
	Days            []CalendarDay `json:"days"`
}

type Irregularity struct {
	Date       string    `json:"date" format:"date"`
	Status     DayStatus `json:"status" enum:"Non inserito,Incompleto"`
	StatusCode string    `json:"statusCode" enum:"ASSENTE,INCOMPLETO"`
}

// MonitorEntry is one row of the admin workforce view for a single date.
type MonitorEntry struct {
	UserKey     string       `json:"userKey"`
	DisplayName string       `json:"displayName,omitempty"`
	ShiftTypeID string       `json:"shiftTypeId,omitempty"`
	IsRequired  bool         `json:"isRequired"`
	Summary     DailySummary `json:"summary"`
	Status      DayStatus    `json:"status" enum:"Non inserito,Incompleto,OK"`
	StatusCode  string       `json:"statusCode" enum:"ASSENTE,INCOMPLETO,OK"`
}

type User struct {
	Key          string `json:"key"`
	DisplayName  string `json:"displayName,omitempty"`
	Role         string `json:"role" enum:"user,admin"`
	ShiftTypeID  string `json:"shiftTypeId,omitempty"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt" format:"date-time"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type APIKey struct {
	ID        string `json:"id"`
	UserKey   string `json:"userKey"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"keyHash"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	UserKey    string `json:"userKey,omitempty"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	ActorID    string `json:"actorId"`
	Payload    string `json:"payloadJson"`
}

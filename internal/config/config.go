package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/timeofday"
)

// Config models the admin-managed settings document (settings.yml).
type Config struct {
	Timezone   string `yaml:"timezone"`
	Activities struct {
		RequiredMinutes  int      `yaml:"required_minutes"`
		StrictContinuity bool     `yaml:"strict_continuity"`
		DayStart         string   `yaml:"day_start"`
		Types            []string `yaml:"types"`
	} `yaml:"activities"`
	Shifts       []domain.ShiftType `yaml:"shifts"`
	DefaultShift string             `yaml:"default_shift"`
	Calendar     struct {
		PreviewLimit int `yaml:"preview_limit"`
	} `yaml:"calendar"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Activities.RequiredMinutes <= 0 {
		return fmt.Errorf("config.activities.required_minutes must be positive")
	}
	if c.Activities.RequiredMinutes > timeofday.MinutesPerDay {
		return fmt.Errorf("config.activities.required_minutes cannot exceed %d", timeofday.MinutesPerDay)
	}
	if err := timeofday.ValidateStep(c.Activities.DayStart); err != nil {
		return fmt.Errorf("config.activities.day_start: %w", err)
	}
	if len(c.Activities.Types) == 0 {
		return fmt.Errorf("config.activities.types is required")
	}
	seen := map[string]bool{}
	for _, t := range c.Activities.Types {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("config.activities.types contains an empty type")
		}
		if seen[t] {
			return fmt.Errorf("activity type %s listed twice", t)
		}
		seen[t] = true
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config.timezone: %w", err)
	}
	shiftIDs := map[string]bool{}
	for _, s := range c.Shifts {
		if s.ID == "" {
			return fmt.Errorf("config.shifts contains a shift without id")
		}
		if shiftIDs[s.ID] {
			return fmt.Errorf("shift %s defined twice", s.ID)
		}
		shiftIDs[s.ID] = true
	}
	if c.DefaultShift != "" && !shiftIDs[c.DefaultShift] {
		return fmt.Errorf("default_shift %s not defined", c.DefaultShift)
	}
	if c.Calendar.PreviewLimit < 0 {
		return fmt.Errorf("config.calendar.preview_limit cannot be negative")
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Shift returns the shift with the given id, or nil.
func (c *Config) Shift(id string) *domain.ShiftType {
	for i := range c.Shifts {
		if c.Shifts[i].ID == id {
			s := c.Shifts[i]
			return &s
		}
	}
	return nil
}

// ShiftFor resolves the shift of a user: their own, else the default.
// A nil result means every day is required.
func (c *Config) ShiftFor(shiftTypeID string) *domain.ShiftType {
	if shiftTypeID != "" {
		if s := c.Shift(shiftTypeID); s != nil {
			return s
		}
	}
	if c.DefaultShift != "" {
		return c.Shift(c.DefaultShift)
	}
	return nil
}

// Path returns the settings file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "settings.yml")
}

// LoadOptional returns nil,nil if the settings file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in settings.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default settings YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys
// keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	cfg.Webhooks = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// ToYAML serializes the config.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

const defaultTemplate = `timezone: Europe/Rome

activities:
  required_minutes: 480
  strict_continuity: false
  day_start: "09:00"
  types: [lavoro, ferie, permesso, malattia, formazione, trasferta, altro]

shifts:
  - id: standard
    name: Standard (lun-ven)
    include_weekends: false
    include_holidays: false
  - id: weekend
    name: Weekend incluso
    include_weekends: true
    include_holidays: false
  - id: continuo
    name: Ciclo continuo
    include_weekends: true
    include_holidays: true

default_shift: standard

calendar:
  preview_limit: 3
`

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 480, cfg.Activities.RequiredMinutes)
	require.Equal(t, "09:00", cfg.Activities.DayStart)
	require.Contains(t, cfg.Activities.Types, "lavoro")
	require.Equal(t, "Europe/Rome", cfg.Location().String())
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("activities:\n  strict_continuity: true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Activities.StrictContinuity)
	require.Equal(t, 480, cfg.Activities.RequiredMinutes)
	require.Len(t, cfg.Shifts, 3)
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"required":      "activities:\n  required_minutes: -1\n",
		"day start":     "activities:\n  day_start: \"09:10\"\n",
		"dup type":      "activities:\n  types: [lavoro, lavoro]\n",
		"default shift": "default_shift: nope\n",
		"timezone":      "timezone: Mars/Olympus\n",
		"webhook":       "webhooks:\n  - url: \"\"\n",
		"yaml":          "activities: [",
	}
	for name, in := range cases {
		_, err := FromYAML([]byte(in))
		require.Error(t, err, name)
	}
}

func TestShiftFor(t *testing.T) {
	cfg := Default()
	require.Equal(t, "weekend", cfg.ShiftFor("weekend").ID)
	require.Equal(t, "standard", cfg.ShiftFor("").ID)
	require.Equal(t, "standard", cfg.ShiftFor("unknown").ID)

	cfg.DefaultShift = ""
	require.Nil(t, cfg.ShiftFor(""))
}

func TestLoadOptionalAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	require.Nil(t, cfg)

	def := Default()
	def.Activities.RequiredMinutes = 420
	data, err := def.ToYAML()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yml"), data, 0o644))

	cfg, err = LoadOptional(dir)
	require.NoError(t, err)
	require.Equal(t, 420, cfg.Activities.RequiredMinutes)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Kolkata", cfg.Timezone.String())
	assert.Equal(t, clock.TimeOfDay{Hour: 9}, cfg.ShiftStart)
	assert.Equal(t, clock.TimeOfDay{Hour: 22}, cfg.AutoDropTime)
	assert.Equal(t, clock.TimeOfDay{Hour: 23, Minute: 30}, cfg.AutoAbsentTime)
	assert.Equal(t, clock.TimeOfDay{Minute: 30}, cfg.DailyExportTime)
	assert.Equal(t, "attendance", cfg.AttendanceChannelName)
	assert.Equal(t, "discord_activity", cfg.MongoDB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SHIFT_START", "10:15")
	t.Setenv("MONGODB_DATABASE", "other")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone.String())
	assert.Equal(t, clock.TimeOfDay{Hour: 10, Minute: 15}, cfg.ShiftStart)
	assert.Equal(t, "other", cfg.MongoDB)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("SHIFT_START", "25:00")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Not/AZone")
	_, err := Load()
	assert.Error(t, err)
}

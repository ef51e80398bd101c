package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
)

type Config struct {
	Env           string
	DiscordToken  string
	TargetGuildID string
	MongoURI      string
	MongoDB       string
	DefaultLocale string

	Timezone *time.Location

	// Daily trigger times, local to Timezone.
	ShiftStart      clock.TimeOfDay
	AutoDropTime    clock.TimeOfDay
	AutoAbsentTime  clock.TimeOfDay
	DailyExportTime clock.TimeOfDay

	// Channel the bot accepts commands in and posts summaries to.
	AttendanceChannelID   string
	AttendanceChannelName string

	// Directory the daily export workbooks accumulate in.
	ExportDir string
}

// Load reads configuration from the environment, with a best-effort .env file
// load first. Malformed values are errors; missing values fall back to
// defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	cfg := &Config{
		Env:                   getEnv("ENV", "development"),
		DiscordToken:          getEnv("DISCORD_TOKEN", ""),
		TargetGuildID:         getEnv("TARGET_GUILD_ID", ""),
		MongoURI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:               getEnv("MONGODB_DATABASE", "discord_activity"),
		DefaultLocale:         getEnv("DEFAULT_LOCALE", "en"),
		Timezone:              loc,
		AttendanceChannelID:   getEnv("ATTENDANCE_CHANNEL_ID", ""),
		AttendanceChannelName: getEnv("ATTENDANCE_CHANNEL_NAME", "attendance"),
		ExportDir:             getEnv("EXPORT_DIR", "exports"),
	}

	for _, t := range []struct {
		key      string
		fallback string
		dst      *clock.TimeOfDay
	}{
		{"SHIFT_START", "09:00", &cfg.ShiftStart},
		{"AUTO_DROP_TIME", "22:00", &cfg.AutoDropTime},
		{"AUTO_ABSENT_TIME", "23:30", &cfg.AutoAbsentTime},
		{"DAILY_EXPORT_TIME", "00:30", &cfg.DailyExportTime},
	} {
		tod, err := clock.ParseTimeOfDay(getEnv(t.key, t.fallback))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t.key, err)
		}
		*t.dst = tod
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

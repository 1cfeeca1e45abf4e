package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "habit-tracker.yaml"

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken    string    `yaml:"telegram_token"`
	DatabaseURL      string    `yaml:"database_url"`
	Timezone         string    `yaml:"timezone"`
	ReminderLeadMin  int       `yaml:"reminder_lead_minutes"`
	MoodReminder     string    `yaml:"mood_reminder"`
	DispatchInterval int       `yaml:"dispatch_interval_seconds"`
	InsightsDays     int       `yaml:"insights_days"`
	Log              LogConfig `yaml:"log"`

	Location *time.Location `yaml:"-"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ReminderLead is how long before a due instant the early reminder fires.
func (c Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadMin) * time.Minute
}

func (c Config) DispatchEvery() time.Duration {
	return time.Duration(c.DispatchInterval) * time.Second
}

// MoodReminderClock returns the hour and minute of the daily mood reminder.
func (c Config) MoodReminderClock() (int, int, error) {
	return ParseClock(c.MoodReminder)
}

func defaults() Config {
	return Config{
		DatabaseURL:      "habit_tracker.db",
		Timezone:         "Local",
		ReminderLeadMin:  30,
		MoodReminder:     "10:00",
		DispatchInterval: 60,
		InsightsDays:     10,
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load reads an optional YAML file, then .env, then environment variables.
// An empty path falls back to HABIT_CONFIG and then habit-tracker.yaml.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("HABIT_CONFIG"))
	}
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !os.IsNotExist(err):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	envOverride(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.Timezone, "TZ_NAME")
	envOverride(&cfg.MoodReminder, "MOOD_REMINDER")
	envOverride(&cfg.Log.Level, "LOG_LEVEL")
	envOverride(&cfg.Log.File, "LOG_FILE")
	envOverrideInt(&cfg.ReminderLeadMin, "REMINDER_LEAD_MINUTES")
	envOverrideInt(&cfg.DispatchInterval, "DISPATCH_INTERVAL_SECONDS")
	envOverrideInt(&cfg.InsightsDays, "INSIGHTS_DAYS")

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		c.DatabaseURL = "habit_tracker.db"
	}
	if c.ReminderLeadMin < 0 {
		c.ReminderLeadMin = 0
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = 60
	}
	if c.InsightsDays <= 0 {
		c.InsightsDays = 10
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	c.Location = loc

	if _, _, err := c.MoodReminderClock(); err != nil {
		return fmt.Errorf("mood_reminder: %w", err)
	}

	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// ParseClock parses an HH:MM time of day.
func ParseClock(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

const (
	reminderLeadDaysEnv  = "REMINDER_LEAD_DAYS"
	sweepWindowDaysEnv   = "SWEEP_WINDOW_DAYS"
	expiryWarningDaysEnv = "EXPIRY_WARNING_DAYS"
	sweepIntervalEnv     = "SWEEP_INTERVAL"
	expiryTimeZoneEnv    = "EXPIRY_TIME_ZONE"
	sweepEnabledEnv      = "SWEEP_ENABLED"

	defaultReminderLeadDays  = 2
	defaultSweepWindowDays   = 3
	defaultExpiryWarningDays = 3
	defaultSweepInterval     = time.Hour
	defaultExpiryTimeZone    = "UTC"
)

// ReminderConfig holds the day-count knobs of classification, scheduling and the sweep.
// LeadDays and WindowDays are independent of each other.
type ReminderConfig struct {
	LeadDays      int
	WindowDays    int
	WarningDays   int
	SweepInterval time.Duration
	SweepEnabled  bool
	Location      *time.Location
}

func LoadReminderConfig() (*ReminderConfig, error) {
	leadDays, err := nonNegativeIntEnv(reminderLeadDaysEnv, defaultReminderLeadDays)
	if err != nil {
		return nil, err
	}

	windowDays, err := nonNegativeIntEnv(sweepWindowDaysEnv, defaultSweepWindowDays)
	if err != nil {
		return nil, err
	}

	warningDays, err := nonNegativeIntEnv(expiryWarningDaysEnv, defaultExpiryWarningDays)
	if err != nil {
		return nil, err
	}

	interval := defaultSweepInterval
	if v := os.Getenv(sweepIntervalEnv); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	tz := os.Getenv(expiryTimeZoneEnv)
	if tz == "" {
		tz = defaultExpiryTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, ErrInvalidTimeZone
	}

	return &ReminderConfig{
		LeadDays:      leadDays,
		WindowDays:    windowDays,
		WarningDays:   warningDays,
		SweepInterval: interval,
		SweepEnabled:  os.Getenv(sweepEnabledEnv) != "false",
		Location:      loc,
	}, nil
}

func nonNegativeIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return 0, ErrInvalidReminderSetting
	}
	return parsed, nil
}

// Package config holds the daemon configuration. Values start from Default,
// are overridden by AQUA_* environment variables in FromEnv and finally by
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aquabalance/aquabalance/internal/alarm"
)

// Environment variable names.
const (
	ListenEnv          = "AQUA_LISTEN"
	DataDirEnv         = "AQUA_DATA_DIR"
	SecretEnv          = "AQUA_SECRET"
	ExactAlarmsEnv     = "AQUA_EXACT_ALARMS"
	NotifyURLsEnv      = "AQUA_NOTIFY_URLS"
	PublicURLEnv       = "AQUA_PUBLIC_URL"
	DefaultHourEnv     = "AQUA_DEFAULT_HOUR"
	DefaultMinuteEnv   = "AQUA_DEFAULT_MINUTE"
	OneShotSecondsEnv  = "AQUA_ONESHOT_SECONDS"
	ReminderTitleEnv   = "AQUA_REMINDER_TITLE"
	ReminderBodyEnv    = "AQUA_REMINDER_BODY"
	ShutdownTimeoutEnv = "AQUA_SHUTDOWN_TIMEOUT"
)

const (
	// DefaultListen is the daemon's loopback HTTP address.
	DefaultListen = "127.0.0.1:8765"

	dbFileName  = "aqua.db"
	logFileName = "aquad.log"
	pidFileName = "aquad.pid"
)

// Config is the daemon configuration.
type Config struct {
	Listen  string
	DataDir string
	// Secret overrides the keyring-held RPC secret when set.
	Secret string
	// ExactAlarms is the exact-alarm permission reported to the scheduler.
	ExactAlarms bool
	// NotifyURLs are Shoutrrr URLs notifications are delivered to.
	NotifyURLs []string
	// PublicURL is the base of action links. Defaults to http://Listen.
	PublicURL       string
	ShutdownTimeout time.Duration
	Reminder        alarm.Defaults
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:          DefaultListen,
		DataDir:         defaultDataDir(),
		ExactAlarms:     true,
		ShutdownTimeout: 10 * time.Second,
		Reminder:        alarm.DefaultReminder(),
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aquabalance"
	}
	return filepath.Join(dir, "aquabalance")
}

// FromEnv returns c overridden by the AQUA_* environment variables.
// Malformed numeric or boolean values leave the field unchanged.
func FromEnv(c Config) Config {
	c.Listen = getEnv(ListenEnv, c.Listen)
	c.DataDir = getEnv(DataDirEnv, c.DataDir)
	c.Secret = getEnv(SecretEnv, c.Secret)
	c.PublicURL = getEnv(PublicURLEnv, c.PublicURL)
	c.ExactAlarms = getEnvBool(ExactAlarmsEnv, c.ExactAlarms)
	c.ShutdownTimeout = getEnvDuration(ShutdownTimeoutEnv, c.ShutdownTimeout)
	if v, ok := os.LookupEnv(NotifyURLsEnv); ok {
		c.NotifyURLs = SplitURLs(v)
	}

	r := &c.Reminder
	r.Hour = getEnvInt(DefaultHourEnv, r.Hour)
	r.Minute = getEnvInt(DefaultMinuteEnv, r.Minute)
	r.OneShotSeconds = getEnvInt(OneShotSecondsEnv, r.OneShotSeconds)
	r.Title = getEnv(ReminderTitleEnv, r.Title)
	r.Body = getEnv(ReminderBodyEnv, r.Body)
	return c
}

// Load is FromEnv(Default()).
func Load() Config {
	return FromEnv(Default())
}

// DBPath is the SQLite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// LogPath is the daemon log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, logFileName)
}

// PidPath is the daemon PID file location.
func (c Config) PidPath() string {
	return filepath.Join(c.DataDir, pidFileName)
}

// BaseURL is the prefix of action links.
func (c Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return "http://" + c.Listen
}

// SplitURLs splits a comma or whitespace separated URL list.
func SplitURLs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

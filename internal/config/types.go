package config

import (
	"strings"
	"time"
)

// Config is blastbot's on-disk configuration.
//
// It is loaded and validated once at startup; the running dispatcher never
// re-reads it. YAML and JSON files are both accepted (see Load).
type Config struct {
	Telegram TelegramConfig `json:"telegram"`

	// Destinations lists delivery targets as string tokens: numeric chat
	// ids or @usernames. Order is the delivery order within a round.
	Destinations []string `json:"destinations,omitempty"`

	// DestinationsFile optionally points at a text file with one token
	// per line ("#" comments allowed). Tokens from the file are appended
	// after the inline list.
	DestinationsFile string `json:"destinations_file,omitempty"`

	Message MessageConfig `json:"message"`

	// AuditChat receives round/delivery status reports.
	AuditChat string `json:"audit_chat"`

	Intervals IntervalsConfig `json:"intervals,omitempty"`
	Stats     StatsConfig     `json:"stats,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
	Storage   StorageConfig   `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token      string `json:"token"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// MessageConfig holds the fixed text delivered each round. Escaped newline
// sequences ("\n") are unescaped at load time; File, when set, wins over
// Text.
type MessageConfig struct {
	Text string `json:"text,omitempty"`
	File string `json:"file,omitempty"`
}

// IntervalsConfig values are Go duration strings (e.g. "90s", "5m").
// Unset or invalid values fall back to defaults rather than failing the
// load: a paused dispatcher helps nobody.
type IntervalsConfig struct {
	// Message is the delay between two sends inside a round. Default 90s.
	Message string `json:"message,omitempty"`
	// Round is the delay between two rounds. Default 300s.
	Round string `json:"round,omitempty"`
}

// StatsConfig controls the periodic destination statistics report.
// Schedule is a cron spec ("0 * * * *"); empty disables the report.
type StatsConfig struct {
	Schedule string `json:"schedule,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls the optional delivery-history persistence.
//
// Driver values:
//   - "" / "none": disabled
//   - "file":      append-only JSON Lines file
//   - "sqlite":    SQLite database (build with -tags sqlite)
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

const (
	DefaultMessageInterval = 90 * time.Second
	DefaultRoundInterval   = 300 * time.Second
)

// MessageInterval returns the parsed inter-message delay, falling back to
// DefaultMessageInterval when the field is unset, invalid, or negative.
func (c *Config) MessageInterval() time.Duration {
	return durationOrDefault(c.Intervals.Message, DefaultMessageInterval)
}

// RoundInterval returns the parsed inter-round delay with the same
// fallback behavior as MessageInterval.
func (c *Config) RoundInterval() time.Duration {
	return durationOrDefault(c.Intervals.Round, DefaultRoundInterval)
}

func durationOrDefault(raw string, def time.Duration) time.Duration {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

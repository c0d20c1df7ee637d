package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (append-only jsonl)
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryEntry records one delivery attempt.
// Keep it compact and schema-stable.
type DeliveryEntry struct {
	At          time.Time `json:"at"`
	Destination string    `json:"destination"`
	Title       string    `json:"title,omitempty"`
	MessageID   int       `json:"message_id,omitempty"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
}

package storage

// Package storage persists blastbot's delivery history.
//
// The history is an audit record, not a work queue: the dispatcher never
// reads it back to decide what to send. It currently supports an
// append-only JSON Lines file and an optional SQLite database.

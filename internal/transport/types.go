package transport

import (
	"context"
	"errors"
)

// EntityKind is decided once at resolution time; callers never re-inspect
// chat metadata after that.
type EntityKind string

const (
	KindChannel EntityKind = "channel"
	KindGroup   EntityKind = "group"
	KindUser    EntityKind = "user"
)

// Entity is a resolved destination.
type Entity struct {
	ID       int64
	Kind     EntityKind
	Title    string
	Username string // public handle without "@", empty for private chats
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// ErrNotFound reports that a destination token could not be resolved.
var ErrNotFound = errors.New("transport: entity not found")

// Adapter is the narrow capability the dispatch core needs from the
// messaging transport. Implementations must be initialized (authenticated)
// before the core starts.
type Adapter interface {
	// Resolve maps a destination token (numeric chat id or @username)
	// to an entity.
	Resolve(ctx context.Context, token string) (Entity, error)

	SendText(ctx context.Context, to Entity, text string) (MessageRef, error)

	// MemberCount returns the participant count of a chat. Used by the
	// statistics flow only.
	MemberCount(ctx context.Context, to Entity) (int, error)

	// Leave removes the account from the given chat.
	Leave(ctx context.Context, to Entity) error
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"blastbot/internal/storage"
	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type fakeAdapter struct {
	entities map[string]kit.Entity
	sendErr  error

	mu        sync.Mutex
	sentTo    []int64
	nextMsgID int
}

func (a *fakeAdapter) Resolve(_ context.Context, token string) (kit.Entity, error) {
	ent, ok := a.entities[token]
	if !ok {
		return kit.Entity{}, fmt.Errorf("resolve %q: %w", token, kit.ErrNotFound)
	}
	return ent, nil
}

func (a *fakeAdapter) SendText(_ context.Context, to kit.Entity, _ string) (kit.MessageRef, error) {
	if a.sendErr != nil {
		return kit.MessageRef{}, a.sendErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextMsgID++
	a.sentTo = append(a.sentTo, to.ID)
	return kit.MessageRef{ChatID: to.ID, MessageID: a.nextMsgID}, nil
}

func (a *fakeAdapter) MemberCount(context.Context, kit.Entity) (int, error) { return 0, nil }
func (a *fakeAdapter) Leave(context.Context, kit.Entity) error             { return nil }

type memStore struct {
	mu      sync.Mutex
	entries []storage.DeliveryEntry
}

func (s *memStore) AppendDelivery(_ context.Context, e storage.DeliveryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) Close() error { return nil }

func TestCourierSuccess(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{entities: map[string]kit.Entity{
		"@pub": {ID: -1009, Kind: kit.KindChannel, Title: "Pub", Username: "pub"},
	}}
	rep := &recordingReporter{}
	store := &memStore{}
	c := NewCourier(adapter, rep, store, logx.Nop())

	out := c.Deliver(context.Background(), "@pub", "hello")
	if out.Kind != OutcomeSent {
		t.Fatalf("outcome = %v, want sent", out.Kind)
	}
	if len(rep.msgs) != 1 {
		t.Fatalf("audit messages = %d, want exactly 1", len(rep.msgs))
	}
	if !strings.Contains(rep.msgs[0], "https://t.me/pub/1") {
		t.Fatalf("audit message missing permalink: %q", rep.msgs[0])
	}
	if len(store.entries) != 1 || store.entries[0].Outcome != "sent" {
		t.Fatalf("history = %+v, want one sent entry", store.entries)
	}
}

func TestCourierResolveFailure(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{entities: map[string]kit.Entity{}}
	rep := &recordingReporter{}
	c := NewCourier(adapter, rep, nil, logx.Nop())

	out := c.Deliver(context.Background(), "nosuch", "hello")
	if out.Kind != OutcomeSkipped || out.Reason != SkipUnknown {
		t.Fatalf("outcome = %+v, want skipped/unknown", out)
	}
	if len(rep.msgs) != 1 {
		t.Fatalf("audit messages = %d, want exactly 1", len(rep.msgs))
	}
}

func TestCourierFloodPassthrough(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{
		entities: map[string]kit.Entity{"555": {ID: 555, Kind: kit.KindGroup, Title: "G"}},
		sendErr:  errors.New("Too Many Requests: retry after 60"),
	}
	rep := &recordingReporter{}
	c := NewCourier(adapter, rep, nil, logx.Nop())

	out := c.Deliver(context.Background(), "555", "hello")
	if out.Kind != OutcomeRateLimited {
		t.Fatalf("outcome = %v, want rate_limited", out.Kind)
	}
	if out.WaitSeconds != 60 {
		t.Fatalf("wait = %d, want 60", out.WaitSeconds)
	}
	if len(rep.msgs) != 1 {
		t.Fatalf("audit messages = %d, want exactly 1", len(rep.msgs))
	}
}

func TestCourierClassifiedSkips(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		reason SkipReason
	}{
		{name: "permanent", err: errors.New("CHANNEL_PRIVATE"), reason: SkipPermanent},
		{name: "transient", err: errors.New("CHAT_ADMIN_REQUIRED"), reason: SkipTransient},
		{name: "unknown", err: errors.New("weird failure"), reason: SkipUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			adapter := &fakeAdapter{
				entities: map[string]kit.Entity{"g": {ID: 1, Kind: kit.KindGroup, Title: "G"}},
				sendErr:  tt.err,
			}
			rep := &recordingReporter{}
			store := &memStore{}
			c := NewCourier(adapter, rep, store, logx.Nop())

			out := c.Deliver(context.Background(), "g", "hello")
			if out.Kind != OutcomeSkipped || out.Reason != tt.reason {
				t.Fatalf("outcome = %+v, want skipped/%v", out, tt.reason)
			}
			if len(store.entries) != 1 || store.entries[0].Outcome != "skipped" {
				t.Fatalf("history = %+v, want one skipped entry", store.entries)
			}
		})
	}
}

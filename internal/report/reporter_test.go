package report

import (
	"context"
	"errors"
	"sync"
	"testing"

	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type fakeAdapter struct {
	mu       sync.Mutex
	resolves int
	sent     []string
	sendErr  error
	failRes  bool
}

func (a *fakeAdapter) Resolve(_ context.Context, token string) (kit.Entity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resolves++
	if a.failRes {
		return kit.Entity{}, kit.ErrNotFound
	}
	return kit.Entity{ID: -100555, Kind: kit.KindChannel, Title: "Audit"}, nil
}

func (a *fakeAdapter) SendText(_ context.Context, _ kit.Entity, text string) (kit.MessageRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sendErr != nil {
		return kit.MessageRef{}, a.sendErr
	}
	a.sent = append(a.sent, text)
	return kit.MessageRef{ChatID: -100555, MessageID: len(a.sent)}, nil
}

func (a *fakeAdapter) MemberCount(context.Context, kit.Entity) (int, error) { return 0, nil }
func (a *fakeAdapter) Leave(context.Context, kit.Entity) error             { return nil }

func TestReporterCachesTarget(t *testing.T) {
	t.Parallel()
	adapter := &fakeAdapter{}
	r := New(adapter, "-100555", logx.Nop())

	r.Report(context.Background(), "one")
	r.Report(context.Background(), "two")

	if adapter.resolves != 1 {
		t.Fatalf("resolves = %d, want 1 (cached)", adapter.resolves)
	}
	if len(adapter.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(adapter.sent))
	}
}

func TestReporterSwallowsFailures(t *testing.T) {
	t.Parallel()
	// Send failures and resolve failures must not panic or propagate.
	r := New(&fakeAdapter{sendErr: errors.New("boom")}, "-100555", logx.Nop())
	r.Report(context.Background(), "ignored")

	r = New(&fakeAdapter{failRes: true}, "-100555", logx.Nop())
	r.Report(context.Background(), "ignored")
}

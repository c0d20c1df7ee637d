// Package report delivers best-effort status messages to the operator's
// audit chat. Nothing in here is allowed to fail loudly: audit transport
// problems are logged and swallowed so they can never stall dispatching.
package report

import (
	"context"
	"sync"

	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type Reporter struct {
	adapter kit.Adapter
	token   string
	log     logx.Logger

	mu       sync.Mutex
	entity   kit.Entity
	resolved bool
}

func New(adapter kit.Adapter, token string, log logx.Logger) *Reporter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reporter{adapter: adapter, token: token, log: log}
}

// Report sends text to the audit chat. Errors are logged, never returned.
func (r *Reporter) Report(ctx context.Context, text string) {
	ent, err := r.target(ctx)
	if err != nil {
		r.log.Warn("audit chat unavailable", logx.String("chat", r.token), logx.Err(err))
		return
	}
	if _, err := r.adapter.SendText(ctx, ent, text); err != nil {
		r.log.Warn("audit report failed", logx.String("chat", r.token), logx.Err(err))
	}
}

// target resolves the audit token once and caches the entity; the audit
// chat is fixed for the process lifetime.
func (r *Reporter) target(ctx context.Context) (kit.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.entity, nil
	}
	ent, err := r.adapter.Resolve(ctx, r.token)
	if err != nil {
		return kit.Entity{}, err
	}
	r.entity = ent
	r.resolved = true
	return ent, nil
}

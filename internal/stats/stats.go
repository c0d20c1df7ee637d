// Package stats implements the destination statistics/listing flow: an
// independent, read-only pass over the destination list that reports chat
// metadata and participant counts to the audit channel.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blastbot/internal/dispatch"
	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

// Entry describes one destination, or why it could not be described.
type Entry struct {
	Token   string
	Title   string
	Kind    kit.EntityKind
	Members int
	Err     string
}

// Collect resolves every token and fetches its member count. Failures are
// recorded inline; a bad destination never aborts the listing.
func Collect(ctx context.Context, adapter kit.Adapter, tokens []string, log logx.Logger) []Entry {
	if log.IsZero() {
		log = logx.Nop()
	}
	out := make([]Entry, 0, len(tokens))
	for _, tok := range tokens {
		if ctx.Err() != nil {
			return out
		}
		e := Entry{Token: tok}
		ent, err := adapter.Resolve(ctx, tok)
		if err != nil {
			e.Err = err.Error()
			log.Warn("stats: resolve failed", logx.String("dest", tok), logx.Err(err))
			out = append(out, e)
			continue
		}
		e.Title = ent.Title
		e.Kind = ent.Kind
		n, err := adapter.MemberCount(ctx, ent)
		if err != nil {
			e.Err = err.Error()
			log.Warn("stats: member count failed", logx.String("dest", tok), logx.Err(err))
		} else {
			e.Members = n
		}
		out = append(out, e)
	}
	return out
}

// Format renders the listing as a plain-text audit message.
func Format(entries []Entry, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 [%s] Destination stats (%d chats):\n",
		dispatch.FormatTimestamp(at), len(entries))
	for _, e := range entries {
		switch {
		case e.Title == "" && e.Err != "":
			fmt.Fprintf(&b, "• %s: unavailable (%s)\n", e.Token, e.Err)
		case e.Err != "":
			fmt.Fprintf(&b, "• %q (%s): members unavailable (%s)\n", e.Title, e.Kind, e.Err)
		default:
			fmt.Fprintf(&b, "• %q (%s): %d members\n", e.Title, e.Kind, e.Members)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

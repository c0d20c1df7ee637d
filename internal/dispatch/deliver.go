package dispatch

import (
	"context"
	"fmt"
	"time"

	"blastbot/internal/storage"
	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

// Deliverer sends one message to one destination and reports the attempt.
type Deliverer interface {
	Deliver(ctx context.Context, token, text string) Outcome
}

// Reporter is the audit side channel. Implementations must be
// best-effort: Report never fails past its boundary.
type Reporter interface {
	Report(ctx context.Context, text string)
}

// Courier is the production Deliverer: resolve, send, report, record.
type Courier struct {
	adapter kit.Adapter
	rep     Reporter
	store   storage.Store // nil disables history
	log     logx.Logger

	now func() time.Time
}

func NewCourier(adapter kit.Adapter, rep Reporter, store storage.Store, log logx.Logger) *Courier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Courier{
		adapter: adapter,
		rep:     rep,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Deliver attempts one send. It emits exactly one audit message (success
// or classified failure) before returning and never lets a transport
// failure escape: everything becomes an Outcome.
func (c *Courier) Deliver(ctx context.Context, token, text string) Outcome {
	ent, err := c.adapter.Resolve(ctx, token)
	if err != nil {
		// Resolution failures are opaque: no retry loop here, the
		// destination is just retried on a later round.
		c.log.Warn("resolve failed", logx.String("dest", token), logx.Err(err))
		c.rep.Report(ctx, fmt.Sprintf("❌ [%s] %s: destination could not be resolved.\nAction: check the token.",
			FormatTimestamp(c.now()), token))
		c.record(ctx, token, "", 0, "skipped", err.Error(), "")
		return Outcome{Kind: OutcomeSkipped, Reason: SkipUnknown}
	}

	ref, err := c.adapter.SendText(ctx, ent, text)
	if err != nil {
		cl := Classify(err)
		c.log.Warn("send failed",
			logx.String("dest", token),
			logx.String("severity", cl.Severity.String()),
			logx.Err(err))
		c.rep.Report(ctx, fmt.Sprintf("❌ [%s] Send to %q failed: %s.\nAction: %s",
			FormatTimestamp(c.now()), ent.Title, cl.Description, cl.Advice))
		return c.failureOutcome(ctx, token, ent, cl, err)
	}

	link := Permalink(ent, ref.MessageID)
	c.log.Info("message sent",
		logx.String("dest", token),
		logx.String("title", ent.Title),
		logx.Int("message_id", ref.MessageID))
	c.rep.Report(ctx, fmt.Sprintf("✅ [%s] Sent to %q\n%s",
		FormatTimestamp(c.now()), ent.Title, link))
	c.record(ctx, token, ent.Title, ref.MessageID, "sent", "", link)
	return Outcome{Kind: OutcomeSent}
}

func (c *Courier) failureOutcome(ctx context.Context, token string, ent kit.Entity, cl Classification, err error) Outcome {
	switch cl.Severity {
	case SeverityRateLimited:
		c.record(ctx, token, ent.Title, 0, "rate_limited", err.Error(), "")
		return Outcome{Kind: OutcomeRateLimited, WaitSeconds: cl.WaitSeconds}
	case SeverityPermanent:
		c.record(ctx, token, ent.Title, 0, "skipped", err.Error(), "")
		return Outcome{Kind: OutcomeSkipped, Reason: SkipPermanent}
	case SeverityTransient:
		c.record(ctx, token, ent.Title, 0, "skipped", err.Error(), "")
		return Outcome{Kind: OutcomeSkipped, Reason: SkipTransient}
	default:
		c.record(ctx, token, ent.Title, 0, "skipped", err.Error(), "")
		return Outcome{Kind: OutcomeSkipped, Reason: SkipUnknown}
	}
}

// record appends to the delivery history. Best-effort: history is an
// audit record, never a reason to fail a delivery.
func (c *Courier) record(ctx context.Context, dest, title string, messageID int, outcome, errText, link string) {
	if c.store == nil {
		return
	}
	e := storage.DeliveryEntry{
		At:          c.now(),
		Destination: dest,
		Title:       title,
		MessageID:   messageID,
		Outcome:     outcome,
		Error:       errText,
		Permalink:   link,
	}
	if err := c.store.AppendDelivery(ctx, e); err != nil {
		c.log.Warn("delivery history append failed", logx.Err(err))
	}
}

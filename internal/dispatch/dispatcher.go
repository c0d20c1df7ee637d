package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	logx "blastbot/pkg/logx"
)

// Config is the immutable dispatch configuration. Built once from the
// validated external config; never mutated afterwards.
type Config struct {
	// Destinations in delivery order. Duplicates are allowed but wasteful.
	Destinations []string

	// Text is the fixed message, already unescaped and newline-normalized.
	Text string

	// MessageInterval separates two sends inside a round.
	MessageInterval time.Duration

	// RoundInterval separates a completed round from the next one.
	RoundInterval time.Duration

	// Cooldown is the extra suspension after a round that saw flood
	// control yet still ran to completion. <=0 means the default 300s.
	Cooldown time.Duration
}

// Totals spans the process lifetime. Counters only grow, never reset.
type Totals struct {
	Sent        int
	Failed      int
	RateLimited int
	Rounds      int // completed rounds; the in-flight round is Rounds+1
}

// RoundResult summarizes one finished (or paused) round.
type RoundResult struct {
	Sent        int
	Failed      int
	RateLimited int
	Attempted   int
	Paused      bool
	WaitSeconds int // flood-control hint, valid when Paused
}

var (
	ErrNoDestinations = errors.New("dispatch: destination list is empty")
	ErrNoText         = errors.New("dispatch: message text is empty")
	ErrNoDeliverer    = errors.New("dispatch: deliverer is not initialized")
)

// Dispatcher drives rounds forever. Single logical thread of control:
// destinations are processed strictly one at a time.
type Dispatcher struct {
	cfg     Config
	courier Deliverer
	rep     Reporter
	log     logx.Logger

	mu     sync.Mutex
	totals Totals
}

// New validates the startup preconditions. A violation is returned once
// and the loop never starts; there is no automatic remediation.
func New(cfg Config, courier Deliverer, rep Reporter, log logx.Logger) (*Dispatcher, error) {
	if courier == nil {
		return nil, ErrNoDeliverer
	}
	if len(cfg.Destinations) == 0 {
		return nil, ErrNoDestinations
	}
	if strings.TrimSpace(cfg.Text) == "" {
		return nil, ErrNoText
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 300 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{cfg: cfg, courier: courier, rep: rep, log: log}, nil
}

// Totals returns a snapshot of the cumulative counters.
func (d *Dispatcher) Totals() Totals {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totals
}

// Run loops forever: round, suspend, round, ... The only exit is ctx
// cancellation; there is no natural "done" condition by design.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatch loop starting",
		logx.Int("destinations", len(d.cfg.Destinations)),
		logx.Duration("message_interval", d.cfg.MessageInterval),
		logx.Duration("round_interval", d.cfg.RoundInterval))

	for {
		res, err := d.runRound(ctx)
		d.fold(res)
		if err != nil {
			return err
		}

		switch {
		case res.Paused:
			wait := time.Duration(res.WaitSeconds) * time.Second
			if wait < time.Second {
				wait = time.Second
			}
			d.log.Warn("flood control pause", logx.Duration("wait", wait))
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
		case res.RateLimited > 0:
			// Completed despite flood control somewhere along the way:
			// back off extra hard before touching the API again.
			d.log.Warn("round completed under flood pressure, extra cooldown",
				logx.Duration("cooldown", d.cfg.Cooldown))
			if err := sleepCtx(ctx, d.cfg.RoundInterval+d.cfg.Cooldown); err != nil {
				return err
			}
		default:
			if err := sleepCtx(ctx, d.cfg.RoundInterval); err != nil {
				return err
			}
		}
	}
}

// runRound makes one ordered pass over the destinations. It stops the
// pass immediately on a flood-control outcome; remaining destinations are
// not attempted and the next round restarts from index zero.
func (d *Dispatcher) runRound(ctx context.Context) (RoundResult, error) {
	var res RoundResult
	n := len(d.cfg.Destinations)
	round := d.Totals().Rounds + 1

	d.report(ctx, fmt.Sprintf("🚀 Round %d started: %d destinations.\n%s",
		round, n, d.totalsLine()))

	for i, token := range d.cfg.Destinations {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out := d.courier.Deliver(ctx, token, d.cfg.Text)
		res.Attempted++

		switch out.Kind {
		case OutcomeSent:
			res.Sent++
		case OutcomeSkipped:
			res.Failed++
		case OutcomeRateLimited:
			res.RateLimited++
			res.Paused = true
			res.WaitSeconds = out.WaitSeconds
			d.report(ctx, fmt.Sprintf("⏳ Round %d paused by flood control at %d/%d (wait %ds).\nThis round: ✅ %d / ❌ %d",
				round, i+1, n, out.WaitSeconds, res.Sent, res.Failed))
			return res, nil
		}

		if i < n-1 {
			if err := sleepCtx(ctx, d.cfg.MessageInterval); err != nil {
				return res, err
			}
		}
	}

	d.report(ctx, fmt.Sprintf("🏁 Round %d completed: ✅ %d / ❌ %d.\n%s",
		round, res.Sent, res.Failed, d.totalsLineAfter(res)))
	return res, nil
}

// fold moves a round's counters into the cumulative totals and advances
// the round number. Called exactly once per round, paused or completed.
func (d *Dispatcher) fold(res RoundResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.totals.Sent += res.Sent
	d.totals.Failed += res.Failed
	d.totals.RateLimited += res.RateLimited
	d.totals.Rounds++
}

func (d *Dispatcher) report(ctx context.Context, text string) {
	if d.rep == nil {
		return
	}
	d.rep.Report(ctx, text)
}

func (d *Dispatcher) totalsLine() string {
	t := d.Totals()
	return fmt.Sprintf("Totals: ✅ %d / ❌ %d / ⏳ %d", t.Sent, t.Failed, t.RateLimited)
}

func (d *Dispatcher) totalsLineAfter(res RoundResult) string {
	t := d.Totals()
	return fmt.Sprintf("Totals: ✅ %d / ❌ %d / ⏳ %d",
		t.Sent+res.Sent, t.Failed+res.Failed, t.RateLimited+res.RateLimited)
}

// sleepCtx is the only suspension primitive in the core: a plain timed
// wait that aborts promptly on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

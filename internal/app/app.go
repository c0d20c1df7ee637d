// Package app wires configuration, transport, storage, and the dispatch
// core into runnable modes: dispatch (the long-running loop), stats, and
// leave.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"blastbot/internal/config"
	"blastbot/internal/dispatch"
	"blastbot/internal/report"
	"blastbot/internal/runtime/supervisor"
	"blastbot/internal/stats"
	"blastbot/internal/storage"
	"blastbot/internal/transport/telegram"
	logx "blastbot/pkg/logx"
)

type App struct {
	cfgPath string
	cfg     *config.Config

	log      logx.Logger
	logClose io.Closer

	adapter  *telegram.Adapter
	store    storage.Store
	reporter *report.Reporter
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || (!cfg.Logging.File.Enabled),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}
	log = log.With(logx.String("comp", "app"))

	adapter, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logClose.Close()
		return nil, err
	}
	log.Info("telegram session ready", logx.String("account", adapter.Username()))

	var store storage.Store
	if cfg.Storage.Driver != "" {
		busy, _ := time.ParseDuration(cfg.Storage.BusyTimeout)
		st, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logClose.Close()
			return nil, err
		}
		if st != nil {
			store = st
			log.Info("delivery history enabled", logx.String("driver", cfg.Storage.Driver))
		}
	}

	return &App{
		cfgPath:  cfgPath,
		cfg:      cfg,
		log:      log,
		logClose: logClose,
		adapter:  adapter,
		store:    store,
		reporter: report.New(adapter, cfg.AuditChat, log.With(logx.String("comp", "report"))),
	}, nil
}

// RunDispatch starts the endless dispatch loop plus its background
// helpers (config change watcher, optional scheduled stats, systemd
// notifications). It blocks until ctx is cancelled.
func (a *App) RunDispatch(ctx context.Context) error {
	if err := a.cfg.RequireAuditChat(); err != nil {
		return err
	}
	courier := dispatch.NewCourier(a.adapter, a.reporter, a.store,
		a.log.With(logx.String("comp", "courier")))

	disp, err := dispatch.New(dispatch.Config{
		Destinations:    a.cfg.Destinations,
		Text:            a.cfg.Message.Text,
		MessageInterval: a.cfg.MessageInterval(),
		RoundInterval:   a.cfg.RoundInterval(),
	}, courier, a.reporter, a.log.With(logx.String("comp", "dispatch")))
	if err != nil {
		// Startup precondition failure: surfaced once, never retried.
		return fmt.Errorf("dispatch preconditions: %w", err)
	}

	sup := supervisor.New(ctx, a.log.With(logx.String("comp", "supervisor")))

	sup.Go("config-watch", func(ctx context.Context) error {
		return config.Watch(ctx, a.cfgPath, a.log.With(logx.String("comp", "config")))
	})

	var cr *cron.Cron
	if a.cfg.Stats.Schedule != "" {
		cr = cron.New()
		_, err := cr.AddFunc(a.cfg.Stats.Schedule, func() { a.reportStats(sup.Context()) })
		if err != nil {
			return fmt.Errorf("stats.schedule: %w", err)
		}
		cr.Start()
		a.log.Info("scheduled stats report enabled", logx.String("schedule", a.cfg.Stats.Schedule))
	}

	a.notifySystemd()
	a.startWatchdog(sup)

	runErr := disp.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if cr != nil {
		<-cr.Stop().Done()
	}
	_ = sup.Stop(5 * time.Second)

	if runErr != nil && ctx.Err() != nil {
		// Normal shutdown path.
		a.log.Info("dispatch loop stopped", logx.Any("totals", disp.Totals()))
		return nil
	}
	return runErr
}

// RunStats performs one statistics pass and reports it.
func (a *App) RunStats(ctx context.Context) error {
	if err := a.cfg.RequireAuditChat(); err != nil {
		return err
	}
	a.reportStats(ctx)
	return nil
}

// RunLeave leaves a single destination and reports the result.
func (a *App) RunLeave(ctx context.Context, token string) error {
	ent, err := a.adapter.Resolve(ctx, token)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", token, err)
	}
	if err := a.adapter.Leave(ctx, ent); err != nil {
		return fmt.Errorf("leave %q: %w", ent.Title, err)
	}
	a.log.Info("left chat", logx.String("title", ent.Title), logx.Int64("chat_id", ent.ID))
	a.reporter.Report(ctx, fmt.Sprintf("👋 [%s] Left %q",
		dispatch.FormatTimestamp(time.Now()), ent.Title))
	return nil
}

func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logClose != nil {
		_ = a.logClose.Close()
	}
}

func (a *App) reportStats(ctx context.Context) {
	entries := stats.Collect(ctx, a.adapter, a.cfg.Destinations,
		a.log.With(logx.String("comp", "stats")))
	text := stats.Format(entries, time.Now())
	a.log.Info("destination stats collected", logx.Int("chats", len(entries)))
	a.reporter.Report(ctx, text)
}

func (a *App) notifySystemd() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("systemd notified: ready")
	}
}

// startWatchdog pings the systemd watchdog at half the configured
// interval, when running under a watchdog-enabled unit.
func (a *App) startWatchdog(sup *supervisor.Supervisor) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	sup.Go("sd-watchdog", func(ctx context.Context) error {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

// Package telegram adapts gopkg.in/telebot.v4 to the transport.Adapter
// capability used by the dispatch core.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"golang.org/x/time/rate"

	kit "blastbot/internal/transport"
	logx "blastbot/pkg/logx"
)

type Config struct {
	Token string

	// RatePerSec caps outgoing sends client-side so ordinary operation
	// stays under Telegram's flood control. <=0 means default (25).
	RatePerSec int

	// Timeout bounds a single API call. <=0 means default (10s).
	Timeout time.Duration
}

type Adapter struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 25
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Username returns the authenticated account's handle.
func (a *Adapter) Username() string {
	if a.bot.Me == nil {
		return ""
	}
	return a.bot.Me.Username
}

func (a *Adapter) Resolve(ctx context.Context, token string) (kit.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return kit.Entity{}, err
	}
	tok := strings.TrimSpace(token)
	if tok == "" {
		return kit.Entity{}, fmt.Errorf("%w: empty token", kit.ErrNotFound)
	}

	var (
		chat *tele.Chat
		err  error
	)
	if id, perr := strconv.ParseInt(tok, 10, 64); perr == nil {
		chat, err = a.bot.ChatByID(id)
	} else {
		chat, err = a.bot.ChatByUsername(tok)
	}
	if err != nil {
		return kit.Entity{}, fmt.Errorf("resolve %q: %w", tok, err)
	}
	return entityFromChat(chat), nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.Entity, text string) (kit.MessageRef, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return kit.MessageRef{}, err
	}
	msg, err := a.bot.Send(&tele.Chat{ID: to.ID}, text)
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ID, MessageID: msg.ID}, nil
}

func (a *Adapter) MemberCount(ctx context.Context, to kit.Entity) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	return a.bot.Len(&tele.Chat{ID: to.ID})
}

func (a *Adapter) Leave(ctx context.Context, to kit.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return a.bot.Leave(&tele.Chat{ID: to.ID})
}

func entityFromChat(c *tele.Chat) kit.Entity {
	e := kit.Entity{ID: c.ID, Title: c.Title, Username: c.Username}
	switch c.Type {
	case tele.ChatChannel, tele.ChatChannelPrivate:
		e.Kind = kit.KindChannel
	case tele.ChatGroup, tele.ChatSuperGroup:
		e.Kind = kit.KindGroup
	default:
		e.Kind = kit.KindUser
		if e.Title == "" {
			e.Title = strings.TrimSpace(c.FirstName + " " + c.LastName)
		}
	}
	if e.Title == "" {
		e.Title = strconv.FormatInt(c.ID, 10)
	}
	return e
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

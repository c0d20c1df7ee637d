// Package supervisor manages named background goroutines tied to a shared
// context, with panic recovery and timeout-aware graceful stop.
package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	logx "blastbot/pkg/logx"
)

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    logx.Logger
	wg     sync.WaitGroup
}

func New(parent context.Context, log logx.Logger) *Supervisor {
	if parent == nil {
		parent = context.Background()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel, log: log}
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Go starts a named goroutine under the supervisor's context. Panics are
// recovered and logged; returned errors are logged, not escalated.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				s.log.Error("goroutine panic",
					logx.String("name", name),
					logx.Any("panic", p),
					logx.Stack(string(debug.Stack())))
			}
		}()
		s.log.Debug("goroutine started", logx.String("name", name))
		if err := fn(s.ctx); err != nil && s.ctx.Err() == nil {
			s.log.Error("goroutine exited with error", logx.String("name", name), logx.Err(err))
			return
		}
		s.log.Debug("goroutine stopped", logx.String("name", name))
	}()
}

// Stop cancels the shared context and waits up to timeout for all
// goroutines to exit.
func (s *Supervisor) Stop(timeout time.Duration) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("supervisor: goroutines still running after %s", timeout)
	}
}

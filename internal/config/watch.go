package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "blastbot/pkg/logx"
)

// Watch observes the config file and logs a restart-required notice when
// it changes on disk. The dispatcher's configuration is immutable once the
// loop starts, so changes are deliberately NOT applied live.
//
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, log logx.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: editors typically rename/replace
	// the file, which drops a direct file watch.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(path)

	// Debounce: editors emit bursts of events per save.
	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(500 * time.Millisecond)
				pendingC = pending.C
			} else {
				pending.Reset(500 * time.Millisecond)
			}
		case <-pendingC:
			pending = nil
			pendingC = nil
			log.Warn("config file changed on disk; changes apply on the next restart",
				logx.String("path", path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", logx.Err(err))
		}
	}
}

package catalogcache

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher event kinds.
const (
	EventUpdated     = "updated"
	EventUnavailable = "unavailable"
)

const debounceDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven rebuild attempt.
// kind is EventUpdated or EventUnavailable; revision is empty for the latter.
type EventCallback func(kind, locale, revision string)

// Watch observes the directories that contain the source documents and
// refreshes the affected locale caches until ctx is cancelled.
//
// Editors often replace a file through rename, so the parent directory is
// watched instead of the file itself. Bursts of events are debounced and
// each affected locale is rebuilt once per burst.
func Watch(ctx context.Context, reg *Registry, paths map[string]string, logger *slog.Logger, cb EventCallback) error {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byPath := make(map[string][]string, len(paths))
	dirs := make(map[string]struct{})
	for locale, p := range paths {
		clean := filepath.Clean(p)
		byPath[clean] = append(byPath[clean], locale)
		dirs[filepath.Dir(clean)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
		logger.Info("watcher: started", slog.String("dir", dir))
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounceDelay)
			timerCh = timer.C
		} else {
			timer.Reset(debounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			locales := make([]string, 0, len(pending))
			for locale := range pending {
				locales = append(locales, locale)
			}
			sort.Strings(locales)
			clear(pending)
			for _, locale := range locales {
				refresh(ctx, reg, locale, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			locales, watched := byPath[filepath.Clean(ev.Name)]
			if !watched || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: source changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			for _, locale := range locales {
				pending[locale] = struct{}{}
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func refresh(ctx context.Context, reg *Registry, locale string, logger *slog.Logger, cb EventCallback) {
	c, err := reg.Cache(locale)
	if err != nil {
		return
	}
	prev := c.Peek()
	snap, err := c.Refresh(ctx)
	if err != nil {
		logger.Warn("watcher: rebuild failed",
			slog.String("locale", locale),
			slog.String("error", err.Error()))
		if cb != nil {
			cb(EventUnavailable, locale, "")
		}
		return
	}
	if prev != nil && prev.Revision == snap.Revision {
		return
	}
	if cb != nil {
		cb(EventUpdated, locale, snap.Revision)
	}
}

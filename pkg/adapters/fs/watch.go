package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/nodeattr/pkg/core"
)

// DebounceInterval groups bursts of changes to the same file into one event.
var DebounceInterval = 50 * time.Millisecond

// Watch emits a change event whenever one of the given files is created,
// written, or removed. Parent directories are watched so that atomic
// replacements (temp file + rename) are seen. The channel is closed when
// ctx is done.
func Watch(ctx context.Context, paths []string, logger *slog.Logger) (<-chan core.Event, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, err
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	events := make(chan core.Event)
	w := &fileWatcher{
		watcher: watcher,
		targets: targets,
		events:  events,
		logger:  logger,
		pending: make(map[string]core.EventType),
	}

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("watcher stopped", "error", err)
	}))
	return events, nil
}

type fileWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]bool
	events  chan<- core.Event
	logger  *slog.Logger
	pending map[string]core.EventType
}

func (w *fileWatcher) run(ctx context.Context) (err error) {
	defer close(w.events)
	defer w.watcher.Close()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("watcher panic", "error", err)
			}
		}
	}()

	timer := time.NewTimer(DebounceInterval)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if w.record(event) {
				timer.Reset(DebounceInterval)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)

		case <-timer.C:
			if !w.flush(ctx) {
				return nil
			}
		}
	}
}

// record adds a relevant event to the pending set.
func (w *fileWatcher) record(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if strings.HasPrefix(filepath.Base(name), TempFilePrefix) || !w.targets[name] {
		return false
	}

	var t core.EventType
	switch {
	case event.Has(fsnotify.Create):
		t = core.EventCreate
	case event.Has(fsnotify.Write):
		t = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		t = core.EventDelete
	default:
		return false
	}

	w.logger.Debug("event received", "name", name, "type", t)
	// A create followed by writes is still a create.
	if prev, ok := w.pending[name]; ok && prev == core.EventCreate && t == core.EventModify {
		t = prev
	}
	w.pending[name] = t
	return true
}

// flush sends pending events in path order. It returns false when ctx is done.
func (w *fileWatcher) flush(ctx context.Context) bool {
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().Unix()
	for _, name := range names {
		e := core.Event{Type: w.pending[name], ID: name, Timestamp: now}
		delete(w.pending, name)
		select {
		case w.events <- e:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

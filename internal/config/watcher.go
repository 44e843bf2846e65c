package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// WatchEvent carries reloaded settings, or the error that prevented a reload.
type WatchEvent struct {
	Err      error
	Settings Settings
}

// Watcher reloads the reloadable settings whenever the .env file changes.
type Watcher struct {
	mu            sync.Mutex
	path          string
	current       Settings
	watcher       *fsnotify.Watcher
	eventChan     chan WatchEvent
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// NewWatcher starts watching path. Keys missing from the file keep their
// value from initial.
func NewWatcher(path string, initial Settings) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("no .env file to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:      path,
		current:   initial,
		watcher:   fw,
		eventChan: make(chan WatchEvent, 10),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns the channel of reload results.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.eventChan
}

// Current returns the last successfully loaded settings.
func (w *Watcher) Current() Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendEvent(WatchEvent{Err: err})

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	values, err := godotenv.Read(w.path)
	if err != nil {
		logger.Warn("failed to reload settings", "path", w.path, "error", err)
		w.sendEvent(WatchEvent{Err: fmt.Errorf("failed to read %s: %w", w.path, err)})
		return
	}

	w.mu.Lock()
	next := settingsFrom(func(key string) string { return values[key] }, w.current)
	if err := next.Validate(); err != nil {
		w.mu.Unlock()
		logger.Warn("ignoring invalid settings", "path", w.path, "error", err)
		w.sendEvent(WatchEvent{Err: err})
		return
	}
	w.current = next
	w.mu.Unlock()

	logger.Info("settings reloaded",
		"poll_interval", next.PollInterval,
		"alert_threshold", next.AlertThreshold,
		"desktop_notify", next.DesktopNotify)
	w.sendEvent(WatchEvent{Settings: next})
}

// sendEvent sends an event to the event channel non-blocking.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case <-w.stopChan:
		return
	default:
	}
	select {
	case w.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

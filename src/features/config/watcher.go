package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 2 * time.Second

// Watcher reloads the configuration when the config file changes on disk.
type Watcher struct {
	watcher       *fsnotify.Watcher
	manager       *Manager
	configPath    string
	onReload      func(*Config)
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	running       bool
	stopChan      chan struct{}
}

// NewWatcher creates a new config file watcher. onReload is called with the
// freshly loaded config after the manager has been updated; it may be nil.
func NewWatcher(manager *Manager, configPath string, onReload func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    watcher,
		manager:    manager,
		configPath: configPath,
		onReload:   onReload,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins watching the config file for changes. The parent directory is
// watched because editors replace files instead of writing in place.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	slog.Info("Starting config watcher", "path", w.configPath)

	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.running = true
	go w.watchLoop(ctx)

	return nil
}

// Stop stops the config watcher
func (w *Watcher) Stop() {
	if !w.running {
		return
	}

	slog.Info("Stopping config watcher")
	w.running = false
	close(w.stopChan)

	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()

	w.watcher.Close()
}

// watchLoop processes file system events
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent debounces write events on the config file
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(reloadDebounce, func() {
		w.reload()
	})
}

// reload re-reads the config file and swaps it into the manager. A file that
// fails to parse or validate leaves the previous configuration in place.
func (w *Watcher) reload() {
	cfg, err := readConfigFile(w.configPath)
	if err != nil {
		slog.Error("Config reload failed, keeping previous configuration", "path", w.configPath, "error", err)
		return
	}

	applyEnvOverrides(cfg)
	w.manager.Update(cfg)
	slog.Info("Configuration reloaded", "path", w.configPath)

	if w.onReload != nil {
		w.onReload(cfg)
	}
}

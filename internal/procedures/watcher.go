package procedures

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a registry from a signature directory whenever a
// signature file in it changes. Bursts of events are coalesced; each
// reload replaces the registry contents in one snapshot swap.
type Watcher struct {
	mu sync.Mutex

	dir      string
	registry *Registry
	logger   *slog.Logger

	fsWatcher *fsnotify.Watcher

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	debounceDelay time.Duration
	eventTimer    *time.Timer

	onReload func(n int)
	onError  func(err error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the watcher waits for more events
// before reloading. Default is 100ms.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnReload sets a callback run after each successful reload with the
// number of signatures loaded from the directory.
func WithOnReload(fn func(n int)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithOnError sets a callback for watch and reload errors. A failed
// reload keeps the previous snapshot.
func WithOnError(fn func(err error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for dir. Call Start to begin watching.
func NewWatcher(dir string, registry *Registry, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		dir:           dir,
		registry:      registry,
		logger:        logger,
		fsWatcher:     fsw,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		debounceDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the directory once and begins watching it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.reload(); err != nil {
		return err
	}
	if err := w.addWatches(); err != nil {
		return err
	}
	w.logger.Info("procedure watcher started", "dir", w.dir)

	go w.processEvents()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.eventTimer != nil {
		w.eventTimer.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.logger.Info("procedure watcher stopped", "dir", w.dir)
	return w.fsWatcher.Close()
}

func (w *Watcher) addWatches() error {
	return filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsSignatureFile(event.Name) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				_ = w.fsWatcher.Add(event.Name)
			}
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.eventTimer != nil {
		w.eventTimer.Stop()
	}
	w.eventTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.reload(); err != nil {
			w.fail(err)
		}
	})
}

func (w *Watcher) reload() error {
	sigs, err := LoadDir(w.dir)
	if err != nil {
		return err
	}
	if err := w.registry.Replace(sigs); err != nil {
		return err
	}
	w.logger.Debug("procedures reloaded", "dir", w.dir, "count", len(sigs))
	if w.onReload != nil {
		w.onReload(len(sigs))
	}
	return nil
}

func (w *Watcher) fail(err error) {
	w.logger.Error("procedure watcher error", "error", err)
	if w.onError != nil {
		w.onError(err)
	}
}

package file

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ansa/internal/logger"
)

// debounceDelay coalesces editor write bursts into a single reload.
const debounceDelay = 500 * time.Millisecond

// Watcher monitors a config store's file and reloads it on change.
// Long-running surfaces (TUI, MCP server) use it so settings edits
// take effect without a restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *ConfigStore
	onReload func()
	stopChan chan struct{}
}

// NewWatcher creates a watcher for the given config store. onReload is
// called after each successful reload; it may be nil.
func NewWatcher(store *ConfigStore, onReload func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file itself: editors often
	// replace the file on save, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(store.Path())); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		store:    store,
		onReload: onReload,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
	logger.Debug("Started config file watcher for %s", w.store.Path())
}

// Stop ends watching and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.watcher.Close()
	logger.Debug("Stopped config file watcher")
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.store.Path() {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			// Debounce events
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		logger.Warn("Reloading config failed: %v", err)
		return
	}
	logger.Debug("Reloaded config from %s", w.store.Path())
	if w.onReload != nil {
		w.onReload()
	}
}

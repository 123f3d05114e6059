package binding

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store when binding files change on disk, so edits made
// by another process (or a stale editor window) show up without a restart.
type Watcher struct {
	dir      string
	store    *Store
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	handlers []func()
	done     chan struct{}
}

// NewWatcher creates a watcher over the binding directory. The directory
// must exist; call Store.Save first when setting up a fresh profile.
func NewWatcher(dir string, store *Store) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		store:   store,
		watcher: w,
		done:    make(chan struct{}),
	}, nil
}

// Start starts watching for binding file changes.
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

// OnReload registers a handler called after the store has been reloaded.
func (w *Watcher) OnReload(handler func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Editors often save via rename, which shows up as Create.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".config.json") {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("binding watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	w.store.Load(w.dir)
	slog.Info("bindings reloaded", "dir", w.dir)

	w.mu.Lock()
	handlers := make([]func(), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/mapcast/internal/logging"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 100 * time.Millisecond

// Handler receives the previous and the reloaded configuration.
type Handler func(old, cur Config)

// Watcher reloads the configuration file when it changes.
type Watcher struct {
	mu       sync.RWMutex
	src      Source
	current  Config
	handlers []Handler
	debounce time.Duration
	log      *logging.Logger
}

// NewWatcher creates a watcher for src.File starting from cur.
func NewWatcher(src Source, cur Config, log *logging.Logger) *Watcher {
	return &Watcher{
		src:      src,
		current:  cur,
		debounce: DefaultDebounce,
		log:      logging.OrDefault(log).WithComponent("config"),
	}
}

// SetDebounce changes the delay between the last event and the reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

// OnChange registers a handler for successful reloads.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Current returns the last loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run watches the directory holding the file until ctx is cancelled.
// Watching the directory keeps working across editors that replace the
// file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	path, err := filepath.Abs(w.src.File)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	w.log.Info("watching %s", path)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.mu.RLock()
			d := w.debounce
			w.mu.RUnlock()
			if timer == nil {
				timer = time.NewTimer(d)
			} else {
				timer.Reset(d)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.Reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}

// Reload loads the configuration again and notifies the handlers. A
// configuration that fails to load is logged and the current one kept.
func (w *Watcher) Reload() bool {
	cfg, err := Load(w.src)
	if err != nil {
		w.log.Warn("reload %s: %v", w.src.File, err)
		return false
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()

	w.log.Info("reloaded %s", w.src.File)
	for _, h := range handlers {
		h(old, cfg)
	}
	return true
}

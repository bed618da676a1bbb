// Package dbwatch re-runs live queries when another process writes to the
// database file.
package dbwatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Refresher re-runs live queries. docstore.Store implements it.
type Refresher interface {
	Refresh()
}

// Watcher watches a SQLite database file, including its -wal and -journal
// siblings, and calls Refresh once per burst of writes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	target   Refresher
	dbPath   string
	debounce time.Duration
	logger   *slog.Logger

	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	stopped bool
}

// New creates a watcher for the database at dbPath. It does nothing until
// Start.
func New(dbPath string, target Refresher, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		watcher:  watcher,
		target:   target,
		dbPath:   abs,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the database's directory. SQLite replaces and recreates the
// journal files, so watching the directory catches writes a watch on the
// file alone would miss.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}

	dir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch database directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	w.logger.Debug("watching database", "path", w.dbPath)
	return nil
}

// Stop ends the watch, releases the fsnotify handle and waits for the event
// loop to exit. A pending refresh is dropped. Stop also releases a watcher
// whose Start failed.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("database watch error", "error", err)
		}
	}
}

// relevant reports whether event is a write to the database or one of its
// journal files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.dbPath || strings.HasPrefix(name, w.dbPath+"-")
}

// schedule refreshes after the debounce interval, restarting the interval on
// every event so a burst of writes yields one refresh.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}
	w.logger.Debug("database changed on disk, refreshing live queries")
	w.target.Refresh()
}

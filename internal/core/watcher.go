package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gardenplanner/pkg/domain"
)

// DefaultWatchDebounce collapses bursts of file events from one write.
const DefaultWatchDebounce = 200 * time.Millisecond

// StoreWatcher observes a SQLite store file for writes made by other
// processes and publishes External change events for every registry key.
// SQLite keeps no per-key change log, so a write to the file is reported
// as a change to all keys.
type StoreWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	feed     *ChangeFeed
	logger   Logger
	clock    Clock
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    WatcherStats
}

// WatcherStats counts what the watcher has seen.
type WatcherStats struct {
	Events    int
	Published int
	Errors    int
	LastEvent time.Time
}

// NewStoreWatcher prepares a watcher for the database file at path. A
// non-positive debounce uses DefaultWatchDebounce.
func NewStoreWatcher(path string, feed *ChangeFeed, debounce time.Duration, logger Logger) (*StoreWatcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store watcher needs a file path")
	}
	if feed == nil {
		return nil, errors.New("store watcher needs a change feed")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = noopLogger{}
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return &StoreWatcher{
		watcher:  w,
		path:     abs,
		feed:     feed,
		logger:   logger,
		clock:    ClockFunc(nil),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory holding the store file. The rollback journal
// and WAL files count as writes to the store.
func (sw *StoreWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return nil
	}
	sw.running = true
	sw.mu.Unlock()

	if err := sw.watcher.Add(filepath.Dir(sw.path)); err != nil {
		sw.mu.Lock()
		sw.running = false
		sw.mu.Unlock()
		return err
	}
	sw.logger.Info("watching store", "path", sw.path)
	go sw.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the watcher. It is safe to call
// more than once and after the context passed to Start is done.
func (sw *StoreWatcher) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.stopCh)
	<-sw.doneCh
	if err := sw.watcher.Close(); err != nil {
		sw.logger.Error("closing store watcher", "error", err)
	}
}

// Stats returns a copy of the counters.
func (sw *StoreWatcher) Stats() WatcherStats {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.stats
}

func (sw *StoreWatcher) run(ctx context.Context) {
	defer close(sw.doneCh)
	tick := time.NewTicker(sw.debounce / 4)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handle(ev)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("store watcher error", "error", err)
			sw.mu.Lock()
			sw.stats.Errors++
			sw.mu.Unlock()
		case <-tick.C:
			sw.flush()
		}
	}
}

func (sw *StoreWatcher) handle(ev fsnotify.Event) {
	if !sw.isStoreFile(ev.Name) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	now := sw.clock.Now()
	sw.mu.Lock()
	sw.stats.Events++
	sw.stats.LastEvent = now
	sw.pending = now
	sw.mu.Unlock()
}

func (sw *StoreWatcher) isStoreFile(name string) bool {
	name = filepath.Clean(name)
	if !filepath.IsAbs(name) {
		if abs, err := filepath.Abs(name); err == nil {
			name = abs
		}
	}
	for _, suffix := range []string{"", "-wal", "-journal"} {
		if name == sw.path+suffix {
			return true
		}
	}
	return false
}

func (sw *StoreWatcher) flush() {
	now := sw.clock.Now()
	sw.mu.Lock()
	if sw.pending.IsZero() || now.Sub(sw.pending) < sw.debounce {
		sw.mu.Unlock()
		return
	}
	sw.pending = time.Time{}
	sw.stats.Published++
	sw.mu.Unlock()

	for _, key := range domain.KnownKeys() {
		sw.feed.Publish(ChangeEvent{Key: key, External: true, At: now})
	}
	sw.logger.Debug("store changed on disk", "path", sw.path)
}

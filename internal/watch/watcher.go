package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/duyhunghd6/repo-analyzer/internal/store"
)

// Reprocessor queues a fresh job for a repository.
type Reprocessor interface {
	Reprocess(id string) error
}

// Config configures a Watcher.
type Config struct {
	ExcludeDirs []string      // Directory names never watched
	Debounce    time.Duration // Quiet period before a change triggers a job
}

// Watcher observes the directories of repositories scanned in place and
// requests reprocessing once a burst of changes has settled.
type Watcher struct {
	fs       *fsnotify.Watcher
	target   Reprocessor
	exclude  map[string]bool
	debounce time.Duration

	mu      sync.Mutex
	roots   map[string]string    // root -> repository id
	pending map[string]time.Time // repository id -> last change

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher that reports to target.
func New(target Reprocessor, cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		fs:       fsw,
		target:   target,
		exclude:  make(map[string]bool, len(cfg.ExcludeDirs)),
		debounce: cfg.Debounce,
		roots:    make(map[string]string),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
	for _, d := range cfg.ExcludeDirs {
		w.exclude[d] = true
	}
	return w, nil
}

// Track starts watching root on behalf of repository id. Tracking the same
// root again picks up directories created while no events were seen.
func (w *Watcher) Track(id, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.roots[root] = id
	w.mu.Unlock()

	return w.addDirRecursive(root)
}

// Tracked returns the number of watched repository roots.
func (w *Watcher) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.roots)
}

// Run processes events until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] error: %v", err)
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

// Stop ends Run and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.fs.Close()
	})
}

func (w *Watcher) addDirRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.exclude[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			log.Printf("[watch] add %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	id, root, ok := w.owner(ev.Name)
	if !ok || w.excluded(root, ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addDirRecursive(ev.Name); err != nil {
				log.Printf("[watch] add %s: %v", ev.Name, err)
			}
		}
	}
	w.queue(id, time.Now())
}

// owner finds the tracked root containing path.
func (w *Watcher) owner(path string) (id, root string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := path; ; {
		if id, ok := w.roots[dir]; ok {
			return id, dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", false
		}
		dir = parent
	}
}

// excluded reports whether any directory between root and path is excluded.
func (w *Watcher) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, p := range parts[:len(parts)-1] {
		if w.exclude[p] {
			return true
		}
	}
	return false
}

func (w *Watcher) queue(id string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[id] = at
}

// flush requests reprocessing for every repository quiet since debounce.
// A busy repository stays queued and is retried on a later tick.
func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	var due []string
	for id, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			due = append(due, id)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	for _, id := range due {
		err := w.target.Reprocess(id)
		switch {
		case err == nil:
			log.Printf("[watch] %s changed, reprocessing", id)
		case errors.Is(err, store.ErrBusy):
			w.mu.Lock()
			if _, ok := w.pending[id]; !ok {
				w.pending[id] = now
			}
			w.mu.Unlock()
		default:
			log.Printf("[watch] %s: %v", id, err)
		}
	}
}

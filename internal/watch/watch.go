// Package watch reports source files dropped into an inbox directory once
// they have stopped changing.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const eventBuffer = 100

// Config configures an inbox watcher.
type Config struct {
	// Debounce is how long a file must be quiet before it is reported.
	Debounce time.Duration
	// Extensions lists the file extensions to report, with leading dots.
	Extensions []string
	// ExcludeDirs names directories that are never watched.
	ExcludeDirs []string
	// Existing reports files already present when the watcher starts.
	Existing bool
}

// Event is a new or changed file ready for processing.
type Event struct {
	Path    string // relative to the inbox
	AbsPath string
	Hash    string
	Created bool
}

// Watcher watches an inbox directory tree.
type Watcher struct {
	root       string
	cfg        Config
	fsw        *fsnotify.Watcher
	log        *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool

	mu      sync.Mutex
	pending map[string]time.Time
	hashes  map[string]string

	events chan Event
}

// New creates a watcher for root. Nothing is watched until Start.
func New(root string, cfg Config, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = []string{".git", "node_modules", "vendor"}
	}

	w := &Watcher{
		root:       root,
		cfg:        cfg,
		fsw:        fsw,
		log:        log,
		extensions: make(map[string]bool),
		excludes:   make(map[string]bool),
		pending:    make(map[string]time.Time),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventBuffer),
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extensions[strings.ToLower(ext)] = true
	}
	for _, d := range cfg.ExcludeDirs {
		w.excludes[d] = true
	}
	return w, nil
}

// Events returns the channel of ready files. It is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start creates the inbox if needed, registers watches and begins
// delivering events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	if err := w.addTree(w.root); err != nil {
		return err
	}
	go w.loop(ctx)
	w.log.Info("inbox watcher started", "dir", w.root, "debounce", w.cfg.Debounce)
	return nil
}

// Stop closes the underlying watcher; Events is closed shortly after.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) excluded(dir string) bool {
	base := filepath.Base(dir)
	return w.excludes[base] || (strings.HasPrefix(base, ".") && dir != w.root)
}

func (w *Watcher) wanted(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// addTree watches dir and its subdirectories. With Existing set, files
// found along the way are queued as if they had just been written.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if w.cfg.Existing && w.wanted(path) {
				w.touch(path, time.Time{})
			}
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) touch(path string, at time.Time) {
	w.mu.Lock()
	w.pending[path] = at
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(max(w.cfg.Debounce/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.pending, ev.Name)
		delete(w.hashes, ev.Name)
		w.mu.Unlock()
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.excluded(ev.Name) {
				if err := w.addTree(ev.Name); err != nil {
					w.log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
				}
			}
			return
		}
	}
	if !w.wanted(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		w.touch(ev.Name, time.Now())
	}
}

// flush emits files that have been quiet for the debounce period and whose
// content differs from the last emitted version.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.cfg.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				w.log.Warn("failed to read file", "path", path, "error", err)
			}
			continue
		}
		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])

		w.mu.Lock()
		old, seen := w.hashes[path]
		if seen && old == hash {
			w.mu.Unlock()
			continue
		}
		w.hashes[path] = hash
		w.mu.Unlock()

		rel, _ := filepath.Rel(w.root, path)
		ev := Event{Path: rel, AbsPath: path, Hash: hash, Created: !seen}
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

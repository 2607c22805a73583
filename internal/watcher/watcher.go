// Package watcher provides file watching and automatic index updates for a
// tracker, used by `mun watch` and `mun serve`.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/munin/internal/index"
	"github.com/aidanlsb/munin/internal/tracker"
)

// Watcher monitors a tracker's records and notes directories and keeps the
// index in step with file changes.
type Watcher struct {
	tracker *tracker.Tracker
	db      *index.Database

	debounceDelay time.Duration
	debug         bool

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	onUpdate func(path string, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Tracker       *tracker.Tracker
	Database      *index.Database
	DebounceDelay time.Duration // default 100ms
	Debug         bool
	OnUpdate      func(path string, err error) // optional callback
}

// New creates a Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		tracker:       cfg.Tracker,
		db:            cfg.Database,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		pending:       make(map[string]time.Time),
		onUpdate:      cfg.OnUpdate,
	}, nil
}

// Start begins watching. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	for _, dir := range []string{w.tracker.RecordsPath(), w.tracker.NotesPath()} {
		if err := w.addWatchRecursive(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.logDebug("Watching tracker: %s", w.tracker.Root)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("Watcher error: %v", err)
		}
	}
}

// UpdateFile re-decodes one changed file into the index. A changed record
// also re-decodes its notes, since the record's template decides their
// field context.
func (w *Watcher) UpdateFile(path string) error {
	kind, recordID, noteID, ok := w.classify(path)
	if !ok {
		return nil
	}

	switch kind {
	case fileRecord:
		return w.updateRecord(recordID)
	case fileNote:
		return w.updateNote(recordID, noteID)
	}
	return nil
}

// RemoveFile drops a deleted file's rows from the index.
func (w *Watcher) RemoveFile(path string) error {
	kind, recordID, noteID, ok := w.classify(path)
	if !ok {
		return nil
	}

	switch kind {
	case fileRecord:
		return w.db.DeleteRecord(recordID)
	case fileNote:
		return w.db.DeleteNote(noteID)
	}
	return nil
}

func (w *Watcher) updateRecord(recordID string) error {
	path := w.tracker.RecordPath(recordID)
	mtime := statMtime(path)

	r, err := w.tracker.LoadRecord(recordID)
	if err != nil {
		return err
	}
	if err := w.db.ReplaceRecord(r, mtime); err != nil {
		return err
	}

	// The record's template governs how its notes decode.
	noteIDs, err := w.tracker.NoteFiles(recordID)
	if err != nil {
		return err
	}
	for _, noteID := range noteIDs {
		if err := w.updateNote(recordID, noteID); err != nil {
			w.logDebug("Failed to refresh note %s: %v", noteID, err)
		}
	}
	return nil
}

func (w *Watcher) updateNote(recordID, noteID string) error {
	path := w.tracker.NotePath(recordID, noteID)
	mtime := statMtime(path)

	n, err := w.tracker.LoadNote(recordID, noteID)
	if err != nil {
		return err
	}
	return w.db.ReplaceNote(n, mtime)
}

type fileKind int

const (
	fileRecord fileKind = iota
	fileNote
)

// classify maps an absolute path to a record or note id. Paths outside the
// records/ and notes/ trees, and non-markdown files, report ok=false.
func (w *Watcher) classify(path string) (kind fileKind, recordID, noteID string, ok bool) {
	if !strings.HasSuffix(path, ".md") {
		return 0, "", "", false
	}

	rel, err := filepath.Rel(w.tracker.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return 0, "", "", false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	base := strings.TrimSuffix(parts[len(parts)-1], ".md")

	switch {
	case len(parts) == 2 && parts[0] == tracker.RecordsDirName:
		return fileRecord, base, "", true
	case len(parts) == 3 && parts[0] == tracker.NotesDirName:
		return fileNote, parts[1], base, true
	}
	return 0, "", "", false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".md") {
		// New note directories must be added to the watch.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addWatchRecursive(path)
			}
		}
		return
	}

	if w.shouldIgnore(path) {
		return
	}

	w.logDebug("Event: %s %s", event.Op, path)

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.scheduleUpdate(path)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		if err := w.RemoveFile(path); err != nil {
			w.logDebug("Failed to remove from index: %v", err)
		}
	}
}

// scheduleUpdate adds a file to the pending queue with debouncing, so a
// burst of writes to one file indexes once.
func (w *Watcher) scheduleUpdate(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	ready := make([]string, 0)

	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		err := w.UpdateFile(path)
		if w.onUpdate != nil {
			w.onUpdate(path, err)
		}
		if err != nil {
			w.logDebug("Failed to update %s: %v", path, err)
		} else {
			w.logDebug("Updated: %s", path)
		}
	}
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logDebug("Failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.tracker.Root, path)
	if err != nil {
		return false
	}

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == tracker.DirName || part == ".git" {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	return base == tracker.DirName || base == ".git"
}

func (w *Watcher) logDebug(format string, args ...interface{}) {
	if w.debug {
		fmt.Fprintf(os.Stderr, "[munin-watcher] "+format+"\n", args...)
	}
}

func statMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

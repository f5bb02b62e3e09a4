// Package watcher monitors scanned folders and reports structural changes via
// callbacks.
package watcher

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CageChen/foldertree/internal/config"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Event represents a file system change event
type Event struct {
	Type EventType
	Path string
}

// root is one watched folder. Exclude patterns match paths relative to
// base, the same way the scanner applies them.
type root struct {
	base    string
	start   string
	exclude []string
}

// Callback is a function called when the tree shape may have changed
type Callback func(Event)

// Watcher watches every local folder in the config. Writes are ignored
// because they never change the tree shape.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	callbacks []Callback
	roots     []root
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new file system watcher
func New(cfg *config.Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		cfg:     cfg,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start adds every directory below the configured folders and begins
// delivering events. Git ref folders are skipped since they read from the
// object database.
func (w *Watcher) Start() error {
	for _, folder := range w.cfg.Folders {
		w.AddFolder(folder)
	}

	go w.eventLoop()
	return nil
}

// AddFolder starts watching folder. It may be called before or after
// Start. Git ref folders and folders already watched are ignored.
func (w *Watcher) AddFolder(folder config.Folder) {
	if folder.GitRef != "" {
		return
	}
	r := root{
		base:    folder.Path,
		start:   filepath.Join(folder.Path, filepath.FromSlash(folder.SubPath)),
		exclude: folder.Exclude,
	}

	w.mu.Lock()
	for _, existing := range w.roots {
		if existing.start == r.start {
			w.mu.Unlock()
			return
		}
	}
	w.roots = append(w.roots, r)
	w.mu.Unlock()

	w.addRecursive(r.start)
}

// excluded reports whether path is filtered by the global exclude list or
// by the patterns of the folder it belongs to.
func (w *Watcher) excluded(path string) bool {
	if w.cfg.IsExcluded(path) {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, r := range w.roots {
		if len(r.exclude) == 0 {
			continue
		}
		rel, err := filepath.Rel(r.base, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if config.IsFolderExcluded(filepath.ToSlash(rel), r.exclude) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(start string) {
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != start && w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: cannot watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("Warning: failed to walk folder %s: %v", start, err)
	}
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.excluded(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
		if isDir(event.Name) {
			w.addRecursive(event.Name)
		}
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	w.emit(Event{Type: eventType, Path: event.Name})
}

func (w *Watcher) emit(e Event) {
	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Debounce returns a callback that calls fn once events have been quiet
// for d, passing the most recent event.
func Debounce(d time.Duration, fn Callback) Callback {
	var (
		mu    sync.Mutex
		timer *time.Timer
		last  Event
	)
	return func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		last = e
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			mu.Lock()
			ev := last
			mu.Unlock()
			fn(ev)
		})
	}
}

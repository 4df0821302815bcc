package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports changes to a tracked set of files, plus every file in
// a tracked set of directories.
type FileWatcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}

	mu      sync.RWMutex
	files   map[string]struct{}
	dirs    map[string]struct{} // directories whose whole content is tracked
	watched map[string]struct{} // directories registered with fsnotify
	stopped bool
}

// NewFileWatcher creates a watcher that tracks nothing yet.
func NewFileWatcher(opts Options) (*FileWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		fs:        fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		files:     make(map[string]struct{}),
		dirs:      make(map[string]struct{}),
		watched:   make(map[string]struct{}),
	}, nil
}

// Track replaces the tracked files and directories. Paths must be absolute
// and canonical, the same form fsnotify reports them in.
func (w *FileWatcher) Track(files, dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.files = make(map[string]struct{}, len(files))
	w.dirs = make(map[string]struct{}, len(dirs))
	need := make(map[string]struct{})
	for _, f := range files {
		w.files[f] = struct{}{}
		need[filepath.Dir(f)] = struct{}{}
	}
	for _, d := range dirs {
		w.dirs[d] = struct{}{}
		need[d] = struct{}{}
	}

	for d := range w.watched {
		if _, ok := need[d]; !ok {
			_ = w.fs.Remove(d)
			delete(w.watched, d)
		}
	}
	for d := range need {
		if _, ok := w.watched[d]; ok {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			// The directory may be gone with the file; keep watching the rest.
			slog.Warn("cannot watch directory",
				slog.String("dir", d),
				slog.String("error", err.Error()))
			continue
		}
		w.watched[d] = struct{}{}
	}
	return nil
}

// Tracked reports whether path is a tracked file or lies in a tracked directory.
func (w *FileWatcher) Tracked(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	_, ok := w.dirs[filepath.Dir(path)]
	return ok
}

// Run delivers events until ctx is cancelled or Stop is called.
func (w *FileWatcher) Run(ctx context.Context) error {
	go w.forward(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				slog.Warn("watcher error dropped", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *FileWatcher) handle(event fsnotify.Event) {
	if !w.Tracked(event.Name) {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: event.Name, Operation: op, Timestamp: time.Now()})
}

// forward moves debounced batches to Events, closing it on exit.
func (w *FileWatcher) forward(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch := <-w.debouncer.Output():
			select {
			case w.events <- batch:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

// Events returns debounced batches of changes. It is closed when Run returns.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal fsnotify errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Stop stops watching and releases resources. Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	return w.fs.Close()
}

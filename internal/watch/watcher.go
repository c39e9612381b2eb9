// Package watch re-triggers diffs when a snapshot export changes on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"caddiff/internal/cad"
)

// DefaultDebounce is how long a file must stay quiet before a change is emitted.
const DefaultDebounce = 200 * time.Millisecond

// Change reports that the export for Kind was written, created or removed.
type Change struct {
	Kind cad.Kind
	File string
}

// Watcher monitors snapshot directories for export file changes using fsnotify.
type Watcher struct {
	Dirs     []string
	Changes  <-chan Change // Read-only external channel
	Debounce time.Duration

	changes chan Change // Internal write channel
	done    chan struct{}
	files   map[string]cad.Kind
	events  <-chan fsnotify.Event
	errors  <-chan error
	close   func() error
	log     *zap.Logger
}

// New creates a watcher over dirs that reports changes to the export file of
// each kind in kinds, named as in opts.
func New(dirs []string, opts cad.Options, kinds []cad.Kind, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w, err := newWatcher(dirs, opts, kinds, logger)
	if err != nil {
		fw.Close()
		return nil, err
	}
	w.events = fw.Events
	w.errors = fw.Errors
	w.close = fw.Close

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

func newWatcher(dirs []string, opts cad.Options, kinds []cad.Kind, logger *zap.Logger) (*Watcher, error) {
	files := make(map[string]cad.Kind, len(kinds))
	for _, k := range kinds {
		ko, err := opts.ForKind(k)
		if err != nil {
			return nil, err
		}
		files[ko.Input] = k
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ch := make(chan Change, 16)
	return &Watcher{
		Dirs:     dirs,
		Changes:  ch,
		Debounce: DefaultDebounce,
		changes:  ch,
		done:     make(chan struct{}),
		files:    files,
		log:      logger,
	}, nil
}

// Start begins delivering changes on Changes.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	if w.close != nil {
		w.close()
	}
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.Debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.events:
			if !ok {
				// Drain pending on close.
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if _, ok := w.files[filepath.Base(event.Name)]; !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.Debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) emit(file string) {
	kind := w.files[filepath.Base(file)]
	w.log.Debug("snapshot changed", zap.String("kind", string(kind)), zap.String("file", file))
	w.changes <- Change{Kind: kind, File: file}
}

// Package watch reports folders whose directories changed on disk.
//
// The watcher never touches the tree. It pushes folder handles onto an
// event.Queue; the update loop drains the queue and reconciles those folders
// on its own goroutine.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

var ErrAlreadyStarted = errors.New("watcher already started")

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period per folder
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnError sets the callback invoked on watch errors
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

type target struct {
	folder    model.Handle
	dir       string
	recursive bool
}

// Watcher watches folder directories with fsnotify
type Watcher struct {
	queue    *event.Queue[model.Handle]
	debounce time.Duration
	onError  func(error)

	mu        sync.RWMutex
	targets   []target
	fsw       *fsnotify.Watcher
	debouncer *Debouncer[model.Handle]
	cancel    context.CancelFunc
	started   bool
}

// New creates a watcher that reports into queue
func New(queue *event.Queue[model.Handle], opts ...Option) *Watcher {
	w := &Watcher{
		queue:    queue,
		debounce: DefaultDebounceDuration,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer[model.Handle](w.debounce)
	return w
}

// Add registers the directory of folder. Directories added after Start are
// watched immediately.
func (w *Watcher) Add(folder model.Handle, dir string, recursive bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	t := target{folder: folder, dir: abs, recursive: recursive}
	w.targets = append(w.targets, t)
	if w.fsw != nil {
		return w.watchTarget(t)
	}
	return nil
}

// Start begins watching every registered directory
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	for _, t := range w.targets {
		if err := w.watchTarget(t); err != nil {
			w.onError(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.started = true
	go w.run(ctx, fsw)
	return nil
}

// Stop stops watching and drops pending reports
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	w.fsw.Close()
	w.fsw = nil
	w.debouncer.Cancel()
	w.started = false
}

// IsStarted returns true if the watcher is running
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// watchTarget adds t's directory, and its subdirectories when recursive.
// Missing directories are skipped; they have nothing to report yet.
func (w *Watcher) watchTarget(t target) error {
	if !t.recursive {
		if err := w.fsw.Add(t.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return w.addTree(t.dir)
}

func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
	return err
}

// foldersFor returns the folders a change at path belongs to
func (w *Watcher) foldersFor(path string) []model.Handle {
	parent := filepath.Dir(path)
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []model.Handle
	for _, t := range w.targets {
		switch {
		case parent == t.dir:
			out = append(out, t.folder)
		case t.recursive && strings.HasPrefix(parent, t.dir+string(os.PathSeparator)):
			out = append(out, t.folder)
		}
	}
	return out
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	events, errs := fsw.Events, fsw.Errors
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				w.maybeAddDir(ev.Name)
			}
			for _, folder := range w.foldersFor(ev.Name) {
				w.debouncer.Trigger(folder, func() {
					debug.Log("watch: folder %d changed", folder)
					w.queue.Push(folder)
				})
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// maybeAddDir starts watching a directory created inside a recursive target
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	parent := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	for _, t := range w.targets {
		if t.recursive && (parent == t.dir || strings.HasPrefix(parent, t.dir+string(os.PathSeparator))) {
			if err := w.addTree(path); err != nil {
				w.onError(err)
			}
			return
		}
	}
}

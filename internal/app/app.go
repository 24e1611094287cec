// Package app wires the tree, filter cache, selection and move set to the
// configured folders and drives them from a command loop.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/pstuifzand/foldertree/internal/cache"
	"github.com/pstuifzand/foldertree/internal/config"
	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/export"
	"github.com/pstuifzand/foldertree/internal/fsrecord"
	"github.com/pstuifzand/foldertree/internal/match"
	"github.com/pstuifzand/foldertree/internal/model"
	"github.com/pstuifzand/foldertree/internal/moveset"
	"github.com/pstuifzand/foldertree/internal/selection"
	"github.com/pstuifzand/foldertree/internal/watch"
)

// Output formats
const (
	FormatTree     = "tree"
	FormatMarkdown = "markdown"
	FormatFlat     = "flat"
	FormatJSON     = "json"
)

// Options controls how the app renders and whether it watches the disk
type Options struct {
	Out      io.Writer
	Format   string
	Filter   string
	Color    bool
	Describe bool
	Watch    bool
	Width    int
}

// App is the main application controller
type App struct {
	cfg      *config.Config
	bus      *event.Bus
	tree     *model.Tree[*fsrecord.File]
	registry *fsrecord.Registry
	specs    map[model.Handle]fsrecord.Spec
	view     *cache.Cache
	sel      *selection.Manager
	moves    *moveset.Resolver[*fsrecord.File]
	queue    *event.Queue[model.Handle]
	watcher  *watch.Watcher

	out        io.Writer
	format     string
	opts       Options
	statusMsg  string
	statusTime time.Time
	quit       bool
	lastGen    uint64
	rendered   bool
}

// NewApp builds the tree described by cfg. Directories are not scanned until
// Scan is called.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if opts.Format == "" {
		opts.Format = FormatTree
	}
	if !validFormat(opts.Format) {
		return nil, fmt.Errorf("unknown format %q", opts.Format)
	}

	bus := event.NewBus()
	tree := model.NewTree[*fsrecord.File](bus)
	registry := fsrecord.NewRegistry()

	dirs := make(map[int]fsrecord.Spec)
	handles, err := config.Build(cfg, tree, config.Builder[*fsrecord.File]{
		Folders: registry.Source(dirs),
		Steps:   fsrecord.Steps(tree),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build layout: %w", err)
	}
	specs := make(map[model.Handle]fsrecord.Spec, len(dirs))
	for id, spec := range dirs {
		specs[handles[id]] = spec
	}

	view := cache.New(tree,
		cache.WithVisibility(match.ByMode(cfg.FilterMode())),
		cache.WithBus(bus),
	)
	filter := opts.Filter
	if filter == "" {
		filter = cfg.Filter.Initial
	}
	view.SetFilter(filter)

	sel := selection.New(tree, view, bus)

	a := &App{
		cfg:        cfg,
		bus:        bus,
		tree:       tree,
		registry:   registry,
		specs:      specs,
		view:       view,
		sel:        sel,
		moves:      moveset.New(tree, sel, bus),
		out:        opts.Out,
		format:     opts.Format,
		opts:       opts,
		statusMsg:  "Ready",
		statusTime: time.Now(),
	}
	if a.out == nil {
		a.out = io.Discard
	}
	return a, nil
}

// Scan reads every folder directory concurrently and fills the tree
func (a *App) Scan(ctx context.Context) error {
	defer debug.LogTiming("initial scan", time.Now())
	snaps, err := a.registry.ScanAll(ctx, a.specs)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if snap.Err != nil {
			log.Printf("Failed to scan folder %s: %v", a.tree.FullPath(snap.Folder), snap.Err)
			continue
		}
		a.tree.ReconcileWith(snap.Folder, snap.Files)
	}
	return nil
}

// Run renders the tree and then executes commands read from in until it is
// exhausted, a quit command is given or ctx is done. With watching enabled it
// keeps running after in is exhausted and rerenders on disk changes.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	if a.opts.Watch && a.watcher == nil {
		if err := a.startWatching(); err != nil {
			return err
		}
	}
	a.refresh(true)

	stop := make(chan struct{})
	defer close(stop)

	var lines chan string
	if in != nil {
		lines = make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-stop:
					return
				}
			}
		}()
	}
	var ready <-chan struct{}
	if a.queue != nil {
		ready = a.queue.Ready()
	}
	if lines == nil && ready == nil {
		return nil
	}

	for !a.quit {
		select {
		case <-ctx.Done():
			return nil

		case <-ready:
			a.rescan(a.queue.Drain())
			a.refresh(false)

		case line, ok := <-lines:
			if !ok {
				if ready == nil {
					return nil
				}
				lines = nil
				continue
			}
			force := a.handleCommand(line)
			a.refresh(force)
		}
	}
	return nil
}

// Close stops watching and detaches every subscriber from the bus
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}
	a.moves.Close()
	a.sel.Close()
	a.view.Close()
	return nil
}

func (a *App) startWatching() error {
	a.queue = event.NewQueue[model.Handle]()
	a.watcher = watch.New(a.queue, watch.WithOnError(func(err error) {
		log.Printf("watch: %v", err)
	}))
	for h, spec := range a.specs {
		if err := a.watcher.Add(h, spec.Dir, spec.Recursive); err != nil {
			return fmt.Errorf("failed to watch %s: %w", spec.Dir, err)
		}
	}
	return a.watcher.Start()
}

// rescan reconciles folders on the update goroutine
func (a *App) rescan(folders []model.Handle) {
	seen := make(map[model.Handle]struct{}, len(folders))
	for _, h := range folders {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if _, changed := a.tree.Reconcile(h); changed {
			debug.Log("app: folder %s changed", a.tree.FullPath(h))
		}
	}
}

// refresh brings the cache up to date and renders when the visible list
// changed or force is set
func (a *App) refresh(force bool) {
	a.view.UpdateCache()
	if !force && a.rendered && a.view.Generation() == a.lastGen {
		return
	}
	if err := a.Render(a.out); err != nil {
		log.Printf("Failed to render: %v", err)
	}
}

// Render writes the current view in the configured format
func (a *App) Render(w io.Writer) error {
	a.view.UpdateCache()
	a.lastGen = a.view.Generation()
	a.rendered = true

	opts := a.renderOptions()
	switch a.format {
	case FormatMarkdown:
		return export.Markdown(w, a.view, a.tree, opts)
	case FormatFlat:
		return export.Flat(w, a.view, a.tree, opts)
	case FormatJSON:
		return export.JSON(w, a.view, a.tree, opts)
	default:
		_, err := io.WriteString(w, export.Tree(a.view, a.tree, opts))
		return err
	}
}

func (a *App) renderOptions() export.Options {
	opts := export.Options{
		Color: a.opts.Color,
		Width: a.opts.Width,
	}
	if a.sel.Count() > 0 {
		opts.Marked = a.sel.IsSelected
	}
	if a.opts.Describe {
		opts.Describe = func(h model.Handle) string {
			if f, ok := a.tree.Record(h); ok && f != nil {
				return fsrecord.Describe(f)
			}
			return a.tree.Name(h)
		}
	}
	return opts
}

// dirOf returns the directory a folder scans
func (a *App) dirOf(h model.Handle) (string, bool) {
	spec, ok := a.specs[h]
	return spec.Dir, ok
}

// SetStatus sets the status message
func (a *App) SetStatus(msg string) {
	a.statusMsg = msg
	a.statusTime = time.Now()
	fmt.Fprintf(a.out, "-- %s\n", msg)
}

// Status returns the last status message
func (a *App) Status() string {
	return a.statusMsg
}

// Quit signals the app to quit
func (a *App) Quit() {
	a.quit = true
}

// SetDebugMode enables or disables debug logging
func (a *App) SetDebugMode(enabled bool) {
	debug.SetEnabled(enabled)
}

func validFormat(f string) bool {
	switch f {
	case FormatTree, FormatMarkdown, FormatFlat, FormatJSON:
		return true
	}
	return false
}

// Package fsrecord exposes the files of a directory as tree records.
//
// Records are *File pointers handed out by a Registry. The registry returns
// the same pointer for the same scan root and path on every scan, so
// reconciliation keeps leaf identity for files that survive a rescan.
package fsrecord

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/pstuifzand/foldertree/internal/config"
	"github.com/pstuifzand/foldertree/internal/model"
	"github.com/pstuifzand/foldertree/internal/sortspec"
)

// File is one file found below a folder's directory
type File struct {
	Path    string
	Rel     string
	Size    int64
	ModTime time.Time
}

// Describe renders a short human readable summary like "notes.md, 2.1 kB, 3 hours ago"
func Describe(f *File) string {
	return fmt.Sprintf("%s, %s, %s", f.Rel, humanize.Bytes(uint64(max(f.Size, 0))), humanize.Time(f.ModTime))
}

// Leaf names a leaf after the file's path relative to its folder directory
func Leaf(f *File) model.LeafInfo {
	return model.LeafInfo{Name: f.Rel}
}

// Spec describes what a folder scans
type Spec struct {
	Dir       string
	Pattern   string
	Recursive bool
}

// fileKey identifies a record: the same file seen from two scan roots gets two
// records, each named relative to its own root
type fileKey struct {
	root, path string
}

// Registry hands out stable *File records. It is safe for concurrent use so
// scans can run off the update thread.
type Registry struct {
	mu    sync.Mutex
	files map[fileKey]*File
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{files: make(map[fileKey]*File)}
}

// Len returns the number of files the registry knows about
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// Scan lists the files of spec sorted by relative path. Hidden files and
// directories are skipped. A missing directory yields no files and no error.
func (r *Registry) Scan(spec Spec) ([]*File, error) {
	root, err := filepath.Abs(spec.Dir)
	if err != nil {
		return nil, err
	}

	type found struct {
		path, rel string
		info      fs.FileInfo
	}
	var entries []found

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if path != root && (!spec.Recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if spec.Pattern != "" {
			ok, err := filepath.Match(spec.Pattern, d.Name())
			if err != nil {
				return fmt.Errorf("pattern %q: %w", spec.Pattern, err)
			}
			if !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, found{path: path, rel: filepath.ToSlash(rel), info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", spec.Dir, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[fileKey]struct{}, len(entries))
	files := make([]*File, 0, len(entries))
	for _, e := range entries {
		key := fileKey{root: root, path: e.path}
		seen[key] = struct{}{}
		f, ok := r.files[key]
		if !ok {
			f = &File{Path: e.path}
			r.files[key] = f
		}
		f.Rel = e.rel
		f.Size = e.info.Size()
		f.ModTime = e.info.ModTime()
		files = append(files, f)
	}
	// Other folders may scan the same root with another pattern, so only
	// files that are gone from disk are forgotten.
	for key := range r.files {
		if _, ok := seen[key]; ok || key.root != root {
			continue
		}
		if _, err := os.Lstat(key.path); errors.Is(err, fs.ErrNotExist) {
			delete(r.files, key)
		}
	}

	slices.SortFunc(files, func(a, b *File) int { return strings.Compare(a.Rel, b.Rel) })
	return files, nil
}

// Generator turns spec into a record generator. Scan errors are logged and
// produce an empty folder.
func (r *Registry) Generator(spec Spec) model.Generator[*File] {
	return func() []*File {
		files, err := r.Scan(spec)
		if err != nil {
			log.Printf("fsrecord: %v", err)
			return nil
		}
		return files
	}
}

// Source plugs the registry into config.Build. Every folder gets a directory
// scan per its dir, pattern and recursive settings.
func (r *Registry) Source(dirs map[int]Spec) config.FolderSource[*File] {
	return func(f config.FolderConfig) (model.Generator[*File], model.LeafFactory[*File], error) {
		if f.Dir == "" {
			return nil, Leaf, nil
		}
		if f.Pattern != "" {
			if _, err := filepath.Match(f.Pattern, ""); err != nil {
				return nil, nil, fmt.Errorf("pattern %q: %w", f.Pattern, err)
			}
		}
		spec := Spec{Dir: f.Dir, Pattern: f.Pattern, Recursive: f.Recursive}
		if dirs != nil {
			dirs[f.ID] = spec
		}
		return r.Generator(spec), Leaf, nil
	}
}

// Snapshot is the result of scanning one folder off the update thread
type Snapshot struct {
	Folder model.Handle
	Files  []*File
	Err    error
}

// ScanAll scans every folder concurrently. Individual failures are reported
// in their snapshot; only cancellation fails the whole call.
func (r *Registry) ScanAll(ctx context.Context, folders map[model.Handle]Spec) ([]Snapshot, error) {
	handles := make([]model.Handle, 0, len(folders))
	for h := range folders {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	results := make([]Snapshot, len(handles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, h := range handles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := r.Scan(folders[h])
			results[i] = Snapshot{Folder: h, Files: files, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BySize is a sort step on file size, largest first
func BySize(tree *model.Tree[*File]) sortspec.Step[model.Handle] {
	step := tree.ByRecord("size", func(f *File) sortspec.Key { return sortspec.Number(-f.Size) })
	step.Icon = "#"
	step.Tooltip = "Sort by size, largest first"
	return step
}

// ByModified is a sort step on modification time, newest first
func ByModified(tree *model.Tree[*File]) sortspec.Step[model.Handle] {
	step := tree.ByRecord("modified", func(f *File) sortspec.Key {
		if f.ModTime.IsZero() {
			return sortspec.None()
		}
		return sortspec.Number(-f.ModTime.UnixNano())
	})
	step.Icon = "t"
	step.Tooltip = "Sort by modification time, newest first"
	return step
}

// Steps returns the file sort steps by config name
func Steps(tree *model.Tree[*File]) map[string]sortspec.Step[model.Handle] {
	return map[string]sortspec.Step[model.Handle]{
		"size":     BySize(tree),
		"modified": ByModified(tree),
	}
}

// Mover moves files on disk between folder directories. dirOf maps a folder
// handle to its directory.
func Mover(dirOf func(model.Handle) (string, bool)) func(f *File, from, to model.Handle) error {
	return func(f *File, _, to model.Handle) error {
		dir, ok := dirOf(to)
		if !ok {
			return fmt.Errorf("folder %d has no directory", to)
		}
		target := filepath.Join(dir, filepath.Base(f.Path))
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("move %s: %w", target, fs.ErrExist)
		}
		return os.Rename(f.Path, target)
	}
}

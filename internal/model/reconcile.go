package model

import (
	"fmt"
	"slices"

	"github.com/pstuifzand/foldertree/internal/event"
)

// Reconcile brings the leaves of folder in line with its generator. Records
// that disappeared lose their leaf (returned in removed, ascending handle
// order); new records get a leaf from the folder's factory; surviving records
// keep their existing leaf. changed reports whether membership, order or any
// leaf name moved.
func (t *Tree[T]) Reconcile(folder Handle) (removed []Handle, changed bool) {
	n := t.nodes[folder]
	if n == nil {
		return nil, false
	}
	if n.folder == nil {
		invariant("reconcile", "node %d is a %s, not a folder", folder, n.kind)
	}
	var records []T
	if n.folder.generator != nil {
		records = n.folder.generator()
	}
	return t.reconcile(folder, n, records)
}

// ReconcileWith diffs folder against a snapshot taken elsewhere, typically by
// a background producer that handed it over through an event.Queue.
func (t *Tree[T]) ReconcileWith(folder Handle, records []T) (removed []Handle, changed bool) {
	n := t.nodes[folder]
	if n == nil {
		return nil, false
	}
	if n.folder == nil {
		invariant("reconcile", "node %d is a %s, not a folder", folder, n.kind)
	}
	return t.reconcile(folder, n, slices.Clone(records))
}

// EnsureAllFolders reconciles every folder once and returns all removed leaves
func (t *Tree[T]) EnsureAllFolders() []Handle {
	var removed []Handle
	for _, f := range t.Folders() {
		r, _ := t.Reconcile(f)
		removed = append(removed, r...)
	}
	return removed
}

func (t *Tree[T]) reconcile(h Handle, n *node[T], records []T) ([]Handle, bool) {
	fs := n.folder
	seen := make(map[T]struct{}, len(records))
	children := make([]Handle, 0, len(records))
	changed := false

	for _, r := range records {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}

		info := t.leafInfo(fs, r)
		if lh, ok := fs.leaves[r]; ok {
			ln := t.nodes[lh]
			if ln.name != info.Name || ln.priority != info.Priority {
				ln.name = info.Name
				ln.priority = info.Priority
				ln.path = t.childPath(h, KindLeaf, info.Name)
				changed = true
			}
			children = append(children, lh)
			continue
		}

		lh := t.alloc(&node[T]{
			kind:     KindLeaf,
			name:     info.Name,
			priority: info.Priority,
			parent:   h,
			record:   r,
		})
		t.nodes[lh].path = t.childPath(h, KindLeaf, info.Name)
		fs.leaves[r] = lh
		children = append(children, lh)
		changed = true
	}

	var removed []Handle
	for r, lh := range fs.leaves {
		if _, ok := seen[r]; ok {
			continue
		}
		removed = append(removed, lh)
		delete(fs.leaves, r)
		delete(t.nodes, lh)
	}
	slices.Sort(removed)

	if fs.order != nil {
		slices.SortStableFunc(children, func(a, b Handle) int {
			return fs.order(t.nodes[a].record, t.nodes[b].record)
		})
	}

	if len(removed) > 0 || !slices.Equal(children, n.children) {
		changed = true
	}
	n.children = children

	if changed {
		t.publish(event.Message{
			Kind:       event.FolderMembershipUpdated,
			Collection: int(h),
			Nodes:      toInts(removed),
		})
	}
	return removed, changed
}

func (t *Tree[T]) leafInfo(fs *folderState[T], r T) LeafInfo {
	if fs.toLeaf != nil {
		return fs.toLeaf(r)
	}
	return LeafInfo{Name: fmt.Sprint(r)}
}

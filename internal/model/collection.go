package model

import (
	"fmt"
	"slices"

	"github.com/pstuifzand/foldertree/internal/event"
)

// AddFolderGroup creates a group named name under parent
func (t *Tree[T]) AddFolderGroup(parent Handle, id int, name string) (Handle, error) {
	n := &node[T]{kind: KindFolderGroup}
	return t.addCollection("add group", parent, id, name, n)
}

// AddFolder creates a folder under parent whose leaves come from gen. toLeaf
// may be nil, in which case leaves are named with fmt.Sprint(record).
func (t *Tree[T]) AddFolder(parent Handle, id int, name string, gen Generator[T], toLeaf LeafFactory[T]) (Handle, error) {
	n := &node[T]{
		kind: KindFolder,
		folder: &folderState[T]{
			generator: gen,
			toLeaf:    toLeaf,
			leaves:    make(map[T]Handle),
		},
	}
	return t.addCollection("add folder", parent, id, name, n)
}

func (t *Tree[T]) addCollection(op string, parent Handle, id int, name string, n *node[T]) (Handle, error) {
	if id == 0 {
		invariant(op, "identity 0 is reserved for the root")
	}
	p, err := t.collection(op, parent)
	if err != nil {
		return NoHandle, err
	}
	if p.kind != KindFolderGroup {
		invariant(op, "parent %q is a %s and cannot hold collections", p.path, p.kind)
	}
	if name == "" {
		return NoHandle, fmt.Errorf("%s: %w", op, ErrEmptyName)
	}
	if _, taken := t.ids[id]; taken {
		return NoHandle, fmt.Errorf("%s %q with id %d: %w", op, name, id, ErrDuplicateID)
	}
	if t.siblingNamed(parent, name, NoHandle) {
		return NoHandle, &DuplicateNameError{Parent: p.path, Name: name}
	}

	n.id = id
	n.name = name
	n.parent = parent
	n.flags = FlagShowIfEmpty
	h := t.alloc(n)
	n.sort = t.newSpec(h)
	n.path = t.childPath(parent, n.kind, name)
	p.children = append(p.children, h)
	t.ids[id] = h

	t.publish(event.Message{Kind: event.CollectionAdded, Collection: int(h)})
	return h, nil
}

// siblingNamed reports whether a child of parent other than except is named name
func (t *Tree[T]) siblingNamed(parent Handle, name string, except Handle) bool {
	for _, c := range t.Children(parent) {
		if c != except && t.nodes[c].name == name {
			return true
		}
	}
	return false
}

// Remove deletes collection h and everything below it. The message carries
// every removed handle so holders of selections can drop them.
func (t *Tree[T]) Remove(h Handle) error {
	if _, err := t.collection("remove", h); err != nil {
		return err
	}
	if h == RootHandle {
		invariant("remove", "the root cannot be removed")
	}

	var removed []Handle
	t.Walk(h, func(d Handle) bool {
		removed = append(removed, d)
		return true
	})
	t.detach(h)
	for _, d := range removed {
		dn := t.nodes[d]
		if dn.kind.IsCollection() {
			delete(t.ids, dn.id)
		}
		delete(t.nodes, d)
	}

	t.publish(event.Message{Kind: event.CollectionRemoved, Collection: int(h), Nodes: toInts(removed)})
	return nil
}

// detach unlinks h from its parent's child list
func (t *Tree[T]) detach(h Handle) {
	n := t.nodes[h]
	p := t.nodes[n.parent]
	if p == nil {
		return
	}
	if i := slices.Index(p.children, h); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
}

// Rename changes the name of collection h. A sibling with the same name
// rejects the rename and leaves the tree untouched.
func (t *Tree[T]) Rename(h Handle, name string) error {
	n, err := t.collection("rename", h)
	if err != nil {
		return err
	}
	if h == RootHandle {
		invariant("rename", "the root has no name")
	}
	if name == "" {
		return fmt.Errorf("rename: %w", ErrEmptyName)
	}
	if n.name == name {
		return nil
	}
	if t.siblingNamed(n.parent, name, h) {
		return &DuplicateNameError{Parent: t.FullPath(n.parent), Name: name}
	}

	n.name = name
	t.recomputePaths(h)
	t.publish(event.Message{Kind: event.CollectionRenamed, Collection: int(h)})
	return nil
}

// Move re-parents collection h under group dst at position index. A negative
// or too large index appends.
func (t *Tree[T]) Move(h, dst Handle, index int) error {
	n, err := t.collection("move", h)
	if err != nil {
		return err
	}
	if h == RootHandle {
		invariant("move", "the root cannot be moved")
	}
	d, err := t.collection("move", dst)
	if err != nil {
		return err
	}
	if d.kind != KindFolderGroup {
		invariant("move", "destination %q is a %s and cannot hold collections", d.path, d.kind)
	}
	if dst == h || t.IsAncestor(h, dst) {
		return fmt.Errorf("move %q into %q: %w", n.path, d.path, ErrCycle)
	}
	if t.siblingNamed(dst, n.name, h) {
		return &DuplicateNameError{Parent: d.path, Name: n.name}
	}

	t.detach(h)
	if index < 0 || index > len(d.children) {
		index = len(d.children)
	}
	d.children = slices.Insert(d.children, index, h)
	n.parent = dst
	t.recomputePaths(h)

	t.publish(event.Message{Kind: event.CollectionMoved, Collection: int(h)})
	return nil
}

// Merge folds src into dst and removes src. Groups hand over their children;
// folders hand over their leaves (identity preserved) and dst's generator
// starts producing src's records as well. Both must be of the same kind.
func (t *Tree[T]) Merge(src, dst Handle) error {
	s, err := t.collection("merge", src)
	if err != nil {
		return err
	}
	d, err := t.collection("merge", dst)
	if err != nil {
		return err
	}
	if src == RootHandle {
		invariant("merge", "the root cannot be merged away")
	}
	if src == dst {
		return nil
	}
	if s.kind != d.kind {
		return fmt.Errorf("merge %s %q into %s %q: %w", s.kind, s.path, d.kind, d.path, ErrKindMismatch)
	}

	var dropped []Handle
	switch s.kind {
	case KindFolderGroup:
		if t.IsAncestor(src, dst) {
			return fmt.Errorf("merge %q into %q: %w", s.path, d.path, ErrCycle)
		}
		for _, c := range s.children {
			if t.siblingNamed(dst, t.nodes[c].name, NoHandle) {
				return &DuplicateNameError{Parent: d.path, Name: t.nodes[c].name}
			}
		}
		for _, c := range s.children {
			t.nodes[c].parent = dst
			d.children = append(d.children, c)
			t.recomputePaths(c)
		}
		s.children = nil

	case KindFolder:
		dropped = t.mergeLeaves(s, d, dst)

	case KindLeaf:
		invariant("merge", "leaves cannot be merged")
	}

	t.detach(src)
	delete(t.ids, s.id)
	delete(t.nodes, src)
	dropped = append([]Handle{src}, dropped...)

	t.publish(event.Message{Kind: event.CollectionMerged, Collection: int(dst), Nodes: toInts(dropped)})
	return nil
}

func (t *Tree[T]) mergeLeaves(s, d *node[T], dst Handle) []Handle {
	var dropped []Handle
	for _, lh := range s.children {
		ln := t.nodes[lh]
		if _, dup := d.folder.leaves[ln.record]; dup {
			dropped = append(dropped, lh)
			delete(t.nodes, lh)
			continue
		}
		ln.parent = dst
		d.folder.leaves[ln.record] = lh
		d.children = append(d.children, lh)
		t.recomputePaths(lh)
	}
	s.children = nil

	dg, sg := d.folder.generator, s.folder.generator
	d.folder.generator = func() []T {
		var out []T
		if dg != nil {
			out = append(out, dg()...)
		}
		if sg != nil {
			out = append(out, sg()...)
		}
		return out
	}
	return dropped
}

// SetExpanded opens or closes collection h. The root stays open.
func (t *Tree[T]) SetExpanded(h Handle, expanded bool) {
	n := t.nodes[h]
	if n == nil || !n.kind.IsCollection() || h == RootHandle {
		return
	}
	was := n.flags&FlagExpanded != 0
	if was == expanded {
		return
	}
	if expanded {
		n.flags |= FlagExpanded
	} else {
		n.flags &^= FlagExpanded
	}
	t.publish(event.Message{Kind: event.OpenStateChanged, Collection: int(h)})
}

// ToggleExpanded flips the open state of h
func (t *Tree[T]) ToggleExpanded(h Handle) {
	t.SetExpanded(h, !t.IsExpanded(h))
}

// SetShowIfEmpty controls whether h stays visible without any children.
// The root always shows.
func (t *Tree[T]) SetShowIfEmpty(h Handle, show bool) {
	n := t.nodes[h]
	if n == nil || !n.kind.IsCollection() || h == RootHandle {
		return
	}
	if show {
		n.flags |= FlagShowIfEmpty
	} else {
		n.flags &^= FlagShowIfEmpty
	}
	t.publish(event.Message{Kind: event.OpenStateChanged, Collection: int(h)})
}

// SetStyle replaces the presentation attributes of h
func (t *Tree[T]) SetStyle(h Handle, s Style) {
	if n := t.nodes[h]; n != nil && n.kind.IsCollection() {
		n.style = s
	}
}

// SetPriority changes the tie-breaking priority of a collection
func (t *Tree[T]) SetPriority(h Handle, priority int) {
	n := t.nodes[h]
	if n == nil || !n.kind.IsCollection() || n.priority == priority {
		return
	}
	n.priority = priority
	if n.parent != NoHandle {
		t.publish(event.Message{Kind: event.SortSpecChanged, Collection: int(n.parent)})
	}
}

// SetLeafOrder installs the comparer used to order a folder's leaves after
// reconciliation. nil keeps generator order.
func (t *Tree[T]) SetLeafOrder(folder Handle, order func(a, b T) int) {
	n := t.nodes[folder]
	if n == nil || n.folder == nil {
		return
	}
	n.folder.order = order
}

// SetGenerator replaces the record source of a folder
func (t *Tree[T]) SetGenerator(folder Handle, gen Generator[T]) {
	if n := t.nodes[folder]; n != nil && n.folder != nil {
		n.folder.generator = gen
	}
}

func toInts(hs []Handle) []int {
	out := make([]int, len(hs))
	for i, h := range hs {
		out[i] = int(h)
	}
	return out
}

// Handles converts message node ids back to handles
func Handles(ids []int) []Handle {
	out := make([]Handle, len(ids))
	for i, id := range ids {
		out[i] = Handle(id)
	}
	return out
}

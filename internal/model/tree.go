// Package model contains the authoritative collection tree.
//
// Nodes live in an arena owned by Tree and are addressed by Handle. A child
// stores its parent's handle; only the parent's child list owns membership.
// Handles are never reused, so a handle kept after its node was removed is
// detectably stale.
package model

import (
	"fmt"

	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/sortspec"
)

// Handle addresses a node inside a Tree
type Handle int

const (
	// RootHandle is the handle of the single root group
	RootHandle Handle = 0
	// NoHandle is returned where a node is absent
	NoHandle Handle = -1
)

// Separators used to build full paths, chosen by the kind of the node whose
// path is being built.
const (
	GroupSeparator  = "//"
	FolderSeparator = "/"
	LeafSeparator   = "/"
)

// Kind is the closed set of node variants
type Kind uint8

const (
	KindFolderGroup Kind = iota
	KindFolder
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindFolderGroup:
		return "group"
	case KindFolder:
		return "folder"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsCollection reports whether the kind is a folder or a group
func (k Kind) IsCollection() bool {
	return k == KindFolderGroup || k == KindFolder
}

// Flags are the collection state bits
type Flags uint8

const (
	FlagExpanded Flags = 1 << iota
	FlagShowIfEmpty
)

// Generator returns the live records of a folder
type Generator[T any] func() []T

// LeafInfo is what a folder's leaf factory derives from a record
type LeafInfo struct {
	Name     string
	Priority int
}

// LeafFactory materializes a record as a leaf
type LeafFactory[T any] func(record T) LeafInfo

type node[T comparable] struct {
	kind     Kind
	id       int
	name     string
	path     string
	parent   Handle
	children []Handle
	flags    Flags
	style    Style
	priority int
	sort     *sortspec.Spec[Handle]

	folder *folderState[T]
	record T
}

type folderState[T comparable] struct {
	generator Generator[T]
	toLeaf    LeafFactory[T]
	leaves    map[T]Handle
	order     func(a, b T) int
}

// Tree is the arena of all nodes. Record identity is Go equality on T, so
// records are normally pointers and identity is pointer identity.
//
// Tree is not safe for concurrent use.
type Tree[T comparable] struct {
	nodes map[Handle]*node[T]
	ids   map[int]Handle
	next  Handle
	bus   *event.Bus
}

// NewTree creates a tree holding only the root. bus may be nil.
func NewTree[T comparable](bus *event.Bus) *Tree[T] {
	t := &Tree[T]{
		nodes: make(map[Handle]*node[T]),
		ids:   make(map[int]Handle),
		bus:   bus,
	}
	root := &node[T]{
		kind:   KindFolderGroup,
		parent: NoHandle,
		flags:  FlagExpanded | FlagShowIfEmpty,
	}
	t.nodes[RootHandle] = root
	t.ids[0] = RootHandle
	t.next = RootHandle + 1
	root.sort = t.newSpec(RootHandle)
	return t
}

// Bus returns the bus the tree publishes to, possibly nil
func (t *Tree[T]) Bus() *event.Bus {
	return t.bus
}

func (t *Tree[T]) publish(msg event.Message) {
	if t.bus != nil {
		t.bus.Publish(msg)
	}
}

func (t *Tree[T]) alloc(n *node[T]) Handle {
	h := t.next
	t.next++
	t.nodes[h] = n
	return h
}

func (t *Tree[T]) newSpec(h Handle) *sortspec.Spec[Handle] {
	spec := sortspec.New[Handle]()
	spec.OnChange(func() {
		t.publish(event.Message{Kind: event.SortSpecChanged, Collection: int(h)})
	})
	return spec
}

func (t *Tree[T]) get(h Handle) *node[T] {
	return t.nodes[h]
}

func (t *Tree[T]) collection(op string, h Handle) (*node[T], error) {
	n := t.nodes[h]
	if n == nil {
		return nil, fmt.Errorf("%s %d: %w", op, h, ErrNotFound)
	}
	if !n.kind.IsCollection() {
		invariant(op, "node %d is a %s, not a collection", h, n.kind)
	}
	return n, nil
}

// Exists reports whether h addresses a live node
func (t *Tree[T]) Exists(h Handle) bool {
	_, ok := t.nodes[h]
	return ok
}

// Len returns the number of live nodes including the root
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// Kind returns the kind of h. Stale handles report false.
func (t *Tree[T]) Kind(h Handle) (Kind, bool) {
	n := t.nodes[h]
	if n == nil {
		return 0, false
	}
	return n.kind, true
}

// Name returns the display name of h
func (t *Tree[T]) Name(h Handle) string {
	if n := t.nodes[h]; n != nil {
		return n.name
	}
	return ""
}

// FullPath returns the cached full path of h
func (t *Tree[T]) FullPath(h Handle) string {
	if n := t.nodes[h]; n != nil {
		return n.path
	}
	return ""
}

// Parent returns the parent handle, or NoHandle for the root and stale handles
func (t *Tree[T]) Parent(h Handle) Handle {
	if n := t.nodes[h]; n != nil {
		return n.parent
	}
	return NoHandle
}

// Children returns the raw children of h in their current order. The slice
// belongs to the tree and must not be modified.
func (t *Tree[T]) Children(h Handle) []Handle {
	if n := t.nodes[h]; n != nil {
		return n.children
	}
	return nil
}

// ID returns the collection identity of h. Leaves have none and report -1.
func (t *Tree[T]) ID(h Handle) int {
	n := t.nodes[h]
	if n == nil || n.kind == KindLeaf {
		return -1
	}
	return n.id
}

// Lookup finds a collection by identity
func (t *Tree[T]) Lookup(id int) (Handle, bool) {
	h, ok := t.ids[id]
	return h, ok
}

// IsRoot reports whether h is the root
func (t *Tree[T]) IsRoot(h Handle) bool {
	n := t.nodes[h]
	return n != nil && n.kind == KindFolderGroup && n.id == 0
}

// Flags returns the collection flags of h
func (t *Tree[T]) Flags(h Handle) Flags {
	if n := t.nodes[h]; n != nil {
		return n.flags
	}
	return 0
}

// IsExpanded reports whether the collection h is open
func (t *Tree[T]) IsExpanded(h Handle) bool {
	return t.Flags(h)&FlagExpanded != 0
}

// ShowIfEmpty reports whether the collection h stays visible without children
func (t *Tree[T]) ShowIfEmpty(h Handle) bool {
	return t.Flags(h)&FlagShowIfEmpty != 0
}

// Style returns the presentation attributes of h
func (t *Tree[T]) Style(h Handle) Style {
	if n := t.nodes[h]; n != nil {
		return n.style
	}
	return Style{}
}

// Priority returns the tie-breaking priority of h
func (t *Tree[T]) Priority(h Handle) int {
	if n := t.nodes[h]; n != nil {
		return n.priority
	}
	return 0
}

// SortSpec returns the ordering applied to the visible children of h.
// Mutating it publishes SortSpecChanged for h.
func (t *Tree[T]) SortSpec(h Handle) *sortspec.Spec[Handle] {
	n := t.nodes[h]
	if n == nil || n.kind == KindLeaf {
		return nil
	}
	return n.sort
}

// Record returns the record wrapped by leaf h
func (t *Tree[T]) Record(h Handle) (T, bool) {
	n := t.nodes[h]
	if n == nil || n.kind != KindLeaf {
		var zero T
		return zero, false
	}
	return n.record, true
}

// LeafOf returns the leaf wrapping record inside folder
func (t *Tree[T]) LeafOf(folder Handle, record T) (Handle, bool) {
	n := t.nodes[folder]
	if n == nil || n.folder == nil {
		return NoHandle, false
	}
	h, ok := n.folder.leaves[record]
	return h, ok
}

// IsAncestor reports whether anc is a strict ancestor of h
func (t *Tree[T]) IsAncestor(anc, h Handle) bool {
	n := t.nodes[h]
	if n == nil {
		return false
	}
	for p := n.parent; p != NoHandle; {
		if p == anc {
			return true
		}
		pn := t.nodes[p]
		if pn == nil {
			return false
		}
		p = pn.parent
	}
	return false
}

// Walk visits h and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (t *Tree[T]) Walk(h Handle, fn func(Handle) bool) {
	n := t.nodes[h]
	if n == nil {
		return
	}
	if !fn(h) {
		return
	}
	for _, c := range n.children {
		t.Walk(c, fn)
	}
}

// Folders returns every folder in pre-order
func (t *Tree[T]) Folders() []Handle {
	var out []Handle
	t.Walk(RootHandle, func(h Handle) bool {
		n := t.nodes[h]
		if n.kind == KindFolder {
			out = append(out, h)
			return false
		}
		return true
	})
	return out
}

// childPath builds the full path of a node of kind k named name under parent
func (t *Tree[T]) childPath(parent Handle, k Kind, name string) string {
	pp := t.FullPath(parent)
	if pp == "" {
		return name
	}
	switch k {
	case KindFolderGroup:
		return pp + GroupSeparator + name
	case KindFolder:
		return pp + FolderSeparator + name
	case KindLeaf:
		return pp + LeafSeparator + name
	default:
		invariant("path", "unknown kind %d", k)
		return ""
	}
}

// recomputePaths refreshes the path of h and all of its descendants
func (t *Tree[T]) recomputePaths(h Handle) {
	n := t.nodes[h]
	if n == nil || n.parent == NoHandle {
		return
	}
	n.path = t.childPath(n.parent, n.kind, n.name)
	for _, c := range n.children {
		t.recomputePaths(c)
	}
}

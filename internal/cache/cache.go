// Package cache keeps a filtered and sorted view of a collection tree.
//
// The view is a parallel tree of Nodes plus a pre-order flat list. Changes
// mark the cache fully dirty, queue a subtree reload or queue a sort-only
// update; UpdateCache then does the least work needed to bring the view back
// in line with the tree. It is cheap to call on every tick.
package cache

import (
	"slices"
	"strconv"
	"time"

	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/match"
	"github.com/pstuifzand/foldertree/internal/model"
)

// Source is the read side of the authoritative tree the cache views
type Source interface {
	Exists(h model.Handle) bool
	Kind(h model.Handle) (model.Kind, bool)
	Name(h model.Handle) string
	FullPath(h model.Handle) string
	Parent(h model.Handle) model.Handle
	Children(h model.Handle) []model.Handle
	IsExpanded(h model.Handle) bool
	ShowIfEmpty(h model.Handle) bool
	Order(owner model.Handle, hs []model.Handle)
}

// Node is the view of one collection for one cache generation. Children holds
// the visible child collections of a group, Leaves the visible leaves of a
// folder, both in display order. Nodes are not stable across rebuilds.
type Node struct {
	Collection model.Handle
	Kind       model.Kind
	Visible    bool
	Children   []*Node
	Leaves     []model.Handle
}

// Option configures a Cache
type Option func(*Cache)

// WithVisibility replaces the default path substring predicate
func WithVisibility(p match.Predicate) Option {
	return func(c *Cache) {
		c.predicate = p
	}
}

// WithBus makes the cache react to structural messages
func WithBus(bus *event.Bus) Option {
	return func(c *Cache) {
		c.bus = bus
	}
}

// Cache is the filtered view of a Source. It is not safe for concurrent use.
type Cache struct {
	src       Source
	predicate match.Predicate
	bus       *event.Bus
	unsub     func()

	filter     string
	fullyDirty bool
	reload     queue
	resort     queue

	nodes      map[model.Handle]*Node
	root       *Node
	flat       []model.Handle
	index      map[model.Handle]int
	generation uint64
}

// New creates a cache over src. It starts fully dirty, so the first
// UpdateCache builds everything.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:        src,
		predicate:  match.Substring,
		fullyDirty: true,
		nodes:      make(map[model.Handle]*Node),
		index:      make(map[model.Handle]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus != nil {
		c.unsub = c.bus.Subscribe(c.handle)
	}
	return c
}

// Close detaches the cache from its bus
func (c *Cache) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// Filter returns the current filter string
func (c *Cache) Filter() string {
	return c.filter
}

// SetFilter changes the filter. Writing the current value does nothing.
func (c *Cache) SetFilter(s string) {
	if s == c.filter {
		return
	}
	c.filter = s
	c.fullyDirty = true
}

// MarkFullyDirty forces a full rebuild on the next update
func (c *Cache) MarkFullyDirty() {
	c.fullyDirty = true
}

// IsDirty reports whether the next UpdateCache has work to do
func (c *Cache) IsDirty() bool {
	return c.fullyDirty || c.reload.len() > 0 || c.resort.len() > 0
}

// MarkForReload queues collection h for a subtree rebuild. Collections the
// cache has never seen are ignored.
func (c *Cache) MarkForReload(h model.Handle) {
	if _, ok := c.nodes[h]; ok {
		c.reload.push(h)
	}
}

// MarkForSortUpdate queues collection h for a re-sort of its already
// filtered children. Collections the cache has never seen are ignored.
func (c *Cache) MarkForSortUpdate(h model.Handle) {
	if _, ok := c.nodes[h]; ok {
		c.resort.push(h)
	}
}

// UpdateCache brings the view up to date and reports whether it recomputed
// anything.
func (c *Cache) UpdateCache() bool {
	if c.fullyDirty {
		defer debug.LogTiming("full cache rebuild", time.Now())
		c.reload.clear()
		c.resort.clear()
		c.nodes = make(map[model.Handle]*Node, len(c.nodes))
		c.root = &Node{Collection: model.RootHandle}
		c.BuildDynamicCache(c.root)
		c.rebuildFlat()
		c.fullyDirty = false
		return true
	}

	if c.reload.len() == 0 && c.resort.len() == 0 {
		return false
	}

	if c.reload.len() > 0 {
		start := time.Now()
		targets := c.reload.drain()
		for _, h := range targets {
			n := c.nodes[h]
			if n == nil || !c.src.Exists(h) {
				continue
			}
			c.BuildDynamicCache(n)
			c.propagate(h)
		}
		debug.LogTiming("reload of "+countLabel(len(targets)), start)
	}

	if c.resort.len() > 0 {
		for _, h := range c.resort.drain() {
			if n := c.nodes[h]; n != nil && c.src.Exists(h) {
				c.sortNode(n)
			}
		}
	}

	c.rebuildFlat()
	return true
}

// BuildDynamicCache rebuilds n and its subtree and reports whether n is
// visible. n is registered for its collection whether or not it ends up
// visible so later targeted updates can find it.
func (c *Cache) BuildDynamicCache(n *Node) bool {
	h := n.Collection
	c.nodes[h] = n
	n.Children = nil
	n.Leaves = nil

	kind, ok := c.src.Kind(h)
	if !ok {
		n.Visible = false
		return false
	}
	n.Kind = kind
	visible := c.IsVisible(h)

	switch kind {
	case model.KindFolderGroup:
		if c.src.IsExpanded(h) {
			var kept []*Node
			for _, child := range c.src.Children(h) {
				cn := &Node{Collection: child}
				if c.BuildDynamicCache(cn) {
					kept = append(kept, cn)
				}
			}
			n.Children = c.orderNodes(h, kept)
			visible = visible || len(kept) > 0
		} else if !visible {
			visible = c.IsCollapsedNodeVisible(h)
		}

	case model.KindFolder:
		if c.src.IsExpanded(h) {
			var leaves []model.Handle
			for _, leaf := range c.src.Children(h) {
				if c.IsVisible(leaf) {
					leaves = append(leaves, leaf)
				}
			}
			c.src.Order(h, leaves)
			n.Leaves = leaves
			visible = visible || len(leaves) > 0
		} else if !visible {
			visible = c.IsCollapsedNodeVisible(h)
		}

	case model.KindLeaf:
		// Leaves have no cache node of their own
		delete(c.nodes, h)
		n.Visible = false
		return false
	}

	n.Visible = c.finalVisibility(h, visible)
	return n.Visible
}

// finalVisibility applies the rules shared by full builds and re-evaluation:
// the root always shows, an empty collection shows only when flagged.
func (c *Cache) finalVisibility(h model.Handle, visible bool) bool {
	if h == model.RootHandle {
		return true
	}
	if len(c.src.Children(h)) == 0 && !c.src.ShowIfEmpty(h) {
		return false
	}
	return visible
}

// IsCollapsedNodeVisible reports whether h or anything below it in the raw
// tree matches, without building cache nodes for the subtree.
func (c *Cache) IsCollapsedNodeVisible(h model.Handle) bool {
	if c.IsVisible(h) {
		return true
	}
	for _, child := range c.src.Children(h) {
		if c.IsCollapsedNodeVisible(child) {
			return true
		}
	}
	return false
}

// IsVisible reports whether node h matches the filter on its own
func (c *Cache) IsVisible(h model.Handle) bool {
	if c.filter == "" {
		return true
	}
	kind, ok := c.src.Kind(h)
	if !ok {
		return false
	}
	return c.predicate(c.filter, match.Subject{
		Handle: h,
		Kind:   kind,
		Name:   c.src.Name(h),
		Path:   c.src.FullPath(h),
	})
}

// propagate re-evaluates every cached ancestor of h after h was rebuilt so
// that partial rebuilds agree with a full one.
func (c *Cache) propagate(h model.Handle) {
	for p := c.src.Parent(h); p != model.NoHandle; p = c.src.Parent(p) {
		pn := c.nodes[p]
		if pn == nil {
			return
		}
		c.reevaluate(pn)
	}
}

// reevaluate recomputes a group's kept children and visibility from the
// cache nodes already built for its children.
func (c *Cache) reevaluate(n *Node) {
	h := n.Collection
	visible := c.IsVisible(h)
	n.Children = nil

	if c.src.IsExpanded(h) {
		var kept []*Node
		for _, child := range c.src.Children(h) {
			cn := c.nodes[child]
			if cn == nil {
				cn = &Node{Collection: child}
				c.BuildDynamicCache(cn)
			}
			if cn.Visible {
				kept = append(kept, cn)
			}
		}
		n.Children = c.orderNodes(h, kept)
		visible = visible || len(kept) > 0
	} else if !visible {
		visible = c.IsCollapsedNodeVisible(h)
	}

	n.Visible = c.finalVisibility(h, visible)
}

// sortNode re-sorts the entries n already shows. They are put back in raw
// order first so ties come out the same as in a full build.
func (c *Cache) sortNode(n *Node) {
	switch n.Kind {
	case model.KindFolderGroup:
		kept := make(map[model.Handle]*Node, len(n.Children))
		for _, cn := range n.Children {
			kept[cn.Collection] = cn
		}
		nodes := n.Children[:0]
		for _, h := range c.src.Children(n.Collection) {
			if cn, ok := kept[h]; ok {
				nodes = append(nodes, cn)
			}
		}
		n.Children = c.orderNodes(n.Collection, nodes)
	case model.KindFolder:
		kept := make(map[model.Handle]struct{}, len(n.Leaves))
		for _, h := range n.Leaves {
			kept[h] = struct{}{}
		}
		leaves := n.Leaves[:0]
		for _, h := range c.src.Children(n.Collection) {
			if _, ok := kept[h]; ok {
				leaves = append(leaves, h)
			}
		}
		c.src.Order(n.Collection, leaves)
		n.Leaves = leaves
	case model.KindLeaf:
	}
}

// orderNodes sorts nodes with the sort spec of owner
func (c *Cache) orderNodes(owner model.Handle, nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	byHandle := make(map[model.Handle]*Node, len(nodes))
	hs := make([]model.Handle, len(nodes))
	for i, n := range nodes {
		hs[i] = n.Collection
		byHandle[n.Collection] = n
	}
	c.src.Order(owner, hs)
	for i, h := range hs {
		nodes[i] = byHandle[h]
	}
	return nodes
}

func (c *Cache) rebuildFlat() {
	flat := make([]model.Handle, 0, len(c.flat))
	flat = append(flat, model.RootHandle)
	flat = appendFlat(flat, c.root)

	if !slices.Equal(flat, c.flat) {
		c.generation++
	}
	c.flat = flat
	clear(c.index)
	for i, h := range flat {
		c.index[h] = i
	}
}

func appendFlat(flat []model.Handle, n *Node) []model.Handle {
	if n == nil {
		return flat
	}
	switch n.Kind {
	case model.KindFolderGroup:
		for _, child := range n.Children {
			flat = append(flat, child.Collection)
			flat = appendFlat(flat, child)
		}
	case model.KindFolder:
		flat = append(flat, n.Leaves...)
	case model.KindLeaf:
	}
	return flat
}

// Root returns the root view node, nil before the first update
func (c *Cache) Root() *Node {
	return c.root
}

// Flat returns the pre-order list of visible handles, starting with the
// root. The slice is replaced on every pass and must not be modified.
func (c *Cache) Flat() []model.Handle {
	return c.flat
}

// IndexOf returns the position of h in the flat list
func (c *Cache) IndexOf(h model.Handle) (int, bool) {
	i, ok := c.index[h]
	return i, ok
}

// NodeFor returns the view node registered for collection h
func (c *Cache) NodeFor(h model.Handle) (*Node, bool) {
	n, ok := c.nodes[h]
	return n, ok
}

// Generation increases every time the flat list changes
func (c *Cache) Generation() uint64 {
	return c.generation
}

func countLabel(n int) string {
	if n == 1 {
		return "1 node"
	}
	return strconv.Itoa(n) + " nodes"
}

// Package selection implements anchor and range multi-selection over the
// flat list of a filter cache.
package selection

import (
	"slices"

	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

// Modifiers are the keys held during a click
type Modifiers uint8

const (
	Shift Modifiers = 1 << iota
	Ctrl
)

// Nodes resolves node kinds, normally a *model.Tree
type Nodes interface {
	Kind(h model.Handle) (model.Kind, bool)
}

// Index is the flat list range selection works on, normally a *cache.Cache
type Index interface {
	Flat() []model.Handle
	IndexOf(h model.Handle) (int, bool)
}

// Manager holds the current selection. It is not safe for concurrent use.
type Manager struct {
	nodes Nodes
	index Index
	bus   *event.Bus
	unsub func()

	kinds  map[model.Handle]model.Kind
	order  []model.Handle
	last   model.Handle
	anchor model.Handle
}

// New creates an empty selection. bus may be nil; when set the manager
// publishes SelectionChanged and drops nodes the tree reports as removed.
func New(nodes Nodes, index Index, bus *event.Bus) *Manager {
	m := &Manager{
		nodes:  nodes,
		index:  index,
		bus:    bus,
		kinds:  make(map[model.Handle]model.Kind),
		last:   model.NoHandle,
		anchor: model.NoHandle,
	}
	if bus != nil {
		m.unsub = bus.Subscribe(m.handle)
	}
	return m
}

// Close detaches the manager from its bus
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *Manager) handle(msg event.Message) {
	switch msg.Kind {
	case event.FolderMembershipUpdated, event.CollectionRemoved, event.CollectionMerged:
		if len(msg.Nodes) > 0 {
			m.DeselectAll(model.Handles(msg.Nodes))
		}
	default:
	}
}

// SelectItem applies a click on h.
//
// With Shift and a different anchor, every node between the anchor and h in
// the flat list gets the same treatment: selected when h was not selected,
// deselected otherwise. With Ctrl, h alone is toggled. A plain click selects
// only h, or clears everything when h already is the sole, last selected node.
// A range whose ends are no longer listed falls through to the other rules.
func (m *Manager) SelectItem(h model.Handle, mods Modifiers, canAnchorSelect, canRangeSelect bool) {
	if canRangeSelect && mods&Shift != 0 && m.anchor != model.NoHandle && m.anchor != h {
		if m.selectRange(h) {
			return
		}
	}

	if canAnchorSelect && mods&Ctrl != 0 {
		if m.IsSelected(h) {
			m.remove([]model.Handle{h})
			m.last = model.NoHandle
		} else if m.add([]model.Handle{h}) {
			m.last = h
		}
		m.anchor = h
		return
	}

	if len(m.order) == 1 && m.order[0] == h && m.last == h {
		m.Clear()
		return
	}
	m.Clear()
	if m.add([]model.Handle{h}) {
		m.last = h
		m.anchor = h
	}
}

func (m *Manager) selectRange(h model.Handle) bool {
	from, ok := m.index.IndexOf(m.anchor)
	if !ok {
		return false
	}
	to, ok := m.index.IndexOf(h)
	if !ok {
		return false
	}
	if from > to {
		from, to = to, from
	}
	span := slices.Clone(m.index.Flat()[from : to+1])

	selecting := !m.IsSelected(h)
	if selecting {
		m.add(span)
		m.last = h
	} else {
		m.remove(span)
		m.last = model.NoHandle
	}
	m.anchor = h
	return true
}

// SetAnchor moves the range anchor without changing the selection
func (m *Manager) SetAnchor(h model.Handle) {
	m.anchor = h
}

// Select adds h to the selection
func (m *Manager) Select(h model.Handle) {
	if m.add([]model.Handle{h}) {
		m.last = h
	}
}

// Deselect removes h from the selection
func (m *Manager) Deselect(h model.Handle) {
	m.remove([]model.Handle{h})
}

// DeselectAll removes every handle in hs and publishes one message for them
func (m *Manager) DeselectAll(hs []model.Handle) {
	m.remove(hs)
}

// Clear empties the selection and forgets the anchor
func (m *Manager) Clear() {
	m.last = model.NoHandle
	m.anchor = model.NoHandle
	if len(m.order) == 0 {
		return
	}
	cleared := m.order
	m.order = nil
	clear(m.kinds)
	m.publish(event.Cleared, cleared)
}

// add selects the live, unselected handles of hs and reports whether any was added
func (m *Manager) add(hs []model.Handle) bool {
	var added []model.Handle
	for _, h := range hs {
		if _, ok := m.kinds[h]; ok {
			continue
		}
		kind, ok := m.nodes.Kind(h)
		if !ok {
			continue
		}
		m.kinds[h] = kind
		m.order = append(m.order, h)
		added = append(added, h)
	}
	if len(added) == 0 {
		return false
	}
	m.publish(event.Added, added)
	return true
}

func (m *Manager) remove(hs []model.Handle) {
	drop := make(map[model.Handle]struct{}, len(hs))
	var removed []model.Handle
	for _, h := range hs {
		if _, ok := m.kinds[h]; !ok {
			continue
		}
		if _, dup := drop[h]; dup {
			continue
		}
		drop[h] = struct{}{}
		delete(m.kinds, h)
		removed = append(removed, h)
		if m.last == h {
			m.last = model.NoHandle
		}
		if m.anchor == h {
			m.anchor = model.NoHandle
		}
	}
	if len(removed) == 0 {
		return
	}
	m.order = slices.DeleteFunc(m.order, func(h model.Handle) bool {
		_, ok := drop[h]
		return ok
	})
	m.publish(event.Removed, removed)
}

func (m *Manager) publish(change event.SelectionChange, hs []model.Handle) {
	if m.bus == nil {
		return
	}
	nodes := make([]int, len(hs))
	for i, h := range hs {
		nodes[i] = int(h)
	}
	m.bus.Publish(event.Message{Kind: event.SelectionChanged, Change: change, Nodes: nodes})
}

// IsSelected reports whether h is selected
func (m *Manager) IsSelected(h model.Handle) bool {
	_, ok := m.kinds[h]
	return ok
}

// Count returns the number of selected nodes
func (m *Manager) Count() int {
	return len(m.order)
}

// Selected returns the selected nodes in the order they were selected
func (m *Manager) Selected() []model.Handle {
	return slices.Clone(m.order)
}

// Leaves returns the selected leaves in selection order
func (m *Manager) Leaves() []model.Handle {
	return m.ofKind(model.KindLeaf)
}

// Folders returns the selected folders in selection order
func (m *Manager) Folders() []model.Handle {
	return m.ofKind(model.KindFolder)
}

// FolderGroups returns the selected folder groups in selection order
func (m *Manager) FolderGroups() []model.Handle {
	return m.ofKind(model.KindFolderGroup)
}

func (m *Manager) ofKind(k model.Kind) []model.Handle {
	var out []model.Handle
	for _, h := range m.order {
		if m.kinds[h] == k {
			out = append(out, h)
		}
	}
	return out
}

// LastSelected returns the node most recently added by a click, or NoHandle
func (m *Manager) LastSelected() model.Handle {
	return m.last
}

// Anchor returns the range anchor, or NoHandle
func (m *Manager) Anchor() model.Handle {
	return m.anchor
}

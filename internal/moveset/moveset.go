// Package moveset turns the current selection into the minimal set of nodes a
// drag or move has to relocate.
package moveset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

var (
	ErrInvalidTransfer = errors.New("invalid transfer destination")
	ErrNoLeafMover     = errors.New("no leaf mover for leaf transfer")
)

// Selection is the source of selected nodes, normally a *selection.Manager
type Selection interface {
	Selected() []model.Handle
}

// LeafMover relocates the record behind a leaf from one folder to another.
// Records belong to the domain, so the tree only learns about the move when
// both folders are reconciled afterwards.
type LeafMover[T comparable] func(record T, from, to model.Handle) error

// Set is a resolved move set. Both lists keep selection order.
type Set struct {
	Leaves      []model.Handle
	Collections []model.Handle

	folders int
	groups  int
}

// Empty reports whether there is nothing to move
func (s Set) Empty() bool {
	return len(s.Leaves) == 0 && len(s.Collections) == 0
}

// HasLeaves reports whether any leaf is part of the set
func (s Set) HasLeaves() bool {
	return len(s.Leaves) > 0
}

// OnlyLeaves reports a non-empty set of leaves alone
func (s Set) OnlyLeaves() bool {
	return len(s.Leaves) > 0 && len(s.Collections) == 0
}

// OnlyCollections reports a non-empty set without leaves
func (s Set) OnlyCollections() bool {
	return len(s.Collections) > 0 && len(s.Leaves) == 0
}

// OnlyFolders reports a non-empty set of folders alone
func (s Set) OnlyFolders() bool {
	return s.OnlyCollections() && s.groups == 0
}

// OnlyFolderGroups reports a non-empty set of folder groups alone
func (s Set) OnlyFolderGroups() bool {
	return s.OnlyCollections() && s.folders == 0
}

// Handles returns collections followed by leaves
func (s Set) Handles() []model.Handle {
	return append(slices.Clone(s.Collections), s.Leaves...)
}

// Resolver keeps the move set in step with a selection
type Resolver[T comparable] struct {
	tree  *model.Tree[T]
	sel   Selection
	unsub func()
	set   Set
}

// New creates a resolver over sel. With a bus it recomputes whenever the
// selection changes or collections move.
func New[T comparable](tree *model.Tree[T], sel Selection, bus *event.Bus) *Resolver[T] {
	r := &Resolver[T]{tree: tree, sel: sel}
	if bus != nil {
		r.unsub = bus.Subscribe(func(msg event.Message) {
			switch msg.Kind {
			case event.SelectionChanged, event.CollectionMoved, event.CollectionMerged:
				r.Recompute()
			default:
			}
		})
	}
	r.Recompute()
	return r
}

// Close detaches the resolver from its bus
func (r *Resolver[T]) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// Set returns the current move set
func (r *Resolver[T]) Set() Set {
	return r.set
}

// Recompute rebuilds the move set from the selection
func (r *Resolver[T]) Recompute() {
	r.set = Resolve(r.tree, r.sel.Selected())
}

// Resolve drops every node of selected that moves along with a selected
// ancestor: leaves of a selected folder and anything below a selected group.
// The root never moves and carries nothing.
func Resolve[T comparable](tree *model.Tree[T], selected []model.Handle) Set {
	chosen := make(map[model.Handle]struct{}, len(selected))
	for _, h := range selected {
		if h != model.RootHandle {
			chosen[h] = struct{}{}
		}
	}

	var s Set
	for _, h := range selected {
		kind, ok := tree.Kind(h)
		if !ok || h == model.RootHandle || carried(tree, h, chosen) {
			continue
		}
		switch kind {
		case model.KindLeaf:
			s.Leaves = append(s.Leaves, h)
		case model.KindFolder:
			s.Collections = append(s.Collections, h)
			s.folders++
		case model.KindFolderGroup:
			s.Collections = append(s.Collections, h)
			s.groups++
		}
	}
	return s
}

// carried reports whether a strict ancestor of h is selected
func carried[T comparable](tree *model.Tree[T], h model.Handle, chosen map[model.Handle]struct{}) bool {
	for p := tree.Parent(h); p != model.NoHandle; p = tree.Parent(p) {
		if _, ok := chosen[p]; ok {
			return true
		}
	}
	return false
}

// IsValidTransfer reports whether the move set may be dropped on dest.
// Leaves go into folders only and collections into groups only; no
// collection may move into itself or below itself.
func (r *Resolver[T]) IsValidTransfer(dest model.Handle) bool {
	return r.check(dest) == nil
}

func (r *Resolver[T]) check(dest model.Handle) error {
	s := r.set
	if s.Empty() {
		return fmt.Errorf("%w: nothing selected", ErrInvalidTransfer)
	}
	kind, ok := r.tree.Kind(dest)
	if !ok {
		return fmt.Errorf("%w: destination %d: %w", ErrInvalidTransfer, dest, model.ErrNotFound)
	}
	switch kind {
	case model.KindLeaf:
		return fmt.Errorf("%w: cannot drop on a leaf", ErrInvalidTransfer)
	case model.KindFolderGroup:
		if s.HasLeaves() {
			return fmt.Errorf("%w: leaves need a folder", ErrInvalidTransfer)
		}
	case model.KindFolder:
		if len(s.Collections) > 0 {
			return fmt.Errorf("%w: folders hold leaves only", ErrInvalidTransfer)
		}
	}
	for _, c := range s.Collections {
		if c == dest || r.tree.IsAncestor(c, dest) {
			return fmt.Errorf("%w: %q into itself: %w", ErrInvalidTransfer, r.tree.FullPath(c), model.ErrCycle)
		}
	}
	return nil
}

// Transfer moves the set to dest. Name clashes are checked for every
// collection before the first one moves, so a rejected transfer leaves the
// tree as it was. Leaves are handed to moveLeaf and the folders involved are
// reconciled afterwards, also when moveLeaf fails partway, so the tree always
// reflects the records that did move.
func (r *Resolver[T]) Transfer(dest model.Handle, moveLeaf LeafMover[T]) error {
	if err := r.check(dest); err != nil {
		return err
	}
	s := r.set
	defer r.Recompute()

	if len(s.Collections) > 0 {
		names := make(map[string]struct{})
		for _, c := range r.tree.Children(dest) {
			if !slices.Contains(s.Collections, c) {
				names[r.tree.Name(c)] = struct{}{}
			}
		}
		for _, c := range s.Collections {
			name := r.tree.Name(c)
			if _, taken := names[name]; taken {
				return &model.DuplicateNameError{Parent: r.tree.FullPath(dest), Name: name}
			}
			names[name] = struct{}{}
		}
		for _, c := range s.Collections {
			if r.tree.Parent(c) == dest {
				continue
			}
			if err := r.tree.Move(c, dest, -1); err != nil {
				return fmt.Errorf("transfer %q: %w", r.tree.FullPath(c), err)
			}
		}
	}

	if s.HasLeaves() {
		if moveLeaf == nil {
			return ErrNoLeafMover
		}
		return r.transferLeaves(s.Leaves, dest, moveLeaf)
	}
	return nil
}

func (r *Resolver[T]) transferLeaves(leaves []model.Handle, dest model.Handle, moveLeaf LeafMover[T]) error {
	touched := []model.Handle{dest}
	moved := 0
	defer func() {
		for _, f := range touched {
			r.tree.Reconcile(f)
		}
		debug.Log("moveset: moved %d of %d leaves, reconciled %d folders", moved, len(leaves), len(touched))
	}()

	for _, l := range leaves {
		from := r.tree.Parent(l)
		if from == dest {
			continue
		}
		record, ok := r.tree.Record(l)
		if !ok {
			continue
		}
		if !slices.Contains(touched, from) {
			touched = append(touched, from)
		}
		if err := moveLeaf(record, from, dest); err != nil {
			return fmt.Errorf("transfer leaf %q: %w", r.tree.FullPath(l), err)
		}
		moved++
	}
	return nil
}

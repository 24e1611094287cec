package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pstuifzand/foldertree/internal/event"
)

func TestReconcileKeepsLeafIdentity(t *testing.T) {
	x, y, z := &rec{"x"}, &rec{"y"}, &rec{"z"}
	current := []*rec{x, y}
	tree := NewTree[*rec](nil)
	a, _ := tree.AddFolder(RootHandle, 1, "A", func() []*rec { return current }, recLeaf)

	removed, changed := tree.Reconcile(a)
	assert.Empty(t, removed)
	assert.True(t, changed)
	xLeaf, _ := tree.LeafOf(a, x)
	yLeaf, _ := tree.LeafOf(a, y)

	current = []*rec{z, x}
	removed, changed = tree.Reconcile(a)
	assert.True(t, changed)
	assert.Equal(t, []Handle{yLeaf}, removed)
	assert.False(t, tree.Exists(yLeaf))

	again, ok := tree.LeafOf(a, x)
	require.True(t, ok)
	assert.Equal(t, xLeaf, again)
	zLeaf, _ := tree.LeafOf(a, z)
	assert.Equal(t, []Handle{zLeaf, xLeaf}, tree.Children(a))

	removed, changed = tree.Reconcile(a)
	assert.Empty(t, removed)
	assert.False(t, changed, "unchanged generator output is not a change")
}

func TestReconcileIdentityIsNotValueEquality(t *testing.T) {
	first := &rec{"same"}
	second := &rec{"same"}
	current := []*rec{first}
	tree := NewTree[*rec](nil)
	a, _ := tree.AddFolder(RootHandle, 1, "A", func() []*rec { return current }, recLeaf)
	tree.Reconcile(a)
	old, _ := tree.LeafOf(a, first)

	current = []*rec{second}
	removed, _ := tree.Reconcile(a)
	assert.Equal(t, []Handle{old}, removed)
}

func TestReconcileOrderAndNames(t *testing.T) {
	b, a := &rec{"b"}, &rec{"a"}
	tree := NewTree[*rec](nil)
	f, _ := tree.AddFolder(RootHandle, 1, "F", staticGen(b, a, b), recLeaf)
	tree.SetLeafOrder(f, func(p, q *rec) int { return strings.Compare(p.name, q.name) })

	tree.Reconcile(f)
	require.Len(t, tree.Children(f), 2, "duplicate records collapse into one leaf")
	assert.Equal(t, "a", tree.Name(tree.Children(f)[0]))

	a.name = "c"
	_, changed := tree.Reconcile(f)
	assert.True(t, changed)
	aLeaf, _ := tree.LeafOf(f, a)
	assert.Equal(t, "F/c", tree.FullPath(aLeaf))
	assert.Equal(t, aLeaf, tree.Children(f)[1])
}

func TestReconcilePublishesRemovedLeaves(t *testing.T) {
	bus := event.NewBus()
	x := &rec{"x"}
	current := []*rec{x}
	tree := NewTree[*rec](bus)
	f, _ := tree.AddFolder(RootHandle, 1, "F", func() []*rec { return current }, recLeaf)
	tree.Reconcile(f)
	xLeaf, _ := tree.LeafOf(f, x)

	var got []event.Message
	bus.Subscribe(func(m event.Message) { got = append(got, m) })
	current = nil
	tree.Reconcile(f)

	require.Len(t, got, 1)
	assert.Equal(t, event.FolderMembershipUpdated, got[0].Kind)
	assert.Equal(t, int(f), got[0].Collection)
	assert.Equal(t, []int{int(xLeaf)}, got[0].Nodes)
}

func TestReconcileWithSnapshot(t *testing.T) {
	tree := NewTree[*rec](nil)
	f, _ := tree.AddFolder(RootHandle, 1, "F", nil, recLeaf)
	snapshot := []*rec{{"one"}, {"two"}}
	tree.ReconcileWith(f, snapshot)
	snapshot[0] = &rec{"mutated"}

	assert.Equal(t, "one", tree.Name(tree.Children(f)[0]))
}

func TestReconcileDefaultLeafName(t *testing.T) {
	tree := NewTree[string](nil)
	f, _ := tree.AddFolder(RootHandle, 1, "F", func() []string { return []string{"alpha"} }, nil)
	tree.Reconcile(f)
	assert.Equal(t, "F/alpha", tree.FullPath(tree.Children(f)[0]))
}

func TestReconcileProperties(t *testing.T) {
	pool := make([]*rec, 12)
	for i := range pool {
		pool[i] = &rec{name: string(rune('a' + i))}
	}
	subset := rapid.SliceOfDistinct(rapid.IntRange(0, len(pool)-1), rapid.ID[int])

	rapid.Check(t, func(t *rapid.T) {
		var current []*rec
		tree := NewTree[*rec](nil)
		f, _ := tree.AddFolder(RootHandle, 1, "F", func() []*rec { return current }, recLeaf)

		for range rapid.IntRange(1, 6).Draw(t, "rounds") {
			before := make(map[*rec]Handle)
			for _, lh := range tree.Children(f) {
				r, _ := tree.Record(lh)
				before[r] = lh
			}

			current = nil
			for _, i := range subset.Draw(t, "records") {
				current = append(current, pool[i])
			}
			present := make(map[*rec]bool)
			for _, r := range current {
				present[r] = true
			}

			removed, _ := tree.Reconcile(f)

			var wantRemoved []Handle
			for r, lh := range before {
				if !present[r] {
					wantRemoved = append(wantRemoved, lh)
					continue
				}
				now, ok := tree.LeafOf(f, r)
				if !ok || now != lh {
					t.Fatalf("record %s lost its leaf identity", r.name)
				}
			}
			assert.ElementsMatch(t, wantRemoved, removed)
			if len(tree.Children(f)) != len(current) {
				t.Fatalf("expected %d leaves, got %d", len(current), len(tree.Children(f)))
			}
		}
	})
}

func TestPathInvariantUnderMoves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := NewTree[*rec](nil)
		groups := []Handle{RootHandle}
		nextID := 1

		for range rapid.IntRange(1, 15).Draw(t, "ops") {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				p := rapid.SampledFrom(groups).Draw(t, "parent")
				h, err := tree.AddFolderGroup(p, nextID, rapid.StringMatching(`[a-d]`).Draw(t, "name"))
				nextID++
				if err == nil {
					groups = append(groups, h)
				}
			case 1:
				p := rapid.SampledFrom(groups).Draw(t, "parent")
				name := rapid.StringMatching(`[a-d]`).Draw(t, "name")
				h, err := tree.AddFolder(p, nextID, name, staticGen(&rec{"leaf"}), recLeaf)
				nextID++
				if err == nil {
					tree.Reconcile(h)
				}
			case 2:
				if len(groups) < 2 {
					continue
				}
				h := rapid.SampledFrom(groups[1:]).Draw(t, "moved")
				dst := rapid.SampledFrom(groups).Draw(t, "dst")
				_ = tree.Move(h, dst, -1)
			case 3:
				if len(groups) < 2 {
					continue
				}
				h := rapid.SampledFrom(groups[1:]).Draw(t, "renamed")
				_ = tree.Rename(h, rapid.StringMatching(`[a-f]`).Draw(t, "newname"))
			}
		}

		tree.Walk(RootHandle, func(h Handle) bool {
			if h == RootHandle {
				return true
			}
			if got, want := tree.FullPath(h), expectedPath(tree, h); got != want {
				t.Fatalf("node %d path %q, want %q", h, got, want)
			}
			return true
		})
	})
}

func expectedPath(tree *Tree[*rec], h Handle) string {
	p := tree.Parent(h)
	pp := tree.FullPath(p)
	if pp == "" {
		return tree.Name(h)
	}
	k, _ := tree.Kind(h)
	sep := LeafSeparator
	switch k {
	case KindFolderGroup:
		sep = GroupSeparator
	case KindFolder:
		sep = FolderSeparator
	}
	return pp + sep + tree.Name(h)
}

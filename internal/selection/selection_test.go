package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pstuifzand/foldertree/internal/cache"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

type rec struct {
	name string
}

func recLeaf(r *rec) model.LeafInfo { return model.LeafInfo{Name: r.name} }

type env struct {
	bus     *event.Bus
	tree    *model.Tree[*rec]
	cache   *cache.Cache
	sel     *Manager
	g, a, b model.Handle
	x, y, z model.Handle
	records map[model.Handle][]*rec
	msgs    []event.Message
}

// newEnv builds Root > G > {A: x y, B: z} with everything expanded, so the
// flat list is Root G A x y B z.
func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{bus: event.NewBus(), records: make(map[model.Handle][]*rec)}
	e.tree = model.NewTree[*rec](e.bus)
	gen := func(h *model.Handle) model.Generator[*rec] {
		return func() []*rec { return e.records[*h] }
	}

	var err error
	e.g, err = e.tree.AddFolderGroup(model.RootHandle, 1, "G")
	require.NoError(t, err)
	e.a, err = e.tree.AddFolder(e.g, 2, "A", gen(&e.a), recLeaf)
	require.NoError(t, err)
	e.b, err = e.tree.AddFolder(e.g, 3, "B", gen(&e.b), recLeaf)
	require.NoError(t, err)

	rx, ry, rz := &rec{"x"}, &rec{"y"}, &rec{"z"}
	e.records[e.a] = []*rec{rx, ry}
	e.records[e.b] = []*rec{rz}
	e.tree.EnsureAllFolders()
	for _, h := range []model.Handle{e.g, e.a, e.b} {
		e.tree.SetExpanded(h, true)
	}
	e.x, _ = e.tree.LeafOf(e.a, rx)
	e.y, _ = e.tree.LeafOf(e.a, ry)
	e.z, _ = e.tree.LeafOf(e.b, rz)

	e.cache = cache.New(e.tree, cache.WithBus(e.bus))
	e.cache.UpdateCache()
	require.Equal(t, []model.Handle{model.RootHandle, e.g, e.a, e.x, e.y, e.b, e.z}, e.cache.Flat())

	e.sel = New(e.tree, e.cache, e.bus)
	e.bus.Subscribe(func(msg event.Message) {
		if msg.Kind == event.SelectionChanged {
			e.msgs = append(e.msgs, msg)
		}
	})
	return e
}

func TestPlainClickSelectsOnlyTarget(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.y, 0, true, true)

	assert.Equal(t, []model.Handle{e.y}, e.sel.Selected())
	assert.Equal(t, e.y, e.sel.Anchor())
	assert.Equal(t, e.y, e.sel.LastSelected())
}

func TestPlainClickOnSoleSelectionClears(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.x, 0, true, true)

	assert.Zero(t, e.sel.Count())
	assert.Equal(t, model.NoHandle, e.sel.Anchor())
	assert.Equal(t, model.NoHandle, e.sel.LastSelected())
}

func TestShiftRangeSpansFolders(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.z, Shift, true, true)

	assert.ElementsMatch(t, []model.Handle{e.x, e.y, e.b, e.z}, e.sel.Selected())
	assert.Equal(t, []model.Handle{e.x, e.y, e.z}, e.sel.Leaves())
	assert.Equal(t, []model.Handle{e.b}, e.sel.Folders())
	assert.Empty(t, e.sel.FolderGroups())
	assert.Equal(t, e.z, e.sel.Anchor())
	assert.Equal(t, e.z, e.sel.LastSelected())
}

func TestShiftRangeBackwards(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.b, 0, true, true)
	e.sel.SelectItem(e.g, Shift, true, true)
	assert.ElementsMatch(t, []model.Handle{e.g, e.a, e.x, e.y, e.b}, e.sel.Selected())
}

// The intent of a shift click follows the clicked node, so a second shift
// click on a selected node deselects the range from the new anchor.
func TestShiftIntentFollowsClickedNode(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.z, Shift, true, true)
	e.sel.SelectItem(e.y, Shift, true, true)

	assert.Equal(t, []model.Handle{e.x}, e.sel.Selected(), "y is selected, so y..z is deselected")
	assert.Equal(t, e.y, e.sel.Anchor())
	assert.Equal(t, model.NoHandle, e.sel.LastSelected())
}

func TestShiftWithoutRangePermission(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.z, Shift, true, false)
	assert.Equal(t, []model.Handle{e.z}, e.sel.Selected())
}

func TestShiftWithStaleAnchorFallsThrough(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SetAnchor(999)
	e.sel.SelectItem(e.z, Shift, true, true)
	assert.Equal(t, []model.Handle{e.z}, e.sel.Selected())
}

func TestCtrlToggles(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.z, Ctrl, true, true)
	assert.Equal(t, []model.Handle{e.x, e.z}, e.sel.Selected())
	assert.Equal(t, e.z, e.sel.LastSelected())

	e.sel.SelectItem(e.x, Ctrl, true, true)
	assert.Equal(t, []model.Handle{e.z}, e.sel.Selected())
	assert.Equal(t, e.x, e.sel.Anchor())
	assert.Equal(t, model.NoHandle, e.sel.LastSelected())

	e.sel.SelectItem(e.y, Ctrl, false, true)
	assert.Equal(t, []model.Handle{e.y}, e.sel.Selected(), "without anchor permission ctrl is a plain click")
}

func TestMessages(t *testing.T) {
	e := newEnv(t)
	e.sel.SelectItem(e.x, 0, true, true)
	e.sel.SelectItem(e.y, 0, true, true)
	e.sel.Deselect(e.y)

	require.Len(t, e.msgs, 4)
	assert.Equal(t, event.Added, e.msgs[0].Change)
	assert.Equal(t, event.Cleared, e.msgs[1].Change)
	assert.Equal(t, []int{int(e.x)}, e.msgs[1].Nodes)
	assert.Equal(t, event.Added, e.msgs[2].Change)
	assert.Equal(t, event.Removed, e.msgs[3].Change)

	e.sel.Deselect(e.y)
	assert.Len(t, e.msgs, 4, "deselecting an unselected node says nothing")
}

func TestRemovedLeavesAreDeselected(t *testing.T) {
	e := newEnv(t)
	e.sel.Select(e.x)
	e.sel.Select(e.y)
	e.sel.Select(e.z)

	rx, _ := e.tree.Record(e.x)
	e.records[e.a] = []*rec{rx}
	e.tree.Reconcile(e.a)

	assert.Equal(t, []model.Handle{e.x, e.z}, e.sel.Selected(), "only the removed leaf goes")
}

func TestRemovedCollectionsAreDeselected(t *testing.T) {
	e := newEnv(t)
	e.sel.Select(e.g)
	e.sel.Select(e.x)
	e.sel.Select(e.z)

	require.NoError(t, e.tree.Remove(e.a))
	assert.Equal(t, []model.Handle{e.g, e.z}, e.sel.Selected())
}

func TestSelectStaleHandle(t *testing.T) {
	e := newEnv(t)
	e.sel.Select(12345)
	e.sel.SelectItem(12345, 0, true, true)
	assert.Zero(t, e.sel.Count())
}

// Two shift clicks over the same range from the same anchor cancel out when
// nothing in the range was selected before.
func TestRangeSelectTwiceRestores(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEnv(t)
		flat := e.cache.Flat()
		anchor := rapid.SampledFrom(flat).Draw(rt, "anchor")
		target := rapid.SampledFrom(flat).Draw(rt, "target")
		if anchor == target {
			rt.Skip("range needs two ends")
		}

		e.sel.SetAnchor(anchor)
		e.sel.SelectItem(target, Shift, true, true)
		i, _ := e.cache.IndexOf(anchor)
		j, _ := e.cache.IndexOf(target)
		if i > j {
			i, j = j, i
		}
		assert.ElementsMatch(rt, flat[i:j+1], e.sel.Selected())

		e.sel.SetAnchor(anchor)
		e.sel.SelectItem(target, Shift, true, true)
		assert.Zero(rt, e.sel.Count())
	})
}

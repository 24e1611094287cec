package cache

import (
	"github.com/pstuifzand/foldertree/internal/debug"
	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

// handle turns tree messages into cache work. Structural changes can move
// paths anywhere below the affected collection, so they rebuild everything.
func (c *Cache) handle(msg event.Message) {
	h := model.Handle(msg.Collection)
	switch msg.Kind {
	case event.CollectionAdded, event.CollectionRemoved, event.CollectionMoved,
		event.CollectionRenamed, event.CollectionMerged:
		c.MarkFullyDirty()
	case event.OpenStateChanged, event.FolderMembershipUpdated:
		if target, ok := c.nearestCached(h); ok {
			c.MarkForReload(target)
		} else {
			debug.Log("cache: no cached ancestor for %d, rebuilding", h)
			c.MarkFullyDirty()
		}
	case event.SortSpecChanged:
		c.MarkForSortUpdate(h)
	case event.SelectionChanged:
	}
}

// nearestCached returns h or its closest ancestor that has a cache node
func (c *Cache) nearestCached(h model.Handle) (model.Handle, bool) {
	for ; h != model.NoHandle; h = c.src.Parent(h) {
		if _, ok := c.nodes[h]; ok {
			return h, true
		}
	}
	return model.NoHandle, false
}

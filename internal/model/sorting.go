package model

import "github.com/pstuifzand/foldertree/internal/sortspec"

// ByName is a sort step ordering nodes by display name
func (t *Tree[T]) ByName() sortspec.Step[Handle] {
	return sortspec.ByName(t.Name)
}

// ByPriority is a sort step ordering nodes by descending priority
func (t *Tree[T]) ByPriority() sortspec.Step[Handle] {
	return sortspec.ByPriority(t.Priority)
}

// ByRecord builds a sort step from a key over leaf records. Collections have
// no record and get the none key, so they sort after leaves.
func (t *Tree[T]) ByRecord(name string, key func(T) sortspec.Key) sortspec.Step[Handle] {
	return sortspec.Step[Handle]{
		Name: name,
		Key: func(h Handle) sortspec.Key {
			r, ok := t.Record(h)
			if !ok {
				return sortspec.None()
			}
			return key(r)
		},
	}
}

// Order sorts hs with the spec of collection owner, breaking remaining ties
// by descending priority. hs is sorted in place.
func (t *Tree[T]) Order(owner Handle, hs []Handle) {
	t.SortSpec(owner).ApplyThen(hs, t.ByPriority())
}

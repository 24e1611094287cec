package cache

import "github.com/pstuifzand/foldertree/internal/model"

// queue is an insertion-ordered set of handles
type queue struct {
	order []model.Handle
	seen  map[model.Handle]struct{}
}

func (q *queue) push(h model.Handle) {
	if q.seen == nil {
		q.seen = make(map[model.Handle]struct{})
	}
	if _, ok := q.seen[h]; ok {
		return
	}
	q.seen[h] = struct{}{}
	q.order = append(q.order, h)
}

func (q *queue) len() int {
	return len(q.order)
}

func (q *queue) drain() []model.Handle {
	out := q.order
	q.clear()
	return out
}

func (q *queue) clear() {
	q.order = nil
	clear(q.seen)
}

package event

// Handler receives published messages
type Handler func(Message)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a synchronous publish/subscribe dispatcher. Handlers run on the
// publishing goroutine in subscription order. A message published while a
// fan-out is in progress is queued and delivered once the current fan-out
// completes, so every subscriber sees messages in the same order.
//
// Bus is not safe for concurrent use; background producers hand work to the
// update loop through a Queue.
type Bus struct {
	subs       []subscription
	nextID     int
	pending    []Message
	delivering bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn Handler) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers msg to every subscriber
func (b *Bus) Publish(msg Message) {
	if b == nil {
		return
	}
	b.pending = append(b.pending, msg)
	if b.delivering {
		return
	}

	b.delivering = true
	defer func() { b.delivering = false }()

	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]

		// Snapshot so handlers may unsubscribe while we iterate
		subs := append([]subscription(nil), b.subs...)
		for _, s := range subs {
			if b.subscribed(s.id) {
				s.handler(next)
			}
		}
	}
}

// Len returns the number of subscribers
func (b *Bus) Len() int {
	return len(b.subs)
}

func (b *Bus) subscribed(id int) bool {
	for _, s := range b.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

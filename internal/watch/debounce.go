package watch

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is how long a folder has to stay quiet before it
// is reported.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer coalesces rapid triggers per key into one callback
type Debouncer[K comparable] struct {
	mu       sync.Mutex
	duration time.Duration
	timers   map[K]*time.Timer
}

// NewDebouncer creates a debouncer. A non-positive duration uses the default.
func NewDebouncer[K comparable](d time.Duration) *Debouncer[K] {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer[K]{duration: d, timers: make(map[K]*time.Timer)}
}

// Duration returns the debounce window
func (d *Debouncer[K]) Duration() time.Duration {
	return d.duration
}

// Trigger (re)starts the window for key; fn runs once the window passes
// without another trigger for the same key.
func (d *Debouncer[K]) Trigger(key K, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := d.timers[key] == t
		if current {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
	d.timers[key] = t
}

// Cancel drops every pending callback
func (d *Debouncer[K]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}

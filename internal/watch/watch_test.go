package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pstuifzand/foldertree/internal/event"
	"github.com/pstuifzand/foldertree/internal/model"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer[int](50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(1, func() { callCount.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := NewDebouncer[int](20 * time.Millisecond)

	var callCount atomic.Int32
	d.Trigger(1, func() { callCount.Add(1) })
	d.Trigger(2, func() { callCount.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 2 {
		t.Errorf("expected 2 callback invocations, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer[int](50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(1, func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer[int](0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func waitFor(t *testing.T, q *event.Queue[model.Handle]) []model.Handle {
	t.Helper()
	select {
	case <-q.Ready():
		return q.Drain()
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a change report")
		return nil
	}
}

func TestWatcher_ReportsFolder(t *testing.T) {
	dir := t.TempDir()
	q := event.NewQueue[model.Handle]()
	w := New(q, WithDebounceDuration(20*time.Millisecond))
	if err := w.Add(3, dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "n.md"), []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := waitFor(t, q)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("expected one report for folder 3, got %v", got)
	}
}

func TestWatcher_RecursiveAddsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	q := event.NewQueue[model.Handle]()
	w := New(q, WithDebounceDuration(20*time.Millisecond))
	if err := w.Add(5, dir, true); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, q)

	// give the watcher a moment to pick up the new directory
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "deep.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := waitFor(t, q)
	if len(got) == 0 || got[0] != 5 {
		t.Errorf("expected a report for folder 5, got %v", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New(event.NewQueue[model.Handle]())
	w.Stop()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("expected started watcher")
	}
	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("expected stopped watcher")
	}
}

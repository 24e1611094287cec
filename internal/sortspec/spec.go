// Package sortspec implements ordered, runtime-editable multi-key sorting.
//
// A Spec is a list of named steps. Applying it stable-sorts by the first
// step, then stable-sorts every run of ties by the next step and so on, so
// steps can be added, removed or reordered independently.
package sortspec

import (
	"errors"
	"fmt"
	"slices"
)

// ErrStepIndex is returned for out of range step positions
var ErrStepIndex = errors.New("sort step index out of range")

// Step is a single ordering criterion. Icon and Tooltip are presentation only.
type Step[E any] struct {
	Name    string
	Icon    string
	Tooltip string
	Key     func(E) Key
}

// Spec is an ordered list of steps
type Spec[E any] struct {
	steps    []Step[E]
	onChange func()
}

// New creates a spec with the given steps
func New[E any](steps ...Step[E]) *Spec[E] {
	return &Spec[E]{steps: slices.Clone(steps)}
}

// OnChange registers fn to run after every mutation of the spec. Only one hook
// is kept; the owning collection installs it.
func (s *Spec[E]) OnChange(fn func()) {
	s.onChange = fn
}

// Steps returns a copy of the steps in order
func (s *Spec[E]) Steps() []Step[E] {
	return slices.Clone(s.steps)
}

// Len returns the number of steps
func (s *Spec[E]) Len() int {
	return len(s.steps)
}

// Names returns the step names in order
func (s *Spec[E]) Names() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// Add appends a step
func (s *Spec[E]) Add(step Step[E]) {
	s.steps = append(s.steps, step)
	s.changed()
}

// Insert puts a step at index i, shifting later steps down
func (s *Spec[E]) Insert(i int, step Step[E]) error {
	if i < 0 || i > len(s.steps) {
		return fmt.Errorf("insert at %d of %d: %w", i, len(s.steps), ErrStepIndex)
	}
	s.steps = slices.Insert(s.steps, i, step)
	s.changed()
	return nil
}

// RemoveAt deletes the step at index i
func (s *Spec[E]) RemoveAt(i int) error {
	if i < 0 || i >= len(s.steps) {
		return fmt.Errorf("remove %d of %d: %w", i, len(s.steps), ErrStepIndex)
	}
	s.steps = slices.Delete(s.steps, i, i+1)
	s.changed()
	return nil
}

// Move relocates the step at from so that it ends up at index to
func (s *Spec[E]) Move(from, to int) error {
	if from < 0 || from >= len(s.steps) || to < 0 || to >= len(s.steps) {
		return fmt.Errorf("move %d to %d of %d: %w", from, to, len(s.steps), ErrStepIndex)
	}
	if from == to {
		return nil
	}
	step := s.steps[from]
	s.steps = slices.Delete(s.steps, from, from+1)
	s.steps = slices.Insert(s.steps, to, step)
	s.changed()
	return nil
}

// Clear removes every step
func (s *Spec[E]) Clear() {
	if len(s.steps) == 0 {
		return
	}
	s.steps = nil
	s.changed()
}

func (s *Spec[E]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Apply sorts items in place. With no steps the order is left untouched.
func (s *Spec[E]) Apply(items []E) {
	if s == nil || len(items) < 2 || len(s.steps) == 0 {
		return
	}
	refine(items, s.steps)
}

// ApplyThen sorts items by the spec's steps followed by tail, which breaks
// whatever ties the spec leaves.
func (s *Spec[E]) ApplyThen(items []E, tail ...Step[E]) {
	if len(items) < 2 {
		return
	}
	var steps []Step[E]
	if s != nil {
		steps = append(steps, s.steps...)
	}
	refine(items, append(steps, tail...))
}

// refine stable-sorts items by the first step, then recurses into each run of
// equal keys with the remaining steps.
func refine[E any](items []E, steps []Step[E]) {
	if len(items) < 2 || len(steps) == 0 {
		return
	}
	step := steps[0]
	if step.Key == nil {
		refine(items, steps[1:])
		return
	}

	keys := make([]Key, len(items))
	idx := make([]int, len(items))
	for i, it := range items {
		keys[i] = step.Key(it)
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return keys[a].Compare(keys[b])
	})

	sorted := make([]E, len(items))
	sortedKeys := make([]Key, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
		sortedKeys[i] = keys[j]
	}
	copy(items, sorted)

	if len(steps) == 1 {
		return
	}
	start := 0
	for i := 1; i <= len(items); i++ {
		if i == len(items) || sortedKeys[i].Compare(sortedKeys[start]) != 0 {
			if i-start > 1 {
				refine(items[start:i], steps[1:])
			}
			start = i
		}
	}
}

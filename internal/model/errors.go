package model

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName = errors.New("name already used by a sibling")
	ErrDuplicateID   = errors.New("collection id already in use")
	ErrEmptyName     = errors.New("collection name cannot be empty")
	ErrCycle         = errors.New("collection cannot move into its own subtree")
	ErrKindMismatch  = errors.New("collections are of different kinds")
	ErrNotFound      = errors.New("node not found")
)

// DuplicateNameError reports a rejected add, rename, move or merge. The tree
// is unchanged when it is returned.
type DuplicateNameError struct {
	Parent string
	Name   string
}

func (e *DuplicateNameError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("%q already exists at the top level", e.Name)
	}
	return fmt.Sprintf("%q already exists in %q", e.Name, e.Parent)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// InvariantError is the panic value for programming errors such as giving a
// folder a folder child or creating a second root.
type InvariantError struct {
	Op     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tree invariant violated in %s: %s", e.Op, e.Reason)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Reason: fmt.Sprintf(format, args...)})
}

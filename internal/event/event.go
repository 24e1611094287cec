// Package event carries structural and selection notifications between the
// tree, the filter cache and the selection layer.
package event

import "fmt"

// Kind identifies what happened
type Kind int

const (
	CollectionAdded Kind = iota
	CollectionRemoved
	CollectionMoved
	CollectionRenamed
	CollectionMerged
	OpenStateChanged
	SortSpecChanged
	FolderMembershipUpdated
	SelectionChanged
)

func (k Kind) String() string {
	switch k {
	case CollectionAdded:
		return "collection-added"
	case CollectionRemoved:
		return "collection-removed"
	case CollectionMoved:
		return "collection-moved"
	case CollectionRenamed:
		return "collection-renamed"
	case CollectionMerged:
		return "collection-merged"
	case OpenStateChanged:
		return "open-state-changed"
	case SortSpecChanged:
		return "sort-spec-changed"
	case FolderMembershipUpdated:
		return "folder-membership-updated"
	case SelectionChanged:
		return "selection-changed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SelectionChange describes a SelectionChanged message
type SelectionChange int

const (
	Added SelectionChange = iota
	Removed
	Cleared
)

func (c SelectionChange) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("change(%d)", int(c))
	}
}

// Message is a single notification. Collection is the handle of the collection
// the message is about; Nodes carries removed leaves for membership and removal
// messages and the affected nodes for selection messages.
type Message struct {
	Kind       Kind
	Collection int
	Nodes      []int
	Change     SelectionChange
}

func (m Message) String() string {
	if m.Kind == SelectionChanged {
		return fmt.Sprintf("%s(%s, %d nodes)", m.Kind, m.Change, len(m.Nodes))
	}
	return fmt.Sprintf("%s(%d, %d nodes)", m.Kind, m.Collection, len(m.Nodes))
}

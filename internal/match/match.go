// Package match holds the visibility predicates a filter cache can use.
//
// A predicate decides whether one node matches the current filter string.
// Substring is the default; the others specialize matching to fuzzy search,
// a small query language or domain fields.
package match

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pstuifzand/foldertree/internal/model"
)

// Subject is the view of a node a predicate matches against
type Subject struct {
	Handle model.Handle
	Kind   model.Kind
	Name   string
	Path   string
}

// Predicate reports whether s matches filter. It is never called with an
// empty filter.
type Predicate func(filter string, s Subject) bool

// Substring matches the full path case-insensitively
func Substring(filter string, s Subject) bool {
	return strings.Contains(strings.ToLower(s.Path), strings.ToLower(filter))
}

// Fuzzy matches when the filter's characters appear in order in the path
func Fuzzy(filter string, s Subject) bool {
	return fuzzy.MatchFold(filter, s.Path)
}

// Fields matches the filter as a case-insensitive substring of any of the
// values fields returns for a node, such as an alias or a nickname. Nodes for
// which fields returns nothing fall back to their path.
func Fields(fields func(model.Handle) []string) Predicate {
	return func(filter string, s Subject) bool {
		values := fields(s.Handle)
		if len(values) == 0 {
			return Substring(filter, s)
		}
		needle := strings.ToLower(filter)
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	}
}

// ByMode returns the predicate for a configured mode name. Unknown names get
// Substring.
func ByMode(mode string) Predicate {
	switch strings.ToLower(mode) {
	case "fuzzy":
		return Fuzzy
	case "query":
		return NewQuery().Match
	default:
		return Substring
	}
}

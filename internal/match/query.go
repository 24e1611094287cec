package match

import "log"

// Query matches subjects against a parsed query. The last parsed filter is
// memoised since the cache calls the predicate once per node with the same
// filter. A filter that does not parse falls back to a plain substring match.
type Query struct {
	last string
	expr Expr
	err  error
}

// NewQuery creates an empty query matcher
func NewQuery() *Query {
	return &Query{}
}

// Match is a Predicate
func (q *Query) Match(filter string, s Subject) bool {
	if filter != q.last || (q.expr == nil && q.err == nil) {
		q.last = filter
		q.expr, q.err = ParseQuery(filter)
		if q.err != nil {
			log.Printf("query %q: %v, falling back to substring", filter, q.err)
		}
	}
	if q.err != nil {
		return Substring(filter, s)
	}
	return q.expr.Matches(s)
}

// Err returns the parse error of the last filter, if any
func (q *Query) Err() error {
	return q.err
}

package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pstuifzand/foldertree/internal/model"
)

// Expr is a parsed query that can match subjects
type Expr interface {
	Matches(s Subject) bool
	String() string // For debug output
}

// TextExpr matches subjects whose path contains the term (case-insensitive)
type TextExpr struct {
	term string
}

func NewTextExpr(term string) *TextExpr {
	return &TextExpr{term: strings.ToLower(term)}
}

func (e *TextExpr) Matches(s Subject) bool {
	return strings.Contains(strings.ToLower(s.Path), e.term)
}

func (e *TextExpr) String() string {
	return fmt.Sprintf("text(%q)", e.term)
}

// NameExpr matches against the node's own name only
type NameExpr struct {
	term string
}

func NewNameExpr(term string) *NameExpr {
	return &NameExpr{term: strings.ToLower(term)}
}

func (e *NameExpr) Matches(s Subject) bool {
	return strings.Contains(strings.ToLower(s.Name), e.term)
}

func (e *NameExpr) String() string {
	return fmt.Sprintf("name(%q)", e.term)
}

// FuzzyExpr fuzzy-matches the path
type FuzzyExpr struct {
	term string
}

func NewFuzzyExpr(term string) *FuzzyExpr {
	return &FuzzyExpr{term: term}
}

func (e *FuzzyExpr) Matches(s Subject) bool {
	return fuzzy.MatchFold(e.term, s.Path)
}

func (e *FuzzyExpr) String() string {
	return fmt.Sprintf("fuzzy(%q)", e.term)
}

// RegexExpr matches the path against a regular expression
type RegexExpr struct {
	pattern string
	re      *regexp.Regexp
}

func NewRegexExpr(pattern string) (*RegexExpr, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %v", err)
	}
	return &RegexExpr{pattern: pattern, re: re}, nil
}

func (e *RegexExpr) Matches(s Subject) bool {
	return e.re.MatchString(s.Path)
}

func (e *RegexExpr) String() string {
	return fmt.Sprintf("regex(/%s/)", e.pattern)
}

// KindExpr matches nodes of one kind
type KindExpr struct {
	kind model.Kind
}

func (e *KindExpr) Matches(s Subject) bool {
	return s.Kind == e.kind
}

func (e *KindExpr) String() string {
	return fmt.Sprintf("is(%s)", e.kind)
}

// AndExpr matches if both left and right match
type AndExpr struct {
	left, right Expr
}

func NewAndExpr(left, right Expr) *AndExpr {
	return &AndExpr{left: left, right: right}
}

func (e *AndExpr) Matches(s Subject) bool {
	return e.left.Matches(s) && e.right.Matches(s)
}

func (e *AndExpr) String() string {
	return fmt.Sprintf("(%s AND %s)", e.left, e.right)
}

// OrExpr matches if either left or right matches
type OrExpr struct {
	left, right Expr
}

func NewOrExpr(left, right Expr) *OrExpr {
	return &OrExpr{left: left, right: right}
}

func (e *OrExpr) Matches(s Subject) bool {
	return e.left.Matches(s) || e.right.Matches(s)
}

func (e *OrExpr) String() string {
	return fmt.Sprintf("(%s OR %s)", e.left, e.right)
}

// NotExpr inverts its operand
type NotExpr struct {
	expr Expr
}

func NewNotExpr(expr Expr) *NotExpr {
	return &NotExpr{expr: expr}
}

func (e *NotExpr) Matches(s Subject) bool {
	return !e.expr.Matches(s)
}

func (e *NotExpr) String() string {
	return fmt.Sprintf("NOT %s", e.expr)
}

package match

import (
	"fmt"
	"strings"

	"github.com/pstuifzand/foldertree/internal/model"
)

// TokenType represents the type of a token in a query
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenText
	TokenFilter // ident:value
	TokenFuzzy  // ~term
	TokenRegex  // /pattern/
	TokenAnd    // + (explicit)
	TokenOr     // |
	TokenNot    // -
	TokenLParen // (
	TokenRParen // )
)

// Token represents a single token in a query
type Token struct {
	Type  TokenType
	Value string
}

// Tokenizer converts a query string into tokens
type Tokenizer struct {
	input string
	pos   int
}

// NewTokenizer creates a new tokenizer for the given input
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// NextToken returns the next token in the input
func (t *Tokenizer) NextToken() Token {
	t.skipWhitespace()

	if t.pos >= len(t.input) {
		return Token{Type: TokenEOF}
	}

	switch ch := t.input[t.pos]; ch {
	case '(':
		t.pos++
		return Token{Type: TokenLParen, Value: "("}
	case ')':
		t.pos++
		return Token{Type: TokenRParen, Value: ")"}
	case '|':
		t.pos++
		return Token{Type: TokenOr, Value: "|"}
	case '+':
		t.pos++
		return Token{Type: TokenAnd, Value: "+"}
	case '-':
		t.pos++
		return Token{Type: TokenNot, Value: "-"}
	case '"':
		return t.readQuotedText()
	case '~':
		t.pos++
		tok := t.readText()
		if tok.Value == "" {
			return Token{Type: TokenText, Value: "~"}
		}
		return Token{Type: TokenFuzzy, Value: tok.Value}
	case '/':
		return t.readRegex()
	default:
		tok := t.readText()
		if i := strings.IndexByte(tok.Value, ':'); i > 0 && isIdent(tok.Value[:i]) {
			tok.Type = TokenFilter
		}
		return tok
	}
}

// AllTokens returns all tokens in the input
func (t *Tokenizer) AllTokens() []Token {
	var tokens []Token
	for {
		tok := t.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && (t.input[t.pos] == ' ' || t.input[t.pos] == '\t' || t.input[t.pos] == '\n') {
		t.pos++
	}
}

func (t *Tokenizer) readQuotedText() Token {
	t.pos++ // Skip opening quote
	start := t.pos
	for t.pos < len(t.input) && t.input[t.pos] != '"' {
		t.pos++
	}
	value := t.input[start:t.pos]
	if t.pos < len(t.input) {
		t.pos++ // Skip closing quote
	}
	return Token{Type: TokenText, Value: value}
}

func (t *Tokenizer) readText() Token {
	start := t.pos
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if ch == ' ' || ch == '\t' || ch == '|' || ch == '+' || ch == ')' || ch == '(' {
			break
		}
		t.pos++
	}
	return Token{Type: TokenText, Value: t.input[start:t.pos]}
}

func (t *Tokenizer) readRegex() Token {
	startPos := t.pos
	t.pos++ // Skip opening /
	start := t.pos
	escaped := false

	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if escaped {
			escaped = false
			t.pos++
			continue
		}
		if ch == '\\' {
			escaped = true
			t.pos++
			continue
		}
		if ch == '/' {
			pattern := t.input[start:t.pos]
			t.pos++ // Skip closing /
			return Token{Type: TokenRegex, Value: pattern}
		}
		t.pos++
	}

	// Unterminated: a lone or trailing slash is plain text
	t.pos = startPos
	t.pos++
	rest := t.readText()
	return Token{Type: TokenText, Value: "/" + rest.Value}
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_') {
			return false
		}
	}
	return s != ""
}

// Parser builds an expression tree from tokens
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseQuery parses a query string into an expression
func ParseQuery(query string) (Expr, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	p := NewParser(NewTokenizer(query).AllTokens())
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.currentToken().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token: %s", p.currentToken().Value)
	}
	return expr, nil
}

func (p *Parser) currentToken() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Type == TokenOr {
		p.advance() // consume |
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewOrExpr(left, right)
	}

	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.currentToken().Type
		if tok == TokenAnd {
			p.advance() // consume +
			tok = p.currentToken().Type
		}
		// Implicit AND: keep going while another operand follows
		if tok == TokenEOF || tok == TokenRParen || tok == TokenOr {
			break
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = NewAndExpr(left, right)
	}

	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.currentToken().Type == TokenNot {
		p.advance()               // consume -
		expr, err := p.parseNot() // Allow chaining of NOTs
		if err != nil {
			return nil, err
		}
		return NewNotExpr(expr), nil
	}

	return p.parseAtom()
}

func (p *Parser) parseAtom() (Expr, error) {
	tok := p.currentToken()
	switch tok.Type {
	case TokenLParen:
		p.advance() // consume (
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.currentToken().Type != TokenRParen {
			return nil, fmt.Errorf("expected ')', got %q", p.currentToken().Value)
		}
		p.advance() // consume )
		return expr, nil

	case TokenText:
		p.advance()
		return NewTextExpr(tok.Value), nil

	case TokenFuzzy:
		p.advance()
		return NewFuzzyExpr(tok.Value), nil

	case TokenRegex:
		p.advance()
		return NewRegexExpr(tok.Value)

	case TokenFilter:
		p.advance()
		return parseFilter(tok.Value)

	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of input")

	default:
		return nil, fmt.Errorf("unexpected token: %q", tok.Value)
	}
}

func parseFilter(value string) (Expr, error) {
	ident, criteria, _ := strings.Cut(value, ":")
	switch strings.ToLower(ident) {
	case "is":
		switch strings.ToLower(criteria) {
		case "leaf":
			return &KindExpr{kind: model.KindLeaf}, nil
		case "folder":
			return &KindExpr{kind: model.KindFolder}, nil
		case "group":
			return &KindExpr{kind: model.KindFolderGroup}, nil
		default:
			return nil, fmt.Errorf("unknown node kind %q", criteria)
		}
	case "name":
		if criteria == "" {
			return nil, fmt.Errorf("name filter needs a value")
		}
		return NewNameExpr(criteria), nil
	default:
		// Not a known filter, so the colon is part of the text
		return NewTextExpr(value), nil
	}
}

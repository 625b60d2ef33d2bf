// Package query implements the guardctl command language: a lexer, a
// backtracking recursive-descent parser, and predicate evaluation for
// boolean record queries.
//
// The language covers store commands (set, del, show, reveal, copy,
// history, rename, import) with an embedded boolean filter grammar:
//
//	show user is sussolini and (pass contains sus or url matches '.*com')
package query

import "fmt"

// TokenKind classifies a lexed token.
type TokenKind int

const (
	// TokenKeyword is one of the fixed keyword set (set, del, show, ...).
	TokenKeyword TokenKind = iota

	// TokenSymbol is a single-character symbol: =, ( or ).
	TokenSymbol

	// TokenValue is a bare or single-quoted value. Quotes are stripped
	// during lexing; the empty string is a valid quoted value.
	TokenValue
)

func (k TokenKind) String() string {
	switch k {
	case TokenKeyword:
		return "keyword"
	case TokenSymbol:
		return "symbol"
	case TokenValue:
		return "value"
	}
	return "unknown"
}

// Token is one lexical unit of a command line. Pos is the byte offset of
// the token's start in the original input, kept for error reporting.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// isKeyword reports whether t is the given keyword.
func (t Token) isKeyword(kw string) bool {
	return t.Kind == TokenKeyword && t.Text == kw
}

// isSymbol reports whether t is the given symbol.
func (t Token) isSymbol(sym string) bool {
	return t.Kind == TokenSymbol && t.Text == sym
}

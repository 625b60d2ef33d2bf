package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token classes tried in fixed priority order at each position:
// keyword first (word-boundary anchored so "setter" is not the keyword
// "set"), then symbols, then values.
var (
	keywordRegex = regexp.MustCompile(`^(set|del|delete|show|reveal|copy|history|rename|import|secret|sensitive|all|and|or|contains|matches|like|is)\b`)
	valueRegex   = regexp.MustCompile(`^([^'\n\s\t()]+|'[^'\n]*')`)
)

var symbols = []string{"=", "(", ")"}

// LexError reports a byte position in the input at which no token rule
// matched.
type LexError struct {
	Pos int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("invalid token at byte offset %d", e.Pos)
}

// Lex converts a raw command line into a flat token stream. Whitespace
// between tokens is skipped. An empty input yields an empty stream.
func Lex(text string) ([]Token, *LexError) {
	if text == "" {
		return nil, nil
	}

	var tokens []Token
	pos := 0

	for {
		for pos < len(text) && isSpace(text[pos]) {
			pos++
		}
		if pos >= len(text) {
			break
		}

		token, next, err := lexToken(text, pos)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		pos = next
	}

	return tokens, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func lexToken(text string, pos int) (Token, int, *LexError) {
	if token, next, ok := lexKeyword(text, pos); ok {
		return token, next, nil
	}
	for _, sym := range symbols {
		if token, next, ok := lexSymbol(text, pos, sym); ok {
			return token, next, nil
		}
	}
	if token, next, ok := lexValue(text, pos); ok {
		return token, next, nil
	}
	return Token{}, 0, &LexError{Pos: pos}
}

func lexKeyword(text string, pos int) (Token, int, bool) {
	m := keywordRegex.FindString(text[pos:])
	if m == "" {
		return Token{}, 0, false
	}
	// Go's \b is ASCII-only; a keyword run directly into a non-ASCII
	// word rune (e.g. "setä") is still one value, not a keyword.
	if r, _ := utf8.DecodeRuneInString(text[pos+len(m):]); isWordRune(r) {
		return Token{}, 0, false
	}
	return Token{Kind: TokenKeyword, Text: m, Pos: pos}, pos + len(m), true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lexSymbol(text string, pos int, sym string) (Token, int, bool) {
	if !strings.HasPrefix(text[pos:], sym) {
		return Token{}, 0, false
	}
	return Token{Kind: TokenSymbol, Text: sym, Pos: pos}, pos + len(sym), true
}

func lexValue(text string, pos int) (Token, int, bool) {
	m := valueRegex.FindString(text[pos:])
	if m == "" {
		return Token{}, 0, false
	}
	next := pos + len(m)

	// A quoted value keeps its interior verbatim, quotes stripped.
	m = strings.TrimPrefix(m, "'")
	m = strings.TrimSuffix(m, "'")

	return Token{Kind: TokenValue, Text: m, Pos: pos}, next, true
}

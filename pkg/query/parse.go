package query

import (
	"fmt"
	"regexp"
)

// Grammar (each production tries its alternatives in order and
// backtracks freely; positions are token indices):
//
//	cmd    := "set" VALUE assign*
//	        | ("del"|"delete") VALUE VALUE*
//	        | "show" query
//	        | "reveal" "history" VALUE
//	        | "reveal" query
//	        | "copy" VALUE VALUE
//	        | "history" VALUE
//	        | "rename" VALUE VALUE
//	        | "import" VALUE
//	assign := ("sensitive"|"secret")? VALUE "=" VALUE
//	query  := "all" | or
//	or     := and ("or" and)*
//	and    := filter ("and" filter)*
//	filter := "(" query ")"
//	        | VALUE "contains" VALUE
//	        | VALUE ("matches"|"like") VALUE
//	        | VALUE "is" VALUE
//
// A bare VALUE where a query is expected is a name-equality query; the
// boolean grammar is attempted first and the name reading is the
// fallback, so "show (gmail)" and "show gmail" both select by name.

// ParseErrorKind discriminates parse failures.
type ParseErrorKind int

const (
	// SyntaxError is a generic alternative-exhaustion failure.
	SyntaxError ParseErrorKind = iota

	// ExpectedAttr marks a missing attribute token.
	ExpectedAttr

	// ExpectedValue marks a missing value token.
	ExpectedValue

	// ExpectedToken marks a missing specific keyword or symbol.
	ExpectedToken

	// ExpectedOneOf marks input that starts no known command.
	ExpectedOneOf

	// InvalidRegex marks a "matches" pattern that does not compile.
	InvalidRegex

	// DuplicateAssignments marks an attribute assigned twice in one set.
	DuplicateAssignments

	// IncompleteParse marks leftover tokens after a complete command.
	IncompleteParse
)

// ParseError carries the failure kind and the token index at which the
// parse failed.
type ParseError struct {
	Kind ParseErrorKind
	Pos  int

	// Want is the expected keyword or symbol for ExpectedToken.
	Want string

	// Attr is the offending attribute for DuplicateAssignments.
	Attr string

	// Msg is extra context for SyntaxError.
	Msg string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ExpectedAttr:
		return fmt.Sprintf("expected attribute at token %d", e.Pos)
	case ExpectedValue:
		return fmt.Sprintf("expected value at token %d", e.Pos)
	case ExpectedToken:
		return fmt.Sprintf("expected %q at token %d", e.Want, e.Pos)
	case ExpectedOneOf:
		return fmt.Sprintf("expected one of set, del, show, reveal, copy, history, rename, import at token %d", e.Pos)
	case InvalidRegex:
		return fmt.Sprintf("invalid regex at token %d", e.Pos)
	case DuplicateAssignments:
		return fmt.Sprintf("attribute %q assigned more than once", e.Attr)
	case IncompleteParse:
		return fmt.Sprintf("unexpected trailing input at token %d", e.Pos)
	}
	return fmt.Sprintf("syntax error at token %d: %s", e.Pos, e.Msg)
}

// Parse turns a token stream into a command. The entire stream must be
// consumed; leftover tokens are an IncompleteParse error.
func Parse(tokens []Token) (Cmd, *ParseError) {
	cmd, next, err := parseCmd(tokens, 0)
	if err != nil {
		return nil, err
	}
	if next != len(tokens) {
		return nil, &ParseError{Kind: IncompleteParse, Pos: next}
	}
	return cmd, nil
}

type cmdParser func(tokens []Token, pos int) (Cmd, int, *ParseError)

func parseCmd(tokens []Token, pos int) (Cmd, int, *ParseError) {
	parsers := []cmdParser{
		parseSet,
		parseDel,
		parseShow,
		parseRevealHistory,
		parseReveal,
		parseCopy,
		parseHistory,
		parseRename,
		parseImport,
	}

	for _, p := range parsers {
		if cmd, next, err := p(tokens, pos); err == nil {
			return cmd, next, nil
		} else if err.Kind == DuplicateAssignments || err.Kind == InvalidRegex {
			// Deliberate rejections, not failed alternatives.
			return nil, 0, err
		}
	}

	return nil, 0, &ParseError{Kind: ExpectedOneOf, Pos: pos}
}

func parseSet(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "set")
	if err != nil {
		return nil, 0, err
	}

	name, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	var assignments []Assign
	for {
		assign, next, err := parseAssign(tokens, pos)
		if err != nil {
			break
		}
		assignments = append(assignments, assign)
		pos = next
	}

	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if seen[a.Attr] {
			return nil, 0, &ParseError{Kind: DuplicateAssignments, Pos: pos, Attr: a.Attr}
		}
		seen[a.Attr] = true
	}

	return &Set{Name: name, Assignments: assignments}, pos, nil
}

func parseAssign(tokens []Token, pos int) (Assign, int, *ParseError) {
	sensitive := false
	if pos < len(tokens) && (tokens[pos].isKeyword("sensitive") || tokens[pos].isKeyword("secret")) {
		sensitive = true
		pos++
	}

	attr, pos, err := expectAttr(tokens, pos)
	if err != nil {
		return Assign{}, 0, err
	}

	pos, err = expectSymbol(tokens, pos, "=")
	if err != nil {
		return Assign{}, 0, err
	}

	value, pos, err := expectValue(tokens, pos)
	if err != nil {
		return Assign{}, 0, err
	}

	return Assign{Attr: attr, Value: value, Sensitive: sensitive}, pos, nil
}

func parseDel(tokens []Token, pos int) (Cmd, int, *ParseError) {
	if pos >= len(tokens) || !(tokens[pos].isKeyword("del") || tokens[pos].isKeyword("delete")) {
		return nil, 0, &ParseError{Kind: ExpectedToken, Pos: pos, Want: "del"}
	}
	pos++

	name, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	// Trailing values are attrs to remove; none means the whole record.
	var attrs []string
	for pos < len(tokens) && tokens[pos].Kind == TokenValue {
		attrs = append(attrs, tokens[pos].Text)
		pos++
	}

	return &Del{Name: name, Attrs: attrs}, pos, nil
}

func parseShow(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "show")
	if err != nil {
		return nil, 0, err
	}

	q, pos, err := parseQuery(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Show{Query: q}, pos, nil
}

func parseRevealHistory(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "reveal")
	if err != nil {
		return nil, 0, err
	}

	pos, err = expectKeyword(tokens, pos, "history")
	if err != nil {
		return nil, 0, err
	}

	name, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &RevealHistory{Name: name}, pos, nil
}

func parseReveal(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "reveal")
	if err != nil {
		return nil, 0, err
	}

	q, pos, err := parseQuery(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Reveal{Query: q}, pos, nil
}

func parseCopy(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "copy")
	if err != nil {
		return nil, 0, err
	}

	name, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	attr, pos, err := expectAttr(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Copy{Name: name, Attr: attr}, pos, nil
}

func parseHistory(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "history")
	if err != nil {
		return nil, 0, err
	}

	name, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &History{Name: name}, pos, nil
}

func parseRename(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "rename")
	if err != nil {
		return nil, 0, err
	}

	old, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	new, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Rename{Old: old, New: new}, pos, nil
}

func parseImport(tokens []Token, pos int) (Cmd, int, *ParseError) {
	pos, err := expectKeyword(tokens, pos, "import")
	if err != nil {
		return nil, 0, err
	}

	path, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Import{Path: path}, pos, nil
}

func parseQuery(tokens []Token, pos int) (Query, int, *ParseError) {
	if pos < len(tokens) && tokens[pos].isKeyword("all") {
		return All{}, pos + 1, nil
	}

	q, next, err := parseOr(tokens, pos)
	if err == nil {
		return q, next, nil
	}

	// The grammar is ambiguous between a bare record name and the start
	// of a filter expression. When the boolean reading fails, a value
	// token is a name query; Parse rejects anything left over after it.
	if pos < len(tokens) && tokens[pos].Kind == TokenValue {
		return Name{Name: tokens[pos].Text}, pos + 1, nil
	}

	return nil, 0, err
}

func parseOr(tokens []Token, pos int) (Query, int, *ParseError) {
	lhs, pos, err := parseAnd(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	for pos < len(tokens) && tokens[pos].isKeyword("or") {
		rhs, next, err := parseAnd(tokens, pos+1)
		if err != nil {
			return nil, 0, err
		}
		lhs = &Or{LHS: lhs, RHS: rhs}
		pos = next
	}

	return lhs, pos, nil
}

func parseAnd(tokens []Token, pos int) (Query, int, *ParseError) {
	lhs, pos, err := parseFilter(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	for pos < len(tokens) && tokens[pos].isKeyword("and") {
		rhs, next, err := parseFilter(tokens, pos+1)
		if err != nil {
			return nil, 0, err
		}
		lhs = &And{LHS: lhs, RHS: rhs}
		pos = next
	}

	return lhs, pos, nil
}

type filterParser func(tokens []Token, pos int) (Query, int, *ParseError)

func parseFilter(tokens []Token, pos int) (Query, int, *ParseError) {
	parsers := []filterParser{
		parseParens,
		parseContains,
		parseMatches,
		parseIs,
	}

	for _, p := range parsers {
		if q, next, err := p(tokens, pos); err == nil {
			return q, next, nil
		} else if err.Kind == InvalidRegex {
			// A bad pattern is a deliberate rejection, not a failed
			// alternative.
			return nil, 0, err
		}
	}

	return nil, 0, &ParseError{Kind: SyntaxError, Pos: pos, Msg: "cannot parse filter"}
}

func parseParens(tokens []Token, pos int) (Query, int, *ParseError) {
	pos, err := expectSymbol(tokens, pos, "(")
	if err != nil {
		return nil, 0, err
	}

	q, pos, err := parseQuery(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	pos, err = expectSymbol(tokens, pos, ")")
	if err != nil {
		return nil, 0, err
	}

	return q, pos, nil
}

func parseContains(tokens []Token, pos int) (Query, int, *ParseError) {
	attr, pos, err := expectAttr(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	pos, err = expectKeyword(tokens, pos, "contains")
	if err != nil {
		return nil, 0, err
	}

	substr, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Contains{Attr: attr, Substr: substr}, pos, nil
}

func parseMatches(tokens []Token, pos int) (Query, int, *ParseError) {
	attr, pos, err := expectAttr(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	if pos >= len(tokens) || !(tokens[pos].isKeyword("matches") || tokens[pos].isKeyword("like")) {
		return nil, 0, &ParseError{Kind: ExpectedToken, Pos: pos, Want: "matches"}
	}
	pos++

	pattern, next, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	re, compileErr := regexp.Compile(pattern)
	if compileErr != nil {
		return nil, 0, &ParseError{Kind: InvalidRegex, Pos: pos}
	}

	return &Matches{Attr: attr, Pattern: pattern, Regex: re}, next, nil
}

func parseIs(tokens []Token, pos int) (Query, int, *ParseError) {
	attr, pos, err := expectAttr(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	pos, err = expectKeyword(tokens, pos, "is")
	if err != nil {
		return nil, 0, err
	}

	value, pos, err := expectValue(tokens, pos)
	if err != nil {
		return nil, 0, err
	}

	return &Is{Attr: attr, Value: value}, pos, nil
}

func expectKeyword(tokens []Token, pos int, kw string) (int, *ParseError) {
	if pos >= len(tokens) || !tokens[pos].isKeyword(kw) {
		return 0, &ParseError{Kind: ExpectedToken, Pos: pos, Want: kw}
	}
	return pos + 1, nil
}

func expectSymbol(tokens []Token, pos int, sym string) (int, *ParseError) {
	if pos >= len(tokens) || !tokens[pos].isSymbol(sym) {
		return 0, &ParseError{Kind: ExpectedToken, Pos: pos, Want: sym}
	}
	return pos + 1, nil
}

func expectValue(tokens []Token, pos int) (string, int, *ParseError) {
	if pos >= len(tokens) || tokens[pos].Kind != TokenValue {
		return "", 0, &ParseError{Kind: ExpectedValue, Pos: pos}
	}
	return tokens[pos].Text, pos + 1, nil
}

// expectAttr is expectValue in attribute position, kept separate so the
// error names what was wanted.
func expectAttr(tokens []Token, pos int) (string, int, *ParseError) {
	if pos >= len(tokens) || tokens[pos].Kind != TokenValue {
		return "", 0, &ParseError{Kind: ExpectedAttr, Pos: pos}
	}
	return tokens[pos].Text, pos + 1, nil
}

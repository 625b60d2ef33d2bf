package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Cmd is a parsed command, one of: *Set, *Del, *Show, *Reveal, *Copy,
// *History, *RevealHistory, *Rename, *Import.
type Cmd interface {
	fmt.Stringer
	isCmd()
}

// Assign is one attr = value assignment of a set command. Sensitive
// marks the field for display masking and is carried at assignment time.
type Assign struct {
	Attr      string
	Value     string
	Sensitive bool
}

func (a Assign) String() string {
	if a.Sensitive {
		return fmt.Sprintf("sensitive '%s' = '%s'", a.Attr, a.Value)
	}
	return fmt.Sprintf("'%s' = '%s'", a.Attr, a.Value)
}

// Set creates or mutates the named record.
type Set struct {
	Name        string
	Assignments []Assign
}

// Del removes the whole named record, or only the listed attrs when
// Attrs is non-empty.
type Del struct {
	Name  string
	Attrs []string
}

// Show lists matching records with sensitive values masked.
type Show struct {
	Query Query
}

// Reveal lists matching records without masking.
type Reveal struct {
	Query Query
}

// Copy puts the named field's raw value on the clipboard.
type Copy struct {
	Name string
	Attr string
}

// History lists the named record's snapshots, masked.
type History struct {
	Name string
}

// RevealHistory lists the named record's snapshots without masking.
type RevealHistory struct {
	Name string
}

// Rename changes a record's lookup name.
type Rename struct {
	Old string
	New string
}

// Import replays a file of set-command bodies against the store.
type Import struct {
	Path string
}

func (*Set) isCmd()           {}
func (*Del) isCmd()           {}
func (*Show) isCmd()          {}
func (*Reveal) isCmd()        {}
func (*Copy) isCmd()          {}
func (*History) isCmd()       {}
func (*RevealHistory) isCmd() {}
func (*Rename) isCmd()        {}
func (*Import) isCmd()        {}

func (c *Set) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "set '%s'", c.Name)
	for _, a := range c.Assignments {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}

func (c *Del) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "del '%s'", c.Name)
	for _, attr := range c.Attrs {
		fmt.Fprintf(&b, " '%s'", attr)
	}
	return b.String()
}

func (c *Show) String() string   { return "show " + c.Query.String() }
func (c *Reveal) String() string { return "reveal " + c.Query.String() }

func (c *Copy) String() string {
	return fmt.Sprintf("copy '%s' '%s'", c.Name, c.Attr)
}

func (c *History) String() string       { return fmt.Sprintf("history '%s'", c.Name) }
func (c *RevealHistory) String() string { return fmt.Sprintf("reveal history '%s'", c.Name) }

func (c *Rename) String() string {
	return fmt.Sprintf("rename '%s' '%s'", c.Old, c.New)
}

func (c *Import) String() string { return fmt.Sprintf("import '%s'", c.Path) }

// Source is the record view a query predicate evaluates against.
// store.Record satisfies it.
type Source interface {
	// RecordName returns the record's lookup name.
	RecordName() string

	// Attr returns the value of the named field, if present.
	Attr(name string) (value string, ok bool)
}

// Query is a boolean filter expression over records, one of: All, Name,
// *Or, *And, *Contains, *Matches, *Is.
type Query interface {
	fmt.Stringer

	// Match reports whether the record satisfies the filter. A filter
	// referencing an attribute absent on the record is false, never an
	// error.
	Match(r Source) bool
}

// Attribute sentinels matching against the record's name instead of a
// field. "$name" is the legacy spelling.
const (
	nameSentinel       = "."
	legacyNameSentinel = "$name"
)

// attrValue resolves an attribute reference against a record, routing
// the name sentinels to the record's name.
func attrValue(r Source, attr string) (string, bool) {
	if attr == nameSentinel || attr == legacyNameSentinel {
		return r.RecordName(), true
	}
	return r.Attr(attr)
}

// All matches every record.
type All struct{}

func (All) Match(Source) bool { return true }
func (All) String() string    { return "all" }

// Name matches a record by exact name equality.
type Name struct {
	Name string
}

func (q Name) Match(r Source) bool { return r.RecordName() == q.Name }
func (q Name) String() string      { return fmt.Sprintf("'%s'", q.Name) }

// Or is a left-associative boolean disjunction.
type Or struct {
	LHS Query
	RHS Query
}

func (q *Or) Match(r Source) bool { return q.LHS.Match(r) || q.RHS.Match(r) }

func (q *Or) String() string {
	return q.LHS.String() + " or " + q.RHS.String()
}

// And is a left-associative boolean conjunction. It binds tighter than
// Or by grammar construction.
type And struct {
	LHS Query
	RHS Query
}

func (q *And) Match(r Source) bool { return q.LHS.Match(r) && q.RHS.Match(r) }

func (q *And) String() string {
	return parenthesize(q.LHS) + " and " + parenthesize(q.RHS)
}

// parenthesize wraps Or operands appearing under an And so the printed
// form re-parses with the same shape.
func parenthesize(q Query) string {
	if _, ok := q.(*Or); ok {
		return "( " + q.String() + " )"
	}
	return q.String()
}

// Contains is a case-insensitive substring test on a field value (or on
// the record name for the "." sentinel).
type Contains struct {
	Attr   string
	Substr string
}

func (q *Contains) Match(r Source) bool {
	v, ok := attrValue(r, q.Attr)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), strings.ToLower(q.Substr))
}

func (q *Contains) String() string {
	return fmt.Sprintf("'%s' contains '%s'", q.Attr, q.Substr)
}

// Matches tests a regular expression, compiled at parse time, against a
// field value. Contains-a-match semantics, not full match.
type Matches struct {
	Attr    string
	Pattern string
	Regex   *regexp.Regexp
}

func (q *Matches) Match(r Source) bool {
	v, ok := attrValue(r, q.Attr)
	if !ok {
		return false
	}
	return q.Regex.MatchString(v)
}

func (q *Matches) String() string {
	return fmt.Sprintf("'%s' matches '%s'", q.Attr, q.Pattern)
}

// Is is an exact string equality test on a field value.
type Is struct {
	Attr  string
	Value string
}

func (q *Is) Match(r Source) bool {
	v, ok := attrValue(r, q.Attr)
	if !ok {
		return false
	}
	return v == q.Value
}

func (q *Is) String() string {
	return fmt.Sprintf("'%s' is '%s'", q.Attr, q.Value)
}

// Package eval binds parsed commands to store operations and renders
// their results as display lines.
package eval

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/guardctl/pkg/audit"
	"github.com/forest6511/guardctl/pkg/query"
	"github.com/forest6511/guardctl/pkg/store"
)

// Recorder receives one audit event per evaluated command. audit.Logger
// satisfies it; a nil Recorder discards events. Recording failures are
// soft and never affect the command's result.
type Recorder interface {
	Record(op, key, result string) error
}

// Clipboard is the narrow surface the evaluator needs from the OS
// clipboard. Any failure is reported to the user as a soft error, never
// a panic.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// disabledClipboard always fails, for configurations that opt out.
type disabledClipboard struct{}

func (disabledClipboard) WriteAll(string) error {
	return fmt.Errorf("eval: clipboard disabled")
}

// Evaluator applies command lines against a store. Stateless per call
// apart from the store it borrows for the session.
type Evaluator struct {
	store *store.Store
	clip  Clipboard
	rec   Recorder
}

// New returns an evaluator over the given store using the OS clipboard.
func New(s *store.Store) *Evaluator {
	return &Evaluator{store: s, clip: systemClipboard{}}
}

// WithClipboard replaces the clipboard implementation. Passing nil
// disables copying.
func (e *Evaluator) WithClipboard(c Clipboard) *Evaluator {
	if c == nil {
		c = disabledClipboard{}
	}
	e.clip = c
	return e
}

// WithRecorder attaches an audit sink. Nil keeps auditing off.
func (e *Evaluator) WithRecorder(r Recorder) *Evaluator {
	e.rec = r
	return e
}

// ImportIOError reports that the import file could not be read.
type ImportIOError struct {
	Path string
	Err  error
}

func (e *ImportIOError) Error() string {
	return fmt.Sprintf("import: cannot read %q: %v", e.Path, e.Err)
}

func (e *ImportIOError) Unwrap() error { return e.Err }

// MalformedLineError reports the 1-based line of an import file that
// failed to evaluate. Lines before it have already been applied.
type MalformedLineError struct {
	Line    int
	Content string
	Err     error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("import: line %d %q: %v", e.Line, e.Content, e.Err)
}

func (e *MalformedLineError) Unwrap() error { return e.Err }

// Eval lexes, parses and executes one command line against the store.
// Lex and parse failures leave the store untouched. The returned
// Evaluation renders itself as ordered display lines.
//
// One audit event is recorded per call when a Recorder is attached;
// lines replayed by an import are covered by the import's own event.
func (e *Evaluator) Eval(text string) (Evaluation, error) {
	result, cmd, err := e.eval(text)
	e.record(cmd, err)
	return result, err
}

func (e *Evaluator) record(cmd query.Cmd, evalErr error) {
	if e.rec == nil {
		return
	}
	op, key := audit.OpInvalid, ""
	switch cmd := cmd.(type) {
	case *query.Set:
		op, key = audit.OpSet, cmd.Name
	case *query.Del:
		op, key = audit.OpDel, cmd.Name
	case *query.Show:
		op = audit.OpShow
	case *query.Reveal:
		op = audit.OpReveal
	case *query.Copy:
		op, key = audit.OpCopy, cmd.Name
	case *query.History:
		op, key = audit.OpHistory, cmd.Name
	case *query.RevealHistory:
		op, key = audit.OpReveal, cmd.Name
	case *query.Rename:
		op, key = audit.OpRename, cmd.Old
	case *query.Import:
		op, key = audit.OpImport, cmd.Path
	}
	result := audit.ResultSuccess
	if evalErr != nil {
		result = audit.ResultError
	}
	// Audit failures are soft.
	_ = e.rec.Record(op, key, result)
}

func (e *Evaluator) eval(text string) (Evaluation, query.Cmd, error) {
	tokens, lexErr := query.Lex(text)
	if lexErr != nil {
		return nil, nil, lexErr
	}

	cmd, parseErr := query.Parse(tokens)
	if parseErr != nil {
		return nil, nil, parseErr
	}

	switch cmd := cmd.(type) {
	case *query.Set:
		e.store.Set(cmd.Name, cmd.Assignments)
		return SetDone{}, cmd, nil

	case *query.Del:
		if len(cmd.Attrs) == 0 {
			r, ok := e.store.Remove(cmd.Name)
			return Deleted{Record: r, Found: ok}, cmd, nil
		}
		r, ok := e.store.RemoveAttrs(cmd.Name, cmd.Attrs)
		return Deleted{Record: r, Found: ok}, cmd, nil

	case *query.Show:
		return Listing{Records: e.store.Get(cmd.Query), Masked: true}, cmd, nil

	case *query.Reveal:
		return Listing{Records: e.store.Get(cmd.Query)}, cmd, nil

	case *query.Copy:
		return Copied{OK: e.copy(cmd.Name, cmd.Attr)}, cmd, nil

	case *query.History:
		return HistoryListing{Entries: e.store.History(cmd.Name), Masked: true}, cmd, nil

	case *query.RevealHistory:
		return HistoryListing{Entries: e.store.History(cmd.Name)}, cmd, nil

	case *query.Rename:
		return Renamed{Status: e.store.Rename(cmd.Old, cmd.New), Old: cmd.Old, New: cmd.New}, cmd, nil

	case *query.Import:
		result, err := e.importFile(cmd.Path)
		return result, cmd, err
	}

	// Unreachable while the parser and this switch agree on the Cmd set.
	return nil, cmd, fmt.Errorf("eval: unsupported command %T", cmd)
}

// copy puts the named field's raw value on the clipboard and reports
// success. The value itself is never rendered.
func (e *Evaluator) copy(name, attr string) bool {
	records := e.store.Get(query.Name{Name: name})
	if len(records) == 0 {
		return false
	}
	value, ok := records[0].Attr(attr)
	if !ok {
		return false
	}
	return e.clip.WriteAll(value) == nil
}

// importFile replays a file where every non-blank line is the body of a
// set command. A malformed line aborts the import; lines before it stay
// applied. Returns the number of records applied.
func (e *Evaluator) importFile(path string) (Evaluation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImportIOError{Path: path, Err: err}
	}

	applied := 0
	for i, line := range strings.Split(norm.NFC.String(string(content)), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, _, err := e.eval("set " + line); err != nil {
			return nil, &MalformedLineError{Line: i + 1, Content: strings.TrimSpace(line), Err: err}
		}
		applied++
	}

	return Imported{Count: applied}, nil
}

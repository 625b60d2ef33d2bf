// Package store holds the in-memory record collection: named records
// with attribute fields, per-record append-only history, and the
// mutation/versioning protocol over them.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Field is one attribute=value pair on a record. Sensitive controls
// display masking only; at-rest encryption covers the whole store
// uniformly.
type Field struct {
	Attr      string `json:"attr"`
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
}

// Record is a named bundle of fields representing one stored credential
// entry. ID is assigned once at creation and never changes; Name is the
// unique lookup key. Fields holds at most one entry per attr, ordered by
// most-recent assignment.
type Record struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Fields []Field   `json:"fields"`

	// History is the append-only audit trail of the record's field set,
	// oldest first. Never truncated.
	History []HistoryEntry `json:"history,omitempty"`
}

// HistoryEntry is an immutable timestamped snapshot of a record's field
// set, appended on every effective change.
type HistoryEntry struct {
	Datetime time.Time `json:"datetime"`
	Fields   []Field   `json:"fields"`
}

// RecordName implements query.Source.
func (r *Record) RecordName() string { return r.Name }

// Attr implements query.Source, returning the value of the named field.
func (r *Record) Attr(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Attr == name {
			return f.Value, true
		}
	}
	return "", false
}

// clone returns a deep copy of the record.
func (r *Record) clone() Record {
	c := *r
	c.Fields = cloneFields(r.Fields)
	c.History = make([]HistoryEntry, len(r.History))
	for i, h := range r.History {
		c.History[i] = HistoryEntry{Datetime: h.Datetime, Fields: cloneFields(h.Fields)}
	}
	return c
}

func cloneFields(fields []Field) []Field {
	c := make([]Field, len(fields))
	copy(c, fields)
	return c
}

// sortedFields returns a copy of fields ordered by attr, the canonical
// form used for content-equality checks and display.
func sortedFields(fields []Field) []Field {
	c := cloneFields(fields)
	sort.Slice(c, func(i, j int) bool { return c[i].Attr < c[j].Attr })
	return c
}

// fieldsEqual compares two field sets by content, ignoring order.
func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedFields(a), sortedFields(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

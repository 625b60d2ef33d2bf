package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forest6511/guardctl/pkg/query"
)

// timeNow is a test seam for history timestamps.
var timeNow = time.Now

// RenameStatus is the outcome of a rename operation.
type RenameStatus int

const (
	// RenameOK means the record now answers to the new name.
	RenameOK RenameStatus = iota

	// RenameOldNotFound means no record had the old name.
	RenameOldNotFound

	// RenameNewExists means a record already holds the new name. This
	// includes renaming a record to its own current name.
	RenameNewExists
)

// Store owns every record exclusively for the session's lifetime. Flat
// list with linear name scans; fine at personal credential counts.
type Store struct {
	records []Record
	version string
}

// New returns an empty store tagged with the application version.
func New(version string) *Store {
	return &Store{version: version}
}

// FromRecords builds a store around previously persisted records.
func FromRecords(records []Record, version string) *Store {
	return &Store{records: records, version: version}
}

// Version returns the application version the store was created under.
func (s *Store) Version() string { return s.version }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a defensive copy of every record, for serialization.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].clone()
	}
	return out
}

// Get evaluates a query against every record and returns defensive
// copies of the matches. A Name query returns zero or one record by
// exact name; All returns everything.
func (s *Store) Get(q query.Query) []Record {
	switch q := q.(type) {
	case query.All:
		return s.Records()
	case query.Name:
		if r := s.find(q.Name); r != nil {
			return []Record{r.clone()}
		}
		return nil
	default:
		var out []Record
		for i := range s.records {
			if q.Match(&s.records[i]) {
				out = append(out, s.records[i].clone())
			}
		}
		return out
	}
}

// Set finds the record by exact name, creating it (fresh id, no fields,
// no history) when absent, and applies the assignments in order. An
// assignment replaces any existing field with the same attr, so field
// order reflects most-recent-set-order. A history snapshot is appended
// only when the resulting field set differs from the latest snapshot.
func (s *Store) Set(name string, assignments []query.Assign) {
	r := s.find(name)
	if r == nil {
		s.records = append(s.records, Record{ID: uuid.New(), Name: name})
		r = &s.records[len(s.records)-1]
	}

	for _, a := range assignments {
		r.Fields = removeField(r.Fields, a.Attr)
		r.Fields = append(r.Fields, Field{Attr: a.Attr, Value: a.Value, Sensitive: a.Sensitive})
	}

	s.snapshot(r)
}

// Remove deletes the whole record and returns it, reporting whether it
// existed.
func (s *Store) Remove(name string) (Record, bool) {
	for i := range s.records {
		if s.records[i].Name == name {
			removed := s.records[i].clone()
			s.records = append(s.records[:i], s.records[i+1:]...)
			return removed, true
		}
	}
	return Record{}, false
}

// RemoveAttrs deletes only the named fields from the record and returns
// the updated record. Absent attrs are ignored; a history snapshot is
// appended under the usual dedup rule.
func (s *Store) RemoveAttrs(name string, attrs []string) (Record, bool) {
	r := s.find(name)
	if r == nil {
		return Record{}, false
	}

	for _, attr := range attrs {
		r.Fields = removeField(r.Fields, attr)
	}

	s.snapshot(r)
	return r.clone(), true
}

// Rename atomically swaps a record's lookup name. It rejects the swap
// when the new name is already taken, which includes old == new. ID,
// fields and history are untouched.
func (s *Store) Rename(old, new string) RenameStatus {
	r := s.find(old)
	if r == nil {
		return RenameOldNotFound
	}
	if s.find(new) != nil {
		return RenameNewExists
	}
	r.Name = new
	return RenameOK
}

// History returns a copy of the record's full append-only snapshot log,
// oldest first. An absent record yields an empty log, not an error.
func (s *Store) History(name string) []HistoryEntry {
	r := s.find(name)
	if r == nil {
		return nil
	}
	out := make([]HistoryEntry, len(r.History))
	for i, h := range r.History {
		out[i] = HistoryEntry{Datetime: h.Datetime, Fields: cloneFields(h.Fields)}
	}
	return out
}

// Import adds foreign records without ever overwriting: an incoming name
// already present in the store gets the first unused numeric suffix
// (name1, name2, ...). Each imported record receives a fresh id and a
// single history entry capturing its initial fields. Returns the names
// the records were stored under, in input order.
func (s *Store) Import(records []Record) []string {
	names := make([]string, 0, len(records))
	for _, in := range records {
		name := in.Name
		for suffix := 1; s.find(name) != nil; suffix++ {
			name = fmt.Sprintf("%s%d", in.Name, suffix)
		}

		fields := cloneFields(in.Fields)
		s.records = append(s.records, Record{
			ID:     uuid.New(),
			Name:   name,
			Fields: fields,
			History: []HistoryEntry{
				{Datetime: timeNow(), Fields: cloneFields(fields)},
			},
		})
		names = append(names, name)
	}
	return names
}

func (s *Store) find(name string) *Record {
	for i := range s.records {
		if s.records[i].Name == name {
			return &s.records[i]
		}
	}
	return nil
}

// snapshot appends a history entry unless the current field set equals
// the most recent snapshot, so idempotent re-sets leave no trace.
func (s *Store) snapshot(r *Record) {
	if n := len(r.History); n > 0 && fieldsEqual(r.History[n-1].Fields, r.Fields) {
		return
	}
	r.History = append(r.History, HistoryEntry{
		Datetime: timeNow(),
		Fields:   cloneFields(r.Fields),
	})
}

func removeField(fields []Field, attr string) []Field {
	out := fields[:0]
	for _, f := range fields {
		if f.Attr != attr {
			out = append(out, f)
		}
	}
	return out
}

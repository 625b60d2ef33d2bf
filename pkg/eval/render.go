package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forest6511/guardctl/pkg/store"
)

// RedactionToken replaces sensitive field values in masked output.
const RedactionToken = "*****"

// historyTimeLayout formats history snapshot timestamps.
const historyTimeLayout = "2006-01-02 15:04 -07:00"

// Evaluation is an executed command's result. Lines renders it as the
// ordered display lines shown to the user.
type Evaluation interface {
	Lines() []string
}

// SetDone is the silent result of a set command.
type SetDone struct{}

func (SetDone) Lines() []string { return nil }

// Deleted carries the removed (or trimmed) record. Deleting an absent
// record renders nothing.
type Deleted struct {
	Record store.Record
	Found  bool
}

func (d Deleted) Lines() []string {
	if !d.Found {
		return nil
	}
	return []string{formatRecord(d.Record, true)}
}

// Listing is the result of show or reveal: matching records, masked for
// show, raw for reveal.
type Listing struct {
	Records []store.Record
	Masked  bool
}

func (l Listing) Lines() []string {
	records := make([]store.Record, len(l.Records))
	copy(records, l.Records)
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = formatRecord(r, l.Masked)
	}
	return lines
}

// Copied reports clipboard success without ever rendering the value.
type Copied struct {
	OK bool
}

func (c Copied) Lines() []string {
	if c.OK {
		return []string{"Copied!"}
	}
	return []string{"Unable to Copy! Try Again!"}
}

// HistoryListing is the result of history or reveal history: snapshots
// displayed most recent first.
type HistoryListing struct {
	Entries []store.HistoryEntry
	Masked  bool
}

func (h HistoryListing) Lines() []string {
	entries := make([]store.HistoryEntry, len(h.Entries))
	copy(entries, h.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Datetime.After(entries[j].Datetime) })

	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = formatHistoryEntry(entry, h.Masked)
	}
	return lines
}

// Renamed is the three-outcome result of a rename command.
type Renamed struct {
	Status store.RenameStatus
	Old    string
	New    string
}

func (r Renamed) Lines() []string {
	switch r.Status {
	case store.RenameOldNotFound:
		return []string{fmt.Sprintf("'%s' not found!", r.Old)}
	case store.RenameNewExists:
		return []string{fmt.Sprintf("'%s' already exists!", r.New)}
	}
	return []string{"Renamed!"}
}

// Imported reports how many records an import applied.
type Imported struct {
	Count int
}

func (i Imported) Lines() []string {
	return []string{fmt.Sprintf("imported %d records", i.Count)}
}

func formatRecord(r store.Record, masked bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s'", r.Name)
	formatFields(&b, r.Fields, masked)
	return b.String()
}

func formatHistoryEntry(entry store.HistoryEntry, masked bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%s)", entry.Datetime.Format(historyTimeLayout))
	formatFields(&b, entry.Fields, masked)
	return b.String()
}

// formatFields appends the fields sorted by attr, masking sensitive
// values when asked to.
func formatFields(b *strings.Builder, fields []store.Field, masked bool) {
	sorted := make([]store.Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Attr < sorted[j].Attr })

	for _, f := range sorted {
		if masked && f.Sensitive {
			fmt.Fprintf(b, " %s=%s", f.Attr, RedactionToken)
		} else {
			fmt.Fprintf(b, " %s='%s'", f.Attr, f.Value)
		}
	}
}

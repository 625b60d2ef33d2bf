package audit

import (
	"path/filepath"
	"testing"
)

func openTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndList(t *testing.T) {
	l := openTestLogger(t)

	if err := l.Record(OpSet, "gmail", ResultSuccess); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record(OpCopy, "gmail", ResultError); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	events, err := l.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// session.start + the two records, most recent first
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Op != OpCopy || events[0].Result != ResultError {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Op != OpSet || events[1].Key != "gmail" {
		t.Errorf("events[1] = %+v", events[1])
	}
	if events[2].Op != OpSessionStart {
		t.Errorf("events[2] = %+v", events[2])
	}

	for _, e := range events {
		if e.Session != l.Session() {
			t.Errorf("event session = %q, want %q", e.Session, l.Session())
		}
		if e.Timestamp.IsZero() {
			t.Error("event timestamp should be set")
		}
	}
}

func TestListLimit(t *testing.T) {
	l := openTestLogger(t)

	for i := 0; i < 5; i++ {
		if err := l.Record(OpShow, "", ResultSuccess); err != nil {
			t.Fatal(err)
		}
	}

	events, err := l.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestSessionsAreDistinct(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")

	l1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s1 := l1.Session()
	l1.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()

	if s1 == l2.Session() {
		t.Error("two sessions should have distinct ids")
	}

	// Events from the first session survive reopening.
	events, err := l2.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) < 3 { // start, end, start
		t.Errorf("got %d events, want at least 3", len(events))
	}
}

func TestOpenReadOnlyLeavesNoTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Record(OpSet, "gmail", ResultSuccess)
	l.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	before, err := ro.List(0)
	if err != nil {
		t.Fatal(err)
	}
	ro.Close()

	ro2, err := OpenReadOnly(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ro2.Close()
	after, err := ro2.List(0)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Errorf("read-only open added events: %d -> %d", len(before), len(after))
	}
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("missing trail should fail instead of creating one")
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger

	if err := l.Record(OpSet, "gmail", ResultSuccess); err != nil {
		t.Errorf("nil logger Record = %v, want nil", err)
	}
	if events, err := l.List(0); err != nil || events != nil {
		t.Errorf("nil logger List = %v, %v", events, err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil logger Close = %v, want nil", err)
	}
	if l.Session() != "" {
		t.Error("nil logger session should be empty")
	}
}

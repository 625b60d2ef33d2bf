package eval

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/forest6511/guardctl/pkg/audit"
	"github.com/forest6511/guardctl/pkg/query"
	"github.com/forest6511/guardctl/pkg/store"
)

// fakeClipboard records writes instead of touching the OS clipboard.
type fakeClipboard struct {
	texts []string
	fail  bool
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.fail {
		return errors.New("no clipboard")
	}
	c.texts = append(c.texts, text)
	return nil
}

func newTestEvaluator() (*Evaluator, *fakeClipboard) {
	clip := &fakeClipboard{}
	return New(store.New("test")).WithClipboard(clip), clip
}

func run(t *testing.T, e *Evaluator, cmds ...string) {
	t.Helper()
	for _, cmd := range cmds {
		if _, err := e.Eval(cmd); err != nil {
			t.Fatalf("eval %q failed: %v", cmd, err)
		}
	}
}

func check(t *testing.T, e *Evaluator, cmd string, want ...string) {
	t.Helper()
	ev, err := e.Eval(cmd)
	if err != nil {
		t.Fatalf("eval %q failed: %v", cmd, err)
	}
	got := ev.Lines()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("eval %q:\ngot:  %q\nwant: %q", cmd, got, want)
	}
}

func TestSet(t *testing.T) {
	e, _ := newTestEvaluator()

	run(t, e, "set gmail")
	check(t, e, "show all", "'gmail'")

	run(t, e, "set gmail user = zahash pass = supersecretpass")
	check(t, e, "show all", "'gmail' pass='supersecretpass' user='zahash'")

	run(t, e, "set gmail url = mail.google.com")
	check(t, e, "show all", "'gmail' pass='supersecretpass' url='mail.google.com' user='zahash'")

	run(t, e, "set gmail pass = updatedpass")
	check(t, e, "show all", "'gmail' pass='updatedpass' url='mail.google.com' user='zahash'")

	run(t, e, "set discord url = discord.com tags = chat,call")
	check(t, e, "show all",
		"'discord' tags='chat,call' url='discord.com'",
		"'gmail' pass='updatedpass' url='mail.google.com' user='zahash'",
	)
}

func TestDel(t *testing.T) {
	e, _ := newTestEvaluator()

	check(t, e, "delete gmail")

	run(t, e, "set gmail url = mail.google.com sensitive pass = gpass")
	check(t, e, "delete discord")

	run(t, e, "set discord user = doubledragon url = discord.com")

	check(t, e, "delete gmail", "'gmail' pass=***** url='mail.google.com'")
	check(t, e, "show all", "'discord' url='discord.com' user='doubledragon'")

	check(t, e, "delete gmail user pass")
	check(t, e, "delete discord user pass", "'discord' url='discord.com'")
}

func TestShowReveal(t *testing.T) {
	e, _ := newTestEvaluator()

	run(t, e,
		"set gmail user = zahash pass = pass123 url = mail.google.com",
		"set discord user = hazash pass = dpass123 url = discord.com",
		"set twitch user = amogus pass = tpass123",
	)

	check(t, e, "show discord", "'discord' pass='dpass123' url='discord.com' user='hazash'")
	check(t, e, "show all",
		"'discord' pass='dpass123' url='discord.com' user='hazash'",
		"'gmail' pass='pass123' url='mail.google.com' user='zahash'",
		"'twitch' pass='tpass123' user='amogus'",
	)
	check(t, e, `show user contains AsH and url matches '\.com'`,
		"'discord' pass='dpass123' url='discord.com' user='hazash'",
		"'gmail' pass='pass123' url='mail.google.com' user='zahash'",
	)
	check(t, e, "show url contains google or user is amogus",
		"'gmail' pass='pass123' url='mail.google.com' user='zahash'",
		"'twitch' pass='tpass123' user='amogus'",
	)
	check(t, e, "show pass matches '[a-z]+123' and ( user is amogus or user contains 'ash' )",
		"'discord' pass='dpass123' url='discord.com' user='hazash'",
		"'gmail' pass='pass123' url='mail.google.com' user='zahash'",
		"'twitch' pass='tpass123' user='amogus'",
	)

	run(t, e, "set sus user = sussolini name = potatus")
	check(t, e, "show name is sus")
	check(t, e, "show name is potatus", "'sus' name='potatus' user='sussolini'")
	check(t, e, "show . is sus", "'sus' name='potatus' user='sussolini'")
	check(t, e, "show . contains SUS", "'sus' name='potatus' user='sussolini'")

	run(t, e, "set sus secret pass = supahotfire")
	check(t, e, "show sus", "'sus' name='potatus' pass=***** user='sussolini'")

	run(t, e, "set sus sensitive user = sussolini")
	check(t, e, "show sus", "'sus' name='potatus' pass=***** user=*****")
	check(t, e, "reveal sus", "'sus' name='potatus' pass='supahotfire' user='sussolini'")
}

func TestLegacyNameSentinel(t *testing.T) {
	e, _ := newTestEvaluator()
	run(t, e, "set gmail user = zahash")
	check(t, e, "show $name is gmail", "'gmail' user='zahash'")
}

func TestHistory(t *testing.T) {
	e, _ := newTestEvaluator()

	run(t, e,
		"set sus user = 'benito sussolini' sensitive pass = amogus",
		"set sus user = 'pablo susscobar'",
		"set sus user = 'pablo susscobar'",
		"del sus user",
		"set sus pass = potatus",
		"set sus note = 'this is the latest'",
	)

	check(t, e, "show sus", "'sus' note='this is the latest' pass='potatus'")

	ev, err := e.Eval("history sus")
	if err != nil {
		t.Fatalf("eval history failed: %v", err)
	}
	lines := ev.Lines()
	if len(lines) != 5 {
		t.Fatalf("history has %d lines, want 5: %q", len(lines), lines)
	}
	wantSuffixes := []string{
		"note='this is the latest' pass='potatus'",
		"pass='potatus'",
		"pass=*****",
		"pass=***** user='pablo susscobar'",
		"pass=***** user='benito sussolini'",
	}
	for i, suffix := range wantSuffixes {
		if !strings.HasSuffix(lines[i], suffix) {
			t.Errorf("history line %d = %q, want suffix %q", i, lines[i], suffix)
		}
	}

	check(t, e, "history blah")
}

func TestRevealHistory(t *testing.T) {
	e, _ := newTestEvaluator()

	run(t, e, "set sus user = 'benito sussolini' sensitive pass = amogus")

	ev, err := e.Eval("reveal history sus")
	if err != nil {
		t.Fatalf("eval reveal history failed: %v", err)
	}
	lines := ev.Lines()
	if len(lines) != 1 {
		t.Fatalf("reveal history has %d lines, want 1", len(lines))
	}
	if !strings.HasSuffix(lines[0], "pass='amogus' user='benito sussolini'") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestRename(t *testing.T) {
	e, _ := newTestEvaluator()

	check(t, e, "rename gmail discord", "'gmail' not found!")

	run(t, e, "set discord")
	check(t, e, "rename gmail discord", "'discord' already exists!")
	check(t, e, "rename discord discord", "'discord' already exists!")
	check(t, e, "rename discord discord2", "Renamed!")
}

func TestCopy(t *testing.T) {
	e, clip := newTestEvaluator()

	check(t, e, "copy gmail pass", "Unable to Copy! Try Again!")

	run(t, e, "set gmail")
	check(t, e, "copy gmail pass", "Unable to Copy! Try Again!")

	run(t, e, "set gmail url = mail.google.com")
	check(t, e, "copy gmail pass", "Unable to Copy! Try Again!")

	run(t, e, "set gmail pass = gpass")
	check(t, e, "copy gmail pass", "Copied!")

	run(t, e, "set gmail sensitive pass = gpass2")
	check(t, e, "copy gmail pass", "Copied!")

	if !reflect.DeepEqual(clip.texts, []string{"gpass", "gpass2"}) {
		t.Errorf("clipboard writes = %q", clip.texts)
	}
}

func TestCopyClipboardFailureIsSoft(t *testing.T) {
	e, clip := newTestEvaluator()
	clip.fail = true

	run(t, e, "set gmail pass = gpass")
	check(t, e, "copy gmail pass", "Unable to Copy! Try Again!")
}

func importFile(t *testing.T, e *Evaluator, contents string) (Evaluation, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.txt")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	return e.Eval("import " + path)
}

func TestImport(t *testing.T) {
	e, _ := newTestEvaluator()

	if _, err := importFile(t, e, ""); err != nil {
		t.Fatalf("empty import failed: %v", err)
	}
	check(t, e, "show all")

	ev, err := importFile(t, e, `
	'gmail' user = ligma pass = balls
	'gmail' user = ligma pass = balls
	'gmail' user = 'benito sussolini' pass = 'joseph ballin'
	'discord' user = 'dorito breath' pass = 'kitten'
	'discord' user = 'dorito breath' pass = 'kitten'
	`)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	// Blank lines are skipped and not counted.
	if got := ev.Lines(); !reflect.DeepEqual(got, []string{"imported 5 records"}) {
		t.Errorf("import lines = %q", got)
	}

	check(t, e, "show all",
		"'discord' pass='kitten' user='dorito breath'",
		"'gmail' pass='joseph ballin' user='benito sussolini'",
	)

	// Re-sets with identical content dedup history entries.
	if hist, err := e.Eval("history gmail"); err != nil {
		t.Fatal(err)
	} else if lines := hist.Lines(); len(lines) != 2 {
		t.Errorf("gmail history = %d lines, want 2: %q", len(lines), lines)
	}
	if hist, err := e.Eval("history discord"); err != nil {
		t.Fatal(err)
	} else if lines := hist.Lines(); len(lines) != 1 {
		t.Errorf("discord history = %d lines, want 1: %q", len(lines), lines)
	}
}

func TestImportMalformedLineAborts(t *testing.T) {
	e, _ := newTestEvaluator()

	_, err := importFile(t, e, "'gmail' user = a\n'discord' user = b\n'broken' user = = =\n'never' user = c\n")
	if err == nil {
		t.Fatal("import should fail on the malformed line")
	}

	var malformed *MalformedLineError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %T, want *MalformedLineError", err)
	}
	if malformed.Line != 3 {
		t.Errorf("line = %d, want 3", malformed.Line)
	}
	if !strings.Contains(malformed.Content, "broken") {
		t.Errorf("content = %q", malformed.Content)
	}

	// Lines before the failure stay applied; the rest were never reached.
	check(t, e, "show all", "'discord' user='b'", "'gmail' user='a'")
}

func TestImportMissingFile(t *testing.T) {
	e, _ := newTestEvaluator()

	_, err := e.Eval("import /does/not/exist.txt")
	var ioErr *ImportIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error = %T, want *ImportIOError", err)
	}
}

func TestEvalErrorsLeaveStoreUntouched(t *testing.T) {
	e, _ := newTestEvaluator()
	run(t, e, "set gmail user = zahash")

	bad := []string{
		"set gmail user = a user = b", // duplicate assignment
		"show url matches '['",        // invalid regex
		"set gmail user = 'zah",       // lex error
		"blargh",                      // unknown command
	}
	for _, cmd := range bad {
		if _, err := e.Eval(cmd); err == nil {
			t.Errorf("eval %q should fail", cmd)
		}
	}

	check(t, e, "show all", "'gmail' user='zahash'")
}

func TestMaskingLaw(t *testing.T) {
	e, _ := newTestEvaluator()
	run(t, e, "set gmail sensitive pass = hunter2")

	show, err := e.Eval("show gmail")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range show.Lines() {
		if strings.Contains(line, "hunter2") {
			t.Errorf("show leaked a sensitive value: %q", line)
		}
	}

	reveal, err := e.Eval("reveal gmail")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, line := range reveal.Lines() {
		if strings.Contains(line, "hunter2") {
			found = true
		}
	}
	if !found {
		t.Error("reveal should show the raw value")
	}
}

// The parser rejects queries that mix a bare name with boolean filters;
// kept here because users hit this via eval.
func TestBareNameQueryIsExactMatch(t *testing.T) {
	e, _ := newTestEvaluator()
	run(t, e, "set gmail user = zahash", "set gmail2 user = other")

	check(t, e, "show gmail", "'gmail' user='zahash'")

	if _, err := e.Eval("show gmail and user is zahash"); err == nil {
		t.Error("bare name mixed into a boolean query should not parse")
	}

	var parseErr *query.ParseError
	_, err := e.Eval("show gmail and user is zahash")
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %T, want *query.ParseError", err)
	}
}

type auditEvent struct{ op, key, result string }

type fakeRecorder struct {
	events []auditEvent
	fail   bool
}

func (r *fakeRecorder) Record(op, key, result string) error {
	r.events = append(r.events, auditEvent{op, key, result})
	if r.fail {
		return errors.New("audit sink down")
	}
	return nil
}

func TestRecorderSeesOneEventPerCommand(t *testing.T) {
	e, _ := newTestEvaluator()
	rec := &fakeRecorder{}
	e.WithRecorder(rec)

	run(t, e, "set gmail user = zahash", "show all", "rename gmail googlemail")
	if _, err := e.Eval("show ((("); err == nil {
		t.Fatal("malformed command should fail")
	}

	want := []auditEvent{
		{audit.OpSet, "gmail", audit.ResultSuccess},
		{audit.OpShow, "", audit.ResultSuccess},
		{audit.OpRename, "gmail", audit.ResultSuccess},
		{audit.OpInvalid, "", audit.ResultError},
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events:\ngot:  %v\nwant: %v", rec.events, want)
	}
}

func TestRecorderImportIsOneEvent(t *testing.T) {
	e, _ := newTestEvaluator()
	rec := &fakeRecorder{}
	e.WithRecorder(rec)

	path := filepath.Join(t.TempDir(), "backup.txt")
	lines := "gmail user = zahash\ndiscord user = dave\n"
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	run(t, e, "import "+path)
	want := []auditEvent{{audit.OpImport, path, audit.ResultSuccess}}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events:\ngot:  %v\nwant: %v", rec.events, want)
	}
}

func TestRecorderFailureIsSoft(t *testing.T) {
	e, _ := newTestEvaluator()
	e.WithRecorder(&fakeRecorder{fail: true})

	if _, err := e.Eval("set gmail user = zahash"); err != nil {
		t.Fatalf("recording failure must not surface: %v", err)
	}
	check(t, e, "show all", "'gmail' user='zahash'")
}

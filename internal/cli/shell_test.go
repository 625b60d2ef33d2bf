package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/forest6511/guardctl/pkg/eval"
	"github.com/forest6511/guardctl/pkg/store"
)

func runShell(t *testing.T, input string, save func() error) (string, error) {
	t.Helper()
	if save == nil {
		save = func() error { return nil }
	}
	s := store.New("test")
	e := eval.New(s).WithClipboard(nil)
	var out strings.Builder
	err := New(e, strings.NewReader(input), &out, save).Run()
	return out.String(), err
}

func TestShellEvaluatesCommands(t *testing.T) {
	out, err := runShell(t, "set gmail user = zahash\nshow all\nexit\n", nil)
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if !strings.Contains(out, "'gmail' user='zahash'") {
		t.Errorf("output missing record listing:\n%s", out)
	}
}

func TestShellReportsErrorsAndContinues(t *testing.T) {
	out, err := runShell(t, "show (((\nset gmail\nshow all\nexit\n", nil)
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if !strings.Contains(out, "'gmail'") {
		t.Errorf("shell should keep going after a bad command:\n%s", out)
	}
}

func TestShellSavesOnExit(t *testing.T) {
	saves := 0
	_, err := runShell(t, "set gmail\nexit\n", func() error { saves++; return nil })
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if saves != 1 {
		t.Errorf("saves = %d, want 1", saves)
	}
}

func TestShellSavesOnEOF(t *testing.T) {
	saves := 0
	_, err := runShell(t, "set gmail\n", func() error { saves++; return nil })
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if saves != 1 {
		t.Errorf("saves = %d, want 1 on EOF", saves)
	}
}

func TestShellSaveCommand(t *testing.T) {
	saves := 0
	out, err := runShell(t, "save\nexit\n", func() error { saves++; return nil })
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if saves != 2 { // explicit save plus exit
		t.Errorf("saves = %d, want 2", saves)
	}
	if !strings.Contains(out, "Saved!") {
		t.Errorf("output missing save confirmation:\n%s", out)
	}
}

func TestShellSaveFailureIsSoftMidSession(t *testing.T) {
	fail := errors.New("disk full")
	out, err := runShell(t, "save\nexit\n", func() error { return fail })
	if err == nil {
		t.Error("failed save on exit should be returned")
	}
	if !strings.Contains(out, "save failed: disk full") {
		t.Errorf("mid-session save failure should be printed, not fatal:\n%s", out)
	}
}

func TestShellHelp(t *testing.T) {
	out, err := runShell(t, "help\nexit\n", nil)
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	for _, want := range []string{"set <name>", "reveal", "rename"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestShellIgnoresBlankLines(t *testing.T) {
	out, err := runShell(t, "\n   \nexit\n", nil)
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if strings.Contains(out, "LexError") || strings.Contains(out, "syntax") {
		t.Errorf("blank lines should not reach the evaluator:\n%s", out)
	}
}

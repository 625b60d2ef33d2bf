// Package cli provides the interactive shell for vault sessions.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/forest6511/guardctl/pkg/eval"
)

const helpText = `Commands:
  set <name> [<attr> = <value>]...      create or update a record
  set <name> sensitive <attr> = <value> mark the field masked
  show all | <name> | <filter>          list records (masked)
  reveal all | <name> | <filter>        list records (unmasked)
  copy <name> <attr>                    copy a field to the clipboard
  history <name>                        show a record's history (masked)
  reveal history <name>                 show a record's history (unmasked)
  del <name> [<attr>...]                delete a record or fields
  rename <old> <new>                    rename a record
  import <file>                         replay set lines from a file

Filters combine with 'and' / 'or' and parentheses:
  <attr> is <value>
  <attr> contains <substring>
  <attr> matches <regex>

Shell:
  help   show this help
  save   persist the vault now
  clear  clear the screen
  exit   save and leave`

// Shell runs the read-eval-print loop for one vault session. Input and
// output are injectable for tests.
type Shell struct {
	in   io.Reader
	out  io.Writer
	eval *eval.Evaluator
	save func() error
}

// New returns a shell over the given evaluator. save persists the
// vault; it runs on "save" and on exit.
func New(e *eval.Evaluator, in io.Reader, out io.Writer, save func() error) *Shell {
	return &Shell{in: in, out: out, eval: e, save: save}
}

// Run reads commands until "exit" or EOF, then saves. A failed save on
// exit is returned so the caller can warn without losing the session.
func (s *Shell) Run() error {
	scanner := bufio.NewScanner(s.in)

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return s.save()
		case "help":
			fmt.Fprintln(s.out, helpText)
			continue
		case "save":
			if err := s.save(); err != nil {
				fmt.Fprintf(s.out, "save failed: %v\n", err)
			} else {
				fmt.Fprintln(s.out, "Saved!")
			}
			continue
		case "clear":
			fmt.Fprint(s.out, "\033[H\033[2J")
			continue
		}

		result, err := s.eval.Eval(line)
		if err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		for _, out := range result.Lines() {
			fmt.Fprintln(s.out, out)
		}
	}

	if err := scanner.Err(); err != nil {
		// Save what we have before reporting the read failure.
		if saveErr := s.save(); saveErr != nil {
			return fmt.Errorf("read failed: %v; save failed: %w", err, saveErr)
		}
		return fmt.Errorf("read failed: %w", err)
	}
	return s.save()
}

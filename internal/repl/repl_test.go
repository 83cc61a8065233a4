package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ember-lang/ember/internal/builtins"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/vm"
)

func newSession(t *testing.T, in string) (*REPL, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	empty := object.NewCode("<module>")
	machine := vm.New("<repl>", empty, builtins.Map(&out, strings.NewReader("")), nil)
	return New(strings.NewReader(in), &out, machine, nil), &out
}

func TestREPLPrintsLeftoverExpressionValue(t *testing.T) {
	session, out := newSession(t, "1 + 2\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

func TestREPLSuppressesNilResult(t *testing.T) {
	session, out := newSession(t, "var x = 1;\nnull\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "" {
		t.Fatalf("expected no output for a statement or a Nil result, got %q", got)
	}
}

// TestREPLRecoversAfterFailedStatement exercises the same host contract
// internal/vm's TruncateStack test covers, end to end: a failing
// statement prints its error and leaves the session usable for the
// next line.
func TestREPLRecoversAfterFailedStatement(t *testing.T) {
	session, out := newSession(t, "print(1 / 0);\nprint(42);\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "42") {
		t.Fatalf("expected the next statement to still run, got %q", got)
	}
}

package vmtest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ember-lang/ember/internal/builtins"
	"github.com/ember-lang/ember/internal/compiler"
	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/lexer"
	"github.com/ember-lang/ember/internal/parser"
	"github.com/ember-lang/ember/internal/vm"
)

func TestUnterminatedStringReportsLexError(t *testing.T) {
	_, err := lexer.Tokenize("<test>", `"hello`)
	if err == nil {
		t.Fatal("expected a LexError, got nil")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.LexError {
		t.Fatalf("expected LexError, got %v", err)
	}
}

func TestDanglingElseReportsParseError(t *testing.T) {
	toks, err := lexer.Tokenize("<test>", "else { print(1); }")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	_, err = parser.Parse("<test>", toks)
	if err == nil {
		t.Fatal("expected a ParseError, got nil")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.ParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestWrongArityReportsArityError(t *testing.T) {
	src := `func add(a, b) { return a + b; } print(add(1));`
	err := runExpectError(t, src)
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.ArityError {
		t.Fatalf("expected ArityError, got %v", err)
	}
	if !strings.Contains(de.Message, "add") {
		t.Fatalf("expected message to name the function, got %q", de.Message)
	}
}

func TestDivisionByZeroReportsArithError(t *testing.T) {
	err := runExpectError(t, `print(1 / 0);`)
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.ArithError {
		t.Fatalf("expected ArithError, got %v", err)
	}
}

func runExpectError(t *testing.T, src string) error {
	t.Helper()
	toks, err := lexer.Tokenize("<test>", src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.Parse("<test>", toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.Compile("<test>", prog)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var out bytes.Buffer
	machine := vm.New("<test>", code, builtins.Map(&out, strings.NewReader("")), nil)
	runErr := machine.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected a runtime error, got nil")
	}
	return runErr
}

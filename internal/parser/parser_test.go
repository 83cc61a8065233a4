package parser

import (
	"testing"

	"github.com/ember-lang/ember/internal/ast"
	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Tokenize("<test>", src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := Parse("<test>", toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func TestParseVarDeclAndExprStmt(t *testing.T) {
	prog := parse(t, `var x = 1 + 2; print(x);`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", prog.Statements[0])
	}
	if decl.Name != "x" {
		t.Fatalf("expected name x, got %q", decl.Name)
	}
	if _, ok := prog.Statements[1].(*ast.ExprStmt); !ok {
		t.Fatalf("expected *ast.ExprStmt, got %T", prog.Statements[1])
	}
}

func TestParseFuncDefAndWhile(t *testing.T) {
	prog := parse(t, `
func add(a, b) { return a + b; }
while 1 < 2 { break; }
`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	fn, ok := prog.Statements[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected *ast.FuncDef, got %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected func shape: %+v", fn)
	}
	if _, ok := prog.Statements[1].(*ast.WhileStmt); !ok {
		t.Fatalf("expected *ast.WhileStmt, got %T", prog.Statements[1])
	}
}

func TestParseEmptyProgram(t *testing.T) {
	prog := parse(t, ``)
	if len(prog.Statements) != 0 {
		t.Fatalf("expected zero statements, got %d", len(prog.Statements))
	}
}

func TestDanglingElseReportsParseErrorAtElseToken(t *testing.T) {
	toks, err := lexer.Tokenize("<test>", "else { print(1); }")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	_, err = Parse("<test>", toks)
	if err == nil {
		t.Fatal("expected a ParseError")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.ParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if de.Column != 1 {
		t.Fatalf("expected the else token's column (1), got %d", de.Column)
	}
}

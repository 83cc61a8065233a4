package builtins

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
)

func TestPrintJoinsArgsWithoutSeparator(t *testing.T) {
	var out bytes.Buffer
	m := Map(&out, strings.NewReader(""))
	printFn := m["print"].(*object.NativeFunction)

	_, err := printFn.Fn(object.Nil, []object.Object{object.NewString("a"), object.NewIntFromInt64(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "a1\n" {
		t.Fatalf("got %q, want %q", out.String(), "a1\n")
	}
}

func TestInputReadsOneLine(t *testing.T) {
	var out bytes.Buffer
	m := Map(&out, strings.NewReader("hello\nworld\n"))
	inputFn := m["input"].(*object.NativeFunction)

	result, err := inputFn.Fn(object.Nil, []object.Object{object.NewString("prompt> ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := result.(*object.String)
	if !ok || s.Value != "hello" {
		t.Fatalf("got %#v, want String(\"hello\")", result)
	}
	if out.String() != "prompt> " {
		t.Fatalf("expected prompt echoed to out, got %q", out.String())
	}
}

func TestIsInstanceMatchesTypeName(t *testing.T) {
	m := Map(&bytes.Buffer{}, strings.NewReader(""))
	isInstanceFn := m["isinstance"].(*object.NativeFunction)

	yes, err := isInstanceFn.Fn(object.Nil, []object.Object{object.NewIntFromInt64(1), object.NewString("Int")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := yes.(*object.Bool); !ok || !b.Value {
		t.Fatalf("expected True, got %#v", yes)
	}

	no, err := isInstanceFn.Fn(object.Nil, []object.Object{object.NewIntFromInt64(1), object.NewString("String")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := no.(*object.Bool); !ok || b.Value {
		t.Fatalf("expected False, got %#v", no)
	}
}

func TestIsInstanceWrongArityReportsArityError(t *testing.T) {
	m := Map(&bytes.Buffer{}, strings.NewReader(""))
	isInstanceFn := m["isinstance"].(*object.NativeFunction)

	_, err := isInstanceFn.Fn(object.Nil, []object.Object{object.NewIntFromInt64(1)})
	if err == nil {
		t.Fatal("expected an error")
	}
	opErr, ok := err.(*object.OpError)
	if !ok || opErr.Kind != diag.ArityError {
		t.Fatalf("expected ArityError, got %v", err)
	}
}

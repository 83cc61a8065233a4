package bundle

import (
	"math/big"
	"testing"

	"github.com/ember-lang/ember/internal/compiler"
	"github.com/ember-lang/ember/internal/lexer"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/parser"
)

func compileSource(t *testing.T, src string) *object.Code {
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
	return code
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	code := compileSource(t, `
func add(a, b) { return a + b; }
var x = add(40, 2);
print(x);
`)
	b := New("test.ember", code)
	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if got.SourceFile != "test.ember" {
		t.Fatalf("got source file %q, want %q", got.SourceFile, "test.ember")
	}
	if got.BuildID != b.BuildID {
		t.Fatalf("build id mismatch: got %v, want %v", got.BuildID, b.BuildID)
	}
	if len(got.Code.Instr) != len(code.Instr) {
		t.Fatalf("instruction length mismatch: got %d, want %d", len(got.Code.Instr), len(code.Instr))
	}
	if len(got.Code.Names) != len(code.Names) {
		t.Fatalf("names length mismatch: got %d, want %d", len(got.Code.Names), len(code.Names))
	}
	if len(got.Code.Constants) != len(code.Constants) {
		t.Fatalf("constants length mismatch: got %d, want %d", len(got.Code.Constants), len(code.Constants))
	}

	// Find the nested Function constant and confirm its Code round-tripped too.
	var found bool
	for i, c := range got.Code.Constants {
		fn, ok := c.(*object.Function)
		if !ok {
			continue
		}
		found = true
		wantFn := code.Constants[i].(*object.Function)
		if fn.Name != wantFn.Name || fn.Arity != wantFn.Arity {
			t.Fatalf("function constant mismatch: got %+v, want %+v", fn, wantFn)
		}
		if len(fn.Code.Instr) != len(wantFn.Code.Instr) {
			t.Fatalf("nested code instruction length mismatch: got %d, want %d", len(fn.Code.Instr), len(wantFn.Code.Instr))
		}
	}
	if !found {
		t.Fatal("expected a Function constant in the round-tripped bundle")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := Deserialize([]byte("not a bundle at all"))
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestEncodeConstRejectsCode(t *testing.T) {
	_, err := encodeConst(object.NewCode("<bad>"))
	if err == nil {
		t.Fatal("expected an error encoding a bare Code constant")
	}
}

func TestBigIntRoundTripNegativeAndZero(t *testing.T) {
	for _, s := range []string{"0", "-42", "123456789012345678901234567890", "-123456789012345678901234567890"} {
		z := new(big.Int)
		z.SetString(s, 10)
		buf := appendBigInt(nil, z)
		got, n, err := consumeBigInt(buf)
		if err != nil {
			t.Fatalf("consumeBigInt(%q): %v", s, err)
		}
		if n != len(buf) {
			t.Fatalf("consumed %d bytes, want %d", n, len(buf))
		}
		if got.Cmp(z) != 0 {
			t.Fatalf("got %v, want %v", got, z)
		}
	}
}

package lexer

import (
	"strings"
	"testing"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasicProgram(t *testing.T) {
	src := `var x = 1 + 2;`
	toks, err := Tokenize("<test>", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{
		token.VAR, token.IDENT, token.ASSIGN, token.NUMBER, token.PLUS,
		token.NUMBER, token.SEMI, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestLexerRoundTrip covers spec.md §8's "Round-trip: lexer" property:
// concatenating each token's Lexeme with whitespace separators and
// retokenizing yields the same stream of kinds and lexemes.
func TestLexerRoundTrip(t *testing.T) {
	sources := []string{
		`var x = 1 + 2 * 3;`,
		`func add(a, b) { return a + b; }`,
		`if x < 10 { print("hi"); } else { print('bye'); }`,
		`var xs = [1, 2, 3];`,
	}
	for _, src := range sources {
		toks, err := Tokenize("<test>", src)
		if err != nil {
			t.Fatalf("tokenize(%q): %v", src, err)
		}

		var rebuilt strings.Builder
		for _, tok := range toks {
			if tok.Kind == token.EOF {
				continue
			}
			if tok.Kind == token.EOL {
				rebuilt.WriteByte('\n')
				continue
			}
			rebuilt.WriteString(tok.Lexeme)
			rebuilt.WriteByte(' ')
		}

		retoks, err := Tokenize("<test>", rebuilt.String())
		if err != nil {
			t.Fatalf("retokenize(%q): %v", rebuilt.String(), err)
		}

		g, w := kinds(toks), kinds(retoks)
		if len(g) != len(w) {
			t.Fatalf("src %q: kind count mismatch\n got: %v\nwant: %v", src, g, w)
		}
		for i := range w {
			if g[i] != w[i] {
				t.Fatalf("src %q: token %d kind mismatch: got %v, want %v", src, i, g[i], w[i])
			}
			if toks[i].Kind != token.EOL && toks[i].Lexeme != retoks[i].Lexeme {
				t.Fatalf("src %q: token %d lexeme mismatch: got %q, want %q", src, i, retoks[i].Lexeme, toks[i].Lexeme)
			}
		}
	}
}

// TestLineContinuationTokenizesLikeASingleLine covers the line-continuation
// rule: a backslash immediately before a newline drops both tokens
// entirely, so a continued line tokenizes identically to writing it as
// one line.
func TestLineContinuationTokenizesLikeASingleLine(t *testing.T) {
	continued := "var x = 1 + \\\n2;"
	oneLine := "var x = 1 + 2;"

	toks, err := Tokenize("<test>", continued)
	if err != nil {
		t.Fatalf("tokenize(%q): %v", continued, err)
	}
	want, err := Tokenize("<test>", oneLine)
	if err != nil {
		t.Fatalf("tokenize(%q): %v", oneLine, err)
	}

	if len(toks) != len(want) {
		t.Fatalf("got %v, want %v", kinds(toks), kinds(want))
	}
	for i := range want {
		if toks[i].Kind != want[i].Kind {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Kind, want[i].Kind)
		}
		if toks[i].Kind == token.BACKSLASH {
			t.Fatalf("token %d: BACKSLASH must never reach the token stream", i)
		}
	}
}

func TestUnterminatedStringReportsLexErrorAtOpeningQuote(t *testing.T) {
	_, err := Tokenize("<test>", `x = "abc`)
	if err == nil {
		t.Fatal("expected an error")
	}
	de, ok := err.(*diag.Error)
	if !ok {
		t.Fatalf("expected *diag.Error, got %T", err)
	}
	if de.Kind != diag.LexError {
		t.Fatalf("expected LexError, got %v", de.Kind)
	}
	if de.Column != 5 {
		t.Fatalf("expected the opening quote's column (5), got %d", de.Column)
	}
}

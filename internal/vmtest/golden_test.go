// Package vmtest runs whole-pipeline golden fixtures (lexer -> parser
// -> compiler -> vm) against every spec.md §8 end-to-end scenario.
// Fixtures are txtar archives (golang.org/x/tools/txtar) bundling the
// source and its expected stdout in one file, generalizing the
// teacher's tests/functional_test.go (which instead pairs a sibling
// .lang/.want file on disk and execs a built binary); running the
// pipeline in-process here skips the build step since every scenario
// is pure stdout comparison with no CLI surface involved.
package vmtest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/ember-lang/ember/internal/builtins"
	"github.com/ember-lang/ember/internal/compiler"
	"github.com/ember-lang/ember/internal/lexer"
	"github.com/ember-lang/ember/internal/parser"
	"github.com/ember-lang/ember/internal/vm"
)

func runSource(t *testing.T, file, src string) string {
	t.Helper()
	toks, err := lexer.Tokenize(file, src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.Parse(file, toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	code, err := compiler.Compile(file, prog)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var out bytes.Buffer
	machine := vm.New(file, code, builtins.Map(&out, strings.NewReader("")), nil)
	if err := machine.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestGolden(t *testing.T) {
	matches, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no golden fixtures found under testdata/")
	}

	for _, path := range matches {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("parse archive: %v", err)
			}
			files := map[string]string{}
			for _, f := range archive.Files {
				files[f.Name] = string(f.Data)
			}
			src, ok := files["input.ember"]
			if !ok {
				t.Fatalf("%s: missing input.ember section", path)
			}
			want, ok := files["stdout"]
			if !ok {
				t.Fatalf("%s: missing stdout section", path)
			}

			got := runSource(t, name+".ember", src)
			if strings.TrimRight(got, "\n") != strings.TrimRight(want, "\n") {
				t.Errorf("%s: stdout mismatch\n got: %q\nwant: %q", path, got, want)
			}
		})
	}
}

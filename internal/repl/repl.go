// Package repl implements Ember's interactive read-eval-print loop,
// grounded on original_source/src/ui/repl.cpp's read/eval_and_print
// split: tokenize -> parse -> compile -> vm.Load, print whatever is
// left on the stack unless it's Nil, then loop. Unlike the original's
// one-shot fatal-on-error loop, a failed statement here is recovered
// per spec.md §9's incremental-load note: the operand stack is
// truncated back to its pre-statement depth and the module's bytecode
// keeps growing from where it left off.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ember-lang/ember/internal/compiler"
	"github.com/ember-lang/ember/internal/lexer"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/parser"
	"github.com/ember-lang/ember/internal/replhist"
	"github.com/ember-lang/ember/internal/vm"
)

const prompt = ">>> "

// REPL drives one interactive session.
type REPL struct {
	in      *bufio.Reader
	out     io.Writer
	machine *vm.VM
	hist    *replhist.Store // may be nil (history disabled)
	isTTY   bool
}

// New builds a REPL over an already-constructed VM (module frame
// primed empty, builtins/loader already wired by the caller).
func New(in io.Reader, out io.Writer, machine *vm.VM, hist *replhist.Store) *REPL {
	tty := false
	if f, ok := in.(interface{ Fd() uintptr }); ok {
		tty = isatty.IsTerminal(f.Fd())
	}
	return &REPL{in: bufio.NewReader(in), out: out, machine: machine, hist: hist, isTTY: tty}
}

// Run drives the loop until EOF (Ctrl-D) or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := r.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r.hist != nil {
			_ = r.hist.Append(line, time.Now().Unix())
		}
		r.evalAndPrint(ctx, line)
	}
}

func (r *REPL) read() (string, error) {
	if r.isTTY {
		fmt.Fprint(r.out, prompt)
	}
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *REPL) evalAndPrint(ctx context.Context, line string) {
	toks, err := lexer.Tokenize("<repl>", line)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	prog, err := parser.Parse("<repl>", toks)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	code, err := compiler.CompileREPL("<repl>", prog)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}

	watermark := r.machine.StackDepth()
	if err := r.machine.Load(ctx, code); err != nil {
		r.machine.TruncateStack(watermark)
		fmt.Fprintln(r.out, err)
		return
	}

	if top, ok := r.machine.PopTop(); ok {
		if _, isNil := top.(*object.NilObj); !isNil {
			fmt.Fprintln(r.out, top.Inspect())
		}
		object.Release(top)
	}
}

// Command ember is Ember's CLI front end: a REPL, a source-file runner,
// and a bytecode bundler/executor. Dispatch is a manual os.Args switch
// (spec.md §6.5's five subcommands plus bundle and exec), grounded on the teacher's
// cmd/funxy/main.go, which likewise hand-rolls argument parsing instead
// of reaching for a flags/CLI framework.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ember-lang/ember/internal/builtins"
	"github.com/ember-lang/ember/internal/bundle"
	"github.com/ember-lang/ember/internal/compiler"
	"github.com/ember-lang/ember/internal/config"
	"github.com/ember-lang/ember/internal/lexer"
	"github.com/ember-lang/ember/internal/modules"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/parser"
	"github.com/ember-lang/ember/internal/repl"
	"github.com/ember-lang/ember/internal/replhist"
	"github.com/ember-lang/ember/internal/vm"
	"github.com/ember-lang/ember/pkg/ext/mathmod"
)

// trace is the verbose/debug logger, enabled by -v/--verbose. Nil when
// disabled, so call sites guard with "if trace != nil".
var trace *log.Logger

// enableTrace turns on verbose/debug output, stripped from args before
// subcommand dispatch. The CORE itself is a single synchronous pipeline
// (spec.md §5) with no background logging; this is CLI-level tracing of
// the pipeline stages the front end drives.
func enableTrace() {
	trace = log.New(os.Stderr, "ember: ", log.Ltime)
}

// stripVerboseFlag removes every -v/--verbose argument and, if it found
// one, enables trace, returning the remaining args.
func stripVerboseFlag(args []string) []string {
	out := args[:0:0]
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			enableTrace()
			continue
		}
		out = append(out, a)
	}
	return out
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	args := stripVerboseFlag(os.Args[1:])
	if len(args) == 0 {
		runRepl()
		return
	}

	switch args[0] {
	case "repl":
		runRepl()
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: ember run <path>")
			os.Exit(1)
		}
		runFile(args[1])
	case "bundle":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ember bundle <path> <out>")
			os.Exit(1)
		}
		runBundle(args[1], args[2])
	case "exec":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: ember exec <bundle>")
			os.Exit(1)
		}
		runExec(args[1])
	case "version", "-version", "--version":
		fmt.Println("ember " + config.Version)
	case "help", "-help", "--help":
		printHelp()
	default:
		// bare path: `ember foo.ember` runs it directly.
		runFile(args[0])
	}
}

func printHelp() {
	fmt.Println(`Ember: a small dynamic scripting language.

Usage:
  ember                  start the REPL
  ember repl             start the REPL
  ember run <path>       run a source file
  ember bundle <p> <o>   compile <p> to a bytecode bundle at <o>
  ember exec <bundle>    run a compiled bundle
  ember version          print the version
  ember help             print this message

Flags:
  -v, --verbose          trace lexer/parser/compiler/vm stages to stderr`)
}

func newModuleRegistry() *modules.Registry {
	reg := modules.NewRegistry()
	mathmod.Register(reg)
	return reg
}

func compileSource(file, src string) (*object.Code, error) {
	if trace != nil {
		trace.Printf("lexing %s (%d bytes)", file, len(src))
	}
	toks, err := lexer.Tokenize(file, src)
	if err != nil {
		return nil, err
	}
	if trace != nil {
		trace.Printf("parsing %s (%d tokens)", file, len(toks))
	}
	prog, err := parser.Parse(file, toks)
	if err != nil {
		return nil, err
	}
	if trace != nil {
		trace.Printf("compiling %s (%d statements)", file, len(prog.Statements))
	}
	return compiler.Compile(file, prog)
}

func runFile(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", path, err)
		os.Exit(1)
	}
	code, err := compileSource(path, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	execute(path, code)
}

func execute(file string, code *object.Code) {
	if trace != nil {
		trace.Printf("running %s (%d instruction bytes)", file, len(code.Instr))
	}
	machine := vm.New(file, code, builtins.Map(os.Stdout, os.Stdin), newModuleRegistry())
	if err := machine.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRepl() {
	rcPath := config.DefaultPath()
	rc, err := config.Load(rcPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var hist *replhist.Store
	if store, err := replhist.Open(rc.EffectiveHistoryFile()); err == nil {
		hist = store
		defer hist.Close()
		if trace != nil {
			trace.Printf("REPL history: %s", rc.EffectiveHistoryFile())
		}
	}

	empty := object.NewCode("<module>")
	machine := vm.New("<repl>", empty, builtins.Map(os.Stdout, os.Stdin), newModuleRegistry())
	session := repl.New(os.Stdin, os.Stdout, machine, hist)
	if err := session.Run(context.Background()); err != nil && err != io.EOF {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBundle(srcPath, outPath string) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", srcPath, err)
		os.Exit(1)
	}
	code, err := compileSource(srcPath, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	b := bundle.New(srcPath, code)
	data, err := b.Serialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error serializing bundle: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %s\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("bundled %s -> %s (%d bytes)\n", srcPath, outPath, len(data))
}

func runExec(bundlePath string) {
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", bundlePath, err)
		os.Exit(1)
	}
	b, err := bundle.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading bundle: %s\n", err)
		os.Exit(1)
	}
	execute(b.SourceFile, b.Code)
}

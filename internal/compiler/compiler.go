// Package compiler is Ember's IR generator: it walks the AST and emits
// a single Code object, following the emission table in spec.md §4.4.
package compiler

import (
	"math/big"
	"strings"

	"github.com/ember-lang/ember/internal/ast"
	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/vm"
)

// loopCtx tracks the back-patch state of one enclosing while loop:
// where `continue` jumps to, and which JUMP placeholders `break` must
// patch once the loop's exit pc is known.
type loopCtx struct {
	entryPC      int
	breakPatches []int // positions of the 2-byte operand to patch with the exit pc
}

// Compiler holds the four mutable growers spec.md §4.4 names
// (instructions, constants, names, line-map) for the Code object
// currently being emitted, plus the loop-context stack used to resolve
// break/continue.
type Compiler struct {
	file string

	instr     []byte
	constants []object.Object
	names     []string
	lineTable []object.LineEntry
	lastLine  int
	lastOp    vm.Opcode // opcode most recently appended by emitOp/emitOp2
	hasLastOp bool      // false for a generator context with no instructions yet

	loops []*loopCtx
}

// New starts a fresh generator context for file.
func New(file string) *Compiler {
	return &Compiler{file: file}
}

// Compile walks prog and returns the module-level Code object.
func Compile(file string, prog *ast.Program) (*object.Code, error) {
	c := New(file)
	for _, stmt := range prog.Statements {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	return c.finish("<module>", 0), nil
}

// CompileREPL is Compile's sibling for a single interactive line: every
// statement compiles the same way Compile does, except that if the
// final statement is a bare expression, its OP_POP_TOP is omitted so
// the value stays on the operand stack for the REPL to print (spec.md
// §4.5.6's incremental-load contract — "the leftover stack-top value").
// A line with no trailing bare expression (e.g. a var-decl or a
// print(...) call, which already produced its own output) leaves
// nothing extra behind, exactly like Compile.
func CompileREPL(file string, prog *ast.Program) (*object.Code, error) {
	c := New(file)
	for i, stmt := range prog.Statements {
		last := i == len(prog.Statements)-1
		if expr, ok := stmt.(*ast.ExprStmt); ok && last {
			if err := c.compileExpr(expr.X); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	return c.finish("<module>", 0), nil
}

// finish packages the generator's current buffers into a Code object.
// The constants were already retained when internConst appended them.
func (c *Compiler) finish(name string, paramCount int) *object.Code {
	code := object.NewCode(name)
	code.Instr = c.instr
	code.Constants = c.constants
	code.Names = c.names
	code.LineTable = c.lineTable
	code.ParamCount = paramCount
	return code
}

// push saves the current buffers and starts a fresh set, for compiling
// a nested func-def/lambda body (spec.md §4.4 "nested generator context").
func (c *Compiler) push() (instr []byte, constants []object.Object, names []string, lineTable []object.LineEntry, lastLine int, lastOp vm.Opcode, hasLastOp bool, loops []*loopCtx) {
	instr, constants, names, lineTable, lastLine, lastOp, hasLastOp, loops =
		c.instr, c.constants, c.names, c.lineTable, c.lastLine, c.lastOp, c.hasLastOp, c.loops
	c.instr, c.constants, c.names, c.lineTable, c.lastLine, c.lastOp, c.hasLastOp, c.loops =
		nil, nil, nil, nil, 0, 0, false, nil
	return
}

func (c *Compiler) pop(instr []byte, constants []object.Object, names []string, lineTable []object.LineEntry, lastLine int, lastOp vm.Opcode, hasLastOp bool, loops []*loopCtx) {
	c.instr, c.constants, c.names, c.lineTable, c.lastLine, c.lastOp, c.hasLastOp, c.loops =
		instr, constants, names, lineTable, lastLine, lastOp, hasLastOp, loops
}

// ---- interning ----

// internConst does a linear search of constants for an object already
// equal (by tag + canonical string) to v, appending and retaining it if
// absent. Matches spec.md §4.4's intern-const helper and the
// "idempotence: interning" testable property in §8.
func (c *Compiler) internConst(v object.Object) int {
	// Function/Code constants are never deduplicated by value: two
	// distinct func-defs/lambdas can render identically (e.g. two empty
	// lambdas both print as "<function <lambda>>") but are distinct
	// constants, unlike Int/String/Bool/Nil which dedup by value.
	if v.Kind() != object.KFunction && v.Kind() != object.KCode {
		key := constKey(v)
		for i, existing := range c.constants {
			if existing.Kind() == v.Kind() && constKey(existing) == key {
				return i
			}
		}
	}
	c.constants = append(c.constants, object.Retain(v))
	return len(c.constants) - 1
}

func constKey(v object.Object) string {
	return v.Kind().String() + ":" + v.String()
}

// internName does a linear search of names for s, appending if missing.
func (c *Compiler) internName(s string) int {
	for i, n := range c.names {
		if n == s {
			return i
		}
	}
	c.names = append(c.names, s)
	return len(c.names) - 1
}

// ---- emission ----

func (c *Compiler) setLine(line int) {
	if line == c.lastLine && len(c.lineTable) > 0 {
		return
	}
	c.lineTable = append(c.lineTable, object.LineEntry{PC: len(c.instr), Line: line})
	c.lastLine = line
}

func (c *Compiler) emitOp(line int, op vm.Opcode) int {
	c.setLine(line)
	pc := len(c.instr)
	c.instr = append(c.instr, byte(op))
	c.lastOp, c.hasLastOp = op, true
	return pc
}

// emitOp2 emits op followed by a 2-byte big-endian operand, returning the
// position of the operand's first byte (for later back-patching).
func (c *Compiler) emitOp2(line int, op vm.Opcode, operand int) int {
	c.setLine(line)
	c.instr = append(c.instr, byte(op))
	pos := len(c.instr)
	c.instr = append(c.instr, byte(operand>>8), byte(operand))
	c.lastOp, c.hasLastOp = op, true
	return pos
}

func (c *Compiler) patch2(pos int, operand int) {
	c.instr[pos] = byte(operand >> 8)
	c.instr[pos+1] = byte(operand)
}

func (c *Compiler) here() int { return len(c.instr) }

func (c *Compiler) errorf(tok ast.Node, code, msg string) error {
	t := tok.Tok()
	return diag.New(diag.IRError, code, c.file, t.Line, t.Column, msg)
}

// ---- number-literal construction ----

// buildNumber constructs an Int or Rational per spec.md §4.4's
// "Number literal" emission row: a literal with a '.' or an exponent is
// a Rational, otherwise an Int.
func buildNumber(text string) object.Object {
	if strings.ContainsAny(text, ".eE") {
		r := new(big.Rat)
		if _, ok := r.SetString(text); ok {
			return object.NewRational(r)
		}
		// Defensive: the lexer only emits well-formed numeric text.
		return object.NewRational(new(big.Rat))
	}
	i := new(big.Int)
	i.SetString(text, 10)
	return object.NewInt(i)
}

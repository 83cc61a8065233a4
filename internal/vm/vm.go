package vm

import (
	"context"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
)

// ModuleLoader resolves `import <name>` against a native-initializer
// registry (spec.md §6.3). internal/modules.Registry implements this;
// the VM depends only on the interface, per Go idiom of accepting
// interfaces rather than the concrete registry type.
type ModuleLoader interface {
	Load(name string) (*object.Module, error)
}

// VM is the stack machine described by spec.md §3.5: an operand stack,
// a call-frame stack (bottom frame is the module frame), and a
// builtins map populated at construction.
type VM struct {
	stack    []object.Object
	frames   []*Frame
	builtins map[string]object.Object
	loader   ModuleLoader
	file     string
}

// New constructs a VM over a module Code object. builtins is typically
// built by internal/builtins.Map(); loader may be nil if the program
// never imports.
func New(file string, module *object.Code, builtins map[string]object.Object, loader ModuleLoader) *VM {
	v := &VM{
		builtins: builtins,
		loader:   loader,
		file:     file,
	}
	v.frames = append(v.frames, newFrame("<module>", module))
	return v
}

// moduleFrame is the bottom of the call stack (spec.md §4.5.5's
// SET_GLOBAL target).
func (v *VM) moduleFrame() *Frame { return v.frames[0] }

func (v *VM) activeFrame() *Frame { return v.frames[len(v.frames)-1] }

func (v *VM) push(o object.Object) { v.stack = append(v.stack, object.Retain(o)) }

func (v *VM) pop() object.Object {
	n := len(v.stack)
	top := v.stack[n-1]
	v.stack = v.stack[:n-1]
	return top
}

func (v *VM) peek() object.Object { return v.stack[len(v.stack)-1] }

// Run drains the dispatch loop until the call stack unwinds to just the
// module frame and its pc has reached the end of its instructions.
// ctx is checked before every instruction, in any frame, as a host-abort
// checkpoint (spec.md §5 — not cooperative scheduling).
func (v *VM) Run(ctx context.Context) error {
	for {
		if len(v.frames) == 1 && v.moduleFrame().PC >= len(v.moduleFrame().Code.Instr) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.step(); err != nil {
			return err
		}
	}
}

// Load appends newCode's instructions/constants/names into the module
// frame per spec.md §4.5.6's incremental-load contract (used by the
// REPL) and resumes the dispatch loop from the first appended
// instruction.
func (v *VM) Load(ctx context.Context, newCode *object.Code) error {
	mod := v.moduleFrame().Code
	i0 := len(mod.Instr)

	constMap := make(map[int]int, len(newCode.Constants))
	for i, c := range newCode.Constants {
		constMap[i] = internConstInto(mod, c)
	}
	nameMap := make(map[int]int, len(newCode.Names))
	for i, n := range newCode.Names {
		nameMap[i] = internNameInto(mod, n)
	}

	appended := remapInstructions(newCode.Instr, i0, constMap, nameMap)
	for _, le := range newCode.LineTable {
		mod.LineTable = append(mod.LineTable, object.LineEntry{PC: i0 + le.PC, Line: le.Line})
	}
	mod.Instr = append(mod.Instr, appended...)

	v.moduleFrame().PC = i0
	return v.Run(ctx)
}

func internConstInto(mod *object.Code, c object.Object) int {
	key := c.Kind().String() + ":" + c.String()
	if c.Kind() != object.KFunction && c.Kind() != object.KCode {
		for i, existing := range mod.Constants {
			if existing.Kind() == c.Kind() && existing.Kind().String()+":"+existing.String() == key {
				return i
			}
		}
	}
	mod.Constants = append(mod.Constants, object.Retain(c))
	return len(mod.Constants) - 1
}

func internNameInto(mod *object.Code, n string) int {
	for i, existing := range mod.Names {
		if existing == n {
			return i
		}
	}
	mod.Names = append(mod.Names, n)
	return len(mod.Names) - 1
}

// remapInstructions rewrites instr's 2-byte operands so the snippet can
// be appended at offset base inside the module's already-running Code:
// constant/name indices are remapped into the merged pools, jump
// targets are shifted by base, and operand-as-count opcodes (MAKE_LIST,
// MAKE_DICT) are left untouched.
func remapInstructions(instr []byte, base int, constMap, nameMap map[int]int) []byte {
	out := make([]byte, len(instr))
	copy(out, instr)
	for pc := 0; pc < len(out); {
		op := Opcode(out[pc])
		width := OperandWidth(op)
		if width == 2 {
			old := int(out[pc+1])<<8 | int(out[pc+2])
			var remapped int
			switch op {
			case OP_LOAD_CONST:
				remapped = constMap[old]
			case OP_JUMP, OP_JUMP_IF_FALSE:
				remapped = old + base
			case OP_MAKE_LIST, OP_MAKE_DICT:
				remapped = old
			default:
				remapped = nameMap[old]
			}
			out[pc+1] = byte(remapped >> 8)
			out[pc+2] = byte(remapped)
		}
		pc += 1 + width
	}
	return out
}

// StackDepth reports the operand stack's current height. The REPL uses
// it to snapshot a watermark before Load and recover to it on error.
func (v *VM) StackDepth() int { return len(v.stack) }

// PopTop pops and returns the operand stack's top value, for a REPL
// printing an expression statement's leftover result. ok is false if
// the stack is empty (a bare statement left nothing to print).
func (v *VM) PopTop() (result object.Object, ok bool) {
	if len(v.stack) == 0 {
		return nil, false
	}
	return v.pop(), true
}

// TruncateStack releases and discards every operand above depth n. A
// failed top-level statement can leave partially-evaluated operands on
// the stack; the REPL calls this with the pre-statement depth to
// recover (spec.md §9's per-statement error-recovery note).
func (v *VM) TruncateStack(n int) {
	for len(v.stack) > n {
		object.Release(v.pop())
	}
}

func (v *VM) runtimeErr(kind diag.Kind, code, msg string) error {
	f := v.activeFrame()
	line := f.Code.LineFor(f.PC)
	return diag.New(kind, code, v.file, line, 0, msg)
}

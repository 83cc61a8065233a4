package vm

import (
	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
)

// execCall implements spec.md §4.5.3's CALL protocol: pop the callee,
// pop the args List, then dispatch on the callee's concrete type.
func (v *VM) execCall() error {
	callee := v.pop()
	argsObj := v.pop()

	argsList, ok := argsObj.(*object.List)
	if !ok {
		object.Release(callee)
		object.Release(argsObj)
		return v.runtimeErr(diag.IRError, "I009", "CALL args must be a List")
	}

	switch fn := callee.(type) {
	case *object.NativeFunction:
		res, err := fn.Fn(object.Nil, argsList.Elements)
		object.Release(callee)
		object.Release(argsObj)
		if err != nil {
			return v.wrapOpErr(err)
		}
		if res == nil {
			res = object.Nil
		}
		v.push(res)
		return nil

	case *object.Function:
		if len(argsList.Elements) != fn.Arity {
			object.Release(callee)
			object.Release(argsObj)
			return v.runtimeErr(diag.ArityError, "A001", "'"+fn.Name+"' takes "+itoa(fn.Arity)+" argument(s), got "+itoa(len(argsList.Elements)))
		}
		frame := newFrame(fn.Name, fn.Code)
		frame.ReturnPC = v.activeFrame().PC
		for i := 0; i < fn.Code.ParamCount; i++ {
			frame.Locals[fn.Code.Names[i]] = object.Retain(argsList.Elements[i])
		}
		v.frames = append(v.frames, frame)
		object.Release(callee)
		object.Release(argsObj)
		return nil

	default:
		object.Release(callee)
		object.Release(argsObj)
		return v.runtimeErr(diag.TypeError, "T009", callee.Kind().String()+" is not callable")
	}
}

// execRet implements spec.md §4.5.4's RET protocol.
func (v *VM) execRet() error {
	var retVal object.Object = object.Nil
	if len(v.stack) > 0 {
		retVal = v.pop()
	}
	if len(v.frames) == 1 {
		// A bare top-level `return` outside any function: terminate the
		// module frame in place rather than underflow the call stack.
		v.moduleFrame().PC = len(v.moduleFrame().Code.Instr)
		object.Release(retVal)
		return nil
	}
	popped := v.frames[len(v.frames)-1]
	v.frames = v.frames[:len(v.frames)-1]
	popped.release()
	v.activeFrame().PC = popped.ReturnPC
	v.push(retVal)
	object.Release(retVal)
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// wrapOpErr turns an object.OpError (raised deep inside a magic method)
// into a positioned diag.Error at the active frame's current line.
func (v *VM) wrapOpErr(err error) error {
	if oe, ok := err.(*object.OpError); ok {
		return v.runtimeErr(oe.Kind, "E000", oe.Message)
	}
	return v.runtimeErr(diag.TypeError, "T000", err.Error())
}

func magicSlot(table *object.MagicTable, op Opcode) object.MagicFn {
	if table == nil {
		return nil
	}
	switch op {
	case OP_ADD:
		return table.Add
	case OP_SUB:
		return table.Sub
	case OP_MUL:
		return table.Mul
	case OP_DIV:
		return table.Div
	case OP_MOD:
		return table.Mod
	case OP_POW:
		return table.Pow
	case OP_EQ:
		return table.Eq
	case OP_LT:
		return table.Lt
	case OP_GT:
		return table.Gt
	case OP_IN:
		return table.In
	}
	return nil
}

func (v *VM) execArith(op Opcode) error {
	right := v.pop()
	left := v.pop()
	fn := magicSlot(object.TableFor(left.Kind()), op)
	if fn == nil {
		kind := left.Kind().String()
		other := right.Kind().String()
		object.Release(left)
		object.Release(right)
		return v.runtimeErr(diag.TypeError, "T010", "unsupported operand types for "+op.String()+": "+kind+" and "+other)
	}
	res, err := fn(left, []object.Object{right})
	object.Release(left)
	object.Release(right)
	if err != nil {
		return v.wrapOpErr(err)
	}
	v.push(res)
	return nil
}

func (v *VM) execCompare(op Opcode) error {
	right := v.pop()
	left := v.pop()
	fn := magicSlot(object.TableFor(left.Kind()), op)
	if fn == nil {
		if op == OP_EQ {
			// No eq slot at all (shouldn't happen for any registered
			// type) falls back to reference identity, never a hard error.
			v.push(object.BoolFor(left == right))
			object.Release(left)
			object.Release(right)
			return nil
		}
		kind := left.Kind().String()
		other := right.Kind().String()
		object.Release(left)
		object.Release(right)
		return v.runtimeErr(diag.TypeError, "T011", "unsupported operand types for "+op.String()+": "+kind+" and "+other)
	}
	res, err := fn(left, []object.Object{right})
	object.Release(left)
	object.Release(right)
	if err != nil {
		return v.wrapOpErr(err)
	}
	v.push(res)
	return nil
}

// execIn implements OP_IN's documented stack shape: `[a, b]` with
// `b.in(a, b)` — b (the container, on top) receives the dispatch, a
// (the needle) is the sole argument.
func (v *VM) execIn() error {
	b := v.pop()
	a := v.pop()
	fn := magicSlot(object.TableFor(b.Kind()), OP_IN)
	if fn == nil {
		kind := b.Kind().String()
		object.Release(a)
		object.Release(b)
		return v.runtimeErr(diag.TypeError, "T012", kind+" does not support 'in'")
	}
	res, err := fn(b, []object.Object{a})
	object.Release(a)
	object.Release(b)
	if err != nil {
		return v.wrapOpErr(err)
	}
	v.push(res)
	return nil
}

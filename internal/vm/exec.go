package vm

import (
	"math/big"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
)

func (v *VM) fetch() (Opcode, int) {
	f := v.activeFrame()
	op := Opcode(f.Code.Instr[f.PC])
	operand := 0
	w := OperandWidth(op)
	if w == 2 {
		operand = int(f.Code.Instr[f.PC+1])<<8 | int(f.Code.Instr[f.PC+2])
	}
	return op, operand
}

// step fetches and executes exactly one instruction in the active
// frame (spec.md §4.5.1's fetch-decode-execute loop).
func (v *VM) step() error {
	f := v.activeFrame()
	op, operand := v.fetch()
	f.PC += 1 + OperandWidth(op)

	switch op {
	case OP_LOAD_CONST:
		v.push(f.Code.Constants[operand])
		return nil

	case OP_LOAD_VAR:
		name := f.Code.Names[operand]
		if val, ok := f.Locals[name]; ok {
			v.push(val)
			return nil
		}
		if val, ok := v.builtins[name]; ok {
			v.push(val)
			return nil
		}
		return v.runtimeErr(diag.NameError, "N001", "undefined name '"+name+"'")

	case OP_SET_LOCAL:
		name := f.Code.Names[operand]
		val := v.pop()
		if old, ok := f.Locals[name]; ok {
			object.Release(old)
		}
		f.Locals[name] = val
		return nil

	case OP_SET_GLOBAL:
		name := f.Code.Names[operand]
		val := v.pop()
		g := v.moduleFrame()
		if old, ok := g.Locals[name]; ok {
			object.Release(old)
		}
		g.Locals[name] = val
		return nil

	case OP_SET_NONLOCAL:
		name := f.Code.Names[operand]
		val := v.pop()
		for i := len(v.frames) - 2; i >= 0; i-- {
			if old, ok := v.frames[i].Locals[name]; ok {
				object.Release(old)
				v.frames[i].Locals[name] = val
				return nil
			}
		}
		object.Release(val)
		return v.runtimeErr(diag.NameError, "N002", "no enclosing binding for '"+name+"'")

	case OP_GET_ATTR:
		name := f.Code.Names[operand]
		recv := v.pop()
		attrable, ok := recv.(object.Attributable)
		if !ok {
			object.Release(recv)
			return v.runtimeErr(diag.TypeError, "T001", recv.Kind().String()+" has no attributes")
		}
		val, ok := attrable.GetAttr(name)
		if !ok {
			object.Release(recv)
			return v.runtimeErr(diag.AttrError, "AT001", "no attribute '"+name+"'")
		}
		v.push(val)
		object.Release(recv)
		return nil

	case OP_SET_ATTR:
		name := f.Code.Names[operand]
		val := v.pop()
		recv := v.pop()
		attrable, ok := recv.(object.Attributable)
		if !ok {
			object.Release(recv)
			object.Release(val)
			return v.runtimeErr(diag.TypeError, "T002", recv.Kind().String()+" has no attributes")
		}
		attrable.SetAttr(name, val)
		object.Release(val)
		object.Release(recv)
		return nil

	case OP_INDEX:
		return v.execIndex()

	case OP_MAKE_LIST:
		return v.execMakeList(operand)

	case OP_MAKE_DICT:
		return v.execMakeDict(operand)

	case OP_IMPORT:
		name := f.Code.Names[operand]
		if v.loader == nil {
			return v.runtimeErr(diag.NameError, "N003", "no module registry configured")
		}
		mod, err := v.loader.Load(name)
		if err != nil {
			return v.runtimeErr(diag.NameError, "N004", err.Error())
		}
		v.push(mod)
		return nil

	case OP_CALL:
		return v.execCall()

	case OP_RET:
		return v.execRet()

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_POW:
		return v.execArith(op)

	case OP_NEG:
		return v.execNeg()

	case OP_NOT:
		x := v.pop()
		v.push(object.BoolFor(!object.Truthy(x)))
		object.Release(x)
		return nil

	case OP_EQ, OP_LT, OP_GT:
		return v.execCompare(op)

	case OP_AND, OP_OR:
		b := v.pop()
		a := v.pop()
		ab, aok := a.(*object.Bool)
		bb, bok := b.(*object.Bool)
		if !aok || !bok {
			object.Release(a)
			object.Release(b)
			return v.runtimeErr(diag.TypeError, "T008", "'"+op.String()+"' requires Bool operands")
		}
		var result bool
		if op == OP_AND {
			result = ab.Value && bb.Value
		} else {
			result = ab.Value || bb.Value
		}
		v.push(object.BoolFor(result))
		object.Release(a)
		object.Release(b)
		return nil

	case OP_IS:
		b := v.pop()
		a := v.pop()
		v.push(object.BoolFor(a == b))
		object.Release(a)
		object.Release(b)
		return nil

	case OP_IN:
		return v.execIn()

	case OP_JUMP:
		f.PC = operand
		return nil

	case OP_JUMP_IF_FALSE:
		cond := v.pop()
		falsy := !object.Truthy(cond)
		object.Release(cond)
		if falsy {
			f.PC = operand
		}
		return nil

	case OP_POP_TOP:
		x := v.pop()
		object.Release(x)
		return nil

	case OP_SWAP:
		n := len(v.stack)
		v.stack[n-1], v.stack[n-2] = v.stack[n-2], v.stack[n-1]
		return nil

	case OP_COPY_TOP:
		v.push(v.peek())
		return nil

	case OP_THROW:
		x := v.pop()
		msg := x.String()
		object.Release(x)
		return v.runtimeErr(diag.TypeError, "T013", msg)
	}

	return v.runtimeErr(diag.StackError, "S000", "unknown opcode")
}

func (v *VM) execMakeList(n int) error {
	elems := make([]object.Object, n)
	for i := n - 1; i >= 0; i-- {
		elems[i] = v.pop()
	}
	v.push(object.NewList(elems))
	for _, e := range elems {
		object.Release(e)
	}
	return nil
}

func (v *VM) execMakeDict(n int) error {
	d := object.NewDict()
	pairs := make([][2]object.Object, n)
	for i := n - 1; i >= 0; i-- {
		val := v.pop()
		key := v.pop()
		pairs[i] = [2]object.Object{key, val}
	}
	for _, p := range pairs {
		key, ok := p[0].(*object.String)
		if !ok {
			return v.runtimeErr(diag.TypeError, "T003", "dict key must be a string")
		}
		d.Set(key.Value, p[1])
		object.Release(p[0])
		object.Release(p[1])
	}
	v.push(d)
	return nil
}

func (v *VM) execIndex() error {
	key := v.pop()
	recv := v.pop()
	switch r := recv.(type) {
	case *object.List:
		i, ok := key.(*object.Int)
		if !ok || !i.Value.IsInt64() {
			object.Release(recv)
			object.Release(key)
			return v.runtimeErr(diag.TypeError, "T004", "list index must be an Int")
		}
		idx := int(i.Value.Int64())
		if idx < 0 || idx >= len(r.Elements) {
			object.Release(recv)
			object.Release(key)
			return v.runtimeErr(diag.AttrError, "AT002", "list index out of range")
		}
		v.push(r.Elements[idx])
		object.Release(recv)
		object.Release(key)
		return nil
	case *object.Dict:
		s, ok := key.(*object.String)
		if !ok {
			object.Release(recv)
			object.Release(key)
			return v.runtimeErr(diag.TypeError, "T005", "dict key must be a String")
		}
		val, ok := r.Entries[s.Value]
		object.Release(recv)
		object.Release(key)
		if !ok {
			return v.runtimeErr(diag.AttrError, "AT003", "no key '"+s.Value+"'")
		}
		v.push(val)
		return nil
	default:
		object.Release(recv)
		object.Release(key)
		return v.runtimeErr(diag.TypeError, "T006", recv.Kind().String()+" is not indexable")
	}
}

func (v *VM) execNeg() error {
	x := v.pop()
	defer object.Release(x)
	switch n := x.(type) {
	case *object.Int:
		v.push(object.NewInt(new(big.Int).Neg(n.Value)))
		return nil
	case *object.Rational:
		v.push(object.NewRational(new(big.Rat).Neg(n.Value)))
		return nil
	}
	return v.runtimeErr(diag.TypeError, "T007", "unary '-' unsupported for "+x.Kind().String())
}

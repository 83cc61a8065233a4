package compiler

import (
	"github.com/ember-lang/ember/internal/ast"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/vm"
)

// compileExpr emits code whose net stack effect leaves exactly one
// value on the operand stack (spec.md §4.4).
func (c *Compiler) compileExpr(e ast.Expression) error {
	line := e.Tok().Line
	switch n := e.(type) {
	case *ast.NumberLit:
		idx := c.internConst(buildNumber(n.Text))
		c.emitOp2(line, vm.OP_LOAD_CONST, idx)
		return nil

	case *ast.StringLit:
		idx := c.internConst(object.NewString(n.Value))
		c.emitOp2(line, vm.OP_LOAD_CONST, idx)
		return nil

	case *ast.BoolLit:
		idx := c.internConst(object.BoolFor(n.Value))
		c.emitOp2(line, vm.OP_LOAD_CONST, idx)
		return nil

	case *ast.NullLit:
		idx := c.internConst(object.Nil)
		c.emitOp2(line, vm.OP_LOAD_CONST, idx)
		return nil

	case *ast.Identifier:
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_LOAD_VAR, idx)
		return nil

	case *ast.ListLit:
		for _, el := range n.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emitOp2(line, vm.OP_MAKE_LIST, len(n.Elements))
		return nil

	case *ast.DictLit:
		for _, entry := range n.Entries {
			keyIdx := c.internConst(object.NewString(entry.Key))
			c.emitOp2(line, vm.OP_LOAD_CONST, keyIdx)
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
		}
		c.emitOp2(line, vm.OP_MAKE_DICT, len(n.Entries))
		return nil

	case *ast.Lambda:
		return c.compileFunctionLike(line, "<lambda>", n.Params, func() error {
			if err := c.compileExpr(n.Body); err != nil {
				return err
			}
			c.emitOp(n.Body.Tok().Line, vm.OP_RET)
			return nil
		})

	case *ast.UnaryExpr:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		switch n.Op {
		case "-":
			c.emitOp(line, vm.OP_NEG)
		case "not", "!":
			c.emitOp(line, vm.OP_NOT)
		default:
			return c.errorf(n, "I001", "unknown unary operator "+n.Op)
		}
		return nil

	case *ast.BinaryExpr:
		return c.compileBinary(line, n)

	case *ast.CallExpr:
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.emitOp2(line, vm.OP_MAKE_LIST, len(n.Args))
		if err := c.compileExpr(n.Callee); err != nil {
			return err
		}
		c.emitOp(line, vm.OP_CALL)
		return nil

	case *ast.IndexExpr:
		// `x[i]` is dynamic (i need not be a compile-time constant, so
		// it cannot resolve through the interned name table the way
		// GET_ATTR does); emitted as OP_INDEX with the key computed on
		// the stack. See DESIGN.md's Open Questions table.
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.emitOp(line, vm.OP_INDEX)
		return nil

	case *ast.GetMember:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_GET_ATTR, idx)
		return nil
	}
	return c.errorf(e, "I003", "unsupported expression node")
}

func (c *Compiler) compileBinary(line int, n *ast.BinaryExpr) error {
	switch n.Op {
	case "and":
		return c.compileLogical(line, n, vm.OP_AND)
	case "or":
		return c.compileLogical(line, n, vm.OP_OR)
	case "not in":
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(n.Right); err != nil {
			return err
		}
		c.emitOp(line, vm.OP_IN)
		c.emitOp(line, vm.OP_NOT)
		return nil
	}

	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	switch n.Op {
	case "+":
		c.emitOp(line, vm.OP_ADD)
	case "-":
		c.emitOp(line, vm.OP_SUB)
	case "*":
		c.emitOp(line, vm.OP_MUL)
	case "/":
		c.emitOp(line, vm.OP_DIV)
	case "%":
		c.emitOp(line, vm.OP_MOD)
	case "^":
		c.emitOp(line, vm.OP_POW)
	case "==":
		c.emitOp(line, vm.OP_EQ)
	case "!=":
		c.emitOp(line, vm.OP_EQ)
		c.emitOp(line, vm.OP_NOT)
	case "<":
		c.emitOp(line, vm.OP_LT)
	case ">":
		c.emitOp(line, vm.OP_GT)
	case "<=":
		c.emitOp(line, vm.OP_GT)
		c.emitOp(line, vm.OP_NOT)
	case ">=":
		c.emitOp(line, vm.OP_LT)
		c.emitOp(line, vm.OP_NOT)
	case "in":
		c.emitOp(line, vm.OP_IN)
	default:
		return c.errorf(n, "I004", "unknown binary operator "+n.Op)
	}
	return nil
}

// compileLogical emits `and`/`or` per spec.md §6.1: both operands are
// evaluated eagerly (no short-circuit), then a single OP_AND/OP_OR
// opcode combines them, requiring both sides to be Bool.
func (c *Compiler) compileLogical(line int, n *ast.BinaryExpr, op vm.Opcode) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	c.emitOp(line, op)
	return nil
}

package compiler

import (
	"github.com/ember-lang/ember/internal/ast"
	"github.com/ember-lang/ember/internal/object"
	"github.com/ember-lang/ember/internal/vm"
)

// compileStmt emits code whose net stack effect is zero (spec.md §4.4).
func (c *Compiler) compileStmt(s ast.Statement) error {
	line := s.Tok().Line
	switch n := s.(type) {
	case *ast.VarDecl:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_SET_LOCAL, idx)
		return nil

	case *ast.Assign:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		ident, ok := n.Target.(*ast.Identifier)
		if !ok {
			return c.errorf(n, "I005", "invalid assignment target")
		}
		idx := c.internName(ident.Name)
		c.emitOp2(line, vm.OP_SET_LOCAL, idx)
		return nil

	case *ast.SetMember:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_SET_ATTR, idx)
		return nil

	case *ast.FuncDef:
		if err := c.compileFunctionLike(line, n.Name, n.Params, func() error {
			return c.compileBlock(n.Body)
		}); err != nil {
			return err
		}
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_SET_LOCAL, idx)
		return nil

	case *ast.IfStmt:
		return c.compileIf(n)

	case *ast.WhileStmt:
		return c.compileWhile(n)

	case *ast.ReturnStmt:
		if n.Value != nil {
			if err := c.compileExpr(n.Value); err != nil {
				return err
			}
		} else {
			idx := c.internConst(object.Nil)
			c.emitOp2(line, vm.OP_LOAD_CONST, idx)
		}
		c.emitOp(line, vm.OP_RET)
		return nil

	case *ast.BreakStmt:
		if len(c.loops) == 0 {
			return c.errorf(n, "I006", "'break' outside a loop")
		}
		top := c.loops[len(c.loops)-1]
		pos := c.emitOp2(line, vm.OP_JUMP, 0)
		top.breakPatches = append(top.breakPatches, pos)
		return nil

	case *ast.ContinueStmt:
		if len(c.loops) == 0 {
			return c.errorf(n, "I007", "'continue' outside a loop")
		}
		top := c.loops[len(c.loops)-1]
		c.emitOp2(line, vm.OP_JUMP, top.entryPC)
		return nil

	case *ast.ImportStmt:
		idx := c.internName(n.Name)
		c.emitOp2(line, vm.OP_IMPORT, idx)
		c.emitOp2(line, vm.OP_SET_LOCAL, idx)
		return nil

	case *ast.ExprStmt:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.emitOp(line, vm.OP_POP_TOP)
		return nil

	case *ast.Block:
		return c.compileBlock(n)
	}
	return c.errorf(s, "I008", "unsupported statement node")
}

func (c *Compiler) compileBlock(b *ast.Block) error {
	for _, stmt := range b.Statements {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileIf implements spec.md §4.4's if-emission pattern, recursing
// through the else-if chain that the parser builds as nested IfStmt
// nodes in the ElseIf field.
func (c *Compiler) compileIf(n *ast.IfStmt) error {
	line := n.Tok().Line
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	elseJump := c.emitOp2(line, vm.OP_JUMP_IF_FALSE, 0)
	if err := c.compileBlock(n.Then); err != nil {
		return err
	}
	endJump := c.emitOp2(line, vm.OP_JUMP, 0)
	c.patch2(elseJump, c.here())
	if n.ElseIf != nil {
		if err := c.compileIf(n.ElseIf); err != nil {
			return err
		}
	} else if n.Else != nil {
		if err := c.compileBlock(n.Else); err != nil {
			return err
		}
	}
	c.patch2(endJump, c.here())
	return nil
}

func (c *Compiler) compileWhile(n *ast.WhileStmt) error {
	line := n.Tok().Line
	entry := c.here()
	c.loops = append(c.loops, &loopCtx{entryPC: entry})

	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	exitJump := c.emitOp2(line, vm.OP_JUMP_IF_FALSE, 0)
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.emitOp2(line, vm.OP_JUMP, entry)

	exitPC := c.here()
	c.patch2(exitJump, exitPC)
	top := c.loops[len(c.loops)-1]
	for _, pos := range top.breakPatches {
		c.patch2(pos, exitPC)
	}
	c.loops = c.loops[:len(c.loops)-1]
	return nil
}

// compileFunctionLike implements spec.md §4.4's "nested-scope semantics
// for func-def": save the outer buffers, compile the body into fresh
// ones (parameters pre-interned as the leading Names entries), ensure
// the body ends in RET, build a Code object, restore the outer buffers,
// and load the wrapping Function as a constant. Shared by named
// func-defs and anonymous lambdas; the caller (compileStmt for FuncDef,
// compileExpr for Lambda) is responsible for binding the loaded value.
func (c *Compiler) compileFunctionLike(line int, name string, params []string, emitBody func() error) error {
	savedInstr, savedConsts, savedNames, savedLines, savedLastLine, savedLastOp, savedHasLastOp, savedLoops := c.push()

	for _, p := range params {
		c.internName(p)
	}
	if err := emitBody(); err != nil {
		c.pop(savedInstr, savedConsts, savedNames, savedLines, savedLastLine, savedLastOp, savedHasLastOp, savedLoops)
		return err
	}
	if !c.hasLastOp || c.lastOp != vm.OP_RET {
		nilIdx := c.internConst(object.Nil)
		c.emitOp2(line, vm.OP_LOAD_CONST, nilIdx)
		c.emitOp(line, vm.OP_RET)
	}

	code := c.finish(name, len(params))
	c.pop(savedInstr, savedConsts, savedNames, savedLines, savedLastLine, savedLastOp, savedHasLastOp, savedLoops)

	fn := object.NewFunction(name, code, len(params))
	idx := c.internConst(fn)
	c.emitOp2(line, vm.OP_LOAD_CONST, idx)
	return nil
}

// Package compiler lowers a parsed ast.Program into flat, instruction-
// indexed Bytecode that the vm package can execute directly.
//
// Rather than the visitor double-dispatch the AST itself no longer
// implements, the Compiler walks the tree with a plain exhaustive type
// switch per node kind. Jump targets are resolved with the same
// emit-placeholder-then-patch technique used for backpatching forward
// jumps in any single-pass bytecode compiler: a jump instruction is
// emitted with a nil Arg, its index is remembered, and once the
// instructions it needs to jump over have been emitted the placeholder is
// overwritten with the now-known relative delta.
package compiler

import (
	"fmt"
	"indentlang/ast"
)

// Compiler accumulates Bytecode for a single compilation.
type Compiler struct {
	instructions Bytecode
}

// New returns an empty Compiler.
func New() *Compiler {
	return &Compiler{}
}

// CompileProgram compiles an entire program to Bytecode.
func CompileProgram(program ast.Program) (Bytecode, error) {
	c := New()
	if err := c.compileStatements(program.Body); err != nil {
		return nil, err
	}
	return c.instructions, nil
}

// emit appends an instruction and returns its index, for later patching.
func (c *Compiler) emit(op Opcode, arg any) int {
	c.instructions = append(c.instructions, Instruction{Op: op, Arg: arg})
	return len(c.instructions) - 1
}

// patchJump overwrites the Arg of a previously emitted jump instruction
// with the relative delta from the instruction after it to the current
// end of the instruction stream.
func (c *Compiler) patchJump(index int) {
	delta := len(c.instructions) - (index + 1)
	c.instructions[index].Arg = delta
}

func (c *Compiler) compileStatements(statements []ast.Stmt) error {
	for _, statement := range statements {
		if err := c.compileStmt(statement); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.ExprStatement:
		if err := c.compileExpr(s.Expression); err != nil {
			return err
		}
		c.emit(POP, nil)
		return nil

	case ast.Assignment:
		return c.compileAssignment(s)

	case ast.Conditional:
		return c.compileConditional(s)

	default:
		return InternalError{Message: fmt.Sprintf("unknown statement type %T", stmt)}
	}
}

// compileAssignment computes the right-hand side once and binds it to
// every target in turn, duplicating the value on the stack for every
// target but the last so that `a = b = c = expr` binds all three names to
// the same value with a single evaluation of expr.
func (c *Compiler) compileAssignment(stmt ast.Assignment) error {
	if err := c.compileExpr(stmt.Value); err != nil {
		return err
	}
	for i, target := range stmt.Targets {
		if i < len(stmt.Targets)-1 {
			c.emit(COPY, nil)
		}
		c.emit(SAVE, target.Name)
	}
	return nil
}

// compileConditional lowers an `if`/`elif`/`else` form. An elif clause
// arrives here as a Conditional nested as the sole statement of Orelse, so
// this handles the general if/else shape and recurses naturally through
// compileStatements for nested elif chains.
func (c *Compiler) compileConditional(stmt ast.Conditional) error {
	if err := c.compileExpr(stmt.Condition); err != nil {
		return err
	}
	jumpIfFalse := c.emit(POP_JUMP_IF_FALSE, nil)

	if err := c.compileStatements(stmt.Body.Statements); err != nil {
		return err
	}

	if len(stmt.Orelse.Statements) == 0 {
		c.patchJump(jumpIfFalse)
		return nil
	}

	jumpOverElse := c.emit(JUMP_FORWARD, nil)
	c.patchJump(jumpIfFalse)
	if err := c.compileStatements(stmt.Orelse.Statements); err != nil {
		return err
	}
	c.patchJump(jumpOverElse)
	return nil
}

func (c *Compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case ast.Constant:
		c.emit(PUSH, e.Value)
		return nil

	case ast.Variable:
		c.emit(LOAD, e.Name)
		return nil

	case ast.BinOp:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.emit(BINOP, e.Operator)
		return nil

	case ast.UnaryOp:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		c.emit(UNARYOP, e.Operator)
		return nil

	case ast.Not:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		c.emit(UNARYOP, ast.Invert)
		return nil

	case ast.BoolOp:
		return c.compileBoolOp(e)

	default:
		return InternalError{Message: fmt.Sprintf("unknown expression type %T", expr)}
	}
}

// compileBoolOp lowers a flattened run of `and`/`or` operands with
// short-circuit semantics: every operand but the last is duplicated and
// tested, jumping past the remaining operands (leaving the tested value as
// the expression's result) the moment the outcome is decided; only if
// every earlier operand fails to short-circuit does control fall through
// to evaluate the final operand, whose value is the result unconditionally.
func (c *Compiler) compileBoolOp(expr ast.BoolOp) error {
	jumpOp := POP_JUMP_IF_FALSE
	if expr.Operator == ast.Or {
		jumpOp = POP_JUMP_IF_TRUE
	}

	var jumps []int
	for i, value := range expr.Values {
		if err := c.compileExpr(value); err != nil {
			return err
		}
		if i == len(expr.Values)-1 {
			break
		}
		c.emit(COPY, nil)
		jumps = append(jumps, c.emit(jumpOp, nil))
		c.emit(POP, nil)
	}

	for _, idx := range jumps {
		c.patchJump(idx)
	}
	return nil
}

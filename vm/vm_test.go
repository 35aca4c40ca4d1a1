package vm

import (
	"indentlang/ast"
	"indentlang/compiler"
	"testing"
)

func runBytecode(t *testing.T, bc compiler.Bytecode) *VM {
	t.Helper()
	machine := New()
	if err := machine.Run(bc); err != nil {
		t.Fatalf("Run() raised an error: %v", err)
	}
	return machine
}

func TestRunArithmeticExpression(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(3)},
		{Op: compiler.PUSH, Arg: int64(5)},
		{Op: compiler.BINOP, Arg: ast.Add},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != int64(8) {
		t.Errorf("LastPopped() = %v, want 8", machine.LastPopped())
	}
}

func TestRunChainedAssignment(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(3)},
		{Op: compiler.COPY, Arg: nil},
		{Op: compiler.SAVE, Arg: "a"},
		{Op: compiler.COPY, Arg: nil},
		{Op: compiler.SAVE, Arg: "b"},
		{Op: compiler.SAVE, Arg: "c"},
	}
	machine := runBytecode(t, bc)
	for _, name := range []string{"a", "b", "c"} {
		value, ok := machine.Environment().Get(name)
		if !ok || value != int64(3) {
			t.Errorf("env[%q] = %v, %v; want 3, true", name, value, ok)
		}
	}
}

func TestRunDivisionAlwaysFloat(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(6)},
		{Op: compiler.PUSH, Arg: int64(3)},
		{Op: compiler.BINOP, Arg: ast.Div},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != float64(2) {
		t.Errorf("LastPopped() = %v (%T), want 2.0 (float64)", machine.LastPopped(), machine.LastPopped())
	}
}

func TestRunFlooredModuloNegative(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(-7)},
		{Op: compiler.PUSH, Arg: int64(3)},
		{Op: compiler.BINOP, Arg: ast.Mod},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != int64(2) {
		t.Errorf("LastPopped() = %v, want 2 (floored modulo)", machine.LastPopped())
	}
}

func TestRunNegativeExponentYieldsFloat(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(2)},
		{Op: compiler.PUSH, Arg: int64(-1)},
		{Op: compiler.BINOP, Arg: ast.Pow},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != float64(0.5) {
		t.Errorf("LastPopped() = %v, want 0.5", machine.LastPopped())
	}
}

func TestRunBooleanCoercesToIntInArithmetic(t *testing.T) {
	// True + 1 -- a bare bool is a valid arithmetic operand, coercing to 1/0.
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: true},
		{Op: compiler.PUSH, Arg: int64(1)},
		{Op: compiler.BINOP, Arg: ast.Add},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != int64(2) {
		t.Errorf("LastPopped() = %v (%T), want 2 (int64)", machine.LastPopped(), machine.LastPopped())
	}
}

func TestRunUnaryMinusOnBoolean(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: true},
		{Op: compiler.UNARYOP, Arg: ast.Neg},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != int64(-1) {
		t.Errorf("LastPopped() = %v, want -1", machine.LastPopped())
	}
}

func TestRunBooleanShortCircuitAnd(t *testing.T) {
	// False and (undefined variable) -- short circuit must avoid the LOAD.
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: false},
		{Op: compiler.COPY, Arg: nil},
		{Op: compiler.POP_JUMP_IF_FALSE, Arg: 2},
		{Op: compiler.POP, Arg: nil},
		{Op: compiler.LOAD, Arg: "undefined"},
		{Op: compiler.POP, Arg: nil},
	}
	machine := runBytecode(t, bc)
	if machine.LastPopped() != false {
		t.Errorf("LastPopped() = %v, want false", machine.LastPopped())
	}
}

func TestRunConditionalTakesThenBranch(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: true},
		{Op: compiler.POP_JUMP_IF_FALSE, Arg: 3},
		{Op: compiler.PUSH, Arg: int64(1)},
		{Op: compiler.SAVE, Arg: "b"},
		{Op: compiler.JUMP_FORWARD, Arg: 2},
		{Op: compiler.PUSH, Arg: int64(2)},
		{Op: compiler.SAVE, Arg: "b"},
	}
	machine := runBytecode(t, bc)
	value, ok := machine.Environment().Get("b")
	if !ok || value != int64(1) {
		t.Errorf("env[b] = %v, %v; want 1, true", value, ok)
	}
}

func TestRunConditionalTakesElseBranch(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: false},
		{Op: compiler.POP_JUMP_IF_FALSE, Arg: 3},
		{Op: compiler.PUSH, Arg: int64(1)},
		{Op: compiler.SAVE, Arg: "b"},
		{Op: compiler.JUMP_FORWARD, Arg: 2},
		{Op: compiler.PUSH, Arg: int64(2)},
		{Op: compiler.SAVE, Arg: "b"},
	}
	machine := runBytecode(t, bc)
	value, ok := machine.Environment().Get("b")
	if !ok || value != int64(2) {
		t.Errorf("env[b] = %v, %v; want 2, true", value, ok)
	}
}

func TestRunUndefinedVariableIsRuntimeError(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.LOAD, Arg: "missing"},
		{Op: compiler.POP, Arg: nil},
	}
	machine := New()
	err := machine.Run(bc)
	if err == nil {
		t.Fatalf("expected a RuntimeError for an undefined variable")
	}
	if _, ok := err.(RuntimeError); !ok {
		t.Errorf("error = %T, want RuntimeError", err)
	}
}

func TestRunDivisionByZero(t *testing.T) {
	bc := compiler.Bytecode{
		{Op: compiler.PUSH, Arg: int64(1)},
		{Op: compiler.PUSH, Arg: int64(0)},
		{Op: compiler.BINOP, Arg: ast.Div},
		{Op: compiler.POP, Arg: nil},
	}
	machine := New()
	if err := machine.Run(bc); err == nil {
		t.Fatalf("expected a RuntimeError for division by zero")
	}
}

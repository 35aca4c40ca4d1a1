package compiler

import (
	"fmt"
	"strings"
)

// Opcode identifies the operation a single Instruction performs.
type Opcode byte

// opcodes
// iota generates a distinct byte for each bytecode
const (
	// PUSH pushes its Arg (an int64, float64 or bool constant) onto the
	// value stack.
	PUSH Opcode = iota

	// POP discards the top of the value stack, recording it as the last
	// popped value.
	POP

	// COPY duplicates the top of the value stack.
	COPY

	// LOAD pushes the current value bound to the name named by Arg.
	LOAD

	// SAVE pops the top of the value stack and binds it to the name named
	// by Arg.
	SAVE

	// BINOP pops two values, applies the ast.Operator named by Arg and
	// pushes the result.
	BINOP

	// UNARYOP pops one value, applies the ast.Operator named by Arg and
	// pushes the result.
	UNARYOP

	// POP_JUMP_IF_FALSE pops the top of the stack; if it is falsy, the
	// instruction pointer advances by Arg (an int, relative to the next
	// instruction) instead of by one.
	POP_JUMP_IF_FALSE

	// POP_JUMP_IF_TRUE mirrors POP_JUMP_IF_FALSE for a truthy value.
	POP_JUMP_IF_TRUE

	// JUMP_FORWARD unconditionally advances the instruction pointer by Arg
	// (an int, relative to the next instruction) instead of by one.
	JUMP_FORWARD
)

var opcodeNames = map[Opcode]string{
	PUSH:              "PUSH",
	POP:               "POP",
	COPY:              "COPY",
	LOAD:              "LOAD",
	SAVE:              "SAVE",
	BINOP:             "BINOP",
	UNARYOP:           "UNARYOP",
	POP_JUMP_IF_FALSE: "POP_JUMP_IF_FALSE",
	POP_JUMP_IF_TRUE:  "POP_JUMP_IF_TRUE",
	JUMP_FORWARD:      "JUMP_FORWARD",
}

// String returns the opcode's mnemonic name.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Instruction is a single bytecode instruction. Arg's type depends on Op:
// an ast.Operator for BINOP/UNARYOP, a string for LOAD/SAVE, an int64,
// float64 or bool for PUSH, an int jump delta for the jump opcodes, and nil
// for POP/COPY.
type Instruction struct {
	Op  Opcode
	Arg any
}

// Bytecode is the flat, instruction-indexed program the compiler produces
// and the VM executes. Jump instructions carry deltas measured in whole
// instructions rather than bytes, so the VM's instruction pointer simply
// indexes into this slice.
type Bytecode []Instruction

// String renders the bytecode one instruction per line, prefixed with its
// index, for use in tests and debugging.
func (bc Bytecode) String() string {
	var b strings.Builder
	for i, instr := range bc {
		if instr.Arg != nil {
			fmt.Fprintf(&b, "%04d %s %v\n", i, instr.Op, instr.Arg)
		} else {
			fmt.Fprintf(&b, "%04d %s\n", i, instr.Op)
		}
	}
	return b.String()
}
